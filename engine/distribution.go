/*
distribution.go - Agency distribution waterfall

PURPOSE:

	Computes, per member agency, how much of a campaign's collections can
	be paid out this period. Each run only distributes the portion of
	collections not claimed by a prior submitted run, clamped at zero, so
	for any agency the sum of all runs' distribution amounts can never
	exceed its collected total - the waterfall invariant holds by
	construction.

PROPORTIONAL COLLECTIONS:

	An agency's collected share is its allocated amount scaled by the
	pledge's overall collection percentage, not traced donation-by-donation.
	A pledge 60% collected contributes 60% of each agency's allocation.
	This approximation is deliberate and matches the accounting treatment
	used by the distribution committee.
*/
package engine

import (
	"fmt"
	"sort"

	"github.com/unitedfund/pledge-engine/money"
)

// AgencyCollection is the per-agency aggregate over a campaign's
// submitted pledges.
type AgencyCollection struct {
	Agency         OrgID
	TotalAllocated money.Amount
	TotalCollected money.Amount
}

// CollectByAgency aggregates allocated and proportionally-collected
// amounts per agency over the submitted pledges of a campaign.
func CollectByAgency(campaign CampaignID, pledges []Pledge) []AgencyCollection {
	type agg struct {
		allocated money.Amount
		collected money.Amount
	}
	byAgency := make(map[OrgID]*agg)

	for _, p := range pledges {
		if p.Status != Submitted || p.Campaign != campaign {
			continue
		}
		for _, a := range p.Allocations {
			entry := byAgency[a.Agency]
			if entry == nil {
				entry = &agg{allocated: money.Zero(), collected: money.Zero()}
				byAgency[a.Agency] = entry
			}
			entry.allocated = entry.allocated.Add(a.AllocatedAmount)
			entry.collected = entry.collected.Add(money.PercentOf(a.AllocatedAmount, p.CollectionPercentage))
		}
	}

	agencies := make([]OrgID, 0, len(byAgency))
	for agency := range byAgency {
		agencies = append(agencies, agency)
	}
	sort.Slice(agencies, func(i, j int) bool { return agencies[i] < agencies[j] })

	result := make([]AgencyCollection, 0, len(agencies))
	for _, agency := range agencies {
		result = append(result, AgencyCollection{
			Agency:         agency,
			TotalAllocated: byAgency[agency].allocated,
			TotalCollected: byAgency[agency].collected,
		})
	}
	return result
}

// PreviouslyDistributed sums, per agency, distribution amounts from prior
// submitted runs of the same campaign.
func PreviouslyDistributed(campaign CampaignID, priorRuns []DistributionRun) map[OrgID]money.Amount {
	prev := make(map[OrgID]money.Amount)
	for _, run := range priorRuns {
		if run.Status != Submitted || run.Campaign != campaign {
			continue
		}
		for _, item := range run.Items {
			current, ok := prev[item.Agency]
			if !ok {
				current = money.Zero()
			}
			prev[item.Agency] = current.Add(item.DistributionAmount)
		}
	}
	return prev
}

// BuildDistributionItems computes this period's payout per agency:
//
//	distribution = max(totalCollected - previouslyDistributed, 0)
//
// Agencies with nothing to distribute are omitted entirely.
func BuildDistributionItems(campaign CampaignID, pledges []Pledge, priorRuns []DistributionRun) []DistributionItem {
	collections := CollectByAgency(campaign, pledges)
	prev := PreviouslyDistributed(campaign, priorRuns)

	var items []DistributionItem
	for _, c := range collections {
		previously, ok := prev[c.Agency]
		if !ok {
			previously = money.Zero()
		}
		amount := c.TotalCollected.Sub(previously).Max(money.Zero())
		if !amount.IsPositive() {
			continue
		}
		items = append(items, DistributionItem{
			Agency:                c.Agency,
			TotalAllocated:        c.TotalAllocated,
			TotalCollected:        c.TotalCollected,
			PreviouslyDistributed: previously,
			DistributionAmount:    amount,
		})
	}
	return items
}

// ValidateRun checks period ordering and item amounts, and recomputes the
// run's totals. Zero or negative item amounts are rejected at the document
// level, not just at build time.
func ValidateRun(run *DistributionRun) error {
	if run.Campaign == "" {
		return &ValidationError{Field: "campaign", Message: "campaign is required"}
	}
	if run.PeriodEnd.Before(run.PeriodStart) {
		return &ValidationError{Field: "period_end", Message: "period end cannot be before period start"}
	}
	if len(run.Items) == 0 {
		return &ValidationError{Field: "items", Message: "distribution run must have at least one item"}
	}
	for i, item := range run.Items {
		if item.Agency == "" {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("row %d: agency is required", i+1)}
		}
		if !item.DistributionAmount.IsPositive() {
			return &ValidationError{
				Field:   "items",
				Message: fmt.Sprintf("row %d: distribution amount for %s must be greater than zero", i+1, item.Agency),
			}
		}
	}

	total := money.Zero()
	for _, item := range run.Items {
		total = total.Add(item.DistributionAmount)
	}
	run.TotalDistribution = total
	run.AgencyCount = len(run.Items)
	return nil
}
