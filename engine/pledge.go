/*
pledge.go - Pledge validation, allocation math, match, collection recompute

PURPOSE:

	The pledge engine: every derived field on a Pledge is computed here from
	first principles. These are pure functions over the pledge and its related
	documents - they never touch storage, which keeps them trivially testable
	and safe to call any number of times.

RECOMPUTE, DON'T ACCUMULATE:

	RecomputeCollection always re-derives totals from the full submitted
	donation set. There is no incremental "add this donation's amount" path.
	This makes the function idempotent and order-independent: a stray second
	recompute after a cancel produces the same result as the first, and a
	crash between cascade steps is healed by the next full recompute.

SEE ALSO:
  - donation.go: Donation-side validation that feeds this recompute
  - schedule.go: Payment schedule generation
  - service.go: Lifecycle orchestration calling these functions
*/
package engine

import (
	"time"

	"github.com/unitedfund/pledge-engine/money"
)

// =============================================================================
// ALLOCATION VALIDATION
// =============================================================================

// ValidateAllocations enforces the allocation invariants:
//   - at least one allocation line
//   - percentages sum to 100 within ±0.01
//   - no agency appears twice
func ValidateAllocations(p *Pledge) error {
	if len(p.Allocations) == 0 {
		return &AllocationError{Empty: true}
	}

	percentages := make([]money.Percent, len(p.Allocations))
	total := money.ZeroPercent()
	for i, a := range p.Allocations {
		percentages[i] = a.Percentage
		total = total.Add(a.Percentage)
	}
	if !money.SumsTo100(percentages) {
		return &AllocationError{Total: total}
	}

	seen := make(map[OrgID]bool, len(p.Allocations))
	var dups []OrgID
	for _, a := range p.Allocations {
		if seen[a.Agency] {
			dups = append(dups, a.Agency)
		}
		seen[a.Agency] = true
	}
	if len(dups) > 0 {
		return &AllocationError{Duplicates: dups}
	}

	return nil
}

// ComputeAllocationAmounts writes each line's allocated dollar amount from
// its percentage. Pure: the only side effect is writing the line.
func ComputeAllocationAmounts(p *Pledge) {
	for i := range p.Allocations {
		p.Allocations[i].AllocatedAmount = money.PercentOf(p.Amount, p.Allocations[i].Percentage)
	}
}

// =============================================================================
// CORPORATE MATCH
// =============================================================================

// ComputeMatch returns the expected corporate match for a pledge.
// Zero when the pledge is not match-eligible or the donor's employer has
// no match program; otherwise pledgeAmount × ratio, capped when a cap is
// configured.
func ComputeMatch(p *Pledge, org *Organization) money.Amount {
	if !p.EligibleForMatch {
		return money.Zero()
	}
	if org == nil || !org.CorporateMatch || org.MatchRatio.IsZero() {
		return money.Zero()
	}

	match := money.PercentOf(p.Amount, org.MatchRatio)
	if org.MatchCap != nil {
		match = match.Min(*org.MatchCap)
	}
	return match
}

// =============================================================================
// COLLECTION RECOMPUTE
// =============================================================================

// RecomputeCollection re-derives all collection fields from the full
// donation set. Only submitted donations linked to this pledge count.
// Idempotent: calling twice with the same donations yields the same pledge.
func RecomputeCollection(p *Pledge, donations []Donation) {
	collected := money.Zero()
	var lastPayment *time.Time

	for _, d := range donations {
		if d.Status != Submitted || d.Pledge != p.ID {
			continue
		}
		collected = collected.Add(d.Amount)
		if lastPayment == nil || d.Date.After(*lastPayment) {
			t := d.Date
			lastPayment = &t
		}
	}

	p.TotalCollected = collected
	p.OutstandingBalance = p.Amount.Sub(collected)
	p.CollectionPercentage = money.Ratio(collected, p.Amount)
	p.LastPaymentDate = lastPayment

	switch {
	case collected.IsZero():
		p.CollectionStatus = CollectionNotStarted
	case collected.GreaterThanOrEqual(p.Amount):
		p.CollectionStatus = CollectionFullyCollected
	default:
		p.CollectionStatus = CollectionInProgress
	}
}

// ValidatePledge runs the document-level checks that gate a save/submit.
func ValidatePledge(p *Pledge) error {
	if p.Campaign == "" {
		return &ValidationError{Field: "campaign", Message: "campaign is required"}
	}
	if p.Donor == "" {
		return &ValidationError{Field: "donor", Message: "donor is required"}
	}
	if !p.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "pledge amount must be greater than zero"}
	}
	return ValidateAllocations(p)
}
