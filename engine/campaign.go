/*
campaign.go - Campaign-level rollups

PURPOSE:

	Aggregates pledge and donation totals into campaign KPIs. Called after
	every pledge or donation submit/cancel that touches the campaign.

ALWAYS A FULL RE-SCAN:

	The rollup never applies deltas. Recomputing from the complete submitted
	document set guarantees eventual correctness no matter what order
	submits and cancels arrive in, and makes a second stray recompute a
	harmless no-op.
*/
package engine

import (
	"github.com/unitedfund/pledge-engine/money"
)

// ValidateCampaign checks date ordering and goal sanity.
func ValidateCampaign(c *Campaign) error {
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return &ValidationError{Field: "end_date", Message: "end date cannot be before start date"}
	}
	if c.Goal.IsNegative() {
		return &ValidationError{Field: "goal", Message: "fundraising goal cannot be negative"}
	}
	return nil
}

// RecomputeCampaign re-derives all campaign rollup fields from the full
// pledge and donation sets. Only submitted documents belonging to this
// campaign count. Idempotent.
func RecomputeCampaign(c *Campaign, pledges []Pledge, donations []Donation) {
	totalPledged := money.Zero()
	pledgeCount := 0
	donors := make(map[DonorID]bool)

	for _, p := range pledges {
		if p.Status != Submitted || p.Campaign != c.ID {
			continue
		}
		totalPledged = totalPledged.Add(p.Amount)
		pledgeCount++
		donors[p.Donor] = true
	}

	totalCollected := money.Zero()
	for _, d := range donations {
		if d.Status != Submitted || d.Campaign != c.ID {
			continue
		}
		totalCollected = totalCollected.Add(d.Amount)
	}

	c.TotalPledged = totalPledged
	c.TotalCollected = totalCollected
	c.PledgeCount = pledgeCount
	c.DonorCount = len(donors)
	c.PercentOfGoal = money.Ratio(totalPledged, c.Goal)
	c.CollectionRate = money.Ratio(totalCollected, totalPledged)
}
