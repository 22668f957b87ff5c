/*
remittance.go - Batch intake validation and totals

PURPOSE:

	Document-level rules for remittances and batch deposits: item
	requirements, campaign defaulting, and the declared-vs-items variance.
	The fan-out into Donations lives in service.go because it needs storage.
*/
package engine

import (
	"fmt"

	"github.com/unitedfund/pledge-engine/money"
)

// ValidateRemittance checks every item has a donor and positive amount,
// applies the batch default campaign to items without one, and recomputes
// the batch totals. The campaign default never overwrites an item-level
// campaign.
func ValidateRemittance(r *Remittance) error {
	if len(r.Items) == 0 {
		return &ValidationError{Field: "items", Message: "remittance must have at least one item"}
	}

	for i := range r.Items {
		item := &r.Items[i]
		if item.Campaign == "" {
			item.Campaign = r.Campaign
		}
		if item.Donor == "" {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("row %d: donor is required", i+1)}
		}
		if !item.Amount.IsPositive() {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("row %d: amount must be greater than zero", i+1)}
		}
		if item.Campaign == "" {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("row %d: campaign is required (no batch default set)", i+1)}
		}
	}

	RecomputeRemittanceTotals(r)
	return nil
}

// RecomputeRemittanceTotals derives itemsTotal and the declared-total
// variance. Variance is diagnostic only; it never blocks.
func RecomputeRemittanceTotals(r *Remittance) {
	total := money.Zero()
	for _, item := range r.Items {
		total = total.Add(item.Amount)
	}
	r.ItemsTotal = total
	r.Variance = r.DeclaredTotal.Sub(total)
}

// CheckVariance returns a warning when the declared total disagrees with
// the items total.
func CheckVariance(r *Remittance) *Warning {
	if r.Variance.IsZero() {
		return nil
	}
	w := VarianceWarning(r.DeclaredTotal, r.ItemsTotal)
	return &w
}
