/*
donation.go - Donation validation against its linked pledge

PURPOSE:

	A donation may optionally pay down a pledge. When it does, the donation
	and pledge must agree on campaign and donor - a mismatch is a hard
	consistency failure. Overpayment (donations exceeding the pledge amount)
	is allowed and only produces a warning; generous donors are not an error.

SEE ALSO:
  - pledge.go: RecomputeCollection consumes submitted donations
  - service.go: Submit/cancel cascade ordering
*/
package engine

import (
	"github.com/unitedfund/pledge-engine/money"
)

// ValidateDonation runs document-level checks that gate a save/submit.
func ValidateDonation(d *Donation) error {
	if d.Donor == "" {
		return &ValidationError{Field: "donor", Message: "donor is required"}
	}
	if d.Campaign == "" {
		return &ValidationError{Field: "campaign", Message: "campaign is required"}
	}
	if !d.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "donation amount must be greater than zero"}
	}
	return nil
}

// ValidateLink checks cross-entity consistency between a donation and the
// pledge it is linked to. Campaign and donor must both match.
func ValidateLink(d *Donation, p *Pledge) error {
	if p.Campaign != d.Campaign {
		return &ConsistencyError{
			Field:    "campaign",
			Donation: d.ID,
			Pledge:   p.ID,
			Got:      string(d.Campaign),
			Want:     string(p.Campaign),
		}
	}
	if p.Donor != d.Donor {
		return &ConsistencyError{
			Field:    "donor",
			Donation: d.ID,
			Pledge:   p.ID,
			Got:      string(d.Donor),
			Want:     string(p.Donor),
		}
	}
	return nil
}

// CheckOverpayment returns a warning when this donation plus the other
// submitted donations against the pledge exceed the pledge amount.
// Overpayment never blocks.
func CheckOverpayment(d *Donation, p *Pledge, others []Donation) *Warning {
	total := d.Amount
	for _, o := range others {
		if o.Status != Submitted || o.Pledge != p.ID || o.ID == d.ID {
			continue
		}
		total = total.Add(o.Amount)
	}

	if total.GreaterThan(p.Amount) {
		w := OverpaymentWarning(p.ID, total, p.Amount)
		return &w
	}
	return nil
}

// ApplyTaxDefaults sets the tax-deductible amount to the full donation
// amount when the donation is tax deductible and no explicit amount was
// entered.
func ApplyTaxDefaults(d *Donation) {
	if d.TaxDeductible && d.TaxDeductibleAmount.IsZero() {
		d.TaxDeductibleAmount = d.Amount
	}
	if !d.TaxDeductible {
		d.TaxDeductibleAmount = money.Zero()
	}
}
