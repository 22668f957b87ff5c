/*
remittance.go - Building a Remittance from matched payroll rows

PURPOSE:

	The last step of payroll intake: matched rows become a draft
	Remittance ready for engine.Service.SubmitRemittance. Unmatched rows
	are dropped here; they stay behind for manual review.

SEE ALSO:
  - matcher.go: Produces the matched rows consumed here
  - engine/remittance.go: Validation and totals of the built document
*/
package payroll

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/money"
)

// PledgeLookup resolves a donor's open payroll pledge for a campaign.
// Returning an empty id leaves the remittance item unlinked.
type PledgeLookup func(donor engine.DonorID, campaign engine.CampaignID) engine.PledgeID

// BuildRemittance assembles a draft Remittance from the matched rows.
// Rows without a donor are skipped. declaredTotal of zero means the
// employer declared no expected total; the items total is used instead.
func BuildRemittance(
	rows []MatchedRow,
	campaign engine.CampaignID,
	date time.Time,
	declaredTotal money.Amount,
	referenceNumber string,
	lookup PledgeLookup,
) (*engine.Remittance, error) {
	var items []engine.RemittanceItem
	itemsTotal := money.Zero()

	for _, row := range rows {
		if row.Donor == "" {
			continue
		}

		item := engine.RemittanceItem{
			Donor:         row.Donor,
			Amount:        row.Amount,
			Campaign:      campaign,
			PaymentMethod: "ACH/Bank Transfer",
			CheckNumber:   "",
		}
		if lookup != nil {
			item.Pledge = lookup(row.Donor, campaign)
		}
		items = append(items, item)
		itemsTotal = itemsTotal.Add(row.Amount)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no matched donor rows to create a remittance from", engine.ErrValidation)
	}

	if !declaredTotal.IsPositive() {
		declaredTotal = itemsTotal
	}

	if date.IsZero() {
		date = time.Now()
	}

	r := &engine.Remittance{
		ID:              engine.RemittanceID(uuid.New().String()),
		Campaign:        campaign,
		Date:            date,
		ReferenceNumber: referenceNumber,
		DeclaredTotal:   declaredTotal,
		Items:           items,
		Status:          engine.Draft,
	}
	engine.RecomputeRemittanceTotals(r)
	return r, nil
}
