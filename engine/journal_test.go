package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/engine/store"
)

// captureJournal records entries in memory for assertions.
type captureJournal struct {
	entries []engine.JournalEntry
}

func (c *captureJournal) Record(_ context.Context, e engine.JournalEntry) error {
	c.entries = append(c.entries, e)
	return nil
}

func TestDonationEntry_DebitsCashCreditsRevenue(t *testing.T) {
	d := &engine.Donation{
		ID: "d1", Donor: "donor-1", Campaign: "c1",
		Amount: amt(500), Date: date(2025, time.March, 1),
	}

	entry := engine.DonationEntry(d)

	assert.Equal(t, engine.JournalDonationReceipt, entry.Type)
	assert.Equal(t, engine.AccountCash, entry.DebitAccount)
	assert.Equal(t, engine.AccountDonationRevenue, entry.CreditAccount)
	assert.True(t, entry.Amount.Equal(amt(500)))
	assert.Equal(t, "donation", entry.ReferenceType)
	assert.Equal(t, "d1", entry.ReferenceID)
}

func TestDistributionEntries_OnePerAgency(t *testing.T) {
	r := &engine.DistributionRun{
		ID: "r1", Campaign: "c1", RunDate: date(2025, time.April, 1),
		Items: []engine.DistributionItem{
			{Agency: "A", DistributionAmount: amt(700)},
			{Agency: "B", DistributionAmount: amt(300)},
		},
	}

	entries := engine.DistributionEntries(r)

	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, engine.AccountDistributionExpense, e.DebitAccount)
		assert.Equal(t, engine.AccountAgencyPayable, e.CreditAccount)
	}
	assert.True(t, entries[0].Amount.Equal(amt(700)))
	assert.True(t, entries[1].Amount.Equal(amt(300)))
}

func TestWriteoffEntry_DebitsExpenseCreditsReceivable(t *testing.T) {
	w := &engine.Writeoff{ID: "wo-1", Pledge: "p1", Amount: amt(800), Date: date(2025, time.June, 1)}

	entry := engine.WriteoffEntry(w)

	assert.Equal(t, engine.AccountWriteoffExpense, entry.DebitAccount)
	assert.Equal(t, engine.AccountDonationsReceivable, entry.CreditAccount)
	assert.Equal(t, "writeoff", entry.ReferenceType)
}

func TestService_OffersJournalEntriesOnSubmit(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.SaveDonor(ctx, &engine.Donor{ID: "donor-1", Status: "active"}))
	require.NoError(t, mem.SaveCampaign(ctx, &engine.Campaign{
		ID: "c1", Name: "Annual", Goal: amt(100000), Status: engine.Submitted}))

	journal := &captureJournal{}
	svc := engine.NewService(mem, journal, nil)

	res, err := svc.SubmitDonation(ctx, &engine.Donation{
		Donor: "donor-1", Campaign: "c1", Amount: amt(250),
		Date: date(2025, time.March, 1), Status: engine.Draft,
	})
	require.NoError(t, err)
	assert.Empty(t, res.SideEffects)

	require.Len(t, journal.entries, 1)
	assert.Equal(t, engine.JournalDonationReceipt, journal.entries[0].Type)
	assert.NotEmpty(t, journal.entries[0].ID, "entry ids are assigned at dispatch")
}
