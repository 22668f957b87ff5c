/*
journal.go - Accounting bridge

PURPOSE:

	Optional double-entry hook. When a donation, distribution run, or
	write-off is submitted, the configured JournalRecorder is offered a
	journal line. Recording failures are logged by the reaction dispatcher
	and never block the triggering document - the books reconcile later,
	the donation does not bounce.
*/
package engine

import (
	"context"
	"time"

	"github.com/unitedfund/pledge-engine/money"
)

// Default account names. A deployment can remap these before wiring the
// recorder.
const (
	AccountCash                = "1000 - Cash"
	AccountDonationsReceivable = "1200 - Donations Receivable"
	AccountAgencyPayable       = "2100 - Agency Payable"
	AccountDonationRevenue     = "4100 - Donation Revenue"
	AccountDistributionExpense = "5100 - Agency Distributions"
	AccountWriteoffExpense     = "5200 - Pledge Write-offs"
)

type JournalEntryType string

const (
	JournalDonationReceipt    JournalEntryType = "donation_receipt"
	JournalAgencyDistribution JournalEntryType = "agency_distribution"
	JournalPledgeWriteoff     JournalEntryType = "pledge_writeoff"
)

// JournalEntry is one double-entry line offered to the recorder.
type JournalEntry struct {
	ID            string
	PostingDate   time.Time
	Type          JournalEntryType
	ReferenceType string // "donation", "distribution_run", "writeoff"
	ReferenceID   string
	DebitAccount  string
	CreditAccount string
	Amount        money.Amount
	Campaign      CampaignID
	Remarks       string
}

// JournalRecorder records journal entries. Implementations may post to a
// general ledger, write a file, or drop entries entirely.
type JournalRecorder interface {
	Record(ctx context.Context, entry JournalEntry) error
}

// NopJournal discards entries. Used when the accounting bridge is
// disabled.
type NopJournal struct{}

func (NopJournal) Record(context.Context, JournalEntry) error { return nil }

// DonationEntry builds the journal line for a submitted donation:
// debit cash, credit donation revenue.
func DonationEntry(d *Donation) JournalEntry {
	return JournalEntry{
		PostingDate:   d.Date,
		Type:          JournalDonationReceipt,
		ReferenceType: "donation",
		ReferenceID:   string(d.ID),
		DebitAccount:  AccountCash,
		CreditAccount: AccountDonationRevenue,
		Amount:        d.Amount,
		Campaign:      d.Campaign,
		Remarks:       "donation " + string(d.ID) + " from " + string(d.Donor),
	}
}

// DistributionEntries builds one journal line per agency item: debit
// distribution expense, credit agency payable.
func DistributionEntries(run *DistributionRun) []JournalEntry {
	entries := make([]JournalEntry, 0, len(run.Items))
	for _, item := range run.Items {
		entries = append(entries, JournalEntry{
			PostingDate:   run.RunDate,
			Type:          JournalAgencyDistribution,
			ReferenceType: "distribution_run",
			ReferenceID:   string(run.ID),
			DebitAccount:  AccountDistributionExpense,
			CreditAccount: AccountAgencyPayable,
			Amount:        item.DistributionAmount,
			Campaign:      run.Campaign,
			Remarks:       "distribution to " + string(item.Agency) + " - " + string(run.ID),
		})
	}
	return entries
}

// WriteoffEntry builds the journal line for a submitted write-off: debit
// write-off expense, credit donations receivable.
func WriteoffEntry(w *Writeoff) JournalEntry {
	return JournalEntry{
		PostingDate:   w.Date,
		Type:          JournalPledgeWriteoff,
		ReferenceType: "writeoff",
		ReferenceID:   string(w.ID),
		DebitAccount:  AccountWriteoffExpense,
		CreditAccount: AccountDonationsReceivable,
		Amount:        w.Amount,
		Remarks:       "write-off of pledge " + string(w.Pledge),
	}
}
