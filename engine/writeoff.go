/*
writeoff.go - Pledge write-off rules

PURPOSE:

	A write-off formally reduces a pledge's outstanding balance without a
	payment. The amount is bounds-checked against the current outstanding
	balance; submitting cascades a status change onto the pledge and its
	pending schedule entries.

CANCEL IS A RECOMPUTE, NOT A REVERSAL:

	Cancelling a write-off does not "undo" the status change by hand. The
	pledge is recomputed from whatever donations currently exist, which
	correctly restores NotStarted or InProgress no matter what happened in
	between.
*/
package engine

// ValidateWriteoff enforces the write-off preconditions: the pledge must
// be submitted and the amount must lie in (0, outstandingBalance].
func ValidateWriteoff(w *Writeoff, p *Pledge) error {
	if p == nil {
		return ErrNotFound
	}
	if p.Status != Submitted {
		return ErrNotSubmitted
	}
	if !w.Amount.IsPositive() || w.Amount.GreaterThan(p.OutstandingBalance) {
		return &WriteoffBoundsError{Amount: w.Amount, Outstanding: p.OutstandingBalance}
	}
	return nil
}

// ApplyWriteoff mutates the pledge for a submitted write-off:
//   - collection status becomes WrittenOff when the write-off covers the
//     full outstanding balance, PartiallyCollected otherwise
//   - pending and overdue schedule entries become WrittenOff; paid
//     entries are untouched
func ApplyWriteoff(w *Writeoff, p *Pledge) {
	if w.Amount.GreaterThanOrEqual(p.OutstandingBalance) {
		p.CollectionStatus = CollectionWrittenOff
	} else {
		p.CollectionStatus = CollectionPartiallyCollected
	}

	for i := range p.Schedule {
		switch p.Schedule[i].Status {
		case SchedulePending, ScheduleOverdue:
			p.Schedule[i].Status = ScheduleWrittenOff
		}
	}
}
