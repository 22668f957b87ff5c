/*
service.go - Document lifecycle orchestration

PURPOSE:

	Wires the pure recompute functions to storage. Every submit/cancel runs
	the same shape: validate, persist the primary document, then dispatch an
	explicit, ordered list of post-commit reactions (pledge recompute,
	campaign rollup, donor stats, journal entry).

POST-COMMIT REACTIONS:

	Reactions are best-effort. A failed reaction is logged and recorded on
	the operation Result, but never rolls back the primary document - a
	donation must not bounce because the donor-stats update hiccuped. The
	transient drift this allows is healed by the next full recompute, which
	can also be forced through RecomputeCampaign / RecomputeDonor.

BATCH FAN-OUT:

	Remittance submit creates donations item by item with no transaction
	across items. A failure mid-batch leaves earlier donations created and
	back-linked; resubmitting skips items that already carry a back-link,
	which makes the partial state resumable.

SEE ALSO:
  - pledge.go / campaign.go / donor.go: The recompute functions
  - store.go: Persistence interfaces
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// RESULTS AND REACTIONS
// =============================================================================

// SideEffectFailure records a post-commit reaction that failed. The
// primary operation still succeeded.
type SideEffectFailure struct {
	Reaction string
	Err      error
}

// Result reports the non-blocking outcomes of a lifecycle operation:
// soft warnings (overpayment, variance) and any best-effort reactions
// that failed.
type Result struct {
	Warnings    []Warning
	SideEffects []SideEffectFailure
}

func (r *Result) warn(w *Warning) {
	if w != nil {
		r.Warnings = append(r.Warnings, *w)
	}
}

// Reaction is one step in the ordered post-commit cascade.
type Reaction struct {
	Name string
	Run  func(context.Context) error
}

// =============================================================================
// SERVICE
// =============================================================================

// Service orchestrates document lifecycles over a Store.
type Service struct {
	store   Store
	journal JournalRecorder
	log     *zap.Logger
	now     func() time.Time
}

// NewService creates a service. A nil journal disables the accounting
// bridge; a nil logger discards logs.
func NewService(store Store, journal JournalRecorder, log *zap.Logger) *Service {
	if journal == nil {
		journal = NopJournal{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, journal: journal, log: log, now: time.Now}
}

// WithClock overrides the service clock. Tests use this to pin approval
// timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// dispatch runs reactions in order, logging and recording failures
// without aborting.
func (s *Service) dispatch(ctx context.Context, res *Result, reactions ...Reaction) {
	for _, r := range reactions {
		if err := r.Run(ctx); err != nil {
			s.log.Warn("post-commit reaction failed",
				zap.String("reaction", r.Name),
				zap.Error(err))
			res.SideEffects = append(res.SideEffects, SideEffectFailure{Reaction: r.Name, Err: err})
		}
	}
}

// =============================================================================
// PLEDGE LIFECYCLE
// =============================================================================

// PreparePledge runs the full derivation pass a save requires: allocation
// validation, allocation amounts, corporate match, and collection fields.
// Used for drafts and as the first half of SubmitPledge.
func (s *Service) PreparePledge(ctx context.Context, p *Pledge) error {
	if err := ValidatePledge(p); err != nil {
		return err
	}
	ComputeAllocationAmounts(p)

	var org *Organization
	if p.EligibleForMatch && p.DonorOrganization != "" {
		loaded, err := s.store.GetOrganization(ctx, p.DonorOrganization)
		if err != nil {
			return fmt.Errorf("load donor organization %s: %w", p.DonorOrganization, err)
		}
		org = loaded
	}
	p.MatchAmount = ComputeMatch(p, org)

	donations, err := s.store.DonationsByPledge(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("load donations for pledge %s: %w", p.ID, err)
	}
	RecomputeCollection(p, donations)
	return nil
}

// SubmitPledge validates and submits a draft pledge, locks in its
// schedule, and triggers the campaign and donor rollups.
func (s *Service) SubmitPledge(ctx context.Context, p *Pledge) (*Result, error) {
	if p.Status != Draft {
		return nil, ErrAlreadySubmitted
	}
	if p.ID == "" {
		p.ID = PledgeID(uuid.NewString())
	}
	if err := s.PreparePledge(ctx, p); err != nil {
		return nil, err
	}
	if len(p.Schedule) == 0 {
		p.Schedule = GeneratePaymentSchedule(p)
	}

	p.Status = Submitted
	if err := s.store.SavePledge(ctx, p); err != nil {
		return nil, fmt.Errorf("save pledge: %w", err)
	}

	res := &Result{}
	s.dispatch(ctx, res,
		Reaction{Name: "campaign_rollup", Run: func(ctx context.Context) error {
			return s.RecomputeCampaign(ctx, p.Campaign)
		}},
		Reaction{Name: "donor_stats", Run: func(ctx context.Context) error {
			return s.RecomputeDonor(ctx, p.Donor)
		}},
	)
	return res, nil
}

// CancelPledge removes a pledge's contribution from every rollup. The
// reactions are the same as on submit - symmetric triggers, not inverse
// deltas.
func (s *Service) CancelPledge(ctx context.Context, id PledgeID) (*Result, error) {
	p, err := s.store.GetPledge(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == Cancelled {
		return nil, ErrAlreadyCancelled
	}
	if p.Status != Submitted {
		return nil, ErrNotSubmitted
	}

	p.Status = Cancelled
	if err := s.store.SavePledge(ctx, p); err != nil {
		return nil, fmt.Errorf("save pledge: %w", err)
	}

	res := &Result{}
	s.dispatch(ctx, res,
		Reaction{Name: "campaign_rollup", Run: func(ctx context.Context) error {
			return s.RecomputeCampaign(ctx, p.Campaign)
		}},
		Reaction{Name: "donor_stats", Run: func(ctx context.Context) error {
			return s.RecomputeDonor(ctx, p.Donor)
		}},
	)
	return res, nil
}

// =============================================================================
// DONATION LIFECYCLE
// =============================================================================

// SubmitDonation validates and submits a donation, then cascades in
// order: pledge recompute, campaign rollup, donor stats, journal entry.
func (s *Service) SubmitDonation(ctx context.Context, d *Donation) (*Result, error) {
	if d.Status != Draft {
		return nil, ErrAlreadySubmitted
	}
	if err := ValidateDonation(d); err != nil {
		return nil, err
	}
	if d.ID == "" {
		d.ID = DonationID(uuid.NewString())
	}

	res := &Result{}
	if d.Pledge != "" {
		pledge, err := s.store.GetPledge(ctx, d.Pledge)
		if err != nil {
			return nil, fmt.Errorf("load pledge %s: %w", d.Pledge, err)
		}
		if pledge.Status != Submitted {
			return nil, ErrNotSubmitted
		}
		if err := ValidateLink(d, pledge); err != nil {
			return nil, err
		}
		others, err := s.store.DonationsByPledge(ctx, d.Pledge)
		if err != nil {
			return nil, fmt.Errorf("load donations for pledge %s: %w", d.Pledge, err)
		}
		res.warn(CheckOverpayment(d, pledge, others))
	}

	ApplyTaxDefaults(d)
	d.Status = Submitted
	if err := s.store.SaveDonation(ctx, d); err != nil {
		return nil, fmt.Errorf("save donation: %w", err)
	}

	s.dispatch(ctx, res, s.donationReactions(d, true)...)
	return res, nil
}

// CancelDonation cancels a submitted donation and runs the same cascade
// as submit; every rollup is re-derived from the remaining documents.
func (s *Service) CancelDonation(ctx context.Context, id DonationID) (*Result, error) {
	d, err := s.store.GetDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == Cancelled {
		return nil, ErrAlreadyCancelled
	}
	if d.Status != Submitted {
		return nil, ErrNotSubmitted
	}

	d.Status = Cancelled
	if err := s.store.SaveDonation(ctx, d); err != nil {
		return nil, fmt.Errorf("save donation: %w", err)
	}

	res := &Result{}
	s.dispatch(ctx, res, s.donationReactions(d, false)...)
	return res, nil
}

// donationReactions is the ordered cascade shared by donation submit and
// cancel. The journal entry is only offered on submit.
func (s *Service) donationReactions(d *Donation, submit bool) []Reaction {
	reactions := []Reaction{}
	if d.Pledge != "" {
		reactions = append(reactions, Reaction{Name: "pledge_recompute", Run: func(ctx context.Context) error {
			return s.RecomputePledge(ctx, d.Pledge)
		}})
	}
	reactions = append(reactions,
		Reaction{Name: "campaign_rollup", Run: func(ctx context.Context) error {
			return s.RecomputeCampaign(ctx, d.Campaign)
		}},
		Reaction{Name: "donor_stats", Run: func(ctx context.Context) error {
			return s.RecomputeDonor(ctx, d.Donor)
		}},
	)
	if submit {
		reactions = append(reactions, Reaction{Name: "journal_entry", Run: func(ctx context.Context) error {
			entry := DonationEntry(d)
			entry.ID = uuid.NewString()
			return s.journal.Record(ctx, entry)
		}})
	}
	return reactions
}

// =============================================================================
// RECOMPUTE HELPERS - full re-scans, safe to call any time
// =============================================================================

// RecomputePledge re-derives a pledge's collection fields from its full
// donation set and persists the result.
func (s *Service) RecomputePledge(ctx context.Context, id PledgeID) error {
	p, err := s.store.GetPledge(ctx, id)
	if err != nil {
		return err
	}
	donations, err := s.store.DonationsByPledge(ctx, id)
	if err != nil {
		return err
	}
	RecomputeCollection(p, donations)
	return s.store.SavePledge(ctx, p)
}

// RecomputeCampaign re-derives a campaign's rollups from its full pledge
// and donation sets and persists the result.
func (s *Service) RecomputeCampaign(ctx context.Context, id CampaignID) error {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	pledges, err := s.store.PledgesByCampaign(ctx, id)
	if err != nil {
		return err
	}
	donations, err := s.store.DonationsByCampaign(ctx, id)
	if err != nil {
		return err
	}
	RecomputeCampaign(c, pledges, donations)
	return s.store.SaveCampaign(ctx, c)
}

// RecomputeDonor re-derives a donor's lifetime stats from their full
// donation set and persists the result.
func (s *Service) RecomputeDonor(ctx context.Context, id DonorID) error {
	donor, err := s.store.GetDonor(ctx, id)
	if err != nil {
		return err
	}
	donations, err := s.store.DonationsByDonor(ctx, id)
	if err != nil {
		return err
	}
	RecomputeDonorStats(donor, donations)
	return s.store.SaveDonor(ctx, donor)
}

// =============================================================================
// WRITE-OFF LIFECYCLE
// =============================================================================

// SubmitWriteoff bounds-checks and submits a write-off, records the
// approver, and cascades the status change onto the pledge and its
// pending schedule entries.
func (s *Service) SubmitWriteoff(ctx context.Context, w *Writeoff, approver string) (*Result, error) {
	if w.Status != Draft {
		return nil, ErrAlreadySubmitted
	}
	p, err := s.store.GetPledge(ctx, w.Pledge)
	if err != nil {
		return nil, err
	}
	if err := ValidateWriteoff(w, p); err != nil {
		return nil, err
	}

	if w.ID == "" {
		w.ID = WriteoffID(uuid.NewString())
	}
	now := s.now()
	w.ApprovedBy = approver
	w.ApprovedAt = &now
	w.Status = Submitted
	if err := s.store.SaveWriteoff(ctx, w); err != nil {
		return nil, fmt.Errorf("save writeoff: %w", err)
	}

	ApplyWriteoff(w, p)
	if err := s.store.SavePledge(ctx, p); err != nil {
		return nil, fmt.Errorf("save pledge: %w", err)
	}

	res := &Result{}
	s.dispatch(ctx, res, Reaction{Name: "journal_entry", Run: func(ctx context.Context) error {
		entry := WriteoffEntry(w)
		entry.ID = uuid.NewString()
		return s.journal.Record(ctx, entry)
	}})
	return res, nil
}

// CancelWriteoff cancels a write-off and forces a full collection
// recompute on the pledge - not a manual reversal. Whatever donations
// still exist re-derive the pledge's status.
func (s *Service) CancelWriteoff(ctx context.Context, id WriteoffID) error {
	w, err := s.store.GetWriteoff(ctx, id)
	if err != nil {
		return err
	}
	if w.Status == Cancelled {
		return ErrAlreadyCancelled
	}
	if w.Status != Submitted {
		return ErrNotSubmitted
	}

	w.Status = Cancelled
	if err := s.store.SaveWriteoff(ctx, w); err != nil {
		return fmt.Errorf("save writeoff: %w", err)
	}
	return s.RecomputePledge(ctx, w.Pledge)
}

// =============================================================================
// DISTRIBUTION LIFECYCLE
// =============================================================================

// PreviewDistribution builds this period's per-agency payout items for a
// campaign without persisting anything.
func (s *Service) PreviewDistribution(ctx context.Context, campaign CampaignID) ([]DistributionItem, error) {
	pledges, err := s.store.PledgesByCampaign(ctx, campaign)
	if err != nil {
		return nil, err
	}
	priorRuns, err := s.store.DistributionRunsByCampaign(ctx, campaign)
	if err != nil {
		return nil, err
	}
	return BuildDistributionItems(campaign, pledges, priorRuns), nil
}

// SubmitDistributionRun validates and submits a run, then offers a
// journal line per agency item.
func (s *Service) SubmitDistributionRun(ctx context.Context, run *DistributionRun) (*Result, error) {
	if run.Status != Draft {
		return nil, ErrAlreadySubmitted
	}
	if err := ValidateRun(run); err != nil {
		return nil, err
	}
	if run.ID == "" {
		run.ID = RunID(uuid.NewString())
	}
	if run.RunDate.IsZero() {
		run.RunDate = s.now()
	}

	run.Status = Submitted
	if err := s.store.SaveDistributionRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save distribution run: %w", err)
	}

	res := &Result{}
	s.dispatch(ctx, res, Reaction{Name: "journal_entries", Run: func(ctx context.Context) error {
		for _, entry := range DistributionEntries(run) {
			entry.ID = uuid.NewString()
			if err := s.journal.Record(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	}})
	return res, nil
}

// CancelDistributionRun cancels a run, returning its amounts to the
// undistributed pool for the next run to pick up.
func (s *Service) CancelDistributionRun(ctx context.Context, id RunID) error {
	run, err := s.store.GetDistributionRun(ctx, id)
	if err != nil {
		return err
	}
	if run.Status == Cancelled {
		return ErrAlreadyCancelled
	}
	if run.Status != Submitted {
		return ErrNotSubmitted
	}
	run.Status = Cancelled
	return s.store.SaveDistributionRun(ctx, run)
}

// =============================================================================
// REMITTANCE LIFECYCLE - batch fan-out / fan-in
// =============================================================================

// SubmitRemittance fans a settlement batch out into one submitted
// Donation per item. Items are processed one at a time with no
// surrounding transaction: on a mid-batch failure the remittance stays in
// Draft with the completed items back-linked, and resubmitting skips
// those items.
func (s *Service) SubmitRemittance(ctx context.Context, r *Remittance) (*Result, error) {
	if r.Status != Draft {
		return nil, ErrAlreadySubmitted
	}
	if err := ValidateRemittance(r); err != nil {
		return nil, err
	}
	if r.ID == "" {
		r.ID = RemittanceID(uuid.NewString())
	}

	res := &Result{}
	res.warn(CheckVariance(r))

	created := 0
	for i := range r.Items {
		item := &r.Items[i]
		if item.Donation != "" {
			created++ // already fanned out by an earlier partial submit
			continue
		}

		donation := &Donation{
			ID:              DonationID(uuid.NewString()),
			Donor:           item.Donor,
			Campaign:        item.Campaign,
			Pledge:          item.Pledge,
			Amount:          item.Amount,
			Date:            r.Date,
			PaymentMethod:   item.PaymentMethod,
			ReferenceNumber: firstNonEmpty(item.CheckNumber, r.ReferenceNumber),
			BatchNumber:     string(r.ID),
			TaxDeductible:   true,
		}
		sub, err := s.SubmitDonation(ctx, donation)
		if err != nil {
			r.DonationsCreated = created
			if saveErr := s.store.SaveRemittance(ctx, r); saveErr != nil {
				s.log.Error("save partial remittance failed",
					zap.String("remittance", string(r.ID)), zap.Error(saveErr))
			}
			return res, fmt.Errorf("row %d: create donation: %w", i+1, err)
		}
		res.Warnings = append(res.Warnings, sub.Warnings...)
		res.SideEffects = append(res.SideEffects, sub.SideEffects...)

		item.Donation = donation.ID
		created++
	}

	r.DonationsCreated = created
	r.Status = Submitted
	if err := s.store.SaveRemittance(ctx, r); err != nil {
		return res, fmt.Errorf("save remittance: %w", err)
	}
	return res, nil
}

// CancelRemittance cancels every spawned donation best-effort (an
// already-cancelled or missing donation is logged and skipped), clears
// the back-links, and resets the created count. One failing sub-cancel
// never blocks the batch cancel.
func (s *Service) CancelRemittance(ctx context.Context, id RemittanceID) (*Result, error) {
	r, err := s.store.GetRemittance(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == Cancelled {
		return nil, ErrAlreadyCancelled
	}
	if r.Status != Submitted {
		return nil, ErrNotSubmitted
	}

	res := &Result{}
	for i := range r.Items {
		item := &r.Items[i]
		if item.Donation == "" {
			continue
		}
		donationID := item.Donation
		s.dispatch(ctx, res, Reaction{Name: "cancel_donation", Run: func(ctx context.Context) error {
			_, err := s.CancelDonation(ctx, donationID)
			return err
		}})
		item.Donation = ""
	}

	r.DonationsCreated = 0
	r.Status = Cancelled
	if err := s.store.SaveRemittance(ctx, r); err != nil {
		return res, fmt.Errorf("save remittance: %w", err)
	}
	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
