/*
store.go - Persistence interface for documents

PURPOSE:

	Defines the interface between the engine and the database. The engine's
	recompute functions are pure; the Store supplies them the full document
	sets they re-derive from (all donations for a pledge, all pledges for a
	campaign) rather than running aggregate queries, so the derivation logic
	lives in one place and the store stays a dumb document repository.

IMPLEMENTATIONS:
  - engine/store (memory.go): In-memory, for tests and development
  - store/sqlite:             Production SQLite

SEE ALSO:
  - service.go: The only consumer of these interfaces
*/
package engine

import "context"

// Store persists and retrieves documents. List methods return documents
// of every lifecycle status; callers filter by DocStatus because the
// recompute functions need to observe cancellations.
type Store interface {
	OrganizationStore
	DonorStore
	CampaignStore
	PledgeStore
	DonationStore
	DistributionStore
	WriteoffStore
	RemittanceStore
}

type OrganizationStore interface {
	GetOrganization(ctx context.Context, id OrgID) (*Organization, error)
	SaveOrganization(ctx context.Context, o *Organization) error
	ListOrganizations(ctx context.Context) ([]Organization, error)
}

type DonorStore interface {
	GetDonor(ctx context.Context, id DonorID) (*Donor, error)
	SaveDonor(ctx context.Context, d *Donor) error
	// DonorsByOrganization returns a company's contacts, used by the
	// payroll matcher. Inactive donors are included; the matcher filters.
	DonorsByOrganization(ctx context.Context, org OrgID) ([]Donor, error)
	ListDonors(ctx context.Context) ([]Donor, error)
}

type CampaignStore interface {
	GetCampaign(ctx context.Context, id CampaignID) (*Campaign, error)
	SaveCampaign(ctx context.Context, c *Campaign) error
	ListCampaigns(ctx context.Context) ([]Campaign, error)
}

type PledgeStore interface {
	GetPledge(ctx context.Context, id PledgeID) (*Pledge, error)
	SavePledge(ctx context.Context, p *Pledge) error
	PledgesByCampaign(ctx context.Context, campaign CampaignID) ([]Pledge, error)
	PledgesByDonor(ctx context.Context, donor DonorID) ([]Pledge, error)
}

type DonationStore interface {
	GetDonation(ctx context.Context, id DonationID) (*Donation, error)
	SaveDonation(ctx context.Context, d *Donation) error
	DonationsByPledge(ctx context.Context, pledge PledgeID) ([]Donation, error)
	DonationsByCampaign(ctx context.Context, campaign CampaignID) ([]Donation, error)
	DonationsByDonor(ctx context.Context, donor DonorID) ([]Donation, error)
}

type DistributionStore interface {
	GetDistributionRun(ctx context.Context, id RunID) (*DistributionRun, error)
	SaveDistributionRun(ctx context.Context, run *DistributionRun) error
	DistributionRunsByCampaign(ctx context.Context, campaign CampaignID) ([]DistributionRun, error)
}

type WriteoffStore interface {
	GetWriteoff(ctx context.Context, id WriteoffID) (*Writeoff, error)
	SaveWriteoff(ctx context.Context, w *Writeoff) error
	WriteoffsByPledge(ctx context.Context, pledge PledgeID) ([]Writeoff, error)
}

type RemittanceStore interface {
	GetRemittance(ctx context.Context, id RemittanceID) (*Remittance, error)
	SaveRemittance(ctx context.Context, r *Remittance) error
	ListRemittances(ctx context.Context) ([]Remittance, error)
}
