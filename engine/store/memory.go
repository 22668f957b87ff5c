// Package store provides an in-memory Store implementation for tests
// and development. Documents are deep-copied on the way in and out so a
// caller mutating a returned document cannot corrupt stored state.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/unitedfund/pledge-engine/engine"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	organizations map[engine.OrgID]engine.Organization
	donors        map[engine.DonorID]engine.Donor
	campaigns     map[engine.CampaignID]engine.Campaign
	pledges       map[engine.PledgeID]engine.Pledge
	donations     map[engine.DonationID]engine.Donation
	runs          map[engine.RunID]engine.DistributionRun
	writeoffs     map[engine.WriteoffID]engine.Writeoff
	remittances   map[engine.RemittanceID]engine.Remittance
}

var _ engine.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		organizations: make(map[engine.OrgID]engine.Organization),
		donors:        make(map[engine.DonorID]engine.Donor),
		campaigns:     make(map[engine.CampaignID]engine.Campaign),
		pledges:       make(map[engine.PledgeID]engine.Pledge),
		donations:     make(map[engine.DonationID]engine.Donation),
		runs:          make(map[engine.RunID]engine.DistributionRun),
		writeoffs:     make(map[engine.WriteoffID]engine.Writeoff),
		remittances:   make(map[engine.RemittanceID]engine.Remittance),
	}
}

// =============================================================================
// ORGANIZATIONS
// =============================================================================

func (m *Memory) GetOrganization(_ context.Context, id engine.OrgID) (*engine.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.organizations[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	copy := o
	return &copy, nil
}

func (m *Memory) SaveOrganization(_ context.Context, o *engine.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.organizations[o.ID] = *o
	return nil
}

func (m *Memory) ListOrganizations(_ context.Context) ([]engine.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]engine.Organization, 0, len(m.organizations))
	for _, o := range m.organizations {
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// DONORS
// =============================================================================

func (m *Memory) GetDonor(_ context.Context, id engine.DonorID) (*engine.Donor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.donors[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	copy := d
	return &copy, nil
}

func (m *Memory) SaveDonor(_ context.Context, d *engine.Donor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.donors[d.ID] = *d
	return nil
}

func (m *Memory) DonorsByOrganization(_ context.Context, org engine.OrgID) ([]engine.Donor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Donor
	for _, d := range m.donors {
		if d.Organization == org {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) ListDonors(_ context.Context) ([]engine.Donor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]engine.Donor, 0, len(m.donors))
	for _, d := range m.donors {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// CAMPAIGNS
// =============================================================================

func (m *Memory) GetCampaign(_ context.Context, id engine.CampaignID) (*engine.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	copy := c
	return &copy, nil
}

func (m *Memory) SaveCampaign(_ context.Context, c *engine.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = *c
	return nil
}

func (m *Memory) ListCampaigns(_ context.Context) ([]engine.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]engine.Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// PLEDGES
// =============================================================================

func (m *Memory) GetPledge(_ context.Context, id engine.PledgeID) (*engine.Pledge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pledges[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return copyPledge(p), nil
}

func (m *Memory) SavePledge(_ context.Context, p *engine.Pledge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pledges[p.ID] = *copyPledge(*p)
	return nil
}

func (m *Memory) PledgesByCampaign(_ context.Context, campaign engine.CampaignID) ([]engine.Pledge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Pledge
	for _, p := range m.pledges {
		if p.Campaign == campaign {
			result = append(result, *copyPledge(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) PledgesByDonor(_ context.Context, donor engine.DonorID) ([]engine.Pledge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Pledge
	for _, p := range m.pledges {
		if p.Donor == donor {
			result = append(result, *copyPledge(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// copyPledge deep-copies the allocation and schedule slices.
func copyPledge(p engine.Pledge) *engine.Pledge {
	copied := p
	copied.Allocations = append([]engine.Allocation(nil), p.Allocations...)
	copied.Schedule = append([]engine.ScheduleEntry(nil), p.Schedule...)
	if p.PayrollStartDate != nil {
		t := *p.PayrollStartDate
		copied.PayrollStartDate = &t
	}
	if p.LastPaymentDate != nil {
		t := *p.LastPaymentDate
		copied.LastPaymentDate = &t
	}
	return &copied
}

// =============================================================================
// DONATIONS
// =============================================================================

func (m *Memory) GetDonation(_ context.Context, id engine.DonationID) (*engine.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.donations[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	copy := d
	return &copy, nil
}

func (m *Memory) SaveDonation(_ context.Context, d *engine.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.donations[d.ID] = *d
	return nil
}

func (m *Memory) DonationsByPledge(_ context.Context, pledge engine.PledgeID) ([]engine.Donation, error) {
	return m.filterDonations(func(d engine.Donation) bool { return d.Pledge == pledge })
}

func (m *Memory) DonationsByCampaign(_ context.Context, campaign engine.CampaignID) ([]engine.Donation, error) {
	return m.filterDonations(func(d engine.Donation) bool { return d.Campaign == campaign })
}

func (m *Memory) DonationsByDonor(_ context.Context, donor engine.DonorID) ([]engine.Donation, error) {
	return m.filterDonations(func(d engine.Donation) bool { return d.Donor == donor })
}

func (m *Memory) filterDonations(keep func(engine.Donation) bool) ([]engine.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Donation
	for _, d := range m.donations {
		if keep(d) {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID < result[j].ID
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// =============================================================================
// DISTRIBUTION RUNS
// =============================================================================

func (m *Memory) GetDistributionRun(_ context.Context, id engine.RunID) (*engine.DistributionRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	copied := run
	copied.Items = append([]engine.DistributionItem(nil), run.Items...)
	return &copied, nil
}

func (m *Memory) SaveDistributionRun(_ context.Context, run *engine.DistributionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *run
	copied.Items = append([]engine.DistributionItem(nil), run.Items...)
	m.runs[run.ID] = copied
	return nil
}

func (m *Memory) DistributionRunsByCampaign(_ context.Context, campaign engine.CampaignID) ([]engine.DistributionRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.DistributionRun
	for _, run := range m.runs {
		if run.Campaign == campaign {
			copied := run
			copied.Items = append([]engine.DistributionItem(nil), run.Items...)
			result = append(result, copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// WRITE-OFFS
// =============================================================================

func (m *Memory) GetWriteoff(_ context.Context, id engine.WriteoffID) (*engine.Writeoff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.writeoffs[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	copy := w
	return &copy, nil
}

func (m *Memory) SaveWriteoff(_ context.Context, w *engine.Writeoff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeoffs[w.ID] = *w
	return nil
}

func (m *Memory) WriteoffsByPledge(_ context.Context, pledge engine.PledgeID) ([]engine.Writeoff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Writeoff
	for _, w := range m.writeoffs {
		if w.Pledge == pledge {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// REMITTANCES
// =============================================================================

func (m *Memory) GetRemittance(_ context.Context, id engine.RemittanceID) (*engine.Remittance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.remittances[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	copied := r
	copied.Items = append([]engine.RemittanceItem(nil), r.Items...)
	return &copied, nil
}

func (m *Memory) SaveRemittance(_ context.Context, r *engine.Remittance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *r
	copied.Items = append([]engine.RemittanceItem(nil), r.Items...)
	m.remittances[r.ID] = copied
	return nil
}

func (m *Memory) ListRemittances(_ context.Context) ([]engine.Remittance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]engine.Remittance, 0, len(m.remittances))
	for _, r := range m.remittances {
		copied := r
		copied.Items = append([]engine.RemittanceItem(nil), r.Items...)
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
