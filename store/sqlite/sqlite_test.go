package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/money"
	"github.com/unitedfund/pledge-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestOrganizationRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	capAmount := money.FromInt(50000)
	org := &engine.Organization{
		ID:             "acme",
		Name:           "Acme Corporation",
		Type:           engine.OrgCorporateDonor,
		Status:         "active",
		CorporateMatch: true,
		MatchRatio:     money.PercentFromFloat(100),
		MatchCap:       &capAmount,
	}
	require.NoError(t, s.SaveOrganization(ctx, org))

	got, err := s.GetOrganization(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, org.Name, got.Name)
	assert.Equal(t, engine.OrgCorporateDonor, got.Type)
	assert.True(t, got.CorporateMatch)
	assert.Equal(t, 100.0, got.MatchRatio.Float64())
	require.NotNil(t, got.MatchCap)
	assert.True(t, got.MatchCap.Equal(capAmount))

	// Upsert: the same id overwrites in place.
	org.Name = "Acme Corp."
	org.MatchCap = nil
	require.NoError(t, s.SaveOrganization(ctx, org))
	got, err = s.GetOrganization(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp.", got.Name)
	assert.Nil(t, got.MatchCap)
}

func TestGetOrganization_NotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.GetOrganization(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestDonorRoundTripAndEmployerScope(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	last := day(2025, time.March, 1)
	require.NoError(t, s.SaveDonor(ctx, &engine.Donor{
		ID: "donor-chen", FirstName: "Wei", LastName: "Chen",
		Organization: "acme", EmployeeID: "100234", Status: "active",
		LifetimeGiving: money.FromInt(1200), LastDonationDate: &last,
		LastDonationAmount: money.FromInt(100), ConsecutiveYearsGiving: 3,
		Level: engine.LevelLeadership,
	}))
	require.NoError(t, s.SaveDonor(ctx, &engine.Donor{
		ID: "donor-smith", FirstName: "Jordan", LastName: "Smith", Status: "active",
	}))

	got, err := s.GetDonor(ctx, "donor-chen")
	require.NoError(t, err)
	assert.Equal(t, "100234", got.EmployeeID)
	assert.True(t, got.LifetimeGiving.Equal(money.FromInt(1200)))
	require.NotNil(t, got.LastDonationDate)
	assert.True(t, got.LastDonationDate.Equal(last))
	assert.Equal(t, engine.LevelLeadership, got.Level)

	byOrg, err := s.DonorsByOrganization(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, byOrg, 1)
	assert.Equal(t, engine.DonorID("donor-chen"), byOrg[0].ID)
}

func TestCampaignRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	c := &engine.Campaign{
		ID: "c1", Name: "Annual Campaign", Goal: money.FromInt(100000),
		StartDate: day(2025, time.January, 1), EndDate: day(2025, time.December, 31),
		Status:         engine.Submitted,
		TotalPledged:   money.FromInt(5000),
		TotalCollected: money.FromInt(1250),
		PledgeCount:    3, DonorCount: 2,
		PercentOfGoal:  money.PercentFromFloat(5),
		CollectionRate: money.PercentFromFloat(25),
	}
	require.NoError(t, s.SaveCampaign(ctx, c))

	got, err := s.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, got.TotalPledged.Equal(money.FromInt(5000)))
	assert.Equal(t, 3, got.PledgeCount)
	assert.Equal(t, 25.0, got.CollectionRate.Float64())
	assert.True(t, got.EndDate.Equal(day(2025, time.December, 31)))
}

func TestPledgeRoundTrip_ChildRowsReplacedWholesale(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	start := day(2025, time.February, 1)
	p := &engine.Pledge{
		ID: "p1", Campaign: "c1", Donor: "donor-chen",
		DonorOrganization: "acme",
		Amount:            money.FromInt(1200),
		PledgeDate:        day(2025, time.January, 15),
		Frequency:         engine.FrequencyMonthly,
		PayrollStartDate:  &start,
		EligibleForMatch:  true,
		Allocations: []engine.Allocation{
			{Agency: "food-bank", Percentage: money.PercentFromFloat(60), AllocatedAmount: money.FromInt(720)},
			{Agency: "shelter", Percentage: money.PercentFromFloat(40), AllocatedAmount: money.FromInt(480)},
		},
		Schedule: []engine.ScheduleEntry{
			{DueDate: start, ExpectedAmount: money.FromInt(100), Status: engine.SchedulePaid},
			{DueDate: day(2025, time.March, 1), ExpectedAmount: money.FromInt(100), Status: engine.SchedulePending},
		},
		Status:               engine.Submitted,
		MatchAmount:          money.FromInt(1200),
		TotalCollected:       money.FromInt(100),
		OutstandingBalance:   money.FromInt(1100),
		CollectionPercentage: money.PercentFromFloat(8.33),
		CollectionStatus:     engine.CollectionInProgress,
	}
	require.NoError(t, s.SavePledge(ctx, p))

	got, err := s.GetPledge(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Allocations, 2)
	assert.Equal(t, engine.OrgID("food-bank"), got.Allocations[0].Agency)
	assert.True(t, got.Allocations[0].AllocatedAmount.Equal(money.FromInt(720)))
	require.Len(t, got.Schedule, 2)
	assert.Equal(t, engine.SchedulePaid, got.Schedule[0].Status)
	require.NotNil(t, got.PayrollStartDate)
	assert.True(t, got.PayrollStartDate.Equal(start))
	assert.Equal(t, engine.CollectionInProgress, got.CollectionStatus)

	// Re-saving with fewer children leaves no orphans behind.
	p.Allocations = p.Allocations[:1]
	p.Schedule = nil
	require.NoError(t, s.SavePledge(ctx, p))
	got, err = s.GetPledge(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, got.Allocations, 1)
	assert.Empty(t, got.Schedule)
}

func TestPledgeQueries(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, p := range []*engine.Pledge{
		{ID: "p1", Campaign: "c1", Donor: "d1", Amount: money.FromInt(100), PledgeDate: day(2025, time.January, 1), Status: engine.Submitted},
		{ID: "p2", Campaign: "c1", Donor: "d2", Amount: money.FromInt(200), PledgeDate: day(2025, time.January, 2), Status: engine.Submitted},
		{ID: "p3", Campaign: "c2", Donor: "d1", Amount: money.FromInt(300), PledgeDate: day(2025, time.January, 3), Status: engine.Submitted},
	} {
		require.NoError(t, s.SavePledge(ctx, p))
	}

	byCampaign, err := s.PledgesByCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, byCampaign, 2)

	byDonor, err := s.PledgesByDonor(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, byDonor, 2)
}

func TestDonationRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	d := &engine.Donation{
		ID: "don-1", Donor: "donor-chen", Campaign: "c1", Pledge: "p1",
		Amount: money.FromFloat(123.45), Date: day(2025, time.March, 1),
		PaymentMethod: "Check", ReferenceNumber: "1042", BatchNumber: "rem-1",
		TaxDeductible: true, TaxDeductibleAmount: money.FromFloat(123.45),
		Status: engine.Submitted,
	}
	require.NoError(t, s.SaveDonation(ctx, d))

	got, err := s.GetDonation(ctx, "don-1")
	require.NoError(t, err)
	assert.Equal(t, "123.45", got.Amount.String(), "decimal strings survive the TEXT column")
	assert.True(t, got.TaxDeductible)
	assert.Equal(t, "rem-1", got.BatchNumber)

	byPledge, err := s.DonationsByPledge(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, byPledge, 1)
}

func TestDistributionRunRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	run := &engine.DistributionRun{
		ID: "r1", Campaign: "c1",
		PeriodStart: day(2025, time.January, 1),
		PeriodEnd:   day(2025, time.March, 31),
		RunDate:     day(2025, time.April, 1),
		Items: []engine.DistributionItem{
			{Agency: "food-bank", TotalAllocated: money.FromInt(720), TotalCollected: money.FromInt(300),
				PreviouslyDistributed: money.FromInt(100), DistributionAmount: money.FromInt(200)},
			{Agency: "shelter", DistributionAmount: money.FromInt(50)},
		},
		TotalDistribution: money.FromInt(250),
		AgencyCount:       2,
		Status:            engine.Submitted,
	}
	require.NoError(t, s.SaveDistributionRun(ctx, run))

	got, err := s.GetDistributionRun(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, engine.OrgID("food-bank"), got.Items[0].Agency)
	assert.True(t, got.Items[0].PreviouslyDistributed.Equal(money.FromInt(100)))
	assert.True(t, got.TotalDistribution.Equal(money.FromInt(250)))

	byCampaign, err := s.DistributionRunsByCampaign(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, byCampaign, 1)
	assert.Len(t, byCampaign[0].Items, 2, "child rows load on list queries too")
}

func TestWriteoffRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	approved := day(2025, time.June, 15)
	w := &engine.Writeoff{
		ID: "wo-1", Pledge: "p1", Amount: money.FromInt(800),
		Date: day(2025, time.June, 1), Reason: "donor left employer",
		ApprovedBy: "finance-director", ApprovedAt: &approved,
		Status: engine.Submitted,
	}
	require.NoError(t, s.SaveWriteoff(ctx, w))

	got, err := s.GetWriteoff(ctx, "wo-1")
	require.NoError(t, err)
	assert.Equal(t, "finance-director", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(approved))

	byPledge, err := s.WriteoffsByPledge(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, byPledge, 1)
}

func TestRemittanceRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	r := &engine.Remittance{
		ID: "rem-1", Campaign: "c1", Date: day(2025, time.April, 1),
		ReferenceNumber: "ACH-2025-04", DeclaredTotal: money.FromInt(150),
		Items: []engine.RemittanceItem{
			{Donor: "donor-chen", Amount: money.FromInt(100), Pledge: "p1",
				Campaign: "c1", PaymentMethod: "ACH/Bank Transfer", Donation: "don-1"},
			{Donor: "donor-smith", Amount: money.FromInt(50), Campaign: "c1",
				PaymentMethod: "Check", CheckNumber: "1042"},
		},
		ItemsTotal: money.FromInt(150), Variance: money.Zero(),
		DonationsCreated: 1,
		Status:           engine.Draft,
	}
	require.NoError(t, s.SaveRemittance(ctx, r))

	got, err := s.GetRemittance(ctx, "rem-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, engine.DonationID("don-1"), got.Items[0].Donation)
	assert.Equal(t, "1042", got.Items[1].CheckNumber)
	assert.Equal(t, 1, got.DonationsCreated)

	all, err := s.ListRemittances(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Items, 2)
}

func TestServiceOnSQLiteStore(t *testing.T) {
	// The engine cascade against real persistence, not the in-memory
	// store: submit a pledge and a donation, read the rollups back.
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveOrganization(ctx, &engine.Organization{
		ID: "food-bank", Name: "Community Food Bank", Type: engine.OrgMemberAgency, Status: "active"}))
	require.NoError(t, s.SaveDonor(ctx, &engine.Donor{
		ID: "donor-1", FirstName: "Pat", LastName: "Davis", Status: "active"}))
	require.NoError(t, s.SaveCampaign(ctx, &engine.Campaign{
		ID: "c1", Name: "Annual", Goal: money.FromInt(100000), Status: engine.Submitted}))

	svc := engine.NewService(s, nil, nil)

	p := &engine.Pledge{
		ID: "p1", Campaign: "c1", Donor: "donor-1",
		Amount: money.FromInt(2000), PledgeDate: day(2025, time.January, 15),
		Frequency: engine.FrequencyMonthly,
		Allocations: []engine.Allocation{
			{Agency: "food-bank", Percentage: money.PercentFromFloat(100)},
		},
		Status: engine.Draft,
	}
	_, err := svc.SubmitPledge(ctx, p)
	require.NoError(t, err)

	_, err = svc.SubmitDonation(ctx, &engine.Donation{
		ID: "d1", Donor: "donor-1", Campaign: "c1", Pledge: "p1",
		Amount: money.FromInt(500), Date: day(2025, time.March, 1), Status: engine.Draft,
	})
	require.NoError(t, err)

	saved, err := s.GetPledge(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, saved.TotalCollected.Equal(money.FromInt(500)))
	assert.Equal(t, engine.CollectionInProgress, saved.CollectionStatus)
	assert.Len(t, saved.Schedule, 12)

	c, err := s.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, c.TotalCollected.Equal(money.FromInt(500)))
	assert.True(t, c.TotalPledged.Equal(money.FromInt(2000)))
}
