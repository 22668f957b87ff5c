package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/money"
)

func donationOn(id string, donor engine.DonorID, amount float64, on time.Time) engine.Donation {
	return engine.Donation{
		ID:     engine.DonationID(id),
		Donor:  donor,
		Amount: amt(amount),
		Date:   on,
		Status: engine.Submitted,
	}
}

func TestRecomputeDonorStats_FullDerivation(t *testing.T) {
	// GIVEN: three years of giving, most recent first after sort
	donor := &engine.Donor{ID: "donor-1", FirstName: "Pat", LastName: "Davis"}
	donations := []engine.Donation{
		donationOn("d1", "donor-1", 300, date(2023, time.May, 1)),
		donationOn("d2", "donor-1", 400, date(2024, time.June, 1)),
		donationOn("d3", "donor-1", 500, date(2025, time.April, 10)),
	}

	// WHEN
	engine.RecomputeDonorStats(donor, donations)

	// THEN
	assert.True(t, donor.LifetimeGiving.Equal(amt(1200)))
	assert.True(t, donor.LastDonationAmount.Equal(amt(500)))
	require.NotNil(t, donor.LastDonationDate)
	assert.Equal(t, date(2025, time.April, 10), *donor.LastDonationDate)
	assert.Equal(t, 3, donor.ConsecutiveYearsGiving)
	assert.Equal(t, engine.LevelLeadership, donor.Level)
}

func TestRecomputeDonorStats_GapBreaksStreak(t *testing.T) {
	// 2021 gift, then nothing until 2024-2025: streak counts backward
	// from the most recent year and stops at the gap.
	donor := &engine.Donor{ID: "donor-1"}
	donations := []engine.Donation{
		donationOn("d1", "donor-1", 100, date(2021, time.May, 1)),
		donationOn("d2", "donor-1", 100, date(2024, time.May, 1)),
		donationOn("d3", "donor-1", 100, date(2025, time.May, 1)),
	}

	engine.RecomputeDonorStats(donor, donations)
	assert.Equal(t, 2, donor.ConsecutiveYearsGiving)
}

func TestRecomputeDonorStats_IgnoresCancelledAndOthers(t *testing.T) {
	donor := &engine.Donor{ID: "donor-1"}
	cancelled := donationOn("d1", "donor-1", 900, date(2025, time.May, 1))
	cancelled.Status = engine.Cancelled
	other := donationOn("d2", "donor-2", 900, date(2025, time.May, 1))

	engine.RecomputeDonorStats(donor, []engine.Donation{cancelled, other})

	assert.True(t, donor.LifetimeGiving.IsZero())
	assert.Nil(t, donor.LastDonationDate)
	assert.Equal(t, 0, donor.ConsecutiveYearsGiving)
	assert.Equal(t, engine.LevelNone, donor.Level)
}

func TestLevelFor_Thresholds(t *testing.T) {
	cases := []struct {
		lifetime float64
		want     engine.DonorLevel
	}{
		{0, engine.LevelNone},
		{50, engine.LevelSupporter},
		{100, engine.LevelPartner},
		{499.99, engine.LevelPartner},
		{500, engine.LevelCommunityBuilder},
		{1000, engine.LevelLeadership},
		{9999.99, engine.LevelLeadership},
		{10000, engine.LevelTocqueville},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, engine.LevelFor(money.FromFloat(tc.lifetime)),
			"lifetime %v", tc.lifetime)
	}
}

func TestOverdueEntries_FlipsOnlyPastPending(t *testing.T) {
	p := testPledge(300)
	p.Schedule = []engine.ScheduleEntry{
		{DueDate: date(2025, time.January, 15), ExpectedAmount: amt(100), Status: engine.SchedulePaid},
		{DueDate: date(2025, time.February, 15), ExpectedAmount: amt(100), Status: engine.SchedulePending},
		{DueDate: date(2025, time.June, 15), ExpectedAmount: amt(100), Status: engine.SchedulePending},
	}

	flipped := engine.OverdueEntries(p, date(2025, time.March, 1))

	assert.Equal(t, 1, flipped)
	assert.Equal(t, engine.SchedulePaid, p.Schedule[0].Status)
	assert.Equal(t, engine.ScheduleOverdue, p.Schedule[1].Status)
	assert.Equal(t, engine.SchedulePending, p.Schedule[2].Status)
}
