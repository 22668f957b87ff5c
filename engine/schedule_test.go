package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedfund/pledge-engine/engine"
)

func TestGeneratePaymentSchedule_Monthly(t *testing.T) {
	// GIVEN: $1,200/year deducted monthly starting Jan 15
	p := testPledge(1200)
	p.Frequency = engine.FrequencyMonthly

	// WHEN
	entries := engine.GeneratePaymentSchedule(p)

	// THEN: 12 entries of $100, one per calendar month
	require.Len(t, entries, 12)
	for i, e := range entries {
		assert.True(t, e.ExpectedAmount.Equal(amt(100)), "entry %d: %s", i, e.ExpectedAmount)
		assert.Equal(t, engine.SchedulePending, e.Status)
	}
	assert.Equal(t, date(2025, time.January, 15), entries[0].DueDate)
	assert.Equal(t, date(2025, time.February, 15), entries[1].DueDate)
	assert.Equal(t, date(2025, time.December, 15), entries[11].DueDate)
}

func TestGeneratePaymentSchedule_MonthEndClamping(t *testing.T) {
	// A deduction anchored on Jan 31 must land in February, not skip to
	// March the way naive date addition would.
	p := testPledge(1200)
	p.Frequency = engine.FrequencyMonthly
	p.PledgeDate = date(2025, time.January, 31)

	entries := engine.GeneratePaymentSchedule(p)

	require.Len(t, entries, 12)
	assert.Equal(t, date(2025, time.February, 28), entries[1].DueDate)
	assert.Equal(t, date(2025, time.March, 31), entries[2].DueDate)
	assert.Equal(t, date(2025, time.April, 30), entries[3].DueDate)
}

func TestGeneratePaymentSchedule_LeapFebruary(t *testing.T) {
	p := testPledge(1200)
	p.Frequency = engine.FrequencyMonthly
	p.PledgeDate = date(2024, time.January, 31)

	entries := engine.GeneratePaymentSchedule(p)
	assert.Equal(t, date(2024, time.February, 29), entries[1].DueDate)
}

func TestGeneratePaymentSchedule_Weekly(t *testing.T) {
	p := testPledge(1200)
	p.Frequency = engine.FrequencyWeekly

	entries := engine.GeneratePaymentSchedule(p)

	require.Len(t, entries, 52)
	// 1200/52 rounds to 23.08 per paycheck.
	assert.Equal(t, "23.08", entries[0].ExpectedAmount.String())
	assert.Equal(t, date(2025, time.January, 15), entries[0].DueDate)
	assert.Equal(t, date(2025, time.January, 22), entries[1].DueDate)
}

func TestGeneratePaymentSchedule_BiWeeklyAndQuarterly(t *testing.T) {
	p := testPledge(2600)
	p.Frequency = engine.FrequencyBiWeekly
	entries := engine.GeneratePaymentSchedule(p)
	require.Len(t, entries, 26)
	assert.True(t, entries[0].ExpectedAmount.Equal(amt(100)))
	assert.Equal(t, date(2025, time.January, 29), entries[1].DueDate)

	p = testPledge(4000)
	p.Frequency = engine.FrequencyQuarterly
	entries = engine.GeneratePaymentSchedule(p)
	require.Len(t, entries, 4)
	assert.True(t, entries[0].ExpectedAmount.Equal(amt(1000)))
	assert.Equal(t, date(2025, time.April, 15), entries[1].DueDate)
}

func TestGeneratePaymentSchedule_OneTime(t *testing.T) {
	p := testPledge(5000)
	p.Frequency = engine.FrequencyOneTime

	entries := engine.GeneratePaymentSchedule(p)

	require.Len(t, entries, 1)
	assert.True(t, entries[0].ExpectedAmount.Equal(amt(5000)))
	assert.Equal(t, p.PledgeDate, entries[0].DueDate)
}

func TestGeneratePaymentSchedule_PayrollStartDateWins(t *testing.T) {
	p := testPledge(1200)
	p.Frequency = engine.FrequencyMonthly
	start := date(2025, time.March, 1)
	p.PayrollStartDate = &start

	entries := engine.GeneratePaymentSchedule(p)
	assert.Equal(t, start, entries[0].DueDate)
}

func TestScheduleTotal_PerLineRoundingDrift(t *testing.T) {
	// 1000/52 = 19.23 per line; 52 lines total 999.96, not 1000.
	p := testPledge(1000)
	p.Frequency = engine.FrequencyWeekly

	entries := engine.GeneratePaymentSchedule(p)
	total := engine.ScheduleTotal(entries)

	assert.Equal(t, "999.96", total.String())
}
