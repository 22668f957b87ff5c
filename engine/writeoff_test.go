package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedfund/pledge-engine/engine"
)

func writeoffAgainst(p *engine.Pledge, amount float64) *engine.Writeoff {
	return &engine.Writeoff{
		ID:     "wo-1",
		Pledge: p.ID,
		Amount: amt(amount),
		Date:   date(2025, time.June, 1),
		Reason: "donor left employer",
		Status: engine.Draft,
	}
}

func TestValidateWriteoff_WithinOutstanding_Passes(t *testing.T) {
	p := testPledge(1000)
	p.OutstandingBalance = amt(1000)

	assert.NoError(t, engine.ValidateWriteoff(writeoffAgainst(p, 400), p))
	assert.NoError(t, engine.ValidateWriteoff(writeoffAgainst(p, 1000), p))
}

func TestValidateWriteoff_ExceedsOutstanding_Fails(t *testing.T) {
	p := testPledge(1000)
	p.OutstandingBalance = amt(1000)

	err := engine.ValidateWriteoff(writeoffAgainst(p, 1500), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrValidation)

	var bounds *engine.WriteoffBoundsError
	require.ErrorAs(t, err, &bounds)
	assert.True(t, bounds.Outstanding.Equal(amt(1000)))
}

func TestValidateWriteoff_ZeroOrNegative_Fails(t *testing.T) {
	p := testPledge(1000)
	p.OutstandingBalance = amt(1000)

	assert.Error(t, engine.ValidateWriteoff(writeoffAgainst(p, 0), p))
	assert.Error(t, engine.ValidateWriteoff(writeoffAgainst(p, -50), p))
}

func TestValidateWriteoff_PledgeNotSubmitted_Fails(t *testing.T) {
	p := testPledge(1000)
	p.OutstandingBalance = amt(1000)
	p.Status = engine.Draft

	err := engine.ValidateWriteoff(writeoffAgainst(p, 400), p)
	assert.ErrorIs(t, err, engine.ErrNotSubmitted)
}

func TestApplyWriteoff_FullOutstanding(t *testing.T) {
	// GIVEN: a pledge with one paid entry and the rest pending/overdue
	p := testPledge(1200)
	p.OutstandingBalance = amt(1000)
	p.Schedule = []engine.ScheduleEntry{
		{DueDate: date(2025, time.January, 15), ExpectedAmount: amt(100), Status: engine.SchedulePaid},
		{DueDate: date(2025, time.February, 15), ExpectedAmount: amt(100), Status: engine.ScheduleOverdue},
		{DueDate: date(2025, time.March, 15), ExpectedAmount: amt(100), Status: engine.SchedulePending},
	}

	// WHEN: the full outstanding balance is written off
	engine.ApplyWriteoff(writeoffAgainst(p, 1000), p)

	// THEN: collection closes and unpaid entries are written off; the
	// paid entry keeps its history
	assert.Equal(t, engine.CollectionWrittenOff, p.CollectionStatus)
	assert.Equal(t, engine.SchedulePaid, p.Schedule[0].Status)
	assert.Equal(t, engine.ScheduleWrittenOff, p.Schedule[1].Status)
	assert.Equal(t, engine.ScheduleWrittenOff, p.Schedule[2].Status)
}

func TestApplyWriteoff_Partial(t *testing.T) {
	p := testPledge(1200)
	p.OutstandingBalance = amt(1000)

	engine.ApplyWriteoff(writeoffAgainst(p, 400), p)

	assert.Equal(t, engine.CollectionPartiallyCollected, p.CollectionStatus)
}
