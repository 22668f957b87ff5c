package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedfund/pledge-engine/api"
	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/engine/store"
	"github.com/unitedfund/pledge-engine/money"
)

func TestOverdueScanner_Scan(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.SaveCampaign(ctx, &engine.Campaign{
		ID: "c1", Name: "Annual", Goal: money.FromInt(100000), Status: engine.Submitted}))

	jan := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, mem.SavePledge(ctx, &engine.Pledge{
		ID: "p1", Campaign: "c1", Donor: "d1", Amount: money.FromInt(300),
		PledgeDate: jan, Status: engine.Submitted,
		Schedule: []engine.ScheduleEntry{
			{DueDate: jan, ExpectedAmount: money.FromInt(100), Status: engine.SchedulePaid},
			{DueDate: feb, ExpectedAmount: money.FromInt(100), Status: engine.SchedulePending},
			{DueDate: jun, ExpectedAmount: money.FromInt(100), Status: engine.SchedulePending},
		},
	}))
	// Draft pledges are never scanned.
	require.NoError(t, mem.SavePledge(ctx, &engine.Pledge{
		ID: "p2", Campaign: "c1", Donor: "d1", Amount: money.FromInt(100),
		PledgeDate: jan, Status: engine.Draft,
		Schedule: []engine.ScheduleEntry{
			{DueDate: feb, ExpectedAmount: money.FromInt(100), Status: engine.SchedulePending},
		},
	}))

	scanner := api.NewOverdueScanner(mem, nil)
	changed := scanner.Scan(ctx, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, changed)

	p, err := mem.GetPledge(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, engine.SchedulePaid, p.Schedule[0].Status)
	assert.Equal(t, engine.ScheduleOverdue, p.Schedule[1].Status)
	assert.Equal(t, engine.SchedulePending, p.Schedule[2].Status)

	draft, err := mem.GetPledge(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, engine.SchedulePending, draft.Schedule[0].Status)

	// A second scan at the same instant changes nothing.
	assert.Equal(t, 0, scanner.Scan(ctx, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))
}
