package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/money"
)

func collectedPledge(id string, amount float64, collectedPct float64, allocations ...engine.Allocation) engine.Pledge {
	p := testPledge(amount, allocations...)
	p.ID = engine.PledgeID(id)
	engine.ComputeAllocationAmounts(p)
	p.CollectionPercentage = pct(collectedPct)
	return *p
}

func TestCollectByAgency_ProportionalShares(t *testing.T) {
	// GIVEN: a $5,000 pledge split 60/40, 50% collected overall
	pledges := []engine.Pledge{
		collectedPledge("p1", 5000, 50,
			engine.Allocation{Agency: "food-bank", Percentage: pct(60)},
			engine.Allocation{Agency: "shelter", Percentage: pct(40)},
		),
	}

	// WHEN
	collections := engine.CollectByAgency("campaign-1", pledges)

	// THEN: each agency's collected share is its allocation scaled by the
	// pledge's collection percentage
	require.Len(t, collections, 2)
	assert.Equal(t, engine.OrgID("food-bank"), collections[0].Agency)
	assert.True(t, collections[0].TotalAllocated.Equal(amt(3000)))
	assert.True(t, collections[0].TotalCollected.Equal(amt(1500)))
	assert.Equal(t, engine.OrgID("shelter"), collections[1].Agency)
	assert.True(t, collections[1].TotalCollected.Equal(amt(1000)))
}

func TestCollectByAgency_SkipsDraftAndOtherCampaigns(t *testing.T) {
	draft := collectedPledge("p1", 1000, 100, engine.Allocation{Agency: "A", Percentage: pct(100)})
	draft.Status = engine.Draft
	other := collectedPledge("p2", 1000, 100, engine.Allocation{Agency: "A", Percentage: pct(100)})
	other.Campaign = "elsewhere"

	collections := engine.CollectByAgency("campaign-1", []engine.Pledge{draft, other})
	assert.Empty(t, collections)
}

func run(id string, campaign engine.CampaignID, status engine.DocStatus, items ...engine.DistributionItem) engine.DistributionRun {
	return engine.DistributionRun{
		ID:          engine.RunID(id),
		Campaign:    campaign,
		PeriodStart: date(2025, time.January, 1),
		PeriodEnd:   date(2025, time.March, 31),
		RunDate:     date(2025, time.April, 1),
		Items:       items,
		Status:      status,
	}
}

func TestBuildDistributionItems_Waterfall(t *testing.T) {
	// GIVEN: an agency with $1,200 collected and no prior runs
	pledges := []engine.Pledge{
		collectedPledge("p1", 3000, 40, engine.Allocation{Agency: "A", Percentage: pct(100)}),
	}

	// WHEN: first run
	items := engine.BuildDistributionItems("campaign-1", pledges, nil)

	// THEN: the full $1,200 pays out
	require.Len(t, items, 1)
	assert.True(t, items[0].DistributionAmount.Equal(amt(1200)))
	assert.True(t, items[0].PreviouslyDistributed.IsZero())

	// WHEN: collections grow to $3,000 and the first run was submitted
	pledges[0].CollectionPercentage = pct(100)
	prior := []engine.DistributionRun{
		run("r1", "campaign-1", engine.Submitted, items...),
	}
	items = engine.BuildDistributionItems("campaign-1", pledges, prior)

	// THEN: only the delta pays out
	require.Len(t, items, 1)
	assert.True(t, items[0].DistributionAmount.Equal(amt(1800)), "got %s", items[0].DistributionAmount)
	assert.True(t, items[0].PreviouslyDistributed.Equal(amt(1200)))

	// WHEN: nothing changed since the second run
	prior = append(prior, run("r2", "campaign-1", engine.Submitted, items...))
	items = engine.BuildDistributionItems("campaign-1", pledges, prior)

	// THEN: nothing left to distribute, agency omitted entirely
	assert.Empty(t, items)
}

func TestBuildDistributionItems_IgnoresCancelledRuns(t *testing.T) {
	pledges := []engine.Pledge{
		collectedPledge("p1", 1000, 100, engine.Allocation{Agency: "A", Percentage: pct(100)}),
	}
	cancelled := run("r1", "campaign-1", engine.Cancelled, engine.DistributionItem{
		Agency:             "A",
		DistributionAmount: amt(1000),
	})

	items := engine.BuildDistributionItems("campaign-1", pledges, []engine.DistributionRun{cancelled})

	require.Len(t, items, 1)
	assert.True(t, items[0].DistributionAmount.Equal(amt(1000)))
}

func TestValidateRun_RecomputesTotals(t *testing.T) {
	r := run("r1", "campaign-1", engine.Draft,
		engine.DistributionItem{Agency: "A", DistributionAmount: amt(700)},
		engine.DistributionItem{Agency: "B", DistributionAmount: amt(300)},
	)
	r.TotalDistribution = money.FromFloat(999999) // stale, must be overwritten

	require.NoError(t, engine.ValidateRun(&r))
	assert.True(t, r.TotalDistribution.Equal(amt(1000)))
	assert.Equal(t, 2, r.AgencyCount)
}

func TestValidateRun_Rejections(t *testing.T) {
	empty := run("r1", "campaign-1", engine.Draft)
	assert.Error(t, engine.ValidateRun(&empty))

	backwards := run("r2", "campaign-1", engine.Draft,
		engine.DistributionItem{Agency: "A", DistributionAmount: amt(100)})
	backwards.PeriodEnd = backwards.PeriodStart.AddDate(0, 0, -1)
	assert.Error(t, engine.ValidateRun(&backwards))

	zeroItem := run("r3", "campaign-1", engine.Draft,
		engine.DistributionItem{Agency: "A", DistributionAmount: money.Zero()})
	err := engine.ValidateRun(&zeroItem)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "greater than zero")
}
