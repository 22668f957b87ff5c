/*
scheduler.go - Automated overdue scanner

PURPOSE:

	Periodically scans payment schedules for pending entries whose due
	date has passed and flips them to overdue, so collection reports and
	write-off policy see stale pledges without manual intervention.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Walks every campaign's pledges; only submitted pledges are touched
  - Flipping is idempotent: an entry already overdue stays overdue
  - Saves a pledge only when at least one entry actually flipped

CONFIGURATION:
  - CheckInterval: How often to scan (default: 1 hour)
  - Enabled: Whether the scanner is active (default: true)

USAGE:

	scanner := NewOverdueScanner(store, logger)
	scanner.Start()
	// ... later
	scanner.Stop()

SEE ALSO:
  - engine/donor.go: OverdueEntries
  - engine/writeoff.go: Overdue entries are folded into write-offs
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unitedfund/pledge-engine/engine"
)

// OverdueScanner flips past-due pending schedule entries to overdue.
type OverdueScanner struct {
	Store         engine.Store
	Log           *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewOverdueScanner creates a scanner with the default interval.
func NewOverdueScanner(store engine.Store, log *zap.Logger) *OverdueScanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &OverdueScanner{
		Store:         store,
		Log:           log,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the background scan loop.
func (os *OverdueScanner) Start() {
	os.mu.Lock()
	defer os.mu.Unlock()

	if !os.Enabled {
		os.Log.Info("overdue scanner disabled, not starting")
		return
	}

	os.ticker = time.NewTicker(os.CheckInterval)
	os.wg.Add(1)
	go os.run()

	os.Log.Info("overdue scanner started", zap.Duration("interval", os.CheckInterval))
}

// Stop stops the scanner and waits for an in-flight scan to finish.
func (os *OverdueScanner) Stop() {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.ticker != nil {
		os.ticker.Stop()
		close(os.stop)
		os.wg.Wait()
		os.Log.Info("overdue scanner stopped")
	}
}

func (os *OverdueScanner) run() {
	defer os.wg.Done()

	// Scan immediately on start.
	os.Scan(context.Background(), time.Now())

	for {
		select {
		case <-os.ticker.C:
			os.Scan(context.Background(), time.Now())
		case <-os.stop:
			return
		}
	}
}

// Scan walks all submitted pledges once, flipping overdue entries.
// Returns the number of pledges changed.
func (os *OverdueScanner) Scan(ctx context.Context, asOf time.Time) int {
	campaigns, err := os.Store.ListCampaigns(ctx)
	if err != nil {
		os.Log.Warn("overdue scan: list campaigns failed", zap.Error(err))
		return 0
	}

	changed := 0
	for _, c := range campaigns {
		pledges, err := os.Store.PledgesByCampaign(ctx, c.ID)
		if err != nil {
			os.Log.Warn("overdue scan: list pledges failed",
				zap.String("campaign", string(c.ID)), zap.Error(err))
			continue
		}

		for i := range pledges {
			p := &pledges[i]
			if p.Status != engine.Submitted {
				continue
			}
			flipped := engine.OverdueEntries(p, asOf)
			if flipped == 0 {
				continue
			}
			if err := os.Store.SavePledge(ctx, p); err != nil {
				os.Log.Warn("overdue scan: save pledge failed",
					zap.String("pledge", string(p.ID)), zap.Error(err))
				continue
			}
			changed++
			os.Log.Info("marked schedule entries overdue",
				zap.String("pledge", string(p.ID)),
				zap.Int("entries", flipped))
		}
	}
	return changed
}
