package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher re-checks every tracked product
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// Sweeper drops expired cache entries
type Sweeper interface {
	Sweep() int
}

// PriceChecker runs the scheduled product refresh and cache sweep
type PriceChecker struct {
	cron           *cron.Cron
	refresher      Refresher
	sweeper        Sweeper
	refreshSpec    string
	sweepSpec      string
	refreshTimeout time.Duration
}

func NewPriceChecker(refresher Refresher, sweeper Sweeper, refreshSpec, sweepSpec string) *PriceChecker {
	return &PriceChecker{
		cron:           cron.New(cron.WithSeconds()),
		refresher:      refresher,
		sweeper:        sweeper,
		refreshSpec:    refreshSpec,
		sweepSpec:      sweepSpec,
		refreshTimeout: 30 * time.Minute,
	}
}

// Start registers the jobs and starts the cron runner
func (pc *PriceChecker) Start() error {
	if pc.refreshSpec != "" && pc.refresher != nil {
		if _, err := pc.cron.AddFunc(pc.refreshSpec, pc.checkAllPrices); err != nil {
			return fmt.Errorf("failed to schedule price refresh: %w", err)
		}
		log.Printf("⏰ Price refresh scheduled (%s)", pc.refreshSpec)
	}

	if pc.sweepSpec != "" && pc.sweeper != nil {
		if _, err := pc.cron.AddFunc(pc.sweepSpec, pc.sweepCache); err != nil {
			return fmt.Errorf("failed to schedule cache sweep: %w", err)
		}
		log.Printf("⏰ Cache sweep scheduled (%s)", pc.sweepSpec)
	}

	pc.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (pc *PriceChecker) Stop() {
	if pc.cron != nil {
		<-pc.cron.Stop().Done()
	}
}

// checkAllPrices refreshes prices for all tracked URLs
func (pc *PriceChecker) checkAllPrices() {
	log.Println("🔄 Starting scheduled price check for all tracked URLs")

	ctx, cancel := context.WithTimeout(context.Background(), pc.refreshTimeout)
	defer cancel()

	start := time.Now()
	refreshed, err := pc.refresher.RefreshAll(ctx)
	if err != nil {
		log.Printf("❌ Scheduled price check stopped after %d products: %v", refreshed, err)
		return
	}
	log.Printf("✅ Scheduled price check finished: %d products priced in %v", refreshed, time.Since(start).Round(time.Second))
}

func (pc *PriceChecker) sweepCache() {
	if removed := pc.sweeper.Sweep(); removed > 0 {
		log.Printf("🧹 Swept %d expired cache entries", removed)
	}
}
