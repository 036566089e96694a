package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) RefreshAll(ctx context.Context) (int, error) {
	r.calls.Add(1)
	return 0, nil
}

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) Sweep() int {
	s.calls.Add(1)
	return 0
}

func TestPriceChecker_RunsJobs(t *testing.T) {
	t.Parallel()

	refresher := &countingRefresher{}
	sweeper := &countingSweeper{}
	pc := NewPriceChecker(refresher, sweeper, "@every 1s", "@every 1s")
	if err := pc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if refresher.calls.Load() > 0 && sweeper.calls.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	pc.Stop()

	if refresher.calls.Load() == 0 {
		t.Fatal("refresh job never ran")
	}
	if sweeper.calls.Load() == 0 {
		t.Fatal("sweep job never ran")
	}
}

func TestPriceChecker_InvalidSpec(t *testing.T) {
	t.Parallel()

	pc := NewPriceChecker(&countingRefresher{}, nil, "not a cron spec", "")
	if err := pc.Start(); err == nil {
		t.Fatal("Start() expected error for invalid spec")
	}
}

func TestPriceChecker_DisabledJobs(t *testing.T) {
	t.Parallel()

	pc := NewPriceChecker(nil, nil, "", "")
	if err := pc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if n := len(pc.cron.Entries()); n != 0 {
		t.Fatalf("scheduled %d jobs, want 0", n)
	}
	pc.Stop()
}
