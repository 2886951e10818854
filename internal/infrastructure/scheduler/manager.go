// Package scheduler runs the optional in-process sweep trigger on gocron v2.
// Production deployments normally leave it off and call the internal sweep
// endpoint from an external cron.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/tenantbilling/internal/shared/biztime"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// SweepStats is what a single sweep run reports back to the scheduler.
type SweepStats struct {
	Processed int
	Skipped   int
	Failed    int
}

// SweepFunc performs one sweep. An error means the run could not start or
// scan; per-tenant failures belong in SweepStats.Failed.
type SweepFunc func(ctx context.Context) (SweepStats, error)

type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	mu      sync.Mutex
	started bool
	lastRun time.Time
}

// NewSchedulerManager creates a scheduler in the business timezone.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(biztime.Location()))
	if err != nil {
		return nil, err
	}
	return &SchedulerManager{scheduler: s, logger: log}, nil
}

// RegisterSweepJob runs sweep every interval, starting immediately, each run
// bounded by timeout. A run still going when the next is due pushes the next
// one back instead of overlapping.
func (m *SchedulerManager) RegisterSweepJob(sweep SweepFunc, interval, timeout time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			m.runSweep(ctx, sweep)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("subscription-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered sweep job", "interval", interval.String(), "timeout", timeout.String())
	return nil
}

func (m *SchedulerManager) runSweep(ctx context.Context, sweep SweepFunc) {
	start := time.Now()
	stats, err := sweep(ctx)

	m.mu.Lock()
	m.lastRun = biztime.NowUTC()
	m.mu.Unlock()

	kv := []interface{}{
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"duration", time.Since(start),
	}
	switch {
	case err != nil:
		m.logger.Errorw("scheduled sweep failed", append(kv, "error", err)...)
	case stats.Failed > 0:
		m.logger.Warnw("scheduled sweep finished with failures", kv...)
	case stats.Processed > 0:
		m.logger.Infow("scheduled sweep completed", kv...)
	default:
		m.logger.Debugw("scheduled sweep found nothing due", kv...)
	}
}

// Start begins executing registered jobs. Calling it twice is a no-op.
func (m *SchedulerManager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for a running sweep to return, then shuts the scheduler down.
func (m *SchedulerManager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Errorw("scheduler shutdown failed", "error", err)
		return err
	}
	m.logger.Infow("scheduler stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// LastRun is when the most recent sweep returned, zero before the first.
func (m *SchedulerManager) LastRun() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRun
}

func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
