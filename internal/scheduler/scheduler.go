// Package scheduler runs the recurring checks. Monitors are grouped by
// their configured interval; each interval bucket owns one ticker and,
// on every tick, checks all active monitors in that bucket. The buckets
// are independent of each other and of the stores they read.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/watchpost-dev/watchpost/internal/models"
	"github.com/watchpost-dev/watchpost/internal/store"
	"github.com/watchpost-dev/watchpost/internal/uptime"
	"go.uber.org/zap"
)

var (
	mChecks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchpost_checks_total", Help: "Checks executed by the scheduler",
	})
	mCheckErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchpost_check_errors_total", Help: "Check pipelines that returned an error",
	})
	mTickDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "watchpost_tick_duration_seconds", Help: "Duration of one interval bucket tick",
		Buckets: prometheus.DefBuckets,
	})
)

type Scheduler struct {
	service  *uptime.Service
	monitors *store.MonitorStore
	log      *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(service *uptime.Service, monitors *store.MonitorStore, log *zap.Logger) *Scheduler {
	return &Scheduler{
		service:  service,
		monitors: monitors,
		log:      log,
	}
}

// Start launches one ticker goroutine per supported interval. The tickers
// run until Stop is called; they are not synchronized with each other.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, interval := range models.CheckIntervals {
		s.wg.Add(1)
		go s.runBucket(ctx, interval)
	}

	s.log.Info("scheduler started", zap.Int("buckets", len(models.CheckIntervals)))
}

// Stop cancels all bucket tickers and waits for in-flight ticks to return.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runBucket(ctx context.Context, interval int) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runChecksForInterval(ctx, interval)
		}
	}
}

// runChecksForInterval checks every active monitor in the bucket. Each
// monitor runs in its own goroutine and its failure is logged and
// absorbed, never reaching siblings or the next tick.
func (s *Scheduler) runChecksForInterval(ctx context.Context, interval int) {
	start := time.Now()
	defer func() {
		mTickDur.Observe(time.Since(start).Seconds())
	}()

	due, err := s.monitors.FindActiveByInterval(interval)

	if err != nil {
		mCheckErrors.Inc()
		s.log.Error("failed to load monitors for interval",
			zap.Int("interval", interval),
			zap.Error(err))
		return
	}

	if len(due) == 0 {
		return
	}

	s.log.Debug("running bucket tick",
		zap.Int("interval", interval),
		zap.Int("monitors", len(due)))

	var wg sync.WaitGroup

	for _, monitor := range due {
		wg.Add(1)

		go func(monitor models.Monitor) {
			defer wg.Done()
			s.checkMonitor(ctx, monitor)
		}(monitor)
	}

	wg.Wait()
}

func (s *Scheduler) checkMonitor(ctx context.Context, monitor models.Monitor) {
	mChecks.Inc()

	check, err := s.service.PerformCheck(ctx, monitor.ID)

	if err != nil {
		// A monitor deleted or paused after the bucket query is
		// routine churn, and a cancelled context means Stop caught the
		// check mid-probe; anything else is a real error.
		if errors.Is(err, uptime.ErrMonitorNotFound) ||
			errors.Is(err, uptime.ErrMonitorInactive) ||
			errors.Is(err, context.Canceled) {
			s.log.Debug("skipping monitor",
				zap.String("monitor_id", monitor.ID.String()),
				zap.Error(err))
			return
		}

		mCheckErrors.Inc()
		s.log.Error("check pipeline failed",
			zap.String("monitor_id", monitor.ID.String()),
			zap.String("monitor_name", monitor.Name),
			zap.Error(err))
		return
	}

	s.log.Debug("check recorded",
		zap.String("monitor_id", monitor.ID.String()),
		zap.Bool("success", check.Success))
}
