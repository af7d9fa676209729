// Package scheduler runs the monthly interest batch inside the API process.
//
// Every CheckInterval the scheduler runs the batch for accounts that have
// not accrued since the start of the current calendar month (UTC), so
// restarts and short intervals never pay an account twice in a month.
// Deployments that prefer an external cron use cmd/interest instead.
package scheduler

import (
	"context"
	"sync"
	"time"

	"piggybank/internal/ledger"
	"piggybank/internal/logger"
)

// DefaultCheckInterval is used when no positive interval is configured.
const DefaultCheckInterval = time.Hour

// BatchRunner runs an interest batch.
type BatchRunner interface {
	RunInterestBatch(ctx context.Context, opts ledger.BatchOptions) (*ledger.BatchReport, error)
}

// InterestScheduler periodically triggers the interest batch.
type InterestScheduler struct {
	Runner        BatchRunner
	CheckInterval time.Duration
	Enabled       bool

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewInterestScheduler creates a new scheduler with a one hour interval.
func NewInterestScheduler(runner BatchRunner) *InterestScheduler {
	return &InterestScheduler{
		Runner:        runner,
		CheckInterval: DefaultCheckInterval,
		Enabled:       true,
		now:           time.Now,
	}
}

// Start begins the scheduler. The first check runs immediately.
func (s *InterestScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.Get()
	if !s.Enabled {
		log.Info("Interest scheduler disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}
	if s.CheckInterval <= 0 {
		log.Warnw("Invalid interest check interval, using default", "interval", s.CheckInterval.String(), "default", DefaultCheckInterval.String())
		s.CheckInterval = DefaultCheckInterval
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker, s.stop)

	log.Infow("Interest scheduler started", "interval", s.CheckInterval.String())
}

// Stop stops the scheduler and waits for a running batch to finish.
func (s *InterestScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	logger.Get().Info("Interest scheduler stopped")
}

func (s *InterestScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	s.RunNow(ctx)
	for {
		select {
		case <-ticker.C:
			s.RunNow(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow runs one check immediately and returns the batch report.
func (s *InterestScheduler) RunNow(ctx context.Context) *ledger.BatchReport {
	cycle := CycleStart(s.now())
	report, err := s.Runner.RunInterestBatch(ctx, ledger.BatchOptions{NotAccruedSince: &cycle})
	if err != nil {
		logger.Get().Errorw("Scheduled interest batch failed", "cycle", cycle, "error", err)
	}
	return report
}

// CycleStart returns the first instant of the accrual cycle containing t.
func CycleStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
