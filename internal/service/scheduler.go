package service

import (
	"context"
	"log/slog"
	"time"
)

// SchedulerService is the reconciliation poller. It drives periodic state
// refreshes for connected clients on a single timer whose interval adapts to
// what the system is doing:
//
//   - driving: this instance is executing a run, poll tight
//   - background: runs are active elsewhere or evaluations are still scoring
//   - idle: nothing in flight, no timer at all
//
// Push events over WebSocket are best-effort; the poller is the convergence
// mechanism for clients that missed one.
type SchedulerService struct {
	driving    time.Duration
	background time.Duration

	isDriving func() bool
	hasWork   func(ctx context.Context) bool
	reconcile func(ctx context.Context)

	kick chan struct{}
	done chan struct{}
}

// NewSchedulerService creates a scheduler.
//
// isDriving reports whether this instance is executing a run right now.
// hasWork reports whether anything in the system still needs polling.
// reconcile performs one refresh pass.
func NewSchedulerService(
	driving, background time.Duration,
	isDriving func() bool,
	hasWork func(ctx context.Context) bool,
	reconcile func(ctx context.Context),
) *SchedulerService {
	return &SchedulerService{
		driving:    driving,
		background: background,
		isDriving:  isDriving,
		hasWork:    hasWork,
		reconcile:  reconcile,
		kick:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Decide returns the polling interval for the current system state, or 0 when
// no polling is needed.
func (s *SchedulerService) Decide(ctx context.Context) time.Duration {
	if s.isDriving() {
		return s.driving
	}
	if s.hasWork(ctx) {
		return s.background
	}
	return 0
}

// Update asks the scheduler to re-evaluate its interval immediately. Safe to
// call from any goroutine; coalesces when a re-plan is already queued.
func (s *SchedulerService) Update() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run owns the polling timer until ctx is cancelled or Stop is called.
func (s *SchedulerService) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		interval := s.Decide(ctx)

		var tick <-chan time.Time
		if interval > 0 {
			timer.Reset(interval)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.done:
			timer.Stop()
			return
		case <-s.kick:
			// Interval may have changed; restart the loop with a fresh timer.
			if tick != nil && !timer.Stop() {
				<-timer.C
			}
		case <-tick:
			s.reconcile(ctx)
		}
	}
}

// Stop terminates the polling loop.
func (s *SchedulerService) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	slog.Info("scheduler stopped")
}
