package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/TrailBench/internal/adapter/otel"
	"github.com/Strob0t/TrailBench/internal/adapter/ws"
	"github.com/Strob0t/TrailBench/internal/domain"
	"github.com/Strob0t/TrailBench/internal/domain/run"
	"github.com/Strob0t/TrailBench/internal/port/broadcast"
	"github.com/Strob0t/TrailBench/internal/port/database"
	"github.com/Strob0t/TrailBench/internal/port/evaluation"
	"github.com/Strob0t/TrailBench/internal/port/messagequeue"
)

// ExecutorService starts benchmark runs and drives their test cases through
// the evaluation service sequentially. One run executes on one goroutine;
// cancellation is cooperative and takes effect at test-case boundaries, so an
// in-flight evaluation always finishes and records its result.
type ExecutorService struct {
	store     database.Store
	evaluator evaluation.Evaluator
	reports   *ReportService
	queue     messagequeue.Queue
	hub       broadcast.Broadcaster
	metrics   *otel.Metrics

	// locks serializes status writes per run id. All run mutations
	// (executor transitions and Cancel) go through the same mutex.
	locks sync.Map // map[string]*sync.Mutex

	// active counts runs currently executing on this instance.
	active atomic.Int64

	// onChange, when set, is invoked after a run starts or reaches a
	// terminal state so the reconciliation scheduler can re-plan.
	onChange func()
}

// NewExecutorService creates an executor service.
func NewExecutorService(
	store database.Store,
	evaluator evaluation.Evaluator,
	reports *ReportService,
	queue messagequeue.Queue,
	hub broadcast.Broadcaster,
	metrics *otel.Metrics,
) *ExecutorService {
	return &ExecutorService{
		store:     store,
		evaluator: evaluator,
		reports:   reports,
		queue:     queue,
		hub:       hub,
		metrics:   metrics,
	}
}

// SetOnChange registers a hook invoked whenever a run starts or finishes.
func (s *ExecutorService) SetOnChange(fn func()) {
	s.onChange = fn
}

// Start creates a run pinned to the benchmark's current version and launches
// its execution in the background. The returned run is already persisted with
// every test case pending.
func (s *ExecutorService) Start(ctx context.Context, benchmarkID string, req *run.StartRequest) (*run.Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b, err := s.store.GetBenchmark(ctx, benchmarkID)
	if err != nil {
		return nil, err
	}
	version := b.CurrentVersion()
	if version == 0 {
		return nil, fmt.Errorf("benchmark %s has no test cases: %w", benchmarkID, domain.ErrValidation)
	}
	snapshot, _ := b.Snapshot(version)

	r := &run.Run{
		ID:               uuid.New().String(),
		BenchmarkID:      benchmarkID,
		Name:             req.Name,
		Description:      req.Description,
		AgentKey:         req.AgentKey,
		ModelID:          req.ModelID,
		BenchmarkVersion: version,
		Status:           run.StatusPending,
		CreatedAt:        time.Now().UTC(),
		Results:          make(map[string]run.Result, len(snapshot.TestCaseIDs)),
	}
	for _, tcID := range snapshot.TestCaseIDs {
		r.Results[tcID] = run.Result{Status: run.StatusPending}
	}

	if err := s.store.UpsertRun(ctx, r); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RunsStarted.Add(ctx, 1)
	}
	slog.Info("run started",
		"run_id", r.ID,
		"benchmark_id", benchmarkID,
		"benchmark_version", version,
		"test_cases", len(snapshot.TestCaseIDs),
	)

	// Execution outlives the HTTP request that started it.
	go s.execute(context.WithoutCancel(ctx), r.ID, snapshot.TestCaseIDs)

	s.notifyChange()
	return r, nil
}

// Cancel requests cancellation of a running run. Pending results flip to
// cancelled immediately; a result currently running is left for the executor
// to finish and record. Cancelling a run that is not running is a no-op: the
// returned flag reports whether the request was accepted, and errors are
// reserved for missing runs and store failures.
//
// Acceptance also admits a run whose explicit status is still pending: Start
// persists the run before its goroutine flips it to running, and a cancel
// landing in that window must not be refused.
func (s *ExecutorService) Cancel(ctx context.Context, runID string) (bool, error) {
	mu := s.lockFor(runID)
	mu.Lock()
	defer mu.Unlock()

	r, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return false, err
	}
	if run.EffectiveStatus(r) != run.StatusRunning && r.Status != run.StatusPending {
		return false, nil
	}

	var flipped []string
	for tcID, res := range r.Results {
		if res.Status == run.StatusPending {
			res.Status = run.StatusCancelled
			r.Results[tcID] = res
			flipped = append(flipped, tcID)
		}
	}
	r.Status = run.StatusCancelled
	if err := s.store.UpsertRun(ctx, r); err != nil {
		return false, err
	}

	if s.metrics != nil {
		s.metrics.RunsCancelled.Add(ctx, 1)
	}
	slog.Info("run cancelled", "run_id", runID)

	finished := 0
	for _, res := range r.Results {
		if res.Status.Terminal() {
			finished++
		}
	}
	for _, tcID := range flipped {
		s.progress(ctx, runID, tcID, finished, len(r.Results), run.StatusCancelled)
	}
	s.publishStatus(ctx, r)
	s.notifyChange()
	return true, nil
}

// ActiveRuns returns the number of runs executing on this instance.
func (s *ExecutorService) ActiveRuns() int64 {
	return s.active.Load()
}

// execute drives one run through its test cases in snapshot order.
func (s *ExecutorService) execute(ctx context.Context, runID string, testCaseIDs []string) {
	start := time.Now()
	s.active.Add(1)
	defer s.active.Add(-1)
	defer s.notifyChange()

	if !s.transition(ctx, runID, func(r *run.Run) bool {
		if r.Status == run.StatusCancelled {
			return false
		}
		r.Status = run.StatusRunning
		return true
	}) {
		return
	}

	for idx, tcID := range testCaseIDs {
		// Cancellation boundary: stop before starting the next case.
		if !s.transition(ctx, runID, func(r *run.Run) bool {
			if r.Status == run.StatusCancelled {
				return false
			}
			res := r.Results[tcID]
			res.Status = run.StatusRunning
			r.Results[tcID] = res
			return true
		}) {
			return
		}
		s.progress(ctx, runID, tcID, idx, len(testCaseIDs), run.StatusRunning)

		result := s.evaluateCase(ctx, runID, tcID)

		// The in-flight case records its outcome even if the run was
		// cancelled while it evaluated.
		cancelled := false
		s.transitionAlways(ctx, runID, func(r *run.Run) {
			r.Results[tcID] = result
			cancelled = r.Status == run.StatusCancelled
		})
		// A running event carries the index of the case in flight; its
		// completion carries the finished count, so indexes only move forward.
		s.progress(ctx, runID, tcID, idx+1, len(testCaseIDs), result.Status)

		if s.metrics != nil {
			s.metrics.CasesEvaluated.Add(ctx, 1)
		}
		if cancelled {
			return
		}
	}

	// Run-level completed means "finished running": failed cases never fail
	// the run. Pass/fail outcomes are read from the per-case reports.
	anyCompleted := false
	s.transitionAlways(ctx, runID, func(r *run.Run) {
		for _, res := range r.Results {
			if res.Status == run.StatusCompleted {
				anyCompleted = true
				break
			}
		}
		if r.Status != run.StatusCancelled {
			r.Status = run.StatusCompleted
		}
	})
	s.progress(ctx, runID, "", len(testCaseIDs), len(testCaseIDs), run.StatusCompleted)

	if s.metrics != nil {
		if anyCompleted {
			s.metrics.RunsCompleted.Add(ctx, 1)
		} else {
			s.metrics.RunsFailed.Add(ctx, 1)
		}
		s.metrics.RunDuration.Record(ctx, time.Since(start).Seconds())
	}
	slog.Info("run finished", "run_id", runID, "duration", time.Since(start))

	if r, err := s.store.GetRun(ctx, runID); err == nil {
		s.publishStatus(ctx, r)
	}
}

// evaluateCase runs one test case and returns its terminal result. Failures
// fail the single case, never the whole run.
func (s *ExecutorService) evaluateCase(ctx context.Context, runID, tcID string) run.Result {
	tc, err := s.store.GetTestCase(ctx, tcID)
	if err != nil {
		// Deleted from the catalog after the version was pinned.
		slog.Warn("test case unavailable", "run_id", runID, "test_case_id", tcID, "error", err)
		return run.Result{Status: run.StatusFailed}
	}

	r, err := s.store.GetRun(ctx, runID)
	if err != nil {
		slog.Error("load run for evaluation", "run_id", runID, "error", err)
		return run.Result{Status: run.StatusFailed}
	}

	rep, err := s.evaluator.Evaluate(ctx, r.AgentKey, r.ModelID, tc)
	if err != nil {
		slog.Error("evaluation failed", "run_id", runID, "test_case_id", tcID, "error", err)
		return run.Result{Status: run.StatusFailed}
	}

	rep.RunID = runID
	if err := s.reports.Save(ctx, rep); err != nil {
		slog.Error("store report", "run_id", runID, "test_case_id", tcID, "error", err)
		return run.Result{Status: run.StatusFailed}
	}
	return run.Result{Status: run.StatusCompleted, ReportID: rep.ID}
}

// transition applies fn to the run under its mutex and persists when fn
// returns true. A false return means the run was cancelled and the executor
// must stop.
func (s *ExecutorService) transition(ctx context.Context, runID string, fn func(*run.Run) bool) bool {
	mu := s.lockFor(runID)
	mu.Lock()
	defer mu.Unlock()

	r, err := s.store.GetRun(ctx, runID)
	if err != nil {
		slog.Error("load run for transition", "run_id", runID, "error", err)
		return false
	}
	if !fn(r) {
		return false
	}
	if err := s.store.UpsertRun(ctx, r); err != nil {
		slog.Error("persist run transition", "run_id", runID, "error", err)
		return false
	}
	return true
}

// transitionAlways applies fn and persists unconditionally.
func (s *ExecutorService) transitionAlways(ctx context.Context, runID string, fn func(*run.Run)) {
	mu := s.lockFor(runID)
	mu.Lock()
	defer mu.Unlock()

	r, err := s.store.GetRun(ctx, runID)
	if err != nil {
		slog.Error("load run for transition", "run_id", runID, "error", err)
		return
	}
	fn(r)
	if err := s.store.UpsertRun(ctx, r); err != nil {
		slog.Error("persist run transition", "run_id", runID, "error", err)
	}
}

func (s *ExecutorService) lockFor(runID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(runID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// progress publishes a per-result transition to connected clients and the queue.
func (s *ExecutorService) progress(ctx context.Context, runID, tcID string, idx, total int, status run.Status) {
	r, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventRunProgress, ws.RunProgressEvent{
			RunID:                runID,
			BenchmarkID:          r.BenchmarkID,
			TestCaseID:           tcID,
			CurrentTestCaseIndex: idx,
			TotalTestCases:       total,
			Status:               string(status),
		})
	}

	if s.queue != nil {
		data, err := json.Marshal(run.Progress{
			RunID:                runID,
			BenchmarkID:          r.BenchmarkID,
			CurrentTestCaseIndex: idx,
			Status:               status,
			TotalTestCases:       total,
		})
		if err == nil {
			if err := s.queue.Publish(ctx, messagequeue.SubjectRunProgress, data); err != nil {
				slog.Debug("publish run progress", "run_id", runID, "error", err)
			}
		}
	}
}

// publishStatus announces a run-level status change.
func (s *ExecutorService) publishStatus(ctx context.Context, r *run.Run) {
	status := run.EffectiveStatus(r)

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventRunStatus, ws.RunStatusEvent{
			RunID:       r.ID,
			BenchmarkID: r.BenchmarkID,
			Status:      string(status),
		})
	}

	if s.queue != nil && status.Terminal() {
		data, err := json.Marshal(messagequeue.RunCompletePayload{
			RunID:       r.ID,
			BenchmarkID: r.BenchmarkID,
			Status:      string(status),
		})
		if err == nil {
			if err := s.queue.Publish(ctx, messagequeue.SubjectRunComplete, data); err != nil {
				slog.Debug("publish run complete", "run_id", r.ID, "error", err)
			}
		}
	}
}

func (s *ExecutorService) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}
