package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Strob0t/TrailBench/internal/domain"
	"github.com/Strob0t/TrailBench/internal/domain/benchmark"
	"github.com/Strob0t/TrailBench/internal/domain/report"
	"github.com/Strob0t/TrailBench/internal/domain/run"
	"github.com/Strob0t/TrailBench/internal/domain/testcase"
	"github.com/Strob0t/TrailBench/internal/port/messagequeue"
)

// mockStore is an in-memory database.Store for testing.
type mockStore struct {
	mu         sync.Mutex
	benchmarks map[string]*benchmark.Benchmark
	runs       map[string]*run.Run
	testCases  map[string]*testcase.TestCase
	reports    map[string]*report.Report
}

func newMockStore() *mockStore {
	return &mockStore{
		benchmarks: make(map[string]*benchmark.Benchmark),
		runs:       make(map[string]*run.Run),
		testCases:  make(map[string]*testcase.TestCase),
		reports:    make(map[string]*report.Report),
	}
}

func (m *mockStore) ListBenchmarks(_ context.Context) ([]benchmark.Benchmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []benchmark.Benchmark
	for _, b := range m.benchmarks {
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockStore) GetBenchmark(_ context.Context, id string) (*benchmark.Benchmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.benchmarks[id]
	if !ok {
		return nil, fmt.Errorf("benchmark %s: %w", id, domain.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (m *mockStore) CreateBenchmark(_ context.Context, b *benchmark.Benchmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.benchmarks[b.ID] = &cp
	return nil
}

func (m *mockStore) UpdateBenchmark(_ context.Context, b *benchmark.Benchmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.benchmarks[b.ID]; !ok {
		return fmt.Errorf("benchmark %s: %w", b.ID, domain.ErrNotFound)
	}
	cp := *b
	m.benchmarks[b.ID] = &cp
	return nil
}

func (m *mockStore) GetRun(_ context.Context, runID string) (*run.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	return copyRun(r), nil
}

func (m *mockStore) ListRuns(_ context.Context, benchmarkID string) ([]run.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []run.Run
	for _, r := range m.runs {
		if r.BenchmarkID == benchmarkID {
			out = append(out, *copyRun(r))
		}
	}
	return out, nil
}

func (m *mockStore) ListRunningRuns(_ context.Context) ([]run.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []run.Run
	for _, r := range m.runs {
		if r.Status == run.StatusPending || r.Status == run.StatusRunning {
			out = append(out, *copyRun(r))
		}
	}
	return out, nil
}

func (m *mockStore) UpsertRun(_ context.Context, r *run.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.ID] = copyRun(r)
	return nil
}

func (m *mockStore) ListTestCases(_ context.Context) ([]testcase.TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []testcase.TestCase
	for _, tc := range m.testCases {
		out = append(out, *tc)
	}
	return out, nil
}

func (m *mockStore) GetTestCase(_ context.Context, id string) (*testcase.TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tc, ok := m.testCases[id]
	if !ok {
		return nil, fmt.Errorf("test case %s: %w", id, domain.ErrNotFound)
	}
	cp := *tc
	return &cp, nil
}

func (m *mockStore) CreateTestCase(_ context.Context, tc *testcase.TestCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tc
	m.testCases[tc.ID] = &cp
	return nil
}

func (m *mockStore) UpdateTestCase(_ context.Context, tc *testcase.TestCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.testCases[tc.ID]; !ok {
		return fmt.Errorf("test case %s: %w", tc.ID, domain.ErrNotFound)
	}
	cp := *tc
	m.testCases[tc.ID] = &cp
	return nil
}

func (m *mockStore) DeleteTestCase(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.testCases[id]; !ok {
		return fmt.Errorf("test case %s: %w", id, domain.ErrNotFound)
	}
	delete(m.testCases, id)
	return nil
}

func (m *mockStore) GetReport(_ context.Context, id string) (*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.reports[id]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
	}
	cp := *rep
	return &cp, nil
}

func (m *mockStore) ListReportsByRun(_ context.Context, runID string) ([]report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []report.Report
	for _, rep := range m.reports {
		if rep.RunID == runID {
			out = append(out, *rep)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertReport(_ context.Context, rep *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rep
	m.reports[rep.ID] = &cp
	return nil
}

func copyRun(r *run.Run) *run.Run {
	cp := *r
	cp.Results = make(map[string]run.Result, len(r.Results))
	for k, v := range r.Results {
		cp.Results[k] = v
	}
	return &cp
}

// mockQueue implements messagequeue.Queue for testing.
type mockQueue struct {
	mu        sync.Mutex
	published []struct {
		subject string
		data    []byte
	}
	publishErr error
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, struct {
		subject string
		data    []byte
	}{subject, data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Close() error { return nil }

func (q *mockQueue) payloads(subject string) [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out [][]byte
	for _, p := range q.published {
		if p.subject == subject {
			out = append(out, p.data)
		}
	}
	return out
}

func (q *mockQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []string
	for _, p := range q.published {
		out = append(out, p.subject)
	}
	return out
}

// mockBroadcaster implements broadcast.Broadcaster for testing.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

// mockEvaluator implements evaluation.Evaluator for testing.
type mockEvaluator struct {
	mu      sync.Mutex
	calls   []string
	results map[string]*report.Report
	errs    map[string]error
	block   chan struct{} // when set, Evaluate waits for a signal per call
}

func (e *mockEvaluator) Evaluate(_ context.Context, _, _ string, tc *testcase.TestCase) (*report.Report, error) {
	if e.block != nil {
		<-e.block
	}
	e.mu.Lock()
	e.calls = append(e.calls, tc.ID)
	e.mu.Unlock()

	if err, ok := e.errs[tc.ID]; ok {
		return nil, err
	}
	if rep, ok := e.results[tc.ID]; ok {
		cp := *rep
		return &cp, nil
	}
	return &report.Report{
		ID:            "rep-" + tc.ID,
		TestCaseID:    tc.ID,
		PassFail:      report.Passed,
		MetricsStatus: report.MetricsCompleted,
		Accuracy:      1,
	}, nil
}

func (e *mockEvaluator) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *mockEvaluator) casesEvaluated() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// mockCache implements cache.Cache for testing.
type mockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deletes = append(c.deletes, key)
	return nil
}
