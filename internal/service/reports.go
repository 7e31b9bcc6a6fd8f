package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/TrailBench/internal/adapter/ws"
	"github.com/Strob0t/TrailBench/internal/domain/report"
	"github.com/Strob0t/TrailBench/internal/port/broadcast"
	"github.com/Strob0t/TrailBench/internal/port/cache"
	"github.com/Strob0t/TrailBench/internal/port/database"
	"github.com/Strob0t/TrailBench/internal/port/messagequeue"
)

// ReportService resolves evaluation reports for runs and absorbs asynchronous
// metric completion from the evaluation service.
type ReportService struct {
	store    database.Store
	cache    cache.Cache
	cacheTTL time.Duration
	hub      broadcast.Broadcaster
}

// NewReportService creates a report service. cache may be nil to disable the
// read-through layer.
func NewReportService(store database.Store, c cache.Cache, cacheTTL time.Duration, hub broadcast.Broadcaster) *ReportService {
	return &ReportService{store: store, cache: c, cacheTTL: cacheTTL, hub: hub}
}

// ListByRun returns all reports for a run, read through the cache. Statistics
// recompute on every request, so this path is hot while a run executes.
func (s *ReportService) ListByRun(ctx context.Context, runID string) ([]report.Report, error) {
	key := "reports:" + runID

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var reports []report.Report
			if err := json.Unmarshal(data, &reports); err == nil {
				return reports, nil
			}
			// Corrupt entry: fall through to the store and overwrite it.
		}
	}

	reports, err := s.store.ListReportsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(reports); err == nil {
			_ = s.cache.Set(ctx, key, data, s.cacheTTL)
		}
	}
	return reports, nil
}

// ResolveByID returns a run's reports indexed by report ID, the shape the
// status derivation and comparison code consume.
func (s *ReportService) ResolveByID(ctx context.Context, runID string) (map[string]*report.Report, error) {
	reports, err := s.ListByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*report.Report, len(reports))
	for i := range reports {
		byID[reports[i].ID] = &reports[i]
	}
	return byID, nil
}

// Save persists a report and invalidates the run's cache entry.
func (s *ReportService) Save(ctx context.Context, rep *report.Report) error {
	if err := s.store.UpsertReport(ctx, rep); err != nil {
		return err
	}
	s.invalidate(ctx, rep.RunID)
	return nil
}

// HandleMetricsMessage consumes a metric-completion message from the queue,
// updates the stored report and notifies connected clients. Unknown report
// ids are logged and dropped: the run that owns them may live on another
// instance that has not flushed yet, and the next message retry will land.
func (s *ReportService) HandleMetricsMessage(ctx context.Context, _ string, data []byte) error {
	var payload messagequeue.ReportMetricsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("unmarshal metrics payload: %w", err)
	}

	rep, err := s.store.GetReport(ctx, payload.ReportID)
	if err != nil {
		return fmt.Errorf("metrics for report %s: %w", payload.ReportID, err)
	}

	rep.MetricsStatus = report.MetricsStatus(payload.MetricsStatus)
	rep.Accuracy = payload.Accuracy
	rep.Tokens = payload.Tokens
	rep.CostUSD = payload.CostUSD
	if payload.DurationMs > 0 {
		rep.DurationMs = payload.DurationMs
	}

	if err := s.store.UpsertReport(ctx, rep); err != nil {
		return fmt.Errorf("store metrics for report %s: %w", rep.ID, err)
	}
	s.invalidate(ctx, rep.RunID)

	slog.Info("report metrics updated",
		"report_id", rep.ID,
		"run_id", rep.RunID,
		"metrics_status", rep.MetricsStatus,
	)

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventReportUpdated, ws.ReportUpdatedEvent{
			ReportID:      rep.ID,
			RunID:         rep.RunID,
			TestCaseID:    rep.TestCaseID,
			MetricsStatus: string(rep.MetricsStatus),
		})
	}
	return nil
}

func (s *ReportService) invalidate(ctx context.Context, runID string) {
	if s.cache == nil || runID == "" {
		return
	}
	_ = s.cache.Delete(ctx, "reports:"+runID)
}
