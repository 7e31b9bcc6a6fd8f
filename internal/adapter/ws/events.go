package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventRunProgress   = "run.progress"
	EventRunStatus     = "run.status"
	EventReportUpdated = "report.updated"
)

// RunProgressEvent is broadcast after every per-test-case result transition
// while a run executes.
type RunProgressEvent struct {
	RunID                string `json:"run_id"`
	BenchmarkID          string `json:"benchmark_id"`
	TestCaseID           string `json:"test_case_id"`
	CurrentTestCaseIndex int    `json:"current_test_case_index"`
	TotalTestCases       int    `json:"total_test_cases"`
	Status               string `json:"status"`
}

// RunStatusEvent is broadcast when a run's overall status changes.
type RunStatusEvent struct {
	RunID       string `json:"run_id"`
	BenchmarkID string `json:"benchmark_id"`
	Status      string `json:"status"`
}

// ReportUpdatedEvent is broadcast when a report's asynchronous metrics land.
type ReportUpdatedEvent struct {
	ReportID      string `json:"report_id"`
	RunID         string `json:"run_id"`
	TestCaseID    string `json:"test_case_id"`
	MetricsStatus string `json:"metrics_status"`
}

// BroadcastEvent marshals a typed event and delivers it to the connections
// subscribed to the run it concerns.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.broadcast(ctx, eventRunID(payload), Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

// eventRunID extracts the run an event is scoped to. Events without a run
// scope go to every connection.
func eventRunID(payload any) string {
	switch p := payload.(type) {
	case RunProgressEvent:
		return p.RunID
	case RunStatusEvent:
		return p.RunID
	case ReportUpdatedEvent:
		return p.RunID
	}
	return ""
}
