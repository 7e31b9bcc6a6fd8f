package ws

import (
	"context"
	"testing"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("expected non-nil hub")
	}
	if hub.ConnectionCount() != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.ConnectionCount())
	}
}

func TestHubBroadcastNoConnections(t *testing.T) {
	hub := NewHub()

	// Broadcast with no connections should not panic.
	hub.Broadcast(context.Background(), Message{
		Type:    "test",
		Payload: []byte(`{"key":"value"}`),
	})
}

func TestHubBroadcastEventNoConnections(t *testing.T) {
	hub := NewHub()

	// BroadcastEvent with no connections should not panic.
	hub.BroadcastEvent(context.Background(), EventRunStatus, RunStatusEvent{
		RunID:       "r1",
		BenchmarkID: "b1",
		Status:      "completed",
	})
}

func TestHubBroadcastEventMarshalError(t *testing.T) {
	hub := NewHub()

	// A channel cannot be marshaled to JSON; should log error, not panic.
	hub.BroadcastEvent(context.Background(), "bad", make(chan int))
}

func TestConnSubscriptionScoping(t *testing.T) {
	c := &conn{}

	// No subscriptions: the connection receives everything.
	if !c.wants("run-1") || !c.wants("") {
		t.Fatal("unscoped connection must receive every event")
	}

	c.subscribe("run-1")
	if !c.wants("run-1") {
		t.Fatal("subscribed run must match")
	}
	if c.wants("run-2") {
		t.Fatal("other runs must be filtered out")
	}
	if !c.wants("") {
		t.Fatal("unscoped events must always be delivered")
	}

	// Dropping the last subscription restores the receive-everything default.
	c.unsubscribe("run-1")
	if !c.wants("run-2") {
		t.Fatal("connection without subscriptions must receive every event")
	}
}

func TestEventRunID(t *testing.T) {
	cases := []struct {
		payload any
		want    string
	}{
		{RunProgressEvent{RunID: "r1"}, "r1"},
		{RunStatusEvent{RunID: "r2"}, "r2"},
		{ReportUpdatedEvent{RunID: "r3"}, "r3"},
		{struct{ RunID string }{"r4"}, ""},
	}
	for _, tc := range cases {
		if got := eventRunID(tc.payload); got != tc.want {
			t.Fatalf("eventRunID(%T) = %q, want %q", tc.payload, got, tc.want)
		}
	}
}

func TestHubRemoveNonexistent(t *testing.T) {
	hub := NewHub()

	// Removing a connection that was never added should not panic.
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &conn{ws: nil, cancel: cancel}
	hub.remove(c)
}
