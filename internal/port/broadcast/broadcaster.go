// Package broadcast defines the port for pushing real-time progress events to
// connected clients. Push delivery is best-effort; the reconciliation
// scheduler converges clients that miss events.
package broadcast

import "context"

// Broadcaster sends a typed event to all connected clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
