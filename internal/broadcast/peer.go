package broadcast

import "github.com/google/uuid"

// Peer is the transport side of one registered connection. All methods must
// be non-blocking; the hub calls them from its own goroutine.
type Peer interface {
	ID() uuid.UUID
	// Send enqueues one serialized message and reports whether it was accepted.
	Send(data []byte) bool
	// Probe requests a liveness-check control frame.
	Probe()
	// Close terminates the transport. Calls after the first are no-ops.
	Close(code int, reason string)
}
