package s3proxy

import "context"

// Backend is the contract between the gateway and the object-store client.
//
// Implementations hold exactly one client per process. All methods are safe
// for concurrent use once Init has delivered a nil result.
type Backend interface {
	// Init performs the startup handshake exactly once. The returned channel
	// delivers a single value, nil when the backend is ready or a terminal
	// error, and is then closed. Repeated calls observe the same result.
	Init(ctx context.Context) <-chan error

	// Head fetches object metadata. The returned Object has an empty body.
	Head(ctx context.Context, req Request) (*Object, error)

	// Get opens the object for streaming. The body may still fail mid-read.
	Get(ctx context.Context, req Request) (*Object, error)

	// HealthCheck probes backend reachability and returns the raw outcome.
	HealthCheck(ctx context.Context) (*Object, error)

	// State reports the handle lifecycle state.
	State() HandleState

	// ClientVersion identifies the underlying client library.
	ClientVersion() string

	// Close releases the handle. Later calls fail with ErrClosed.
	Close() error
}
