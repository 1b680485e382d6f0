package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sagarc03/s3proxy"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-Id"

const maxRequestIDLength = 128

type requestIDKey struct{}

// RequestID assigns every request an identifier. A well-formed inbound
// X-Request-Id is kept, otherwise a random UUID is generated. The value is
// echoed on the response and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFrom returns the identifier assigned by RequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// StateReporter exposes the backend lifecycle state.
type StateReporter interface {
	State() s3proxy.HandleState
}

// ReadyGate rejects requests with 503 until the backend reports ready.
func ReadyGate(backend StateReporter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch backend.State() {
			case s3proxy.StateReady:
				next.ServeHTTP(w, r)
			case s3proxy.StateClosed:
				WriteError(w, r, s3proxy.ErrClosed)
			default:
				WriteError(w, r, s3proxy.ErrNotReady)
			}
		})
	}
}
