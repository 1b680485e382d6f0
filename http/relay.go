package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/sagarc03/s3proxy"
	"github.com/sagarc03/s3proxy/metrics"
)

// relayChunkSize bounds how much of an object is held in memory per request.
const relayChunkSize = 32 * 1024

var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, relayChunkSize)
		return &b
	},
}

// relay copies obj to w: status and headers first, then the body chunk by
// chunk. Each chunk is handed to the connection before the next one is read,
// so a slow client slows the backend read down.
//
// A client write error ends the relay quietly. A backend read error after
// headers were sent aborts the connection so the client sees a truncated
// response instead of a rewritten status.
func relay(w http.ResponseWriter, r *http.Request, obj *s3proxy.Object) {
	defer func() { _ = obj.Close() }()

	header := w.Header()
	for k, v := range obj.Header {
		header[k] = v
	}
	w.WriteHeader(obj.StatusCode)

	if r.Method == http.MethodHead || obj.Body == nil {
		return
	}

	// Headers go out before the first body byte is read.
	_ = http.NewResponseController(w).Flush()

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	bufp := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufp)
	buf := *bufp

	for {
		n, rerr := obj.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				metrics.StreamAbortsTotal.WithLabelValues("client").Inc()
				slog.Debug("client went away during relay",
					"path", r.URL.Path,
					"request_id", RequestIDFrom(r.Context()),
					"error", werr,
				)
				return
			}
			metrics.BytesRelayedTotal.Add(float64(n))
		}

		if rerr == nil {
			continue
		}
		if errors.Is(rerr, io.EOF) {
			return
		}
		if r.Context().Err() != nil {
			metrics.StreamAbortsTotal.WithLabelValues("client").Inc()
			slog.Debug("relay stopped by canceled request",
				"path", r.URL.Path,
				"request_id", RequestIDFrom(r.Context()),
			)
			return
		}

		metrics.StreamAbortsTotal.WithLabelValues("backend").Inc()
		slog.Error("backend stream failed mid-relay",
			"path", r.URL.Path,
			"request_id", RequestIDFrom(r.Context()),
			"error", rerr,
		)
		panic(http.ErrAbortHandler)
	}
}
