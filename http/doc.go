// Package http exposes an s3proxy.Backend read-only over HTTP.
//
// # Routes
//
//   - GET /health: liveness, always 200 with an empty body
//   - GET /health/s3: backend probe, relayed on success, 503 JSON on failure
//   - GET /version: build and backend client versions as JSON
//   - GET, HEAD /: 301 redirect to the index document
//   - GET, HEAD /*: object fetch, behind the readiness gate
//
// Any other method answers 405 with an error document.
//
// # Errors
//
// Backend failures are rendered as XML documents by s3proxy.Translate:
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<error time="2024-01-01T00:00:00Z" code="NoSuchKey" statusCode="404" url="/a.txt" method="GET">The specified key does not exist.</error>
//
// A backend 304 is relayed without a body.
//
// # Streaming
//
// Object bodies are copied through one pooled 32 KiB chunk per request.
// If the backend fails after headers were sent the handler aborts the
// connection with http.ErrAbortHandler, so the client observes a truncated
// response rather than a rewritten status.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    IndexDocument: "index.html",
//	    Version:       version,
//	    MetricsPath:   "/metrics",
//	}
//	handler := http.NewHandler(&handlerCfg, backend)
//	srv := &nethttp.Server{Handler: handler.Router()}
package http
