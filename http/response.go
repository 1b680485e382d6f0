package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sagarc03/s3proxy"
)

// HealthFailure is the JSON body of a failed backend health probe.
type HealthFailure struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	Timestamp string `json:"timestamp"`
}

// VersionInfo is the JSON body served on /version.
type VersionInfo struct {
	Version   string `json:"version"`
	Backend   string `json:"backend"`
	Go        string `json:"go"`
	Timestamp string `json:"timestamp"`
}

// WriteError renders err as an XML error document for request r.
//
// A backend 304 is relayed without a body. Errors caused by the client going
// away are only logged since nobody is left to read the response.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	pe := s3proxy.ProxyErrorFrom(err)

	switch {
	case pe.StatusCode == s3proxy.StatusClientClosedRequest:
		slog.Debug("client closed request", "method", r.Method, "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()))
		return
	case pe.StatusCode == http.StatusNotModified:
		w.WriteHeader(http.StatusNotModified)
		return
	case pe.StatusCode >= http.StatusInternalServerError:
		slog.Error("request error",
			"method", r.Method,
			"path", r.URL.Path,
			"code", pe.Code,
			"status", pe.StatusCode,
			"request_id", RequestIDFrom(r.Context()),
			"error", err,
		)
	default:
		slog.Debug("request error",
			"method", r.Method,
			"path", r.URL.Path,
			"code", pe.Code,
			"status", pe.StatusCode,
		)
	}

	doc := s3proxy.Translate(pe, r.URL.Path, r.Method)
	w.Header().Set("Content-Type", s3proxy.ErrorContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(doc.StatusCode)
	if r.Method == http.MethodHead {
		return
	}
	if _, werr := w.Write(doc.Body); werr != nil {
		slog.Debug("failed to write error document", "error", werr)
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
