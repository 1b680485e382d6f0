package s3backend

import (
	"errors"
	"net/http"
	"strings"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"

	"github.com/sagarc03/s3proxy"
)

// translate converts an SDK error into a normalized ProxyError carrying the
// backend's code, status and message.
func (h *Handle) translate(err error, operation string, req s3proxy.Request) *s3proxy.ProxyError {
	pe := &s3proxy.ProxyError{
		URL:    "/" + req.Key,
		Method: req.Method,
		Err:    err,
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		pe.Code = apiErr.ErrorCode()
		pe.Message = apiErr.ErrorMessage()
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		pe.StatusCode = respErr.HTTPStatusCode()
	}

	if pe.Code == "" && pe.StatusCode == 0 {
		// Transport failures and cancellations never got a response.
		out := s3proxy.ProxyErrorFrom(err)
		out.URL, out.Method = pe.URL, pe.Method
		h.logger.Debug("backend call failed", "operation", operation, "key", req.Key, "err", err)
		return out
	}

	if pe.Code == "" {
		pe.Code = codeForStatus(pe.StatusCode)
	}

	h.logger.Debug("backend call failed",
		"operation", operation,
		"key", req.Key,
		"code", pe.Code,
		"status", pe.StatusCode,
	)
	return s3proxy.ProxyErrorFrom(pe)
}

// codeForStatus derives an error code from a bare status, as sent for
// bodiless HEAD responses: 404 becomes "NotFound".
func codeForStatus(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return s3proxy.CodeInternalError
	}
	return strings.NewReplacer(" ", "", "-", "", "'", "").Replace(text)
}
