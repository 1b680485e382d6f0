package s3proxy

import (
	"encoding/xml"
	"log/slog"
	"strconv"
	"time"
)

// ErrorContentType is sent with every translated error document. Object
// store SDKs expect XML for non-2xx responses.
const ErrorContentType = "application/xml"

// ErrorDocument is the wire form of a translated backend failure.
type ErrorDocument struct {
	StatusCode int
	Body       []byte
}

type errorElement struct {
	XMLName    xml.Name `xml:"error"`
	Time       string   `xml:"time,attr"`
	Code       string   `xml:"code,attr"`
	StatusCode string   `xml:"statusCode,attr"`
	URL        string   `xml:"url,attr"`
	Method     string   `xml:"method,attr"`
	Message    string   `xml:",chardata"`
}

// Translate renders err as the uniform error document for the request
// identified by url and method. Only the error code, message and request
// coordinates are exposed; wrapped causes are never rendered.
func Translate(err error, url, method string) ErrorDocument {
	pe := ProxyErrorFrom(err)
	if url != "" {
		pe.URL = url
	}
	if method != "" {
		pe.Method = method
	}

	el := errorElement{
		Time:       pe.Time.UTC().Format(time.RFC3339),
		Code:       pe.Code,
		StatusCode: strconv.Itoa(pe.StatusCode),
		URL:        pe.URL,
		Method:     pe.Method,
		Message:    pe.Message,
	}

	body, marshalErr := xml.Marshal(el)
	if marshalErr != nil {
		slog.Error("failed to encode error document", "error", marshalErr)
		body = []byte(`<error code="InternalError" statusCode="500"></error>`)
	}

	doc := make([]byte, 0, len(xml.Header)+len(body)+1)
	doc = append(doc, xml.Header...)
	doc = append(doc, body...)
	doc = append(doc, '\n')

	return ErrorDocument{StatusCode: pe.StatusCode, Body: doc}
}
