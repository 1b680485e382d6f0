package s3backend

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sagarc03/s3proxy"
	"github.com/sagarc03/s3proxy/metrics"
)

const (
	opGetObject  = "GetObject"
	opHeadObject = "HeadObject"
	opHeadBucket = "HeadBucket"
)

// Get opens the object named by req.Key. Conditional headers and Range are
// forwarded to the backend unchanged.
func (h *Handle) Get(ctx context.Context, req s3proxy.Request) (*s3proxy.Object, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}

	in := &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(req.Key),
	}
	cond := conditionsFrom(req.Header)
	in.IfMatch = cond.ifMatch
	in.IfNoneMatch = cond.ifNoneMatch
	in.IfModifiedSince = cond.ifModifiedSince
	in.IfUnmodifiedSince = cond.ifUnmodifiedSince
	if rng := req.Header.Get("Range"); rng != "" {
		in.Range = aws.String(rng)
	}

	start := time.Now()
	out, err := h.api.GetObject(ctx, in)
	if err != nil {
		pe := h.translate(err, opGetObject, req)
		observe(opGetObject, start, pe.Code)
		return nil, pe
	}
	observe(opGetObject, start, "OK")

	status := http.StatusOK
	if out.ContentRange != nil {
		status = http.StatusPartialContent
	}

	header := objectMeta{
		acceptRanges:       out.AcceptRanges,
		cacheControl:       out.CacheControl,
		contentDisposition: out.ContentDisposition,
		contentEncoding:    out.ContentEncoding,
		contentLanguage:    out.ContentLanguage,
		contentLength:      out.ContentLength,
		contentRange:       out.ContentRange,
		contentType:        out.ContentType,
		etag:               out.ETag,
		lastModified:       out.LastModified,
		versionID:          out.VersionId,
		metadata:           out.Metadata,
	}.header()

	body := out.Body
	if body == nil {
		body = http.NoBody
	}

	return &s3proxy.Object{StatusCode: status, Header: header, Body: body}, nil
}

// Head fetches the metadata of the object named by req.Key.
func (h *Handle) Head(ctx context.Context, req s3proxy.Request) (*s3proxy.Object, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}

	in := &s3.HeadObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(req.Key),
	}
	cond := conditionsFrom(req.Header)
	in.IfMatch = cond.ifMatch
	in.IfNoneMatch = cond.ifNoneMatch
	in.IfModifiedSince = cond.ifModifiedSince
	in.IfUnmodifiedSince = cond.ifUnmodifiedSince

	start := time.Now()
	out, err := h.api.HeadObject(ctx, in)
	if err != nil {
		pe := h.translate(err, opHeadObject, req)
		observe(opHeadObject, start, pe.Code)
		return nil, pe
	}
	observe(opHeadObject, start, "OK")

	header := objectMeta{
		acceptRanges:       out.AcceptRanges,
		cacheControl:       out.CacheControl,
		contentDisposition: out.ContentDisposition,
		contentEncoding:    out.ContentEncoding,
		contentLanguage:    out.ContentLanguage,
		contentLength:      out.ContentLength,
		contentType:        out.ContentType,
		etag:               out.ETag,
		lastModified:       out.LastModified,
		versionID:          out.VersionId,
		metadata:           out.Metadata,
	}.header()

	return &s3proxy.Object{StatusCode: http.StatusOK, Header: header, Body: http.NoBody}, nil
}

// HealthCheck heads the bucket and reports the outcome as an empty-bodied object.
func (h *Handle) HealthCheck(ctx context.Context) (*s3proxy.Object, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}

	out, err := h.probe(ctx)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if out.BucketRegion != nil {
		header.Set("X-Amz-Bucket-Region", *out.BucketRegion)
	}
	header.Set("Content-Length", "0")

	return &s3proxy.Object{StatusCode: http.StatusOK, Header: header, Body: http.NoBody}, nil
}

func (h *Handle) probe(ctx context.Context) (*s3.HeadBucketOutput, error) {
	start := time.Now()
	out, err := h.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(h.bucket)})
	if err != nil {
		pe := h.translate(err, opHeadBucket, s3proxy.Request{Method: http.MethodHead})
		observe(opHeadBucket, start, pe.Code)
		return nil, pe
	}
	observe(opHeadBucket, start, "OK")
	return out, nil
}

func observe(op string, start time.Time, code string) {
	metrics.BackendRequestsTotal.WithLabelValues(op, code).Inc()
	metrics.BackendLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

type conditions struct {
	ifMatch           *string
	ifNoneMatch       *string
	ifModifiedSince   *time.Time
	ifUnmodifiedSince *time.Time
}

// conditionsFrom extracts the conditional request headers the backend
// evaluates itself. Unparseable dates are ignored, as RFC 9110 requires.
func conditionsFrom(header http.Header) conditions {
	var c conditions
	if header == nil {
		return c
	}

	if v := header.Get("If-Match"); v != "" {
		c.ifMatch = aws.String(v)
	}
	if v := header.Get("If-None-Match"); v != "" {
		c.ifNoneMatch = aws.String(v)
	}
	if v := header.Get("If-Modified-Since"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			c.ifModifiedSince = aws.Time(t)
		}
	}
	if v := header.Get("If-Unmodified-Since"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			c.ifUnmodifiedSince = aws.Time(t)
		}
	}
	return c
}

// objectMeta collects the response fields shared by GetObject and HeadObject.
type objectMeta struct {
	acceptRanges       *string
	cacheControl       *string
	contentDisposition *string
	contentEncoding    *string
	contentLanguage    *string
	contentLength      *int64
	contentRange       *string
	contentType        *string
	etag               *string
	lastModified       *time.Time
	versionID          *string
	metadata           map[string]string
}

func (m objectMeta) header() http.Header {
	h := http.Header{}
	set := func(name string, v *string) {
		if v != nil && *v != "" {
			h.Set(name, *v)
		}
	}

	set("Accept-Ranges", m.acceptRanges)
	set("Cache-Control", m.cacheControl)
	set("Content-Disposition", m.contentDisposition)
	set("Content-Encoding", m.contentEncoding)
	set("Content-Language", m.contentLanguage)
	set("Content-Range", m.contentRange)
	set("Content-Type", m.contentType)
	set("ETag", m.etag)
	set("X-Amz-Version-Id", m.versionID)

	if m.contentLength != nil {
		h.Set("Content-Length", strconv.FormatInt(*m.contentLength, 10))
	}
	if m.lastModified != nil {
		h.Set("Last-Modified", m.lastModified.UTC().Format(http.TimeFormat))
	}
	for k, v := range m.metadata {
		h.Set("X-Amz-Meta-"+k, v)
	}
	return h
}
