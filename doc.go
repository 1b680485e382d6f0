// Package s3proxy exposes the contents of a single object-storage bucket
// read-only over HTTP.
//
// GET and HEAD requests are translated into backend object-store calls and
// the backend response stream is relayed to the client as it arrives.
//
// # Key Components
//
//   - Backend: contract for the long-lived object-store client handle
//     (see the s3backend package for the AWS SDK implementation)
//   - ProxyError: normalized backend failure (code, status, message, time)
//   - Translate: renders a failure as the object store's XML error document
//   - CredentialSet: explicit credentials, or nil for the SDK default chain
//
// # Error Document
//
// Every per-request failure is sent as:
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<error time="2025-01-02T15:04:05Z" code="NoSuchKey" statusCode="404" url="/a.txt" method="GET">The specified key does not exist.</error>
//
// with the HTTP status taken from statusCode.
//
// # Example Usage
//
//	handle, err := s3backend.New(ctx, s3backend.Config{Bucket: "assets", Region: "us-east-1"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := <-handle.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	obj, err := handle.Get(ctx, s3proxy.Request{Method: "GET", Key: "index.html"})
//
// See the http package for the HTTP binding and the lifecycle package for
// startup and shutdown sequencing.
package s3proxy
