package s3proxy

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
)

// CredentialSet is an explicit set of backend credentials. A nil
// *CredentialSet means the SDK's default credential chain is used.
type CredentialSet struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Valid reports whether the set carries the fields a signer needs.
func (c CredentialSet) Valid() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// HandleState is the lifecycle state of the backend handle.
type HandleState int32

const (
	StateUninitialized HandleState = iota
	StateInitializing
	StateReady
	StateError
	StateClosed
)

func (s HandleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("HandleState(%d)", int32(s))
	}
}

// Request is a read-only view of an inbound GET or HEAD request.
type Request struct {
	Method string
	Key    string
	Header http.Header
}

// Object is a backend response: status and headers followed by a
// non-restartable body. The caller must close Body.
type Object struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Close releases the body. Safe on a nil Object.
func (o *Object) Close() error {
	if o == nil || o.Body == nil {
		return nil
	}
	return o.Body.Close()
}

// Env is the deployment mode of the process.
type Env string

var productionEnvRegex = regexp.MustCompile(`(?i)^prod`)

// IsProduction reports whether the mode disables local credential files.
// Anything starting with "prod" (case-insensitive) counts.
func (e Env) IsProduction() bool {
	return productionEnvRegex.MatchString(string(e))
}
