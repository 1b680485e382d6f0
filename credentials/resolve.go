// Package credentials decides which credential source the backend client
// uses: an explicit set loaded from a local development file, or the SDK's
// default credential chain.
package credentials

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sagarc03/s3proxy"
)

// DefaultFile is the credentials file looked up in non-production modes.
const DefaultFile = "./credentials.json"

// Resolver resolves credentials once at startup.
type Resolver struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewResolver creates a Resolver. A nil logger uses slog.Default().
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger, now: time.Now}
}

// Resolve returns the credential set to hand to the backend, or nil to use
// the SDK credential chain.
//
// Production deployments never read a local file. In other modes a missing,
// malformed, incomplete or expired file also yields nil; this is the
// expected default and is logged, never returned as an error.
func (r *Resolver) Resolve(production bool, path string) *s3proxy.CredentialSet {
	if production {
		r.logger.Info("production mode: using SDK credential chain")
		return nil
	}

	if path == "" {
		path = DefaultFile
	}

	set, err := LoadFile(path, r.now())
	if err != nil {
		if errors.Is(err, ErrExpired) {
			r.logger.Warn("ignoring expired credentials file, using SDK credential chain", "file", path, "err", err)
		} else {
			r.logger.Info("using SDK credential chain", "file", path, "reason", err)
		}
		return nil
	}

	r.logger.Info("using credentials from file", "file", path, "access_key_id", set.AccessKeyID)
	return &set
}

// Resolve is a convenience wrapper around NewResolver(nil).Resolve.
func Resolve(production bool, path string) *s3proxy.CredentialSet {
	return NewResolver(nil).Resolve(production, path)
}
