package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sagarc03/s3proxy"
)

// ErrIncomplete is returned when a credentials file lacks the access key or secret.
var ErrIncomplete = errors.New("credentials incomplete")

// ErrExpired is returned when a credentials file has passed its expiration.
var ErrExpired = errors.New("credentials expired")

// stsCredentials mirrors the Credentials member of the STS
// get-session-token output.
type stsCredentials struct {
	AccessKeyID     string     `json:"AccessKeyId"`
	SecretAccessKey string     `json:"SecretAccessKey"`
	SessionToken    string     `json:"SessionToken,omitempty"`
	Expiration      *time.Time `json:"Expiration,omitempty"`
}

type stsDocument struct {
	Credentials *stsCredentials `json:"Credentials"`
}

// LoadFile loads a credential set from a JSON file in the shape written by
//
//	aws sts get-session-token --duration 900 > credentials.json
//
// that is:
//
//	{"Credentials": {"AccessKeyId": "...", "SecretAccessKey": "...",
//	                 "SessionToken": "...", "Expiration": "2025-01-01T00:00:00Z"}}
//
// SessionToken and Expiration are optional. now is compared against
// Expiration.
func LoadFile(path string, now time.Time) (s3proxy.CredentialSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config
	if err != nil {
		return s3proxy.CredentialSet{}, fmt.Errorf("read credentials file: %w", err)
	}

	var doc stsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return s3proxy.CredentialSet{}, fmt.Errorf("parse credentials file: %w", err)
	}

	if doc.Credentials == nil {
		return s3proxy.CredentialSet{}, fmt.Errorf("parse credentials file: missing Credentials object: %w", ErrIncomplete)
	}

	set := s3proxy.CredentialSet{
		AccessKeyID:     doc.Credentials.AccessKeyID,
		SecretAccessKey: doc.Credentials.SecretAccessKey,
		SessionToken:    doc.Credentials.SessionToken,
	}
	if !set.Valid() {
		return s3proxy.CredentialSet{}, fmt.Errorf("parse credentials file: %w", ErrIncomplete)
	}

	if exp := doc.Credentials.Expiration; exp != nil && !exp.After(now) {
		return s3proxy.CredentialSet{}, fmt.Errorf("credentials expired at %s: %w", exp.Format(time.RFC3339), ErrExpired)
	}

	return set, nil
}

// WriteFile writes set to path in the document shape read by LoadFile.
// A zero expiration is omitted. The file is created with 0600 permissions.
func WriteFile(path string, set s3proxy.CredentialSet, expiration time.Time) error {
	if !set.Valid() {
		return fmt.Errorf("write credentials file: %w", ErrIncomplete)
	}

	creds := &stsCredentials{
		AccessKeyID:     set.AccessKeyID,
		SecretAccessKey: set.SecretAccessKey,
		SessionToken:    set.SessionToken,
	}
	if !expiration.IsZero() {
		exp := expiration.UTC()
		creds.Expiration = &exp
	}

	data, err := json.MarshalIndent(stsDocument{Credentials: creds}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials file: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return nil
}
