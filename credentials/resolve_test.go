package credentials_test

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sagarc03/s3proxy/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validFile = `{"Credentials": {"AccessKeyId": "ASIA", "SecretAccessKey": "secret", "SessionToken": "token", "Expiration": "2099-01-01T00:00:00Z"}}`

func newTestResolver(buf *bytes.Buffer) *credentials.Resolver {
	return credentials.NewResolver(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func TestResolve_ProductionIgnoresValidFile(t *testing.T) {
	path := writeTestFile(t, validFile)
	var logs bytes.Buffer

	set := newTestResolver(&logs).Resolve(true, path)

	assert.Nil(t, set)
	assert.Contains(t, logs.String(), "production mode")
}

func TestResolve_DevelopmentLoadsFile(t *testing.T) {
	path := writeTestFile(t, validFile)
	var logs bytes.Buffer

	set := newTestResolver(&logs).Resolve(false, path)

	require.NotNil(t, set)
	assert.Equal(t, "ASIA", set.AccessKeyID)
	assert.Equal(t, "secret", set.SecretAccessKey)
	assert.Equal(t, "token", set.SessionToken)
	assert.NotContains(t, logs.String(), "secret")
}

func TestResolve_FallsBackWithoutError(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") },
		},
		{
			name: "malformed json",
			path: func(t *testing.T) string { return writeTestFile(t, "{not json") },
		},
		{
			name: "missing fields",
			path: func(t *testing.T) string { return writeTestFile(t, `{"Credentials": {"AccessKeyId": "AKIA"}}`) },
		},
		{
			name: "expired",
			path: func(t *testing.T) string {
				return writeTestFile(t, `{"Credentials": {"AccessKeyId": "AKIA", "SecretAccessKey": "s", "Expiration": "2001-01-01T00:00:00Z"}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			resolver := newTestResolver(&logs)

			assert.NotPanics(t, func() {
				assert.Nil(t, resolver.Resolve(false, tt.path(t)))
			})
			assert.Contains(t, logs.String(), "SDK credential chain")
		})
	}
}

func TestResolve_DefaultResolver(t *testing.T) {
	assert.Nil(t, credentials.Resolve(true, writeTestFile(t, validFile)))
	assert.NotNil(t, credentials.Resolve(false, writeTestFile(t, validFile)))
}
