package s3proxy

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxKeyLength is the object store's key length limit in bytes.
const maxKeyLength = 1024

// IsValidKey validates that a decoded request path (without the leading
// slash) can be used as an object key. It checks that the key:
//   - is not empty and at most 1024 bytes
//   - is valid UTF-8
//   - does not contain "." or ".." segments
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
//
// Spaces and other printable characters are allowed, as in the object store.
func IsValidKey(key string) bool {
	if key == "" || len(key) > maxKeyLength {
		return false
	}

	if !utf8.ValidString(key) {
		return false
	}

	for _, segment := range strings.Split(key, "/") {
		if segment == "." || segment == ".." {
			return false
		}
	}

	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}

// KeyFromPath maps a URL path to an object key.
func KeyFromPath(path string) (string, error) {
	key := strings.TrimPrefix(path, "/")
	if !IsValidKey(key) {
		return "", fmt.Errorf("key %q: %w", key, ErrInvalidKey)
	}
	return key, nil
}
