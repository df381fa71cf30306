// Package fingerprint derives stable cache keys from prompt text.
//
// A fingerprint is the lowercase hex SHA-256 digest of the prompt bytes. It is
// safe to use as a file name and as a key in any backing store. Prompts are
// rebuilt from scratch on every run, so cache correctness depends entirely on
// callers producing byte-identical prompts: any interpolated timestamp or
// random identifier silently defeats caching.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Size is the length of a fingerprint in characters.
const Size = sha256.Size * 2

// Fingerprint returns the hex SHA-256 digest of prompt.
func Fingerprint(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// Valid reports whether fp has the shape of a fingerprint.
func Valid(fp string) bool {
	if len(fp) != Size {
		return false
	}
	for i := 0; i < len(fp); i++ {
		c := fp[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Keyer scopes fingerprints to a model and key-format version.
//
// The zero value produces plain Fingerprint keys.
type Keyer struct {
	// Model, when set, is folded into the key so that switching models
	// does not serve completions produced by the previous one.
	Model string
	// Version bumps invalidate every existing key at once.
	Version string
	// Normalize unwraps code fences and line-ending noise before hashing.
	Normalize bool
}

// Key returns the cache key for prompt under this scope.
func (k Keyer) Key(prompt string) string {
	if k.Normalize {
		prompt = NormalizeWrappers(prompt)
	}
	if k.Model == "" && k.Version == "" {
		return Fingerprint(prompt)
	}
	// NUL cannot appear in model names, so scope and prompt never blur.
	return Fingerprint("v=" + k.Version + "\x00m=" + k.Model + "\x00" + prompt)
}

var fenceLine = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_+.-]*[ \t]*$\n?")

// NormalizeWrappers removes markdown code-fence lines and converts CRLF line
// endings to LF. The fenced content itself is preserved.
func NormalizeWrappers(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return fenceLine.ReplaceAllString(s, "")
}
