// Package privacy redacts personal data before it reaches logs or event sinks.
package privacy

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a short, stable, non-reversible token for a piece of PII
// (email, file number, name). Equal inputs after trimming and lower-casing share a token.
func Fingerprint(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
