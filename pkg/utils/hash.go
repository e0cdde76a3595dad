package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const fingerprintLength = 12

// Fingerprint returns a short SHA-256 digest of an identifier so logs can
// correlate submissions without carrying the identifier itself.
func Fingerprint(input string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(input))))

	return hex.EncodeToString(h.Sum(nil))[:fingerprintLength]
}
