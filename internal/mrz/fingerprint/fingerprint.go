// Package fingerprint derives a stable, non-reversible identifier for MRZ text
// so logs, audit events and report lookups never carry the raw zone.
package fingerprint

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// Of returns the hex BLAKE3-256 digest of the newline-joined, upper-cased lines.
func Of(lines []string) string {
	sum := blake3.Sum256([]byte(strings.ToUpper(strings.Join(lines, "\n"))))
	return hex.EncodeToString(sum[:])
}

// Short is the first 12 hex characters, for log lines.
func Short(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}
