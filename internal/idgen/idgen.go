// Package idgen generates the random resource identifiers used across the
// API (ses_, act_, stk_, rec_, ak_).
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

// WithPrefix returns prefix + 24 hex chars (12 random bytes). The prefix
// makes identifiers self-describing in logs and audit exports.
func WithPrefix(prefix string) string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}
