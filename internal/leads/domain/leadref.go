package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewLeadRef generates a human-readable lead reference of the form
// LD-<millis>-<random>. It is generated eagerly, before any database
// write, so callers can hand it out even if persistence later fails.
func NewLeadRef() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// fall back to a timestamp-only suffix rather than panicking.
		return fmt.Sprintf("LD-%d-%08x", time.Now().UnixMilli(), time.Now().UnixNano()&0xffffffff)
	}
	return fmt.Sprintf("LD-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
