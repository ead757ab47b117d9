package entity

import (
	"fmt"
	"time"
)

// Record is the single persisted OTP entity, stored as a JSON value under a
// TTL-bound key. The plaintext passcode never appears here; only its hash.
type Record struct {
	ID           string            `json:"id"`
	Identifier   string            `json:"identifier"`
	Purpose      Purpose           `json:"purpose"`
	SecretHash   string            `json:"secret_hash"`
	AttemptCount int               `json:"attempt_count"`
	MaxAttempts  int               `json:"max_attempts"`
	CreatedAt    time.Time         `json:"created_at"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Verified     bool              `json:"verified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// IsExpired reports whether the record is past its expiry at the given time.
// The store's TTL normally evicts expired records; this is the lazy backstop
// for the window between expiry and eviction.
func (r *Record) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// IsMaxAttemptsExceeded reports whether the attempt ceiling has been reached.
func (r *Record) IsMaxAttemptsExceeded() bool {
	return r.AttemptCount >= r.MaxAttempts
}

// IncrementAttempts bumps the attempt counter by one.
func (r *Record) IncrementAttempts() {
	r.AttemptCount++
}

// RemainingAttempts returns how many validation attempts are left, never
// negative.
func (r *Record) RemainingAttempts() int {
	remaining := r.MaxAttempts - r.AttemptCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Key returns the store key for this record.
func (r *Record) Key() string {
	return BuildKey(r.Identifier, r.Purpose)
}

// BuildKey derives the store key for an (identifier, purpose) pair. The
// purpose segment keeps keys collision-free across flows for one identifier.
func BuildKey(identifier string, purpose Purpose) string {
	return fmt.Sprintf("otp:%s:%s", identifier, purpose)
}
