package domain

import "time"

// Transcript is a free-text interview transcript kept for a limited time.
// ExpiresAt is the Unix second after which the store reaps the record.
type Transcript struct {
	ID        string `validate:"required"`
	Text      string `validate:"required"`
	CreatedAt time.Time
	ExpiresAt int64 `validate:"required"`
}

// Validate checks the presence of required attributes.
func (t Transcript) Validate() error {
	return validate.Struct(t)
}

// Expired reports whether the record is past its expiry at now.
func (t Transcript) Expired(now time.Time) bool {
	return t.ExpiresAt <= now.Unix()
}
