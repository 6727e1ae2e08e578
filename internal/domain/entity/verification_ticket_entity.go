package entity

import "time"

// VerificationTicket is a single-use proof of email ownership. The random
// Token string is the lookup key; the ticket is valid iff it exists and the
// current time is strictly before ExpiresAt.
type VerificationTicket struct {
	ID        int64
	Token     string
	UserID    int64
	ExpiresAt time.Time
}
