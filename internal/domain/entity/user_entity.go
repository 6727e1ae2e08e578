package entity

import "time"

// User is the aggregate root for the account domain. Password always holds
// a bcrypt hash once past the registration boundary, never plaintext.
type User struct {
	ID        int64
	Email     string
	Username  string
	Password  string
	Verified  bool
	Theme     bool
	Lang      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
