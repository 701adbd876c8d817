package models

import "time"

// Session is the server-side revocation record for an issued token. A token
// is honored only while a matching row exists; rows carry no expiry of their
// own and are pruned by the age-based sweep.
type Session struct {
	Token     string    `db:"token" json:"token"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
