// Package model defines the data structures used throughout the application.
package model

import "time"

// User is an account that snippets are attributed to.
//
// Users are managed by the identity side of the application (snippetctl);
// the HTTP API only ever reads them. PasswordHash holds a bcrypt hash and is
// never serialized, hence the `json:"-"` tag.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"dateJoined"`
}
