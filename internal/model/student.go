package model

import "time"

// Student is the roster entry the engine needs: identity and class membership.
// Accounts and credentials belong to the account service.
type Student struct {
	ID        int       `json:"id"`
	ClassID   int       `json:"class_id"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}
