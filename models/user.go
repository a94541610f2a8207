// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package models

// User is the cached identity of the account that is (or was last) logged
// in. It mirrors the latest successful response of the identity endpoint
// and serves as an offline fallback when that endpoint is unreachable.
type User struct {
	// ID is the server-side user identifier.
	ID int64 `json:"id"`

	// Username is the unique login name.
	Username string `json:"username"`

	// Email is the account's e-mail address.
	Email string `json:"email"`

	// FirstName is the user's given name.
	FirstName string `json:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"last_name"`
}

// TableName returns the name of the local database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
