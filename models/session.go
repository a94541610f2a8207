// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package models

// AuthSession is a snapshot of the durable authentication state. An empty
// AccessToken means logged out. Snapshots are immutable values: the session
// store replaces the whole snapshot atomically, so a reader never observes
// an access token paired with a stale refresh token.
type AuthSession struct {
	// AccessToken is the short-lived bearer token attached to API calls.
	AccessToken string

	// RefreshToken is the long-lived token used to obtain new access tokens.
	RefreshToken string

	// UserID is the cached identifier of the session owner, 0 if unknown.
	UserID int64

	// Username is the cached login of the session owner.
	Username string
}

// IsLoggedIn reports whether the session holds an access token.
func (s AuthSession) IsLoggedIn() bool {
	return s.AccessToken != ""
}
