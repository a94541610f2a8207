// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

// Wire models for the SimpleNote REST API. Field names follow the server's
// snake_case JSON exactly.

package models

// RegisterRequest is the payload of POST /api/auth/register/.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegisterResponse echoes the created account (without the password).
type RegisterResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest is the payload of POST /api/auth/token/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is the response of the token endpoint: one access token and one
// refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshRequest is the payload of POST /api/auth/token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// AccessTokenResponse is the refresh endpoint's response. The refresh token
// itself is not rotated.
type AccessTokenResponse struct {
	Access string `json:"access"`
}

// ChangePasswordRequest is the payload of POST /api/auth/change-password/.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// UserInfoResponse is the response of GET /api/auth/userinfo/.
type UserInfoResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ToUser converts the wire representation into the cached [User] entity.
func (r UserInfoResponse) ToUser() User {
	return User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

// NoteRequest is the payload of note create (POST) and full update (PUT)
// calls.
type NoteRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NoteResponse is a single note as returned by the server.
type NoteResponse struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	CreatedAt       APITime `json:"created_at"`
	UpdatedAt       APITime `json:"updated_at"`
	CreatorName     string  `json:"creator_name"`
	CreatorUsername string  `json:"creator_username"`
}

// ToNote converts the wire representation into the local [Note] entity.
// Server responses are authoritative, so the result is always synced and
// never a tombstone.
func (r NoteResponse) ToNote() Note {
	return Note{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		CreatedAt:       r.CreatedAt.Time(),
		UpdatedAt:       r.UpdatedAt.Time(),
		CreatorName:     r.CreatorName,
		CreatorUsername: r.CreatorUsername,
		IsSynced:        true,
		IsDeleted:       false,
	}
}

// NotesPage is one page of the paginated note list endpoint.
type NotesPage struct {
	// Count is the total number of notes across all pages.
	Count int `json:"count"`

	// Next is the URL of the next page, nil on the last page.
	Next *string `json:"next"`

	// Previous is the URL of the previous page, nil on the first page.
	Previous *string `json:"previous"`

	// Results holds the notes of this page.
	Results []NoteResponse `json:"results"`
}

// HasNext reports whether the server announced a further page.
func (p NotesPage) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}
