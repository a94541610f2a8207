// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package service

import (
	"context"

	"github.com/dlevch/simplenote/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// AuthService owns the token lifecycle: login, durable session state,
// single-flight refresh, and logout. It also implements
// [adapter.TokenSource], which is how the transport layer obtains tokens
// and triggers a refresh after a 401.
type AuthService interface {
	// Register creates a new account on the server. No session state
	// changes; the caller still has to log in.
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error)

	// Login exchanges credentials for a token pair and persists the
	// resulting session. On failure the previous session, whatever it was,
	// stays untouched. Logging in as a different user than the previous one
	// wipes the locally cached notes of that previous user.
	Login(ctx context.Context, username, password string) error

	// RestoreSession prepares a persisted session for use at start-up. If
	// the stored access token is already expired it refreshes eagerly, so
	// the first real request does not pay the 401 round-trip, then verifies
	// the session against the server. Returns [ErrNotLoggedIn] when there
	// is no session, or [ErrReauthRequired] when the server no longer
	// accepts it; an unreachable server keeps the session and starts
	// offline.
	RestoreSession(ctx context.Context) error

	// VerifyToken checks the session against the server and caches the
	// confirmed identity. An auth rejection (after the built-in refresh
	// attempt) wipes the session and returns [ErrReauthRequired]; a network
	// failure leaves the session in place.
	VerifyToken(ctx context.Context) error

	// AccessToken returns the current access token, or "" when logged out.
	AccessToken() string

	// RefreshAccessToken swaps the refresh token for a new access token and
	// persists it. Concurrent callers share one network attempt. Any
	// refresh failure wipes the session and returns [ErrReauthRequired].
	RefreshAccessToken(ctx context.Context) (string, error)

	// ChangePassword replaces the account password on the server.
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error

	// CurrentUser returns the identity of the session owner, preferring the
	// server and falling back to the locally cached copy when offline.
	CurrentUser(ctx context.Context) (models.User, error)

	// Session returns the current session snapshot.
	Session() models.AuthSession

	// Logout wipes the session and the cached user identity. Locally stored
	// notes are kept.
	Logout(ctx context.Context) error

	// WatchLoggedIn emits the logged-in state: the current value
	// immediately, then once per transition. The stream is conflated;
	// cancel (or ctx) closes the channel.
	WatchLoggedIn(ctx context.Context) (<-chan bool, func())
}

// NoteService is the offline-capable note facade. Every operation keeps the
// local store consistent whether or not the server is reachable; reads are
// always served locally.
type NoteService interface {
	// RefreshNotes reconciles local state with the server: first pushes
	// every unsynced row (tombstones, placeholders, edits), then pulls all
	// remote pages and merges them in. Per-note push failures are logged
	// and retried on the next call; a pull failure surfaces as the return
	// error with already-applied progress kept.
	RefreshNotes(ctx context.Context) error

	// CreateNote creates a note remotely, or as a negative-id placeholder
	// when the server cannot be reached. It only fails when the local store
	// itself does.
	CreateNote(ctx context.Context, title, description string) (models.Note, error)

	// UpdateNote replaces a note's title and description, remotely when
	// possible and as a pending local edit otherwise. Placeholder rows are
	// edited locally with no remote call. Returns [store.ErrNoteNotFound]
	// when the id is unknown both remotely and locally.
	UpdateNote(ctx context.Context, id int64, title, description string) (models.Note, error)

	// RetitleNote changes only the title, using a partial update on the
	// wire. Offline fallback matches UpdateNote.
	RetitleNote(ctx context.Context, id int64, title string) (models.Note, error)

	// DeleteNote deletes a note, remotely when possible and as a tombstone
	// otherwise. Placeholder rows are removed with no remote call.
	DeleteNote(ctx context.Context, id int64) error

	// GetNote returns one note, preferring a fresh server copy and falling
	// back to the local row when the fetch fails.
	GetNote(ctx context.Context, id int64) (models.Note, error)

	// GetAllNotes returns all local non-deleted notes, newest update first.
	GetAllNotes(ctx context.Context) ([]models.Note, error)

	// SearchNotes returns local non-deleted notes matching query in title
	// or description, newest update first.
	SearchNotes(ctx context.Context, query string) ([]models.Note, error)

	// WatchNotes emits the result of GetAllNotes (or SearchNotes when query
	// is non-empty): the current list immediately, then a fresh list after
	// every local mutation. The stream is conflated; cancel (or ctx) closes
	// the channel.
	WatchNotes(ctx context.Context, query string) (<-chan []models.Note, func())
}

// SyncJob periodically runs RefreshNotes in the background while a session
// is active.
type SyncJob interface {
	// Start launches the background goroutine. Any previously running job
	// is stopped first.
	Start(ctx context.Context)

	// Stop signals the goroutine to exit and blocks until it has. Safe to
	// call when the job is not running.
	Stop()
}
