// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

// Package adapter provides the transport layer for communicating with the
// SimpleNote server.
//
// The primary abstraction is [ServerAdapter], which decouples the service
// layer from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrUnauthorized] for 401, [ErrNotFound] for 404).
// Transport-level failures (unreachable host, timeout) wrap [ErrNetwork].
package adapter

import (
	"context"

	"github.com/dlevch/simplenote/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// TokenSource supplies the bearer token attached to authenticated requests
// and the refresh path invoked when the server rejects that token.
// The auth service implements it; the adapter only consumes it.
type TokenSource interface {
	// AccessToken returns the current access token, or an empty string when
	// logged out. It must be cheap: it is consulted on every request.
	AccessToken() string

	// RefreshAccessToken obtains a new access token using the stored refresh
	// token and persists it. Concurrent callers must be coalesced into a
	// single network attempt. Returns the new token, or an error when the
	// session cannot be recovered and the caller must not retry.
	RefreshAccessToken(ctx context.Context) (string, error)
}

// ServerAdapter defines typed access to the SimpleNote REST API. The
// adapter performs serialisation, bearer-token header management, the
// single refresh-and-retry round on 401, and the mapping of transport
// errors to the sentinel values of this package. It holds no retry logic
// beyond that and no token state of its own.
type ServerAdapter interface {
	// SetTokenSource wires the token provider consulted on every
	// authenticated request. Must be called once during start-up, before any
	// authenticated call is made.
	SetTokenSource(src TokenSource)

	// Register creates a new account. No token is attached and no session
	// state changes.
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error)

	// Login exchanges credentials for an access/refresh token pair. No token
	// is attached to the request itself.
	Login(ctx context.Context, username, password string) (models.TokenPair, error)

	// RefreshToken exchanges refresh for a new access token. The call goes
	// through a token-free client and its own 401 is never intercepted, so a
	// failing refresh can never trigger another refresh.
	RefreshToken(ctx context.Context, refresh string) (string, error)

	// GetUserInfo fetches the identity of the token's owner.
	GetUserInfo(ctx context.Context) (models.UserInfoResponse, error)

	// ChangePassword replaces the account password. Requires a valid token.
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error

	// ListNotes fetches one page of the note list. Pages start at 1.
	ListNotes(ctx context.Context, page, pageSize int) (models.NotesPage, error)

	// CreateNote creates a note and returns the server's representation,
	// including the assigned id.
	CreateNote(ctx context.Context, title, description string) (models.Note, error)

	// GetNote fetches a single note by its server id.
	GetNote(ctx context.Context, id int64) (models.Note, error)

	// UpdateNote replaces title and description of an existing note and
	// returns the server's representation.
	UpdateNote(ctx context.Context, id int64, title, description string) (models.Note, error)

	// PartialUpdateNote patches only the supplied fields of a note and
	// returns the server's representation.
	PartialUpdateNote(ctx context.Context, id int64, fields map[string]string) (models.Note, error)

	// DeleteNote removes a note on the server.
	DeleteNote(ctx context.Context, id int64) error
}
