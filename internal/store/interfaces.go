// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package store

import (
	"context"

	"github.com/dlevch/simplenote/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// NoteRepository is the local note table. It is the single source of truth
// for what the UI displays; every mutation bumps a revision that observers
// obtain via Watch.
type NoteRepository interface {
	// SaveNote upserts the row under note.ID, replacing every column.
	SaveNote(ctx context.Context, note models.Note) error

	// MergeRemoteNotes upserts server-fetched notes as synced, non-deleted
	// rows in one transaction. Rows that currently carry local unsynced
	// changes (tombstones included) are left untouched, so a pull can never
	// clobber a pending local mutation.
	MergeRemoteNotes(ctx context.Context, notes ...models.Note) error

	// ReplaceNote removes the row under oldID and inserts note under its own
	// id in one transaction. Used to promote an offline placeholder to its
	// server-assigned id.
	ReplaceNote(ctx context.Context, oldID int64, note models.Note) error

	// GetNoteByID returns the non-tombstone row with the given id, or
	// [ErrNoteNotFound].
	GetNoteByID(ctx context.Context, id int64) (models.Note, error)

	// GetAllNotes returns all non-tombstone rows, newest update first.
	GetAllNotes(ctx context.Context) ([]models.Note, error)

	// SearchNotes returns non-tombstone rows whose title or description
	// contains query, newest update first.
	SearchNotes(ctx context.Context, query string) ([]models.Note, error)

	// GetUnsyncedNotes returns every row with pending local mutations,
	// tombstones included.
	GetUnsyncedNotes(ctx context.Context) ([]models.Note, error)

	// NoteExists reports whether any row occupies the given id, tombstones
	// included. Placeholder ids are primary keys, so collision checks must
	// see tombstones too.
	NoteExists(ctx context.Context, id int64) (bool, error)

	// MarkNoteDeleted turns the row into a tombstone: hidden from reads,
	// unsynced, awaiting remote delete confirmation.
	MarkNoteDeleted(ctx context.Context, id int64) error

	// DeleteNote physically removes the row.
	DeleteNote(ctx context.Context, id int64) error

	// DeleteAllNotes empties the table. Used when a different account logs
	// in on the same device.
	DeleteAllNotes(ctx context.Context) error

	// Watch returns a revision stream: the current revision immediately,
	// then a new one after every committed mutation. The stream is
	// conflated; cancel closes the channel.
	Watch() (<-chan uint64, func())
}

// UserRepository caches the identity of the last authenticated user as an
// offline fallback for the identity endpoint.
type UserRepository interface {
	// SaveUser upserts the cached identity.
	SaveUser(ctx context.Context, user models.User) error

	// GetUser returns the most recently cached identity, or
	// [ErrUserNotFound].
	GetUser(ctx context.Context) (models.User, error)

	// DeleteAllUsers wipes the cache. Called on logout.
	DeleteAllUsers(ctx context.Context) error
}

// SessionRepository is the durable, observable holder of the auth session.
// Writers are serialized; a reader never observes an access token paired
// with a stale refresh token.
type SessionRepository interface {
	// Session returns the current snapshot.
	Session() models.AuthSession

	// SaveTokens persists both tokens in one transaction.
	SaveTokens(ctx context.Context, access, refresh string) error

	// SaveUserInfo persists the session owner's id and username.
	SaveUserInfo(ctx context.Context, userID int64, username string) error

	// ClearAll wipes every field in one transaction. Idempotent.
	ClearAll(ctx context.Context) error

	// Watch returns a snapshot stream: the current snapshot immediately,
	// then every subsequent change. The stream is conflated; cancel closes
	// the channel.
	Watch() (<-chan models.AuthSession, func())
}
