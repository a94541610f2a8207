// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package models

import "time"

// Note is the locally persisted representation of a note. It mirrors the
// server record plus two client-side flags that drive the sync engine.
//
// ID is server-assigned and always positive once the note has reached the
// server. Notes created while offline carry a negative, locally generated
// placeholder ID until the first successful push promotes them to their
// server ID.
type Note struct {
	// ID is the note's primary key in the local store. Positive values are
	// server-assigned; negative values are offline placeholders.
	ID int64 `json:"id"`

	// Title is the note headline.
	Title string `json:"title"`

	// Description is the note body.
	Description string `json:"description"`

	// CreatedAt is the creation timestamp (UTC).
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last modification timestamp (UTC). Local queries are
	// ordered by this field, newest first.
	UpdatedAt time.Time `json:"updated_at"`

	// CreatorName is the display name of the note's author as reported by
	// the server. Empty for notes created offline that have not synced yet.
	CreatorName string `json:"creator_name"`

	// CreatorUsername is the author's login as reported by the server.
	CreatorUsername string `json:"creator_username"`

	// IsSynced is false while the note carries a local mutation (create,
	// update or delete) that the server has not confirmed yet.
	IsSynced bool `json:"-"`

	// IsDeleted marks a tombstone: the note is hidden from every read query
	// and the row is removed once the remote delete is confirmed.
	IsDeleted bool `json:"-"`
}

// TableName returns the name of the local database table
// associated with the Note model.
func (n Note) TableName() string {
	return "notes"
}

// IsLocalOnly reports whether the note has never reached the server.
func (n Note) IsLocalOnly() bool {
	return n.ID < 0
}
