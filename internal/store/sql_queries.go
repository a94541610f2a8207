// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package store

const (
	upsertNote = `
		INSERT INTO notes (
			id,
			title,
			description,
			created_at,
			updated_at,
			creator_name,
			creator_username,
			is_synced,
			is_deleted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT(id) DO UPDATE SET
			title            = excluded.title,
			description      = excluded.description,
			created_at       = excluded.created_at,
			updated_at       = excluded.updated_at,
			creator_name     = excluded.creator_name,
			creator_username = excluded.creator_username,
			is_synced        = excluded.is_synced,
			is_deleted       = excluded.is_deleted;`

	// mergeRemoteNote upserts a server-fetched note but refuses to touch a
	// row holding local unsynced changes, so pull never clobbers what push
	// has not confirmed yet.
	mergeRemoteNote = `
		INSERT INTO notes (
			id,
			title,
			description,
			created_at,
			updated_at,
			creator_name,
			creator_username,
			is_synced,
			is_deleted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 1, 0)
		ON CONFLICT(id) DO UPDATE SET
			title            = excluded.title,
			description      = excluded.description,
			created_at       = excluded.created_at,
			updated_at       = excluded.updated_at,
			creator_name     = excluded.creator_name,
			creator_username = excluded.creator_username,
			is_synced        = 1,
			is_deleted       = 0
		WHERE notes.is_synced = 1;`

	noteExists = `
		SELECT EXISTS (SELECT 1 FROM notes WHERE id = $1);`

	markNoteDeleted = `
		UPDATE notes SET
			is_deleted = 1,
			is_synced  = 0
		WHERE id = $1;`

	deleteNoteByID = `
		DELETE FROM notes
		WHERE id = $1;`

	deleteAllNotes = `
		DELETE FROM notes;`

	upsertUser = `
		INSERT INTO users (id, username, email, first_name, last_name, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT(id) DO UPDATE SET
			username   = excluded.username,
			email      = excluded.email,
			first_name = excluded.first_name,
			last_name  = excluded.last_name,
			saved_at   = excluded.saved_at;`

	getLatestUser = `
		SELECT id, username, email, first_name, last_name
		FROM users
		ORDER BY saved_at DESC
		LIMIT 1;`

	deleteAllUsers = `
		DELETE FROM users;`

	upsertSessionValue = `
		INSERT INTO session (key, value)
		VALUES ($1, $2)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value;`

	getSessionValues = `
		SELECT key, value
		FROM session;`

	clearSession = `
		DELETE FROM session;`
)
