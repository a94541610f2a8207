package store

import (
	"context"
	"fmt"

	"github.com/dlevch/simplenote/internal/config"
	"github.com/dlevch/simplenote/internal/logger"
)

// Storages groups all local repositories into a single value that can be
// passed around the service layer.
type Storages struct {
	// Notes is the SQLite-backed note table with sync-state flags.
	Notes NoteRepository

	// Users caches the last known identity for offline fallback.
	Users UserRepository

	// Session is the durable, observable auth session holder.
	Session SessionRepository
}

// NewStorages initialises the local storage layer. It performs the
// following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DB.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Constructs a [Storages] value wired to fresh repositories, loading the
//     persisted session snapshot.
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewStorages(cfg config.Storage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	session, err := NewSessionRepository(db, logger)
	if err != nil {
		return nil, fmt.Errorf("session store init failed: %w", err)
	}

	return &Storages{
		Notes:   NewNoteRepository(db, logger),
		Users:   NewUserRepository(db, logger),
		Session: session,
	}, nil
}
