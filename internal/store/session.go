// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/internal/observe"
	"github.com/dlevch/simplenote/models"
)

const (
	sessionKeyAccessToken  = "access_token"
	sessionKeyRefreshToken = "refresh_token"
	sessionKeyUserID       = "user_id"
	sessionKeyUsername     = "username"
)

type sessionRepository struct {
	*DB
	logger *logger.Logger

	// mu serializes writers so that concurrent SaveTokens/ClearAll calls
	// commit and publish their snapshots in a single order.
	mu      sync.Mutex
	current *observe.Value[models.AuthSession]
}

// NewSessionRepository constructs the durable session store and loads the
// persisted snapshot, so a restarted client resumes its previous session.
func NewSessionRepository(db *DB, logger *logger.Logger) (SessionRepository, error) {
	s := &sessionRepository{
		DB:      db,
		logger:  logger,
		current: observe.NewValue(models.AuthSession{}),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sessionRepository) load() error {
	rows, err := s.DB.Query(getSessionValues)
	if err != nil {
		return fmt.Errorf("failed to load persisted session: %w", err)
	}
	defer rows.Close()

	var session models.AuthSession
	for rows.Next() {
		var key, value string
		if err = rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan session row: %w", err)
		}

		switch key {
		case sessionKeyAccessToken:
			session.AccessToken = value
		case sessionKeyRefreshToken:
			session.RefreshToken = value
		case sessionKeyUserID:
			id, parseErr := strconv.ParseInt(value, 10, 64)
			if parseErr != nil {
				s.logger.Warn().
					Str("func", "sessionRepository.load").
					Str("value", value).
					Msg("discarding malformed persisted user id")
				continue
			}
			session.UserID = id
		case sessionKeyUsername:
			session.Username = value
		}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("error iterating session rows: %w", rowsErr)
	}

	s.current.Set(session)
	return nil
}

func (s *sessionRepository) Session() models.AuthSession {
	return s.current.Get()
}

func (s *sessionRepository) SaveTokens(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.writeValues(ctx, map[string]string{
		sessionKeyAccessToken:  access,
		sessionKeyRefreshToken: refresh,
	})
	if err != nil {
		return err
	}

	session := s.current.Get()
	session.AccessToken = access
	session.RefreshToken = refresh
	s.current.Set(session)

	return nil
}

func (s *sessionRepository) SaveUserInfo(ctx context.Context, userID int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.writeValues(ctx, map[string]string{
		sessionKeyUserID:   strconv.FormatInt(userID, 10),
		sessionKeyUsername: username,
	})
	if err != nil {
		return err
	}

	session := s.current.Get()
	session.UserID = userID
	session.Username = username
	s.current.Set(session)

	return nil
}

func (s *sessionRepository) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.FromContext(ctx)

	if _, err := s.DB.ExecContext(ctx, clearSession); err != nil {
		log.Err(err).
			Str("func", "sessionRepository.ClearAll").
			Msg("failed to wipe persisted session")
		return fmt.Errorf("failed to wipe persisted session: %w", err)
	}

	s.current.Set(models.AuthSession{})
	return nil
}

func (s *sessionRepository) Watch() (<-chan models.AuthSession, func()) {
	return s.current.Subscribe()
}

// writeValues upserts all pairs in one transaction. Callers hold s.mu, so
// the observable snapshot published after the commit matches the durable
// state.
func (s *sessionRepository) writeValues(ctx context.Context, values map[string]string) error {
	log := logger.FromContext(ctx)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "sessionRepository.writeValues").
			Msg("failed to begin session transaction")
		return fmt.Errorf("failed to begin session transaction: %w", err)
	}
	defer tx.Rollback()

	for key, value := range values {
		if _, err = tx.ExecContext(ctx, upsertSessionValue, key, value); err != nil {
			log.Err(err).
				Str("func", "sessionRepository.writeValues").
				Str("key", key).
				Msg("failed to upsert session value")
			return fmt.Errorf("failed to upsert session value (key=%s): %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session transaction: %w", err)
	}

	return nil
}
