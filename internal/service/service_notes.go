// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/dlevch/simplenote/internal/adapter"
	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/internal/observe"
	"github.com/dlevch/simplenote/internal/store"
	"github.com/dlevch/simplenote/models"
)

// localIDAttempts bounds the placeholder-id collision retry loop. With
// 63 random bits a single retry is already astronomically unlikely.
const localIDAttempts = 5

type noteService struct {
	localStore *store.Storages
	adapter    adapter.ServerAdapter
	logger     *logger.Logger
	pageSize   int
}

func NewNoteService(localStore *store.Storages, serverAdapter adapter.ServerAdapter, pageSize int, logger *logger.Logger) NoteService {
	return &noteService{
		localStore: localStore,
		adapter:    serverAdapter,
		logger:     logger,
		pageSize:   pageSize,
	}
}

func (s *noteService) RefreshNotes(ctx context.Context) error {
	if !s.localStore.Session.Session().IsLoggedIn() {
		return ErrNotLoggedIn
	}

	if err := s.pushLocalChanges(ctx); err != nil {
		return err
	}

	return s.pullRemoteNotes(ctx)
}

// pushLocalChanges reconciles every unsynced row with the server. A remote
// failure on one note is logged and skipped, leaving the row unsynced for
// the next cycle; only a local store failure aborts the batch.
func (s *noteService) pushLocalChanges(ctx context.Context) error {
	log := logger.FromContext(ctx)

	unsynced, err := s.localStore.Notes.GetUnsyncedNotes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load unsynced notes: %w", err)
	}

	for _, note := range unsynced {
		switch {
		case note.IsDeleted && note.IsLocalOnly():
			// Never reached the server, nothing to tell it.
			err = s.localStore.Notes.DeleteNote(ctx, note.ID)

		case note.IsDeleted:
			remoteErr := s.adapter.DeleteNote(ctx, note.ID)
			if remoteErr != nil && !errors.Is(remoteErr, adapter.ErrNotFound) {
				log.Warn().Err(remoteErr).
					Str("func", "noteService.pushLocalChanges").
					Int64("id", note.ID).
					Msg("remote delete failed, tombstone kept for retry")
				continue
			}
			err = s.localStore.Notes.DeleteNote(ctx, note.ID)

		case note.IsLocalOnly():
			created, remoteErr := s.adapter.CreateNote(ctx, note.Title, note.Description)
			if remoteErr != nil {
				log.Warn().Err(remoteErr).
					Str("func", "noteService.pushLocalChanges").
					Int64("id", note.ID).
					Msg("remote create failed, placeholder kept for retry")
				continue
			}
			err = s.localStore.Notes.ReplaceNote(ctx, note.ID, created)

		default:
			updated, remoteErr := s.adapter.UpdateNote(ctx, note.ID, note.Title, note.Description)
			if remoteErr != nil {
				log.Warn().Err(remoteErr).
					Str("func", "noteService.pushLocalChanges").
					Int64("id", note.ID).
					Msg("remote update failed, local edit kept for retry")
				continue
			}
			err = s.localStore.Notes.SaveNote(ctx, updated)
		}

		if err != nil {
			return fmt.Errorf("failed to commit push result (id=%d): %w", note.ID, err)
		}
	}

	return nil
}

// pullRemoteNotes walks every page of the note list and merges the results
// in. Each page commits separately, so a failure mid-walk keeps the pages
// already applied.
func (s *noteService) pullRemoteNotes(ctx context.Context) error {
	for page := 1; ; page++ {
		result, err := s.adapter.ListNotes(ctx, page, s.pageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch note page %d: %w", page, err)
		}

		notes := make([]models.Note, 0, len(result.Results))
		for _, resp := range result.Results {
			notes = append(notes, resp.ToNote())
		}

		if err = s.localStore.Notes.MergeRemoteNotes(ctx, notes...); err != nil {
			return fmt.Errorf("failed to merge note page %d: %w", page, err)
		}

		if !result.HasNext() {
			return nil
		}
	}
}

func (s *noteService) CreateNote(ctx context.Context, title, description string) (models.Note, error) {
	log := logger.FromContext(ctx)

	created, err := s.adapter.CreateNote(ctx, title, description)
	if err == nil {
		if saveErr := s.localStore.Notes.SaveNote(ctx, created); saveErr != nil {
			return models.Note{}, saveErr
		}
		return created, nil
	}

	log.Warn().Err(err).
		Str("func", "noteService.CreateNote").
		Msg("remote create failed, falling back to offline placeholder")

	id, err := s.newLocalID(ctx)
	if err != nil {
		return models.Note{}, err
	}

	now := time.Now().UTC()
	note := models.Note{
		ID:          id,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsSynced:    false,
		IsDeleted:   false,
	}
	if err = s.localStore.Notes.SaveNote(ctx, note); err != nil {
		return models.Note{}, err
	}

	return note, nil
}

func (s *noteService) UpdateNote(ctx context.Context, id int64, title, description string) (models.Note, error) {
	if id < 0 {
		return s.applyLocalEdit(ctx, id, func(note *models.Note) {
			note.Title = title
			note.Description = description
		})
	}

	updated, err := s.adapter.UpdateNote(ctx, id, title, description)
	if err == nil {
		if saveErr := s.localStore.Notes.SaveNote(ctx, updated); saveErr != nil {
			return models.Note{}, saveErr
		}
		return updated, nil
	}

	logger.FromContext(ctx).Warn().Err(err).
		Str("func", "noteService.UpdateNote").
		Int64("id", id).
		Msg("remote update failed, falling back to local edit")

	return s.applyLocalEdit(ctx, id, func(note *models.Note) {
		note.Title = title
		note.Description = description
	})
}

func (s *noteService) RetitleNote(ctx context.Context, id int64, title string) (models.Note, error) {
	if id < 0 {
		return s.applyLocalEdit(ctx, id, func(note *models.Note) {
			note.Title = title
		})
	}

	updated, err := s.adapter.PartialUpdateNote(ctx, id, map[string]string{"title": title})
	if err == nil {
		if saveErr := s.localStore.Notes.SaveNote(ctx, updated); saveErr != nil {
			return models.Note{}, saveErr
		}
		return updated, nil
	}

	logger.FromContext(ctx).Warn().Err(err).
		Str("func", "noteService.RetitleNote").
		Int64("id", id).
		Msg("remote partial update failed, falling back to local edit")

	return s.applyLocalEdit(ctx, id, func(note *models.Note) {
		note.Title = title
	})
}

// applyLocalEdit mutates an existing local row and marks it unsynced, so
// the change is pushed on the next sync cycle.
func (s *noteService) applyLocalEdit(ctx context.Context, id int64, edit func(*models.Note)) (models.Note, error) {
	note, err := s.localStore.Notes.GetNoteByID(ctx, id)
	if err != nil {
		return models.Note{}, err
	}

	edit(&note)
	note.UpdatedAt = time.Now().UTC()
	note.IsSynced = false

	if err = s.localStore.Notes.SaveNote(ctx, note); err != nil {
		return models.Note{}, err
	}

	return note, nil
}

func (s *noteService) DeleteNote(ctx context.Context, id int64) error {
	if id < 0 {
		// The server has never heard of this note.
		if _, err := s.localStore.Notes.GetNoteByID(ctx, id); err != nil {
			return err
		}
		return s.localStore.Notes.DeleteNote(ctx, id)
	}

	err := s.adapter.DeleteNote(ctx, id)
	if err == nil || errors.Is(err, adapter.ErrNotFound) {
		return s.localStore.Notes.DeleteNote(ctx, id)
	}

	logger.FromContext(ctx).Warn().Err(err).
		Str("func", "noteService.DeleteNote").
		Int64("id", id).
		Msg("remote delete failed, marking tombstone")

	return s.localStore.Notes.MarkNoteDeleted(ctx, id)
}

func (s *noteService) GetNote(ctx context.Context, id int64) (models.Note, error) {
	if id < 0 {
		return s.localStore.Notes.GetNoteByID(ctx, id)
	}

	remote, err := s.adapter.GetNote(ctx, id)
	if err == nil {
		// Merge respects pending local edits; the caller still sees the
		// freshest server copy.
		if mergeErr := s.localStore.Notes.MergeRemoteNotes(ctx, remote); mergeErr != nil {
			return models.Note{}, mergeErr
		}
		return remote, nil
	}

	local, localErr := s.localStore.Notes.GetNoteByID(ctx, id)
	if localErr != nil {
		return models.Note{}, fmt.Errorf("failed to fetch note (id=%d): %w", id, err)
	}

	return local, nil
}

func (s *noteService) GetAllNotes(ctx context.Context) ([]models.Note, error) {
	return s.localStore.Notes.GetAllNotes(ctx)
}

func (s *noteService) SearchNotes(ctx context.Context, query string) ([]models.Note, error) {
	return s.localStore.Notes.SearchNotes(ctx, query)
}

func (s *noteService) WatchNotes(ctx context.Context, query string) (<-chan []models.Note, func()) {
	out := make(chan []models.Note, 1)
	revisions, unsubscribe := s.localStore.Notes.Watch()
	watchCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			select {
			case <-watchCtx.Done():
				return
			case _, ok := <-revisions:
				if !ok {
					return
				}
				notes, err := s.listForQuery(watchCtx, query)
				if err != nil {
					s.logger.Warn().Err(err).
						Str("func", "noteService.WatchNotes").
						Msg("failed to re-query notes after change")
					continue
				}
				observe.Replace(out, notes)
			}
		}
	}()

	return out, cancel
}

func (s *noteService) listForQuery(ctx context.Context, query string) ([]models.Note, error) {
	if query == "" {
		return s.localStore.Notes.GetAllNotes(ctx)
	}
	return s.localStore.Notes.SearchNotes(ctx, query)
}

// newLocalID allocates a random negative id for an offline placeholder.
// Placeholder ids share the primary-key space with server ids, so the id is
// checked against existing rows, tombstones included.
func (s *noteService) newLocalID(ctx context.Context) (int64, error) {
	for attempt := 0; attempt < localIDAttempts; attempt++ {
		r, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			return 0, fmt.Errorf("failed to draw random placeholder id: %w", err)
		}
		id := -(r.Int64() + 1)

		exists, err := s.localStore.Notes.NoteExists(ctx, id)
		if err != nil {
			return 0, err
		}
		if !exists {
			return id, nil
		}
	}

	return 0, errors.New("failed to allocate a unique placeholder id")
}
