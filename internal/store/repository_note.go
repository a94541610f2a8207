package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/models"
)

var noteColumns = []string{
	"id",
	"title",
	"description",
	"created_at",
	"updated_at",
	"creator_name",
	"creator_username",
	"is_synced",
	"is_deleted",
}

// queryBuilder produces the dynamic SELECTs of the note repository with
// $N placeholders, matching the raw statements in sql_queries.go.
var queryBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type noteRepository struct {
	*DB
	logger *logger.Logger

	// revision is bumped after every committed mutation; Watch subscribers
	// re-query on each bump.
	revision *observeRevision
}

func NewNoteRepository(db *DB, logger *logger.Logger) NoteRepository {
	return &noteRepository{
		DB:       db,
		logger:   logger,
		revision: newObserveRevision(),
	}
}

func (n *noteRepository) SaveNote(ctx context.Context, note models.Note) error {
	log := logger.FromContext(ctx)

	_, err := n.DB.ExecContext(ctx, upsertNote,
		note.ID,
		note.Title,
		note.Description,
		note.CreatedAt,
		note.UpdatedAt,
		note.CreatorName,
		note.CreatorUsername,
		note.IsSynced,
		note.IsDeleted,
	)
	if err != nil {
		log.Err(err).
			Str("func", "noteRepository.SaveNote").
			Int64("id", note.ID).
			Msg("failed to execute upsert for note")
		return fmt.Errorf("failed to save note (id=%d): %w", note.ID, err)
	}

	n.revision.bump()
	return nil
}

func (n *noteRepository) MergeRemoteNotes(ctx context.Context, notes ...models.Note) error {
	if len(notes) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)

	tx, err := n.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "noteRepository.MergeRemoteNotes").
			Msg("failed to begin merge transaction")
		return fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback()

	for _, note := range notes {
		if _, err = tx.ExecContext(ctx, mergeRemoteNote,
			note.ID,
			note.Title,
			note.Description,
			note.CreatedAt,
			note.UpdatedAt,
			note.CreatorName,
			note.CreatorUsername,
		); err != nil {
			log.Err(err).
				Str("func", "noteRepository.MergeRemoteNotes").
				Int64("id", note.ID).
				Msg("failed to merge remote note")
			return fmt.Errorf("failed to merge remote note (id=%d): %w", note.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge transaction: %w", err)
	}

	n.revision.bump()
	return nil
}

func (n *noteRepository) ReplaceNote(ctx context.Context, oldID int64, note models.Note) error {
	log := logger.FromContext(ctx)

	tx, err := n.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "noteRepository.ReplaceNote").
			Msg("failed to begin replace transaction")
		return fmt.Errorf("failed to begin replace transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, deleteNoteByID, oldID); err != nil {
		log.Err(err).
			Str("func", "noteRepository.ReplaceNote").
			Int64("old_id", oldID).
			Msg("failed to remove placeholder row")
		return fmt.Errorf("failed to remove placeholder row (id=%d): %w", oldID, err)
	}

	if _, err = tx.ExecContext(ctx, upsertNote,
		note.ID,
		note.Title,
		note.Description,
		note.CreatedAt,
		note.UpdatedAt,
		note.CreatorName,
		note.CreatorUsername,
		note.IsSynced,
		note.IsDeleted,
	); err != nil {
		log.Err(err).
			Str("func", "noteRepository.ReplaceNote").
			Int64("id", note.ID).
			Msg("failed to insert promoted row")
		return fmt.Errorf("failed to insert promoted row (id=%d): %w", note.ID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace transaction: %w", err)
	}

	n.revision.bump()
	return nil
}

func (n *noteRepository) GetNoteByID(ctx context.Context, id int64) (models.Note, error) {
	log := logger.FromContext(ctx)

	query, args, err := queryBuilder.
		Select(noteColumns...).
		From("notes").
		Where(sq.Eq{"id": id, "is_deleted": false}).
		ToSql()
	if err != nil {
		return models.Note{}, fmt.Errorf("failed to build note query: %w", err)
	}

	var note models.Note
	row := n.DB.QueryRowContext(ctx, query, args...)
	if err = scanNote(row.Scan, &note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Note{}, fmt.Errorf("%w (id=%d)", ErrNoteNotFound, id)
		}
		log.Err(err).
			Str("func", "noteRepository.GetNoteByID").
			Int64("id", id).
			Msg("failed to scan note row")
		return models.Note{}, fmt.Errorf("failed to scan note row: %w", err)
	}

	return note, nil
}

func (n *noteRepository) GetAllNotes(ctx context.Context) ([]models.Note, error) {
	builder := queryBuilder.
		Select(noteColumns...).
		From("notes").
		Where(sq.Eq{"is_deleted": false}).
		OrderBy("updated_at DESC")

	return n.queryNotes(ctx, "noteRepository.GetAllNotes", builder)
}

func (n *noteRepository) SearchNotes(ctx context.Context, query string) ([]models.Note, error) {
	pattern := "%" + query + "%"
	builder := queryBuilder.
		Select(noteColumns...).
		From("notes").
		Where(sq.Eq{"is_deleted": false}).
		Where(sq.Or{
			sq.Like{"title": pattern},
			sq.Like{"description": pattern},
		}).
		OrderBy("updated_at DESC")

	return n.queryNotes(ctx, "noteRepository.SearchNotes", builder)
}

func (n *noteRepository) GetUnsyncedNotes(ctx context.Context) ([]models.Note, error) {
	builder := queryBuilder.
		Select(noteColumns...).
		From("notes").
		Where(sq.Eq{"is_synced": false})

	return n.queryNotes(ctx, "noteRepository.GetUnsyncedNotes", builder)
}

func (n *noteRepository) NoteExists(ctx context.Context, id int64) (bool, error) {
	log := logger.FromContext(ctx)

	var exists bool
	if err := n.DB.QueryRowContext(ctx, noteExists, id).Scan(&exists); err != nil {
		log.Err(err).
			Str("func", "noteRepository.NoteExists").
			Int64("id", id).
			Msg("failed to query note existence")
		return false, fmt.Errorf("failed to query note existence (id=%d): %w", id, err)
	}

	return exists, nil
}

func (n *noteRepository) MarkNoteDeleted(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	result, err := n.DB.ExecContext(ctx, markNoteDeleted, id)
	if err != nil {
		log.Err(err).
			Str("func", "noteRepository.MarkNoteDeleted").
			Int64("id", id).
			Msg("failed to execute tombstone update")
		return fmt.Errorf("failed to mark note deleted (id=%d): %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%d): %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w (id=%d)", ErrNoteNotFound, id)
	}

	n.revision.bump()
	return nil
}

func (n *noteRepository) DeleteNote(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	if _, err := n.DB.ExecContext(ctx, deleteNoteByID, id); err != nil {
		log.Err(err).
			Str("func", "noteRepository.DeleteNote").
			Int64("id", id).
			Msg("failed to execute note delete")
		return fmt.Errorf("failed to delete note (id=%d): %w", id, err)
	}

	n.revision.bump()
	return nil
}

func (n *noteRepository) DeleteAllNotes(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if _, err := n.DB.ExecContext(ctx, deleteAllNotes); err != nil {
		log.Err(err).
			Str("func", "noteRepository.DeleteAllNotes").
			Msg("failed to wipe note table")
		return fmt.Errorf("failed to wipe note table: %w", err)
	}

	n.revision.bump()
	return nil
}

func (n *noteRepository) Watch() (<-chan uint64, func()) {
	return n.revision.subscribe()
}

func (n *noteRepository) queryNotes(ctx context.Context, caller string, builder sq.SelectBuilder) ([]models.Note, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build note query: %w", err)
	}

	rows, err := n.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", caller).
			Msg("failed to execute note query")
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var note models.Note
		if err = scanNote(rows.Scan, &note); err != nil {
			log.Err(err).
				Str("func", caller).
				Msg("failed to scan note row")
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		notes = append(notes, note)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", caller).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating note rows: %w", rowsErr)
	}

	return notes, nil
}

func scanNote(scan func(dest ...any) error, note *models.Note) error {
	return scan(
		&note.ID,
		&note.Title,
		&note.Description,
		&note.CreatedAt,
		&note.UpdatedAt,
		&note.CreatorName,
		&note.CreatorUsername,
		&note.IsSynced,
		&note.IsDeleted,
	)
}
