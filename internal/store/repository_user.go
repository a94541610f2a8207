package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/models"
)

type userRepository struct {
	*DB
	logger *logger.Logger
}

func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	return &userRepository{DB: db, logger: logger}
}

func (u *userRepository) SaveUser(ctx context.Context, user models.User) error {
	log := logger.FromContext(ctx)

	_, err := u.DB.ExecContext(ctx, upsertUser,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		time.Now().UTC(),
	)
	if err != nil {
		log.Err(err).
			Str("func", "userRepository.SaveUser").
			Int64("user_id", user.ID).
			Msg("failed to execute upsert for cached user")
		return fmt.Errorf("failed to save cached user (id=%d): %w", user.ID, err)
	}

	return nil
}

func (u *userRepository) GetUser(ctx context.Context) (models.User, error) {
	log := logger.FromContext(ctx)

	var user models.User
	err := u.DB.QueryRowContext(ctx, getLatestUser).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		log.Err(err).
			Str("func", "userRepository.GetUser").
			Msg("failed to scan cached user row")
		return models.User{}, fmt.Errorf("failed to scan cached user row: %w", err)
	}

	return user, nil
}

func (u *userRepository) DeleteAllUsers(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if _, err := u.DB.ExecContext(ctx, deleteAllUsers); err != nil {
		log.Err(err).
			Str("func", "userRepository.DeleteAllUsers").
			Msg("failed to wipe cached users")
		return fmt.Errorf("failed to wipe cached users: %w", err)
	}

	return nil
}
