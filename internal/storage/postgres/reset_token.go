package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/identity-service/internal/models"
	"github.com/pribylovaa/identity-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SetResetToken записывает все три поля токена одним UPDATE.
func (s *Storage) SetResetToken(ctx context.Context, id uuid.UUID, token models.ResetToken) error {
	const op = "storage.postgres.SetResetToken"

	query := `
		UPDATE users
		SET reset_token_lookup = $2,
		    reset_token_hash   = $3,
		    reset_expires_at   = $4
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, token.Lookup, token.Hash, token.ExpiresAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ClearResetToken обнуляет все поля токена одним UPDATE.
func (s *Storage) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.ClearResetToken"

	query := `
		UPDATE users
		SET reset_token_lookup = NULL,
		    reset_token_hash   = NULL,
		    reset_expires_at   = NULL
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ResetPassword меняет пароль и обнуляет поля токена одним UPDATE.
// Условие на lookup не даёт погасить чужой или уже заменённый токен.
func (s *Storage) ResetPassword(ctx context.Context, id uuid.UUID, lookup, passwordHash string) error {
	const op = "storage.postgres.ResetPassword"

	query := `
		UPDATE users
		SET password_hash      = $3,
		    reset_token_lookup = NULL,
		    reset_token_hash   = NULL,
		    reset_expires_at   = NULL,
		    updated_at         = now()
		WHERE id = $1 AND reset_token_lookup = $2
	`

	tag, err := s.db.Exec(ctx, query, id, lookup, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// UserByResetLookup находит пользователя по индексу users_reset_token_lookup_idx.
func (s *Storage) UserByResetLookup(ctx context.Context, lookup string) (*models.User, error) {
	const op = "storage.postgres.UserByResetLookup"

	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token_lookup = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, lookup))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// DeleteExpiredResetTokens очищает истёкшие токены.
func (s *Storage) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredResetTokens"

	query := `
		UPDATE users
		SET reset_token_lookup = NULL,
		    reset_token_hash   = NULL,
		    reset_expires_at   = NULL
		WHERE reset_expires_at <= $1
	`

	tag, err := s.db.Exec(ctx, query, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
