package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/identity-service/internal/models"
	"github.com/pribylovaa/identity-service/internal/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SaveUser атомарно занимает e-mail и создаёт hash пользователя.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.redis.SaveUser"

	emailKey := s.emailKey(user.Email)
	userKey := s.userKey(user.ID)

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, emailKey, userKey).Result()
		if err != nil {
			return err
		}

		if n > 0 {
			return storage.ErrAlreadyExists
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, emailKey, user.ID.String(), 0)
			p.HSet(ctx, userKey, userFields(user))
			return nil
		})

		return err
	}, emailKey, userKey)

	if err != nil {
		// Конкурентная регистрация того же e-mail проявляется как TxFailedErr.
		if errors.Is(err, storage.ErrAlreadyExists) || errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.redis.UserByID"

	user, err := s.loadUser(ctx, s.rdb, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByEmail находит пользователя через индекс email:{email}.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.redis.UserByEmail"

	raw, err := s.rdb.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.loadUser(ctx, s.rdb, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdatePassword заменяет хэш пароля, если пользователь существует.
func (s *Storage) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const op = "storage.redis.UpdatePassword"

	err := s.updateFields(ctx, id, map[string]any{fPasswordHash: passwordHash})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateProfile заменяет отображаемое имя.
func (s *Storage) UpdateProfile(ctx context.Context, id uuid.UUID, displayName string) (*models.User, error) {
	const op = "storage.redis.UpdateProfile"

	if err := s.updateFields(ctx, id, map[string]any{fDisplayName: displayName}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.loadUser(ctx, s.rdb, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// updateFields записывает поля и updated_at одной транзакцией, не создавая
// hash для несуществующего пользователя.
func (s *Storage) updateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	key := s.userKey(id)
	fields[fUpdatedAt] = formatTime(s.now())

	return s.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}

		if n == 0 {
			return storage.ErrNotFound
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, fields)
			return nil
		})

		return err
	}, key)
}
