package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pribylovaa/identity-service/internal/models"
	"github.com/pribylovaa/identity-service/internal/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// scanBatch — размер страницы SCAN при очистке истёкших токенов.
const scanBatch = 100

// SetResetToken записывает поля токена и индекс reset:{lookup} в одной
// транзакции; индекс предыдущего токена удаляется.
func (s *Storage) SetResetToken(ctx context.Context, id uuid.UUID, token models.ResetToken) error {
	const op = "storage.redis.SetResetToken"

	key := s.userKey(id)

	err := s.watch(ctx, func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, key, fID, fResetLookup).Result()
		if err != nil {
			return err
		}

		if vals[0] == nil {
			return storage.ErrNotFound
		}

		prev, _ := vals[1].(string)

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if prev != "" && prev != token.Lookup {
				p.Del(ctx, s.resetKey(prev))
			}

			p.HSet(ctx, key, map[string]any{
				fResetLookup:  token.Lookup,
				fResetHash:    token.Hash,
				fResetExpires: strconv.FormatInt(token.ExpiresAt.UnixNano(), 10),
			})
			p.Set(ctx, s.resetKey(token.Lookup), id.String(), 0)
			p.ExpireAt(ctx, s.resetKey(token.Lookup), token.ExpiresAt)
			return nil
		})

		return err
	}, key)

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ClearResetToken удаляет поля токена и его индекс в одной транзакции.
func (s *Storage) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	const op = "storage.redis.ClearResetToken"

	if _, err := s.clearReset(ctx, id, ""); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResetPassword в одной транзакции записывает новый хэш пароля, удаляет поля
// токена и индекс reset:{lookup}. Если текущий токен не lookup — ErrNotFound.
func (s *Storage) ResetPassword(ctx context.Context, id uuid.UUID, lookup, passwordHash string) error {
	const op = "storage.redis.ResetPassword"

	key := s.userKey(id)

	err := s.watch(ctx, func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, key, fID, fResetLookup).Result()
		if err != nil {
			return err
		}

		cur, _ := vals[1].(string)
		if vals[0] == nil || cur == "" || cur != lookup {
			return storage.ErrNotFound
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, map[string]any{
				fPasswordHash: passwordHash,
				fUpdatedAt:    formatTime(s.now()),
			})
			p.HDel(ctx, key, fResetLookup, fResetHash, fResetExpires)
			p.Del(ctx, s.resetKey(cur))
			return nil
		})

		return err
	}, key)

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// clearReset очищает токен; если onlyLookup не пуст — только когда текущий
// токен совпадает с ним (janitor не должен стереть свежевыданный токен).
// cleared сообщает, был ли удалён хотя бы один токен.
func (s *Storage) clearReset(ctx context.Context, id uuid.UUID, onlyLookup string) (cleared bool, err error) {
	key := s.userKey(id)

	err = s.watch(ctx, func(tx *redis.Tx) error {
		cleared = false

		vals, err := tx.HMGet(ctx, key, fID, fResetLookup).Result()
		if err != nil {
			return err
		}

		if vals[0] == nil {
			return storage.ErrNotFound
		}

		cur, _ := vals[1].(string)
		if cur == "" || (onlyLookup != "" && cur != onlyLookup) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HDel(ctx, key, fResetLookup, fResetHash, fResetExpires)
			p.Del(ctx, s.resetKey(cur))
			return nil
		})
		if err != nil {
			return err
		}

		cleared = true
		return nil
	}, key)

	return cleared, err
}

// UserByResetLookup находит пользователя через индекс reset:{lookup}.
// Устаревший индекс (токен уже заменён) трактуется как отсутствие.
func (s *Storage) UserByResetLookup(ctx context.Context, lookup string) (*models.User, error) {
	const op = "storage.redis.UserByResetLookup"

	raw, err := s.rdb.Get(ctx, s.resetKey(lookup)).Result()
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

	if user.Reset == nil || user.Reset.Lookup != lookup {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return user, nil
}

// DeleteExpiredResetTokens обходит пользователей через SCAN и очищает
// токены с ExpiresAt <= now.
func (s *Storage) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.redis.DeleteExpiredResetTokens"

	var (
		cursor  uint64
		removed int64
	)

	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.prefix+"user:*", scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("%s: %w", op, err)
		}

		for _, key := range keys {
			vals, err := s.rdb.HMGet(ctx, key, fID, fResetLookup, fResetExpires).Result()
			if err != nil {
				return removed, fmt.Errorf("%s: %w", op, err)
			}

			idStr, _ := vals[0].(string)
			lookup, _ := vals[1].(string)
			expStr, _ := vals[2].(string)
			if lookup == "" {
				continue
			}

			nanos, err := strconv.ParseInt(expStr, 10, 64)
			if err != nil || time.Unix(0, nanos).After(now) {
				continue
			}

			id, err := uuid.Parse(idStr)
			if err != nil {
				continue
			}

			cleared, err := s.clearReset(ctx, id, lookup)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}

				return removed, fmt.Errorf("%s: %w", op, err)
			}

			if cleared {
				removed++
			}
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
