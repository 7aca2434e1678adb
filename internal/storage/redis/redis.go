// redis — реализация storage.Storage поверх Redis.
//
// Раскладка ключей (prefix по умолчанию "identity:"):
//   - user:{id}       — hash с полями пользователя и reset-токена;
//   - email:{email}   — id владельца e-mail (индекс уникальности);
//   - reset:{lookup}  — id владельца reset-токена, TTL = срок токена.
//
// Изменения, затрагивающие несколько ключей, выполняются в WATCH/MULTI/EXEC,
// поэтому поля reset-токена и индексы всегда согласованы.
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

const defaultPrefix = "identity:"

// Поля hash-а пользователя.
const (
	fID           = "id"
	fEmail        = "email"
	fPasswordHash = "password_hash"
	fDisplayName  = "display_name"
	fCreatedAt    = "created_at"
	fUpdatedAt    = "updated_at"
	fResetLookup  = "reset_lookup"
	fResetHash    = "reset_hash"
	fResetExpires = "reset_expires"
)

// maxTxRetries — сколько раз повторять транзакцию при конкурентном изменении ключа.
const maxTxRetries = 5

type Storage struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "identity:".
func New(ctx context.Context, redisURL, prefix string) (*Storage, error) {
	const op = "storage.redis.New"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(rdb, prefix), nil
}

// NewWithClient оборачивает готовый клиент.
func NewWithClient(rdb *redis.Client, prefix string) *Storage {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Storage{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *Storage) userKey(id uuid.UUID) string   { return s.prefix + "user:" + id.String() }
func (s *Storage) emailKey(email string) string  { return s.prefix + "email:" + email }
func (s *Storage) resetKey(lookup string) string { return s.prefix + "reset:" + lookup }

// Ping проверяет доступность Redis.
func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.redis.Ping"

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (s *Storage) Close() {
	_ = s.rdb.Close()
}

// watch выполняет fn в WATCH-транзакции, повторяя её при конфликте.
func (s *Storage) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = s.rdb.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}

	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func userFields(u *models.User) map[string]any {
	return map[string]any{
		fID:           u.ID.String(),
		fEmail:        u.Email,
		fPasswordHash: u.PasswordHash,
		fDisplayName:  u.DisplayName,
		fCreatedAt:    formatTime(u.CreatedAt),
		fUpdatedAt:    formatTime(u.UpdatedAt),
	}
}

func parseUser(m map[string]string) (*models.User, error) {
	id, err := uuid.Parse(m[fID])
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, m[fCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, m[fUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	u := &models.User{
		ID:           id,
		Email:        m[fEmail],
		PasswordHash: m[fPasswordHash],
		DisplayName:  m[fDisplayName],
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}

	if m[fResetLookup] != "" {
		nanos, err := strconv.ParseInt(m[fResetExpires], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse reset_expires: %w", err)
		}

		u.Reset = &models.ResetToken{
			Lookup:    m[fResetLookup],
			Hash:      m[fResetHash],
			ExpiresAt: time.Unix(0, nanos).UTC(),
		}
	}

	return u, nil
}

// loadUser читает hash пользователя через произвольный Cmdable (клиент или Tx).
func (s *Storage) loadUser(ctx context.Context, c redis.Cmdable, id uuid.UUID) (*models.User, error) {
	m, err := c.HGetAll(ctx, s.userKey(id)).Result()
	if err != nil {
		return nil, err
	}

	if len(m) == 0 {
		return nil, storage.ErrNotFound
	}

	return parseUser(m)
}

// Проверка на соответствие интерфейсу Storage.
var _ storage.Storage = (*Storage)(nil)
