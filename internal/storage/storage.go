// storage задаёт контракт хранилища пользователей.
//
// Реализации: postgres (pgx) и redis (go-redis). Обе обязаны:
//   - создавать пользователя атомарно «если e-mail свободен»;
//   - менять пароль и поля reset-токена одной атомарной операцией;
//   - находить пользователя по ключу reset-токена через индекс, без обхода всех записей;
//   - держать поля reset-токена в состоянии «все или ни одного».
package storage

//go:generate mockgen -source=storage.go -destination=../../mocks/mock_storage.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/identity-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над учётными записями.
type UserStorage interface {
	// SaveUser создаёт пользователя; ErrAlreadyExists, если e-mail занят.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UserByEmail находит пользователя по e-mail (с учётом регистра).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdatePassword заменяет хэш пароля.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// UpdateProfile заменяет отображаемое имя и возвращает обновлённую запись.
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName string) (*models.User, error)
}

// ResetTokenStorage выполняет операции над reset-токенами.
type ResetTokenStorage interface {
	// SetResetToken записывает токен, заменяя предыдущий.
	SetResetToken(ctx context.Context, id uuid.UUID, token models.ResetToken) error
	// ClearResetToken удаляет токен пользователя; отсутствие токена не ошибка.
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	// ResetPassword одной атомарной операцией заменяет хэш пароля и гасит
	// токен lookup; ErrNotFound, если у пользователя нет токена с таким lookup.
	ResetPassword(ctx context.Context, id uuid.UUID, lookup, passwordHash string) error
	// UserByResetLookup находит владельца токена по ключу Lookup.
	UserByResetLookup(ctx context.Context, lookup string) (*models.User, error)
	// DeleteExpiredResetTokens очищает токены с ExpiresAt <= now и возвращает их число.
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Storage задаёт контракт работы с хранилищем.
type Storage interface {
	UserStorage
	ResetTokenStorage
	Ping(ctx context.Context) error
	Close()
}
