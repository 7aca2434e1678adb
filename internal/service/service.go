// service содержит сценарии ядра аутентификации:
// регистрацию, вход, обновление пары токенов, двухфазный сброс пароля
// и чтение/изменение собственного профиля.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования, если безопасно переданное хранилище.
//   - Каждый сценарий сначала валидирует запрос и только потом обращается
//     к хранилищу.
//   - Ошибки возвращаются типизированными (internal/autherr); транспорт
//     выбирает по ним HTTP-статус. Нативные ошибки хранилища и криптографии
//     становятся внутренними (500) и наружу не раскрываются.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/pribylovaa/identity-service/internal/autherr"
	"github.com/pribylovaa/identity-service/internal/models"
	"github.com/pribylovaa/identity-service/internal/pkg/log"
	"github.com/pribylovaa/identity-service/internal/storage"
	"github.com/pribylovaa/identity-service/internal/token"
)

// Tokens — выпуск и проверка токенов (реализуется *token.Manager).
type Tokens interface {
	IssueAccessToken(userID, email string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	VerifyRefresh(tokenStr string) (*token.RefreshClaims, error)
}

// Hasher — хэширование и проверка секретов (реализуется *password.Hasher).
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

// Service описывает бизнес-логику ядра аутентификации.
type Service struct {
	storage storage.Storage
	tokens  Tokens
	hasher  Hasher
	now     func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, tokens Tokens, hasher Hasher, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		tokens:  tokens,
		hasher:  hasher,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// issueTokenPair выпускает новую пару access+refresh токенов.
func (s *Service) issueTokenPair(userID, email string) (*models.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID, email)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// validationErr превращает результат проверки в ошибку (или nil).
func validationErr(res models.ValidationResult) error {
	if res.Valid {
		return nil
	}

	return autherr.Validation(res.Errors...)
}

// logInternal пишет полную причину внутренней ошибки; клиент её не увидит.
func logInternal(ctx context.Context, event, op string, err error) {
	log.From(ctx).Error(event,
		slog.String("op", op),
		slog.String("err", err.Error()),
	)
}
