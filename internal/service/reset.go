package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/identity-service/internal/autherr"
	"github.com/pribylovaa/identity-service/internal/models"
	"github.com/pribylovaa/identity-service/internal/password"
	"github.com/pribylovaa/identity-service/internal/pkg/log"
	"github.com/pribylovaa/identity-service/internal/pkg/redact"
	"github.com/pribylovaa/identity-service/internal/storage"
)

const (
	// ResetTTL — срок действия reset-токена.
	ResetTTL = time.Hour

	resetTokenBytes = 32

	MsgResetRequested = "If the account exists, a password reset token has been issued"
	MsgPasswordReset  = "Password has been reset"
)

// newResetToken возвращает 32 случайных байта в base64url.
func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", autherr.Crypto(err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// resetLookup — ключ индекса: SHA-256 от токена (base64url).
// bcrypt-хэш для поиска не годится: он солёный.
func resetLookup(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RequestPasswordReset выдаёт одноразовый reset-токен. Ответ одинаков для
// существующего и неизвестного e-mail; во втором случае токен нигде не хранится.
func (s *Service) RequestPasswordReset(ctx context.Context, req models.ResetRequest) (*models.ResetRequestResponse, error) {
	const op = "service.reset.RequestPasswordReset"

	lg := log.From(ctx)

	if err := validationErr(req.Validate()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plain, err := newResetToken()
	if err != nil {
		logInternal(ctx, "reset_token_rand_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logInternal(ctx, "reset_lookup_failed", op, err)
			return nil, fmt.Errorf("%s: %w", op, autherr.Store(err))
		}

		// Хэшируем вхолостую: время ответа не должно выдавать, есть ли аккаунт.
		_, _ = s.hasher.Hash(plain)

		lg.Info("reset_requested_unknown_email", redact.EmailAttr(req.Email))
		return &models.ResetRequestResponse{Message: MsgResetRequested, ResetToken: plain}, nil
	}

	hashed, err := s.hasher.Hash(plain)
	if err != nil {
		logInternal(ctx, "reset_token_hash_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.As(err))
	}

	rt := models.ResetToken{
		Lookup:    resetLookup(plain),
		Hash:      hashed,
		ExpiresAt: s.now().UTC().Add(ResetTTL),
	}

	if err := s.storage.SetResetToken(ctx, user.ID, rt); err != nil {
		logInternal(ctx, "reset_token_save_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.Store(err))
	}

	lg.Info("reset_token_issued",
		slog.String("user_id", user.ID.String()),
		slog.String("token", redact.Fingerprint(plain)),
	)

	return &models.ResetRequestResponse{Message: MsgResetRequested, ResetToken: plain}, nil
}

// CompletePasswordReset меняет пароль по reset-токену и гасит токен.
func (s *Service) CompletePasswordReset(ctx context.Context, req models.ResetCompleteRequest) (*models.MessageResponse, error) {
	const op = "service.reset.CompletePasswordReset"

	lg := log.From(ctx)

	if err := validationErr(req.Validate()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validationErr(password.ValidateStrength(req.NewPassword)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByResetLookup(ctx, resetLookup(req.ResetToken))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Info("reset_rejected", slog.String("token", redact.Fingerprint(req.ResetToken)))
			return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidToken)
		}

		logInternal(ctx, "reset_lookup_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.Store(err))
	}

	if user.Reset == nil ||
		!s.hasher.Verify(req.ResetToken, user.Reset.Hash) ||
		!user.Reset.ExpiresAt.After(s.now()) {
		lg.Info("reset_rejected",
			slog.String("user_id", user.ID.String()),
			slog.String("token", redact.Fingerprint(req.ResetToken)),
		)
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidToken)
	}

	hashed, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		logInternal(ctx, "reset_hash_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.As(err))
	}

	// Пароль и токен меняются одной записью; параллельный сброс тем же
	// токеном получит ErrNotFound.
	if err := s.storage.ResetPassword(ctx, user.ID, user.Reset.Lookup, hashed); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Info("reset_rejected",
				slog.String("user_id", user.ID.String()),
				slog.String("token", redact.Fingerprint(req.ResetToken)),
			)
			return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidToken)
		}

		logInternal(ctx, "reset_password_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.Store(err))
	}

	lg.Info("password_reset", slog.String("user_id", user.ID.String()))

	return &models.MessageResponse{Message: MsgPasswordReset}, nil
}

// CleanupExpiredResetTokens удаляет истёкшие reset-токены (фоновый janitor).
func (s *Service) CleanupExpiredResetTokens(ctx context.Context) (int64, error) {
	const op = "service.reset.CleanupExpiredResetTokens"

	n, err := s.storage.DeleteExpiredResetTokens(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, autherr.Store(err))
	}

	return n, nil
}
