package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/identity-service/internal/autherr"
	"github.com/pribylovaa/identity-service/internal/models"
	"github.com/pribylovaa/identity-service/internal/password"
	"github.com/pribylovaa/identity-service/internal/pkg/log"
	"github.com/pribylovaa/identity-service/internal/pkg/redact"
	"github.com/pribylovaa/identity-service/internal/storage"
	"github.com/pribylovaa/identity-service/internal/token"
	"github.com/pribylovaa/identity-service/internal/validate"

	"github.com/google/uuid"
)

// dummyHash — bcrypt-хэш той же стоимости, с которым сравнивается пароль,
// когда пользователь не найден: оба исхода входа стоят одинаково.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Register регистрирует нового пользователя и выдаёт пару токенов.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	const op = "service.auth.Register"

	lg := log.From(ctx)

	if err := validationErr(req.Validate()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !validate.Email(req.Email) {
		return nil, fmt.Errorf("%s: %w", op, autherr.Validation(validate.MsgInvalidEmail))
	}

	_, err := s.storage.UserByEmail(ctx, req.Email)
	if err == nil {
		lg.Info("register_email_taken", redact.EmailAttr(req.Email))
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		logInternal(ctx, "register_lookup_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.Store(err))
	}

	if err := validationErr(password.ValidateStrength(req.Password)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		logInternal(ctx, "register_hash_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.As(err))
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			lg.Info("register_email_taken", redact.EmailAttr(req.Email))
			return nil, fmt.Errorf("%s: %w", op, autherr.ErrEmailTaken)
		}

		logInternal(ctx, "register_save_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.Store(err))
	}

	pair, err := s.issueTokenPair(user.ID.String(), user.Email)
	if err != nil {
		logInternal(ctx, "register_token_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.As(err))
	}

	lg.Info("user_registered",
		slog.String("user_id", user.ID.String()),
		redact.EmailAttr(user.Email),
	)

	return &models.AuthResponse{
		UserID:       user.ID.String(),
		Email:        user.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Login выполняет вход по e-mail и паролю. Неизвестный e-mail и неверный
// пароль неразличимы: одна и та же ошибка, одинаковая стоимость проверки.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	if err := validationErr(req.Validate()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logInternal(ctx, "login_lookup_failed", op, err)
			return nil, fmt.Errorf("%s: %w", op, autherr.Store(err))
		}

		_ = s.hasher.Verify(req.Password, dummyHash)
		lg.Info("login_failed", redact.EmailAttr(req.Email))
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidCredentials)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		lg.Info("login_failed", redact.EmailAttr(req.Email))
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(user.ID.String(), user.Email)
	if err != nil {
		logInternal(ctx, "login_token_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.As(err))
	}

	lg.Info("user_logged_in", slog.String("user_id", user.ID.String()))

	return &models.AuthResponse{
		UserID:       user.ID.String(),
		Email:        user.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh выпускает новую пару по refresh-токену. Хранилище не
// опрашивается: refresh-токен — единственное доказательство личности,
// поэтому новый access-токен не содержит e-mail.
func (s *Service) Refresh(ctx context.Context, req models.RefreshRequest) (*models.TokenPair, error) {
	const op = "service.auth.Refresh"

	lg := log.From(ctx)

	if err := validationErr(req.Validate()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	claims, err := s.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		lg.Info("refresh_rejected",
			slog.String("token", redact.Fingerprint(req.RefreshToken)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidToken)
	}

	userID := token.ExtractUserID(claims)

	pair, err := s.issueTokenPair(userID, "")
	if err != nil {
		logInternal(ctx, "refresh_token_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.As(err))
	}

	lg.Debug("tokens_refreshed", slog.String("user_id", userID))

	return pair, nil
}
