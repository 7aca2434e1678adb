package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pribylovaa/identity-service/internal/autherr"
	"github.com/pribylovaa/identity-service/internal/models"
	"github.com/pribylovaa/identity-service/internal/pkg/log"
	"github.com/pribylovaa/identity-service/internal/storage"

	"github.com/google/uuid"
)

// MaxDisplayNameLen — максимальная длина отображаемого имени в символах.
const MaxDisplayNameLen = 64

// MsgDisplayNameLength — имя пустое после обрезки пробелов или длиннее лимита.
const MsgDisplayNameLength = "displayName must be between 1 and 64 characters"

// parseUserID: нераспознаваемый ID равносилен отсутствующему пользователю.
func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, autherr.ErrUserNotFound
	}

	return id, nil
}

// Profile возвращает публичный профиль пользователя.
func (s *Service) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "service.profile.Profile"

	id, err := parseUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, autherr.ErrUserNotFound)
		}

		logInternal(ctx, "profile_lookup_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.Store(err))
	}

	p := models.ProfileOf(user)
	return &p, nil
}

// UpdateProfile меняет отображаемое имя (1..64 символа после обрезки пробелов).
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.ProfileUpdateRequest) (*models.Profile, error) {
	const op = "service.profile.UpdateProfile"

	if err := validationErr(req.Validate()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	name := strings.TrimSpace(req.DisplayName)
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxDisplayNameLen {
		return nil, fmt.Errorf("%s: %w", op, autherr.Validation(MsgDisplayNameLength))
	}

	id, err := parseUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UpdateProfile(ctx, id, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, autherr.ErrUserNotFound)
		}

		logInternal(ctx, "profile_update_failed", op, err)
		return nil, fmt.Errorf("%s: %w", op, autherr.Store(err))
	}

	log.From(ctx).Info("profile_updated", slog.String("user_id", user.ID.String()))

	p := models.ProfileOf(user)
	return &p, nil
}
