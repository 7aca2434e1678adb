package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pribylovaa/identity-service/internal/autherr"
	"github.com/pribylovaa/identity-service/internal/models"
	apierrors "github.com/pribylovaa/identity-service/internal/transport/http/errors"
	"github.com/pribylovaa/identity-service/internal/validate"
)

// MaxBodyBytes — предел размера тела запроса.
const MaxBodyBytes = 1 << 20

// MsgBodyTooLarge — тело длиннее MaxBodyBytes.
const MsgBodyTooLarge = "Request body must not exceed 1 MiB"

// Service — сценарии ядра, которые вызывают хендлеры (реализуется *service.Service).
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, req models.RefreshRequest) (*models.TokenPair, error)
	RequestPasswordReset(ctx context.Context, req models.ResetRequest) (*models.ResetRequestResponse, error)
	CompletePasswordReset(ctx context.Context, req models.ResetCompleteRequest) (*models.MessageResponse, error)
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req models.ProfileUpdateRequest) (*models.Profile, error)
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	Service Service
}

func New(s Service) *Handlers {
	return &Handlers{Service: s}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decode читает тело (не больше MaxBodyBytes), проверяет его по виду запроса T
// и раскладывает в типизированную структуру. При ошибке ответ уже записан.
func decode[T validate.Request](w http.ResponseWriter, r *http.Request) (T, bool) {
	var zero T

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.WriteError(w, r, autherr.Validation(MsgBodyTooLarge))
			return zero, false
		}

		apierrors.WriteError(w, r, fmt.Errorf("handlers.decode: read body: %w", err))
		return zero, false
	}

	req, res := validate.Decode[T](body)
	if !res.Valid {
		apierrors.WriteError(w, r, autherr.Validation(res.Errors...))
		return zero, false
	}

	return req, true
}
