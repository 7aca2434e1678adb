package handlers

import (
	"net/http"

	"github.com/pribylovaa/identity-service/internal/autherr"
	"github.com/pribylovaa/identity-service/internal/models"
	apierrors "github.com/pribylovaa/identity-service/internal/transport/http/errors"
	"github.com/pribylovaa/identity-service/internal/transport/http/middleware"
)

// UserIDParam — имя параметра пути с идентификатором пользователя.
const UserIDParam = "userId"

// GetProfile — GET /users/{userId}. userId берётся из контекста,
// куда его кладёт RequireSelf после сверки с токеном.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, autherr.ErrAuthRequired)
		return
	}

	resp, err := h.Service.Profile(r.Context(), userID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateProfile — PUT /users/{userId}.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, autherr.ErrAuthRequired)
		return
	}

	in, ok := decode[models.ProfileUpdateRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.Service.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
