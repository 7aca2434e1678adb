package handlers

import (
	"net/http"

	"github.com/pribylovaa/identity-service/internal/models"
	apierrors "github.com/pribylovaa/identity-service/internal/transport/http/errors"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.RegisterRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Register(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.LoginRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Login(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.RefreshRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Refresh(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.ResetRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.Service.RequestPasswordReset(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[models.ResetCompleteRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.Service.CompletePasswordReset(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
