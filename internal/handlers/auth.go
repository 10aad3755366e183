package handlers

import (
	"net/http"
	"strings"

	"github.com/lunajoyas/catalogo/internal/services"
	"github.com/lunajoyas/catalogo/internal/session"
)

type signInRequest struct {
	IDToken string `json:"idToken"`
}

// CreateSession exchanges a verified ID token for an admin session cookie.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if h.verifier == nil {
		http.Error(w, "Admin sign-in is not configured", http.StatusServiceUnavailable)
		return
	}

	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		h.writeError(w, r, services.UserError{Message: "idToken is required"})
		return
	}

	identity, err := h.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		logger.Warn("admin sign-in rejected", "error", err)
		h.writeError(w, r, err)
		return
	}

	if _, err := h.sessionManager.CreateSession(ctx, w, &session.Data{
		UID:   identity.UID,
		Email: identity.Email,
		Name:  identity.Name,
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	logger.Info("admin signed in", "email", identity.Email)
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"uid":   identity.UID,
		"email": identity.Email,
		"name":  identity.Name,
	})
}

// CurrentSession reports who is signed in.
func (h *Handlers) CurrentSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFromRequest(r.Context(), r)
	if sess == nil {
		h.writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: h.translator.T(h.locale(r), "error.unauthorized")})
		return
	}
	h.writeJSON(w, r, http.StatusOK, sess)
}

func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessionManager.DestroySession(r.Context(), w, r)
	w.WriteHeader(http.StatusNoContent)
}
