package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lunajoyas/catalogo/internal/auth"
	"github.com/lunajoyas/catalogo/internal/catalog"
	"github.com/lunajoyas/catalogo/internal/media"
	"github.com/lunajoyas/catalogo/internal/services"
)

const maxJSONBodyBytes = 1 << 20 // 1 MB

type errorResponse struct {
	Error    string                 `json:"error"`
	Problems []catalog.FieldProblem `json:"problems,omitempty"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

// writeError maps service errors onto status codes and a localized message.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := h.locale(r)

	var (
		validationErr *catalog.ValidationError
		userErr       services.UserError
	)
	switch {
	case errors.As(err, &validationErr):
		h.writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{
			Error:    h.translator.T(locale, "error.invalid"),
			Problems: validationErr.Problems,
		})
	case errors.As(err, &userErr):
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: userErr.Message})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, media.ErrAssetNotFound):
		h.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: h.translator.T(locale, "error.notFound")})
	case errors.Is(err, auth.ErrNotAdmin):
		h.writeJSON(w, r, http.StatusForbidden, errorResponse{Error: h.translator.T(locale, "error.forbidden")})
	case errors.Is(err, auth.ErrInvalidToken):
		h.writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: h.translator.T(locale, "error.unauthorized")})
	default:
		h.loggerFromContext(r.Context()).Error("request failed", "error", err)
		h.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: h.translator.T(locale, "error.internal")})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return services.UserError{Message: fmt.Sprintf("Invalid JSON body: %v", err)}
	}
	return nil
}
