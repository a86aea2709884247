package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

const (
	tooManyRequestsMessage = "Too many requests"
	userNotFoundMessage    = "User not found"
)

type errorBody struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError traduz os erros de domínio em status HTTP. É o único ponto dessa tradução.
func writeError(w http.ResponseWriter, err error) {
	status, body := errorResponse(err)
	writeJSON(w, status, body)
}

func errorResponse(err error) (int, errorBody) {
	if domain.IsBlockedError(err) {
		return http.StatusTooManyRequests, errorBody{Error: tooManyRequestsMessage}
	}
	if domain.IsNotFoundError(err) {
		return http.StatusNotFound, errorBody{Error: userNotFoundMessage}
	}
	if v, ok := domain.AsValidationError(err); ok {
		switch v.Stage {
		case domain.StageRequired, domain.StageLength:
			return http.StatusBadRequest, errorBody{Error: v.Error()}
		default:
			return http.StatusForbidden, errorBody{Error: v.Error()}
		}
	}
	if a, ok := domain.AsAuthError(err); ok {
		if a.Reason == domain.AuthExpired {
			return http.StatusUnauthorized, errorBody{Error: a.Error()}
		}
		return http.StatusForbidden, errorBody{Error: a.Error(), Hint: a.Hint}
	}
	if u, ok := domain.AsUpstreamError(err); ok {
		return http.StatusInternalServerError, errorBody{Error: u.Error()}
	}

	log.Error().Err(err).Msg("unexpected handler error")
	return http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)}
}
