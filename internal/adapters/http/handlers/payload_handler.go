package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JeanGrijp/cascade-gateway/internal/adapters/http/middleware"
	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

const InternalServiceName = "internal"

type PayloadSource interface {
	Data(ctx context.Context, client domain.Client, token, ts string) (domain.DataEnvelope, error)
}

// PayloadHandler atende o serviço interno, que não deve ser exposto publicamente.
type PayloadHandler struct {
	source PayloadSource
}

func NewPayloadHandler(source PayloadSource) *PayloadHandler {
	return &PayloadHandler{source: source}
}

func (h *PayloadHandler) Register(r chi.Router) {
	r.Get("/data", h.Data)
	r.Get("/health", HealthHandler(InternalServiceName))
}

func (h *PayloadHandler) Data(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	envelope, err := h.source.Data(r.Context(), middleware.ClientFromRequest(r), q.Get("token"), q.Get("ts"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope)
}
