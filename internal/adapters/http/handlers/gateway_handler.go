package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JeanGrijp/cascade-gateway/internal/adapters/http/middleware"
	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
	"github.com/JeanGrijp/cascade-gateway/internal/core/services"
)

const GatewayServiceName = "cascade"

// MaxEvalBodyBytes limita o corpo JSON de /eval, lido antes de qualquer estágio.
const MaxEvalBodyBytes = 100 << 10

// Gateway é o contrato consumido pelos handlers públicos.
type Gateway interface {
	AdminEnabled() bool
	Profile(ctx context.Context, client domain.Client, username string) (string, error)
	Fetch(ctx context.Context, client domain.Client, rawURL, sig string) (services.FetchReport, error)
	Eval(ctx context.Context, client domain.Client, code string) (string, error)
	Flag(ctx context.Context, client domain.Client) (string, error)
}

type GatewayHandler struct {
	gateway Gateway
}

func NewGatewayHandler(gateway Gateway) *GatewayHandler {
	return &GatewayHandler{gateway: gateway}
}

// Register monta as rotas públicas. A rota de flag só existe quando o preset a habilita.
func (h *GatewayHandler) Register(r chi.Router) {
	r.Get("/profile/{username}", h.Profile)
	r.Get("/fetch", h.Fetch)
	r.Post("/eval", h.Eval)
	r.Get("/health", HealthHandler(GatewayServiceName))
	if h.gateway.AdminEnabled() {
		r.Get("/admin/flag", h.Flag)
	}
}

func (h *GatewayHandler) Profile(w http.ResponseWriter, r *http.Request) {
	html, err := h.gateway.Profile(r.Context(), middleware.ClientFromRequest(r), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *GatewayHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.gateway.Fetch(r.Context(), middleware.ClientFromRequest(r), q.Get("url"), q.Get("sig"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type evalRequest struct {
	Code string `json:"code"`
}

type evalResponse struct {
	Result string `json:"result"`
}

func (h *GatewayHandler) Eval(w http.ResponseWriter, r *http.Request) {
	var body evalRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxEvalBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
		return
	}

	result, err := h.gateway.Eval(r.Context(), middleware.ClientFromRequest(r), body.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evalResponse{Result: result})
}

type flagResponse struct {
	Flag string `json:"flag"`
}

func (h *GatewayHandler) Flag(w http.ResponseWriter, r *http.Request) {
	flag, err := h.gateway.Flag(r.Context(), middleware.ClientFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flagResponse{Flag: flag})
}
