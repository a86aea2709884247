package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type observedRequest struct {
	route  string
	method string
	status int
}

type recordingObserver struct {
	requests []observedRequest
}

func (o *recordingObserver) ObserveRequest(route, method string, status int) {
	o.requests = append(o.requests, observedRequest{route: route, method: method, status: status})
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	observer := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(NewRequestLogger(observer))
	r.Get("/profile/{username}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile/ghost", nil))

	id := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected generated uuid request id, got %q", id)
	}
	want := observedRequest{route: "/profile/{username}", method: http.MethodGet, status: http.StatusNotFound}
	if len(observer.requests) != 1 || observer.requests[0] != want {
		t.Fatalf("unexpected observations: %+v", observer.requests)
	}
}

func TestRequestLogger_KeepsIncomingRequestID(t *testing.T) {
	r := chi.NewRouter()
	r.Use(NewRequestLogger(nil))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "req-42" {
		t.Fatalf("expected incoming request id to be echoed, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
