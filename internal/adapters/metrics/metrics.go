// Package metrics expõe contadores Prometheus do gateway.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

type Recorder struct {
	requests   *prometheus.CounterVec
	rejections *prometheus.CounterVec
	fetches    *prometheus.HistogramVec
	gatherer   prometheus.Gatherer
}

// New registra os coletores num registry próprio, evitando colisão entre testes.
func New(namespace string) *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "method", "code"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_rejections_total",
			Help:      "Requests stopped by a pipeline stage.",
		}, []string{"route", "stage", "kind"}),
		fetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Outbound fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		gatherer: reg,
	}
	reg.MustRegister(r.requests, r.rejections, r.fetches)
	return r
}

func (r *Recorder) StageRejected(route, stage string, err error) {
	kind, _, _ := strings.Cut(stage, ":")
	r.rejections.WithLabelValues(route, kind, errorKind(err)).Inc()
}

func (r *Recorder) ObserveRequest(route, method string, status int) {
	if route == "" {
		route = "unmatched"
	}
	r.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (r *Recorder) ObserveFetch(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.fetches.WithLabelValues(outcome).Observe(d.Seconds())
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.gatherer
}

func errorKind(err error) string {
	if domain.IsBlockedError(err) {
		return "rate_limited"
	}
	if domain.IsNotFoundError(err) {
		return "not_found"
	}
	if v, ok := domain.AsValidationError(err); ok {
		return v.Stage
	}
	if a, ok := domain.AsAuthError(err); ok {
		return string(a.Reason)
	}
	if _, ok := domain.AsUpstreamError(err); ok {
		return "upstream"
	}
	return "error"
}
