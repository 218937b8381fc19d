package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics records outbound API traffic.
type GatewayMetrics struct {
	duration     *prometheus.HistogramVec
	unauthorized prometheus.Counter
}

// NewGatewayMetrics registers the gateway metrics on the provided registerer.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_api_request_duration_seconds",
		Help:    "Duration of backend API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	unauthorized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_api_unauthorized_total",
		Help: "Backend responses that invalidated the local credential.",
	})
	reg.MustRegister(duration, unauthorized)
	return &GatewayMetrics{
		duration:     duration,
		unauthorized: unauthorized,
	}
}

// ObserveRequest records one request. status 0 means the request never got a response.
func (g *GatewayMetrics) ObserveRequest(method, route string, status int, took time.Duration) {
	if g == nil || g.duration == nil {
		return
	}
	g.duration.WithLabelValues(method, normalizeLabel(route), statusLabel(status)).Observe(took.Seconds())
}

// IncUnauthorized counts a 401 that cleared the credential.
func (g *GatewayMetrics) IncUnauthorized() {
	if g == nil || g.unauthorized == nil {
		return
	}
	g.unauthorized.Inc()
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
