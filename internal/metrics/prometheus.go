package metrics

import (
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	opTotal    *prom.CounterVec
	opSeconds  *prom.HistogramVec
	reqTotal   *prom.CounterVec
	reqSeconds *prom.HistogramVec
}

func (p *promRecorder) IncOpTotal(op string, success bool) {
	p.opTotal.WithLabelValues(op, strconv.FormatBool(success)).Inc()
}

func (p *promRecorder) ObserveOpSeconds(op string, success bool, seconds float64) {
	p.opSeconds.WithLabelValues(op, strconv.FormatBool(success)).Observe(seconds)
}

func (p *promRecorder) IncRequestTotal(route string, status int) {
	p.reqTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (p *promRecorder) ObserveRequestSeconds(route string, status int, seconds float64) {
	p.reqSeconds.WithLabelValues(route, strconv.Itoa(status)).Observe(seconds)
}

// EnablePrometheus installs a Prometheus recorder on a fresh registry and
// returns the handler that exposes it.
func EnablePrometheus() http.Handler {
	registry := prom.NewRegistry()
	p := &promRecorder{
		opTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "phantom_ops_total",
			Help: "Total number of index and embedding operations",
		}, []string{"op", "success"}),
		opSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "phantom_op_seconds",
			Help:    "Index and embedding operation duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"op", "success"}),
		reqTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "phantom_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),
		reqSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "phantom_http_request_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"route", "status"}),
	}

	registry.MustRegister(p.opTotal, p.opSeconds, p.reqTotal, p.reqSeconds)
	SetRecorder(p)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
