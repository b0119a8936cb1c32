package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus collectors. It satisfies engine.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	Recomputes        *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec
	Sessions          prometheus.Gauge
	Requests          *prometheus.CounterVec
}

// New registers the collectors against reg, or the default registry when reg is nil.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	recomputes, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vdrop_recomputes_total",
		Help: "Completed full-family voltage drop recomputes, labeled by cable family.",
	}, []string{"family"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vdrop_recompute_duration_seconds",
		Help:    "Time spent recomputing a cable family.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	}, []string{"family"}))
	if err != nil {
		return nil, err
	}
	sessions, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vdrop_sessions",
		Help: "Open calculation sessions.",
	}))
	if err != nil {
		return nil, err
	}
	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vdrop_http_requests_total",
		Help: "Handled HTTP requests, labeled by route template, method and status code.",
	}, []string{"route", "method", "code"}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:          gatherer,
		Recomputes:        recomputes,
		RecomputeDuration: duration,
		Sessions:          sessions,
		Requests:          requests,
	}, nil
}

// register returns the already registered collector when an identical one exists.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) ObserveRecompute(family string, _ int, d time.Duration) {
	m.Recomputes.WithLabelValues(family).Inc()
	m.RecomputeDuration.WithLabelValues(family).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests per mux route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Inc()
	})
}
