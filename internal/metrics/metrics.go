package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solaire_http_requests_total", Help: "HTTP requests by route, method and status"},
		[]string{"route", "method", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solaire_http_request_duration_seconds", Help: "HTTP request latency", Buckets: prometheus.DefBuckets},
		[]string{"route", "method"},
	)
	Simulations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solaire_simulations_total", Help: "Yield simulations run, by source"},
		[]string{"source"},
	)
	NegativeProduction = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "solaire_negative_production_total", Help: "Simulations that produced a negative annual yield"},
	)
	QuotesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "solaire_quotes_created_total", Help: "Quotes created"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequests, HTTPDuration, Simulations, NegativeProduction, QuotesCreated)
	})
}

func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}

func ObserveSimulation(source string, production float64) {
	Simulations.WithLabelValues(source).Inc()
	if production < 0 {
		NegativeProduction.Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware labels requests with the mux route template so ids do not
// blow up label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
