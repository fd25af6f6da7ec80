package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder то, что сервисы и батчи сообщают о своей работе
type Recorder interface {
	RecordForecast(status string)
	RecordRatesStored(pair string, count int)
	RecordBatchRun(batch, status string, duration time.Duration)
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// PrometheusRecorder метрики процесса в собственном registry
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	forecasts   *prometheus.CounterVec
	ratesStored *prometheus.CounterVec

	batchRuns     *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
}

func NewPrometheusRecorder(service string) *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	constLabels := prometheus.Labels{"service": service}

	r := &PrometheusRecorder{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total HTTP requests by route, method and status.",
			ConstLabels: constLabels,
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Duration of HTTP requests.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"route", "method"}),
		forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "forecast_computations_total",
			Help:        "Forecast computations by outcome.",
			ConstLabels: constLabels,
		}, []string{"status"}),
		ratesStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rates_stored_total",
			Help:        "Rates written to the rate store.",
			ConstLabels: constLabels,
		}, []string{"pair"}),
		batchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "batch_runs_total",
			Help:        "Batch runs by status.",
			ConstLabels: constLabels,
		}, []string{"batch", "status"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "batch_run_duration_seconds",
			Help:        "Duration of batch runs.",
			Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			ConstLabels: constLabels,
		}, []string{"batch"}),
	}

	registry.MustRegister(r.httpRequests)
	registry.MustRegister(r.httpDuration)
	registry.MustRegister(r.forecasts)
	registry.MustRegister(r.ratesStored)
	registry.MustRegister(r.batchRuns)
	registry.MustRegister(r.batchDuration)

	return r
}

func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler отдает метрики для /metrics
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *PrometheusRecorder) RecordForecast(status string) {
	r.forecasts.WithLabelValues(status).Inc()
}

func (r *PrometheusRecorder) RecordRatesStored(pair string, count int) {
	r.ratesStored.WithLabelValues(pair).Add(float64(count))
}

func (r *PrometheusRecorder) RecordBatchRun(batch, status string, duration time.Duration) {
	r.batchRuns.WithLabelValues(batch, status).Inc()
	r.batchDuration.WithLabelValues(batch).Observe(duration.Seconds())
}

// Middleware считает запросы по шаблону маршрута chi, а не по сырому пути
func (r *PrometheusRecorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		r.httpRequests.WithLabelValues(route, req.Method, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
	})
}

type NoOpRecorder struct{}

func NewNoOpRecorder() Recorder {
	return NoOpRecorder{}
}

func (NoOpRecorder) RecordForecast(string)                         {}
func (NoOpRecorder) RecordRatesStored(string, int)                 {}
func (NoOpRecorder) RecordBatchRun(string, string, time.Duration) {}
