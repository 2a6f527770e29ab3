// metrics.go — Prometheus HTTP метрики QR Store.
// Регистрирует метрики: qs_http_requests_total, qs_http_request_duration_seconds.
// Нормализация путей предотвращает взрывной рост кардинальности.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики QR Store
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qs_http_requests_total",
			Help: "Общее количество HTTP-запросов к QR Store",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qs_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к QR Store в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет динамические сегменты пути на плейсхолдеры
// для предотвращения взрывного роста кардинальности метрик.
// /api/v1/qr/a1b2c3d4-...      → /api/v1/qr/{id}
// /api/v1/qr/scan/Ab3dEf9h     → /api/v1/qr/scan/{qrId}
// /api/v1/media/Ab3dEf9h/x.png → /api/v1/media/{key}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/health-check",
		"/api/v1/auth/sign-in", "/api/v1/auth/me",
		"/api/v1/admins", "/api/v1/qr":
		return path
	}

	type prefixRule struct {
		prefix string
		label  string
	}
	rules := []prefixRule{
		{"/api/v1/qr/scan/", "/api/v1/qr/scan/{qrId}"},
		{"/api/v1/qr/qrId/", "/api/v1/qr/qrId/{qrId}"},
		{"/api/v1/qr/toggle-status/", "/api/v1/qr/toggle-status/{id}"},
		{"/api/v1/qrcode/", "/api/v1/qrcode/{key}"},
		{"/api/v1/media/", "/api/v1/media/{key}"},
		{"/api/v1/admins/", "/api/v1/admins/{id}"},
	}
	for _, rule := range rules {
		if strings.HasPrefix(path, rule.prefix) {
			if strings.HasSuffix(path, "/download") {
				return rule.label + "/download"
			}
			return rule.label
		}
	}

	if strings.HasPrefix(path, "/api/v1/qr/") {
		return "/api/v1/qr/{id}"
	}

	return path
}
