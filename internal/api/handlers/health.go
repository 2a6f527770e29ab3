// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bigkaa/goqrstore/internal/config"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// ReadinessChecker — проверка готовности одной зависимости.
type ReadinessChecker interface {
	CheckReady() (status string, message string)
}

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version  string
	checkers map[string]ReadinessChecker
}

// NewHealthHandler создаёт обработчик health endpoints.
// checkers — именованные проверки зависимостей (database, objstore).
func NewHealthHandler(checkers map[string]ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		version:  config.Version,
		checkers: checkers,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет зависимости: 503, если хотя бы одна недоступна.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	overall := "ok"
	checks := make(map[string]any, len(h.checkers))

	for name, checker := range h.checkers {
		status, message := checker.CheckReady()
		checks[name] = map[string]string{
			"status":  status,
			"message": message,
		}
		if status == statusFail {
			overall = statusFail
		}
	}

	resp := map[string]any{
		"status":    overall,
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}

	code := http.StatusOK
	if overall == statusFail {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// HealthCheck обрабатывает GET /api/v1/health-check.
// Лёгкий публичный ping для внешних клиентов.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, "OK", map[string]string{"version": h.version})
}
