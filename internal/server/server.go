// Пакет server — HTTP-сервер QR Store с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/goqrstore/internal/api/handlers"
	"github.com/bigkaa/goqrstore/internal/api/middleware"
	"github.com/bigkaa/goqrstore/internal/config"
	"github.com/bigkaa/goqrstore/internal/token"
)

// Handlers — набор обработчиков, монтируемых на маршруты сервера.
type Handlers struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Admins *handlers.AdminsHandler
	QRs    *handlers.QRHandler
	Assets *handlers.AssetsHandler
}

// Server — HTTP-сервер QR Store.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// Публичные маршруты: health, metrics, разрешение и сканирование QR,
// отдача ассетов, вход. Остальные закрыты RequireUser.
func New(cfg *config.Config, logger *slog.Logger, tokens *token.Manager, h Handlers) *Server {
	router := chi.NewRouter()

	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Deserialize(tokens, logger))

	// Инфраструктурные endpoints
	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health-check", h.Health.HealthCheck)

		// Аутентификация
		r.Post("/auth/sign-in", h.Auth.SignIn)
		r.With(middleware.RequireUser).Get("/auth/me", h.Auth.Me)

		// Администраторы (защищённые)
		r.Route("/admins", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Post("/", h.Admins.Create)
			r.Get("/", h.Admins.List)
			r.Get("/{id}", h.Admins.Get)
			r.Put("/{id}", h.Admins.Update)
			r.Delete("/{id}", h.Admins.Delete)
		})

		// QR-записи
		r.Route("/qr", func(r chi.Router) {
			// Публичные: разрешение по короткому идентификатору и сканирование
			r.Get("/qrId/{qrId}", h.QRs.Resolve)
			r.Patch("/scan/{qrId}", h.QRs.Scan)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/", h.QRs.Create)
				r.Get("/", h.QRs.List)
				r.Get("/{id}", h.QRs.Get)
				r.Put("/{id}", h.QRs.Update)
				r.Patch("/toggle-status/{id}", h.QRs.ToggleStatus)
				r.Delete("/{id}", h.QRs.Delete)
			})
		})

		// Ассеты (публичные: изображения кодов и медиа-файлы)
		r.Get("/qrcode/*", h.Assets.QRCode)
		r.Get("/media/*", h.Assets.Media)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
