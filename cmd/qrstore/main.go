// main.go — точка входа QR Store.
package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/bigkaa/goqrstore/internal/api/handlers"
	"github.com/bigkaa/goqrstore/internal/config"
	"github.com/bigkaa/goqrstore/internal/database"
	"github.com/bigkaa/goqrstore/internal/objstore"
	"github.com/bigkaa/goqrstore/internal/qrimg"
	"github.com/bigkaa/goqrstore/internal/repository"
	"github.com/bigkaa/goqrstore/internal/server"
	"github.com/bigkaa/goqrstore/internal/service"
	"github.com/bigkaa/goqrstore/internal/token"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("QR Store запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Подключение к PostgreSQL и миграции
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		log.Fatalf("Ошибка подключения к PostgreSQL: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка применения миграций", slog.String("error", err.Error()))
		log.Fatalf("Ошибка применения миграций: %v", err)
	}

	// 4. Объектное хранилище
	store, err := objstore.New(cfg, logger)
	if err != nil {
		logger.Error("Ошибка создания S3-клиента", slog.String("error", err.Error()))
		log.Fatalf("Ошибка создания S3-клиента: %v", err)
	}
	if err := store.EnsureBuckets(ctx, cfg.QRBucket, cfg.MediaBucket); err != nil {
		logger.Error("Ошибка инициализации bucket'ов", slog.String("error", err.Error()))
		log.Fatalf("Ошибка инициализации bucket'ов: %v", err)
	}

	// 5. JWT-менеджер (RS256, ключи из PEM-файлов)
	tokens, err := token.NewManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		logger.Error("Ошибка загрузки JWT-ключей", slog.String("error", err.Error()))
		log.Fatalf("Ошибка загрузки JWT-ключей: %v", err)
	}

	// 6. Репозитории и сервисы
	adminRepo := repository.NewAdminRepository(pool)
	qrRepo := repository.NewQRRepository(pool, repository.NewTxRunner(pool))

	adminSvc := service.NewAdminService(adminRepo, tokens, cfg.BcryptCost, logger)
	assetSvc := service.NewAssetService(store, cfg.QRBucket, cfg.MediaBucket,
		cfg.AssetCacheSize, cfg.AssetCacheTTL, logger)
	qrSvc := service.NewQRService(qrRepo, store, assetSvc,
		qrimg.NewRenderer(cfg.FrontendBaseURL, cfg.QRImageSize),
		cfg.QRBucket, cfg.MediaBucket, logger)

	// 7. HTTP handlers
	h := server.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.ReadinessChecker{
			"database": database.NewReadinessChecker(pool),
			"objstore": objstore.NewReadinessChecker(store, cfg.QRBucket),
		}),
		Auth:   handlers.NewAuthHandler(adminSvc, logger),
		Admins: handlers.NewAdminsHandler(adminSvc, logger),
		QRs:    handlers.NewQRHandler(qrSvc, cfg.MaxUploadSize, logger),
		Assets: handlers.NewAssetsHandler(assetSvc, logger),
	}

	// 8. Запуск HTTP-сервера (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, tokens, h)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	logger.Info("QR Store остановлен")
}
