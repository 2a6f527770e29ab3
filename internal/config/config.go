// Пакет config — загрузка и валидация конфигурации QR Store
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации QR Store.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Аутентификация ---

	// Стоимость bcrypt-хеширования паролей (work factor)
	BcryptCost int
	// Время жизни access-токена
	AccessTokenTTL time.Duration
	// Время жизни refresh-токена
	RefreshTokenTTL time.Duration
	// Путь к приватному RSA-ключу (PEM) для подписи токенов
	JWTPrivateKeyPath string
	// Путь к публичному RSA-ключу (PEM) для проверки токенов
	JWTPublicKeyPath string

	// --- Объектное хранилище (S3-совместимое) ---

	// Endpoint S3 (host:port, без схемы)
	S3Endpoint string
	// Регион S3
	S3Region string
	// Access key S3
	S3AccessKey string
	// Secret key S3
	S3SecretKey string
	// Использовать TLS при подключении к S3
	S3UseSSL bool
	// Bucket для PNG-изображений QR-кодов
	QRBucket string
	// Bucket для загружаемых медиа-файлов
	MediaBucket string

	// --- QR ---

	// Базовый URL фронтенда, кодируемый в QR-изображение: {FrontendBaseURL}/{qrId}
	FrontendBaseURL string
	// Размер стороны PNG-изображения QR-кода в пикселях
	QRImageSize int
	// Максимальный размер загружаемого файла (байт)
	MaxUploadSize int64

	// --- Кэш байтов ассетов ---

	// Максимальное количество записей в LRU-кэше ассетов
	AssetCacheSize int
	// TTL записи кэша ассетов
	AssetCacheTTL time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
//
//nolint:cyclop // длина обусловлена количеством переменных окружения
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// QS_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("QS_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("QS_PORT: %w", err)
	}

	// QS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("QS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("QS_LOG_LEVEL: %w", err)
	}

	// QS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("QS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("QS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("QS_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QS_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("QS_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QS_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("QS_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QS_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	// QS_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("QS_DB_HOST")
	if err != nil {
		return nil, err
	}

	// QS_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("QS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("QS_DB_PORT: %w", err)
	}

	// QS_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("QS_DB_NAME")
	if err != nil {
		return nil, err
	}

	// QS_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("QS_DB_USER")
	if err != nil {
		return nil, err
	}

	// QS_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("QS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// QS_DB_SSLMODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("QS_DB_SSLMODE", "disable")
	switch cfg.DBSSLMode {
	case "disable", "require", "verify-ca", "verify-full":
	default:
		return nil, fmt.Errorf("QS_DB_SSLMODE: недопустимое значение %q", cfg.DBSSLMode)
	}

	// --- Аутентификация ---

	// QS_BCRYPT_COST — work factor bcrypt (по умолчанию 10)
	cfg.BcryptCost, err = getEnvInt("QS_BCRYPT_COST", 10)
	if err != nil {
		return nil, fmt.Errorf("QS_BCRYPT_COST: %w", err)
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("QS_BCRYPT_COST: значение %d вне допустимого диапазона 4-31", cfg.BcryptCost)
	}

	// QS_ACCESS_TOKEN_TTL — время жизни access-токена (по умолчанию 15m)
	cfg.AccessTokenTTL, err = getEnvDuration("QS_ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("QS_ACCESS_TOKEN_TTL: %w", err)
	}

	// QS_REFRESH_TOKEN_TTL — время жизни refresh-токена (по умолчанию 168h)
	cfg.RefreshTokenTTL, err = getEnvDuration("QS_REFRESH_TOKEN_TTL", 168*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("QS_REFRESH_TOKEN_TTL: %w", err)
	}

	// QS_JWT_PRIVATE_KEY_PATH, QS_JWT_PUBLIC_KEY_PATH — обязательные
	cfg.JWTPrivateKeyPath, err = getEnvRequired("QS_JWT_PRIVATE_KEY_PATH")
	if err != nil {
		return nil, err
	}
	cfg.JWTPublicKeyPath, err = getEnvRequired("QS_JWT_PUBLIC_KEY_PATH")
	if err != nil {
		return nil, err
	}

	// --- Объектное хранилище ---

	cfg.S3Endpoint, err = getEnvRequired("QS_S3_ENDPOINT")
	if err != nil {
		return nil, err
	}
	cfg.S3Region = getEnvDefault("QS_S3_REGION", "us-east-1")
	cfg.S3AccessKey, err = getEnvRequired("QS_S3_ACCESS_KEY")
	if err != nil {
		return nil, err
	}
	cfg.S3SecretKey, err = getEnvRequired("QS_S3_SECRET_KEY")
	if err != nil {
		return nil, err
	}
	cfg.S3UseSSL, err = getEnvBool("QS_S3_USE_SSL", true)
	if err != nil {
		return nil, fmt.Errorf("QS_S3_USE_SSL: %w", err)
	}

	// QS_QR_BUCKET — bucket изображений QR-кодов (по умолчанию qr-codes)
	cfg.QRBucket = getEnvDefault("QS_QR_BUCKET", "qr-codes")
	// QS_MEDIA_BUCKET — bucket медиа-файлов (по умолчанию qr-media)
	cfg.MediaBucket = getEnvDefault("QS_MEDIA_BUCKET", "qr-media")
	if cfg.QRBucket == cfg.MediaBucket {
		return nil, fmt.Errorf("QS_QR_BUCKET и QS_MEDIA_BUCKET не должны совпадать: %q", cfg.QRBucket)
	}

	// --- QR ---

	// QS_FRONTEND_BASE_URL — обязательный, без завершающего слеша
	cfg.FrontendBaseURL, err = getEnvRequired("QS_FRONTEND_BASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.FrontendBaseURL = strings.TrimRight(cfg.FrontendBaseURL, "/")

	// QS_QR_IMAGE_SIZE — размер PNG в пикселях (по умолчанию 512)
	cfg.QRImageSize, err = getEnvInt("QS_QR_IMAGE_SIZE", 512)
	if err != nil {
		return nil, fmt.Errorf("QS_QR_IMAGE_SIZE: %w", err)
	}
	if cfg.QRImageSize < 64 || cfg.QRImageSize > 4096 {
		return nil, fmt.Errorf("QS_QR_IMAGE_SIZE: значение %d вне допустимого диапазона 64-4096", cfg.QRImageSize)
	}

	// QS_MAX_UPLOAD_SIZE — максимальный размер файла (по умолчанию 5 MiB)
	maxUpload, err := getEnvInt("QS_MAX_UPLOAD_SIZE", 5*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("QS_MAX_UPLOAD_SIZE: %w", err)
	}
	if maxUpload <= 0 {
		return nil, fmt.Errorf("QS_MAX_UPLOAD_SIZE: значение должно быть > 0")
	}
	cfg.MaxUploadSize = int64(maxUpload)

	// --- Кэш ассетов ---

	cfg.AssetCacheSize, err = getEnvInt("QS_ASSET_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("QS_ASSET_CACHE_SIZE: %w", err)
	}
	cfg.AssetCacheTTL, err = getEnvDuration("QS_ASSET_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("QS_ASSET_CACHE_TTL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("QS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("QS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
