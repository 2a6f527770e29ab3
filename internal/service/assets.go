// assets.go — отдача бинарных ассетов (изображений кодов и медиа-файлов)
// через LRU-кэш с TTL. Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goqrstore/internal/objstore"
)

// Prometheus-метрики кэша ассетов.
var (
	assetCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qs_asset_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш ассетов.",
	})
	assetCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qs_asset_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша ассетов.",
	})
)

// AssetService — отдача объектов хранилища с per-instance LRU-кэшем.
type AssetService struct {
	store       objstore.Store
	qrBucket    string
	mediaBucket string
	cache       *expirable.LRU[string, *objstore.Object]
	logger      *slog.Logger
}

// NewAssetService создаёт сервис ассетов.
// cacheSize — максимальное количество объектов в кэше, ttl — время жизни записи.
func NewAssetService(store objstore.Store, qrBucket, mediaBucket string, cacheSize int, ttl time.Duration, logger *slog.Logger) *AssetService {
	return &AssetService{
		store:       store,
		qrBucket:    qrBucket,
		mediaBucket: mediaBucket,
		cache:       expirable.NewLRU[string, *objstore.Object](cacheSize, nil, ttl),
		logger:      logger.With(slog.String("component", "asset_service")),
	}
}

// get возвращает объект из кэша или хранилища, обновляя метрики hit/miss.
func (s *AssetService) get(ctx context.Context, bucket, key string) (*objstore.Object, error) {
	cacheKey := bucket + "/" + key

	if obj, ok := s.cache.Get(cacheKey); ok {
		assetCacheHitsTotal.Inc()
		return obj, nil
	}
	assetCacheMissesTotal.Inc()

	obj, err := s.store.Get(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.cache.Add(cacheKey, obj)
	return obj, nil
}

// QRCodeImage возвращает PNG-изображение кода по ключу.
func (s *AssetService) QRCodeImage(ctx context.Context, key string) (*objstore.Object, error) {
	return s.get(ctx, s.qrBucket, key)
}

// Media возвращает медиа-файл по ключу.
func (s *AssetService) Media(ctx context.Context, key string) (*objstore.Object, error) {
	return s.get(ctx, s.mediaBucket, key)
}

// Invalidate удаляет объект из кэша после его замены или удаления.
func (s *AssetService) Invalidate(bucket, key string) {
	s.cache.Remove(bucket + "/" + key)
}
