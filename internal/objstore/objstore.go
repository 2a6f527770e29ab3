// Пакет objstore — адаптер S3-совместимого объектного хранилища
// (minio-go): загрузка, удаление и получение бинарных объектов
// в именованных bucket'ах.
package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bigkaa/goqrstore/internal/config"
	"github.com/bigkaa/goqrstore/internal/domain/model"
)

// Ошибки адаптера хранилища.
var (
	// ErrNotFound — объект не найден в bucket'е.
	ErrNotFound = errors.New("объект не найден")
)

// Object — содержимое объекта хранилища с его content-type.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Store — интерфейс объектного хранилища, потребляемый сервисным слоем.
type Store interface {
	// Upload загружает объект и возвращает его ассет {key, url}.
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (model.Asset, error)
	// Delete удаляет объект. Удаление отсутствующего ключа — не ошибка.
	Delete(ctx context.Context, bucket, key string) error
	// Get возвращает содержимое объекта. ErrNotFound, если ключа нет.
	Get(ctx context.Context, bucket, key string) (*Object, error)
}

// Client — реализация Store через minio-go.
type Client struct {
	mc       *minio.Client
	scheme   string
	endpoint string
	logger   *slog.Logger
}

// New создаёт клиент объектного хранилища из конфигурации.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	mc, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания S3-клиента: %w", err)
	}

	scheme := "http"
	if cfg.S3UseSSL {
		scheme = "https"
	}

	return &Client{
		mc:       mc,
		scheme:   scheme,
		endpoint: cfg.S3Endpoint,
		logger:   logger.With(slog.String("component", "objstore")),
	}, nil
}

// EnsureBuckets создаёт отсутствующие bucket'ы при старте.
func (c *Client) EnsureBuckets(ctx context.Context, buckets ...string) error {
	for _, bucket := range buckets {
		exists, err := c.mc.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("проверка bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := c.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("создание bucket %s: %w", bucket, err)
		}
		c.logger.Info("Bucket создан", slog.String("bucket", bucket))
	}
	return nil
}

// Upload загружает объект и возвращает его ассет {key, url}.
func (c *Client) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (model.Asset, error) {
	_, err := c.mc.PutObject(ctx, bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return model.Asset{}, fmt.Errorf("ошибка загрузки объекта %s/%s: %w", bucket, key, err)
	}

	return model.Asset{
		Key: key,
		URL: fmt.Sprintf("%s://%s/%s/%s", c.scheme, c.endpoint, bucket, key),
	}, nil
}

// Delete удаляет объект из bucket'а.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	err := c.mc.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("ошибка удаления объекта %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Get возвращает содержимое объекта с его content-type.
func (c *Client) Get(ctx context.Context, bucket, key string) (*Object, error) {
	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения объекта %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка stat объекта %s/%s: %w", bucket, key, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения объекта %s/%s: %w", bucket, key, err)
	}

	return &Object{
		Key:         key,
		ContentType: stat.ContentType,
		Data:        data,
	}, nil
}

// ReadinessChecker — проверка доступности объектного хранилища
// для health endpoint.
type ReadinessChecker struct {
	client *Client
	bucket string
}

// NewReadinessChecker создаёт checker доступности хранилища.
func NewReadinessChecker(client *Client, bucket string) *ReadinessChecker {
	return &ReadinessChecker{client: client, bucket: bucket}
}

// CheckReady проверяет доступность хранилища запросом существования bucket'а.
func (r *ReadinessChecker) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	exists, err := r.client.mc.BucketExists(ctx, r.bucket)
	if err != nil {
		return "fail", fmt.Sprintf("объектное хранилище недоступно: %v", err)
	}
	if !exists {
		return "degraded", fmt.Sprintf("bucket %s не существует", r.bucket)
	}
	return "ok", "хранилище доступно"
}
