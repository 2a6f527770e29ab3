// qr.go — сервис жизненного цикла QR-записей: создание с рендером
// изображения кода, обновление с пересогласованием медиа-ассетов,
// удаление, публичное разрешение и регистрация сканирований.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/bigkaa/goqrstore/internal/domain/model"
	"github.com/bigkaa/goqrstore/internal/objstore"
	"github.com/bigkaa/goqrstore/internal/qrimg"
	"github.com/bigkaa/goqrstore/internal/repository"
)

// qrIDLength — длина публичного короткого идентификатора QR-записи.
const qrIDLength = 8

// scanDateLayout — формат календарного дня для bucket'ов сканирований (UTC).
const scanDateLayout = "2006-01-02"

// UploadedFile — загруженный медиа-файл из multipart-запроса.
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateQRInput — входные данные создания QR-записи.
type CreateQRInput struct {
	Type      string
	QRName    string
	Data      []byte
	File      *UploadedFile
	CreatedBy string
}

// UpdateQRInput — входные данные обновления QR-записи.
// nil-поля не изменяются; Data обязательна при смене типа.
type UpdateQRInput struct {
	Type      *string
	QRName    *string
	Data      []byte
	File      *UploadedFile
	UpdatedBy string
}

// AssetInvalidator вытесняет объект из кэша ассетов после его
// замены или удаления в хранилище. Реализуется AssetService.
type AssetInvalidator interface {
	Invalidate(bucket, key string)
}

// QRService — сервис QR-записей.
type QRService struct {
	repo        repository.QRRepository
	store       objstore.Store
	cache       AssetInvalidator
	renderer    *qrimg.Renderer
	qrBucket    string
	mediaBucket string
	logger      *slog.Logger

	// now и newID инжектируются в тестах.
	now   func() time.Time
	newID func() (string, error)
}

// NewQRService создаёт сервис QR-записей.
// cache может быть nil — тогда вытеснение из кэша не выполняется.
func NewQRService(
	repo repository.QRRepository,
	store objstore.Store,
	cache AssetInvalidator,
	renderer *qrimg.Renderer,
	qrBucket, mediaBucket string,
	logger *slog.Logger,
) *QRService {
	return &QRService{
		repo:        repo,
		store:       store,
		cache:       cache,
		renderer:    renderer,
		qrBucket:    qrBucket,
		mediaBucket: mediaBucket,
		logger:      logger.With(slog.String("component", "qr_service")),
		now:         time.Now,
		newID: func() (string, error) {
			return gonanoid.New(qrIDLength)
		},
	}
}

// invalidate вытесняет ключ из кэша ассетов, если кэш подключён.
func (s *QRService) invalidate(bucket, key string) {
	if s.cache != nil {
		s.cache.Invalidate(bucket, key)
	}
}

// qrCodeKey — ключ PNG-изображения кода в bucket'е QR-кодов.
func qrCodeKey(qrID string) string {
	return fmt.Sprintf("%s.png", qrID)
}

// mediaKey — ключ медиа-файла в media-bucket'е. Префикс qrId
// группирует файлы записи и исключает коллизии имён.
func mediaKey(qrID, filename string) string {
	return fmt.Sprintf("%s/%s", qrID, filename)
}

// mediaContentType — content-type медиа-объекта в хранилище:
// application/pdf для записей типа PDF, иначе — тип загруженного файла.
func mediaContentType(t model.QRType, uploaded string) string {
	if t == model.QRTypePDF {
		return "application/pdf"
	}
	return uploaded
}

// Create создаёт QR-запись: генерирует публичный идентификатор,
// рендерит и загружает изображение кода, загружает медиа-файл (если
// тип его требует) и сохраняет запись. При ошибке сохранения
// загруженные объекты удаляются компенсирующими операциями.
func (s *QRService) Create(ctx context.Context, in CreateQRInput) (*model.QR, error) {
	qrType, err := model.ParseQRType(in.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.QRName == "" {
		return nil, fmt.Errorf("%w: qrName обязателен", ErrValidation)
	}

	payload, err := model.ParsePayload(qrType, in.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if qrType.RequiresMedia() && in.File == nil {
		return nil, fmt.Errorf("%w: файл обязателен для типа %s", ErrValidation, qrType)
	}
	if !qrType.RequiresMedia() && in.File != nil {
		return nil, fmt.Errorf("%w: тип %s не поддерживает файл", ErrValidation, qrType)
	}

	qrID, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("генерация идентификатора: %w", err)
	}

	png, err := s.renderer.RenderPNG(qrID)
	if err != nil {
		return nil, fmt.Errorf("рендер QR-кода: %w", err)
	}

	codeAsset, err := s.store.Upload(ctx, s.qrBucket, qrCodeKey(qrID), png, "image/png")
	if err != nil {
		return nil, fmt.Errorf("%w: загрузка изображения кода: %v", ErrStoreUnavailable, err)
	}

	if in.File != nil {
		mediaAsset, err := s.store.Upload(ctx, s.mediaBucket,
			mediaKey(qrID, in.File.Filename),
			in.File.Data,
			mediaContentType(qrType, in.File.ContentType),
		)
		if err != nil {
			s.compensate(ctx, s.qrBucket, codeAsset.Key)
			return nil, fmt.Errorf("%w: загрузка медиа-файла: %v", ErrStoreUnavailable, err)
		}
		if err := payload.AttachMedia(mediaAsset); err != nil {
			s.compensate(ctx, s.qrBucket, codeAsset.Key)
			s.compensate(ctx, s.mediaBucket, mediaAsset.Key)
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	qr := &model.QR{
		QRID:      qrID,
		QRName:    in.QRName,
		Type:      qrType,
		QRCode:    codeAsset,
		Data:      payload,
		Status:    true,
		CreatedBy: in.CreatedBy,
		UpdatedBy: in.CreatedBy,
	}

	if err := s.repo.Create(ctx, qr); err != nil {
		// Компенсация: запись не сохранилась — объекты не должны осиротеть.
		s.compensate(ctx, s.qrBucket, codeAsset.Key)
		if media := payload.MediaAsset(); media != nil {
			s.compensate(ctx, s.mediaBucket, media.Key)
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: идентификатор %s уже занят", ErrConflict, qrID)
		}
		return nil, fmt.Errorf("сохранение QR-записи: %w", err)
	}

	s.logger.Info("QR-запись создана",
		slog.String("id", qr.ID),
		slog.String("qr_id", qr.QRID),
		slog.String("type", string(qr.Type)),
	)
	return qr, nil
}

// compensate удаляет объект после неудачного создания записи.
// Ошибка удаления только логируется: исходная ошибка важнее.
func (s *QRService) compensate(ctx context.Context, bucket, key string) {
	if err := s.store.Delete(ctx, bucket, key); err != nil {
		s.logger.Warn("Компенсирующее удаление объекта не удалось",
			slog.String("bucket", bucket),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// Get возвращает QR-запись по UUID.
func (s *QRService) Get(ctx context.Context, id string) (*model.QR, error) {
	qr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение QR-записи: %w", err)
	}
	return qr, nil
}

// Resolve возвращает QR-запись по публичному идентификатору.
// Отключённая запись не разрешается: ErrDisabled.
func (s *QRService) Resolve(ctx context.Context, qrID string) (*model.QR, error) {
	qr, err := s.repo.GetByQRID(ctx, qrID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("поиск QR-записи: %w", err)
	}
	if !qr.Status {
		return nil, ErrDisabled
	}
	return qr, nil
}

// List возвращает страницу QR-записей с метаданными пагинации.
func (s *QRService) List(ctx context.Context, filters repository.QRListFilters, page, limit int) ([]*model.QR, PageMeta, error) {
	page, limit, offset := normalizePage(page, limit)

	qrs, total, err := s.repo.List(ctx, filters, limit, offset)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("список QR-записей: %w", err)
	}
	return qrs, newPageMeta(total, page, limit), nil
}

// Update обновляет QR-запись. Смена типа требует нового payload.
// Медиа-ассеты пересогласовываются: новый файл замещает старый
// (старый объект удаляется до загрузки нового), отказ от медиа
// при смене типа на WEBSITE удаляет старый объект. Ошибки удаления
// на пути обновления прерывают операцию.
func (s *QRService) Update(ctx context.Context, id string, in UpdateQRInput) (*model.QR, error) {
	qr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение QR-записи: %w", err)
	}

	newType := qr.Type
	if in.Type != nil {
		newType, err = model.ParseQRType(*in.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	newPayload := qr.Data
	switch {
	case in.Data != nil:
		newPayload, err = model.ParsePayload(newType, in.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	case newType != qr.Type:
		// Payload старого типа не интерпретируется в новом.
		return nil, fmt.Errorf("%w: смена типа требует поля data", ErrValidation)
	}

	oldMedia := qr.Data.MediaAsset()

	switch {
	case in.File != nil:
		if !newType.RequiresMedia() {
			return nil, fmt.Errorf("%w: тип %s не поддерживает файл", ErrValidation, newType)
		}
		if oldMedia != nil {
			if err := s.store.Delete(ctx, s.mediaBucket, oldMedia.Key); err != nil {
				return nil, fmt.Errorf("%w: удаление старого медиа-файла: %v", ErrStoreUnavailable, err)
			}
			s.invalidate(s.mediaBucket, oldMedia.Key)
		}
		mediaAsset, err := s.store.Upload(ctx, s.mediaBucket,
			mediaKey(qr.QRID, in.File.Filename),
			in.File.Data,
			mediaContentType(newType, in.File.ContentType),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: загрузка медиа-файла: %v", ErrStoreUnavailable, err)
		}
		// Имя файла могло совпасть со старым: новый объект лёг под тот же
		// ключ, кэш не должен отдавать прежние байты.
		s.invalidate(s.mediaBucket, mediaAsset.Key)
		if err := newPayload.AttachMedia(mediaAsset); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}

	case newType.RequiresMedia():
		// Файл не передан — переносим существующий ассет.
		if oldMedia == nil {
			return nil, fmt.Errorf("%w: файл обязателен для типа %s", ErrValidation, newType)
		}
		if newPayload.MediaAsset() == nil {
			if err := newPayload.AttachMedia(*oldMedia); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrValidation, err)
			}
		}

	case oldMedia != nil:
		// Новый тип не несёт медиа — старый объект удаляется.
		if err := s.store.Delete(ctx, s.mediaBucket, oldMedia.Key); err != nil {
			return nil, fmt.Errorf("%w: удаление медиа-файла: %v", ErrStoreUnavailable, err)
		}
		s.invalidate(s.mediaBucket, oldMedia.Key)
	}

	qr.Type = newType
	qr.Data = newPayload
	if in.QRName != nil {
		if *in.QRName == "" {
			return nil, fmt.Errorf("%w: qrName не может быть пустым", ErrValidation)
		}
		qr.QRName = *in.QRName
	}
	qr.UpdatedBy = in.UpdatedBy

	if err := s.repo.Update(ctx, qr); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление QR-записи: %w", err)
	}

	s.logger.Info("QR-запись обновлена",
		slog.String("id", qr.ID),
		slog.String("qr_id", qr.QRID),
	)
	return qr, nil
}

// Delete удаляет QR-запись и её объекты в хранилище.
// Запись удаляется первой; удаление объектов — best-effort:
// ошибка логируется, операция считается успешной.
func (s *QRService) Delete(ctx context.Context, id string) (*model.QR, error) {
	qr, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("удаление QR-записи: %w", err)
	}

	if err := s.store.Delete(ctx, s.qrBucket, qr.QRCode.Key); err != nil {
		s.logger.Warn("Не удалось удалить изображение кода",
			slog.String("qr_id", qr.QRID),
			slog.String("key", qr.QRCode.Key),
			slog.String("error", err.Error()),
		)
	}
	s.invalidate(s.qrBucket, qr.QRCode.Key)
	if media := qr.Data.MediaAsset(); media != nil {
		if err := s.store.Delete(ctx, s.mediaBucket, media.Key); err != nil {
			s.logger.Warn("Не удалось удалить медиа-файл",
				slog.String("qr_id", qr.QRID),
				slog.String("key", media.Key),
				slog.String("error", err.Error()),
			)
		}
		s.invalidate(s.mediaBucket, media.Key)
	}

	s.logger.Info("QR-запись удалена",
		slog.String("id", qr.ID),
		slog.String("qr_id", qr.QRID),
	)
	return qr, nil
}

// ToggleStatus переключает флаг активности записи.
func (s *QRService) ToggleStatus(ctx context.Context, id, updatedBy string) (*model.QR, error) {
	qr, err := s.repo.ToggleStatus(ctx, id, updatedBy)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("переключение статуса: %w", err)
	}
	return qr, nil
}

// RecordScan регистрирует сканирование: атомарно инкрементирует общий
// счётчик и bucket текущего календарного дня (UTC). Для отсутствующей
// или отключённой записи счётчики не меняются.
func (s *QRService) RecordScan(ctx context.Context, qrID string) (*model.QR, error) {
	day := s.now().UTC().Format(scanDateLayout)

	qr, err := s.repo.RecordScan(ctx, qrID, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("регистрация сканирования: %w", err)
	}
	return qr, nil
}
