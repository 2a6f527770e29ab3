// qr_test.go — unit-тесты сервиса QR-записей: жизненный цикл,
// пересогласование медиа-ассетов, компенсации и сканирования.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/goqrstore/internal/domain/model"
	"github.com/bigkaa/goqrstore/internal/objstore"
	"github.com/bigkaa/goqrstore/internal/qrimg"
	"github.com/bigkaa/goqrstore/internal/repository"
)

// --- Mock QRRepository ---

// mockQRRepo — мок QRRepository для unit-тестов.
type mockQRRepo struct {
	createFn       func(ctx context.Context, q *model.QR) error
	getByIDFn      func(ctx context.Context, id string) (*model.QR, error)
	getByQRIDFn    func(ctx context.Context, qrID string) (*model.QR, error)
	listFn         func(ctx context.Context, filters repository.QRListFilters, limit, offset int) ([]*model.QR, int, error)
	updateFn       func(ctx context.Context, q *model.QR) error
	deleteFn       func(ctx context.Context, id string) (*model.QR, error)
	toggleStatusFn func(ctx context.Context, id, updatedBy string) (*model.QR, error)
	recordScanFn   func(ctx context.Context, qrID, day string) (*model.QR, error)
}

func (m *mockQRRepo) Create(ctx context.Context, q *model.QR) error {
	if m.createFn != nil {
		return m.createFn(ctx, q)
	}
	return nil
}

func (m *mockQRRepo) GetByID(ctx context.Context, id string) (*model.QR, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockQRRepo) GetByQRID(ctx context.Context, qrID string) (*model.QR, error) {
	if m.getByQRIDFn != nil {
		return m.getByQRIDFn(ctx, qrID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockQRRepo) List(ctx context.Context, filters repository.QRListFilters, limit, offset int) ([]*model.QR, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filters, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockQRRepo) Update(ctx context.Context, q *model.QR) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, q)
	}
	return nil
}

func (m *mockQRRepo) Delete(ctx context.Context, id string) (*model.QR, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockQRRepo) ToggleStatus(ctx context.Context, id, updatedBy string) (*model.QR, error) {
	if m.toggleStatusFn != nil {
		return m.toggleStatusFn(ctx, id, updatedBy)
	}
	return nil, repository.ErrNotFound
}

func (m *mockQRRepo) RecordScan(ctx context.Context, qrID, day string) (*model.QR, error) {
	if m.recordScanFn != nil {
		return m.recordScanFn(ctx, qrID, day)
	}
	return nil, repository.ErrNotFound
}

// --- Mock objstore.Store ---

// uploadCall — запись одной загрузки в mock-хранилище.
type uploadCall struct {
	bucket      string
	key         string
	contentType string
}

// mockStore — мок objstore.Store, журналирующий операции.
type mockStore struct {
	uploadFn func(ctx context.Context, bucket, key string, data []byte, contentType string) (model.Asset, error)
	deleteFn func(ctx context.Context, bucket, key string) error
	getFn    func(ctx context.Context, bucket, key string) (*objstore.Object, error)

	uploads []uploadCall
	deletes []string // bucket/key
}

func (m *mockStore) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (model.Asset, error) {
	m.uploads = append(m.uploads, uploadCall{bucket: bucket, key: key, contentType: contentType})
	if m.uploadFn != nil {
		return m.uploadFn(ctx, bucket, key, data, contentType)
	}
	return model.Asset{Key: key, URL: "https://s3.example.com/" + bucket + "/" + key}, nil
}

func (m *mockStore) Delete(ctx context.Context, bucket, key string) error {
	m.deletes = append(m.deletes, bucket+"/"+key)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, bucket, key)
	}
	return nil
}

func (m *mockStore) Get(ctx context.Context, bucket, key string) (*objstore.Object, error) {
	if m.getFn != nil {
		return m.getFn(ctx, bucket, key)
	}
	return nil, objstore.ErrNotFound
}

// mockInvalidator журналирует вытеснения из кэша ассетов ("bucket/key").
type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) Invalidate(bucket, key string) {
	m.invalidated = append(m.invalidated, bucket+"/"+key)
}

// newTestQRService создаёт QRService с моками и детерминированным qrId.
func newTestQRService(repo *mockQRRepo, store *mockStore) *QRService {
	svc := NewQRService(repo, store, nil,
		qrimg.NewRenderer("https://qr.example.com", 256),
		"qr-codes", "qr-media", slog.Default())
	svc.newID = func() (string, error) { return "Ab3dEf9h", nil }
	return svc
}

// --- Тесты Create ---

// TestQRService_CreateWebsite проверяет создание записи WEBSITE:
// загружается только изображение кода, медиа-файл не нужен.
func TestQRService_CreateWebsite(t *testing.T) {
	var created *model.QR
	repo := &mockQRRepo{
		createFn: func(_ context.Context, q *model.QR) error {
			created = q
			return nil
		},
	}
	store := &mockStore{}
	svc := newTestQRService(repo, store)

	qr, err := svc.Create(context.Background(), CreateQRInput{
		Type:      "WEBSITE",
		QRName:    "Сайт компании",
		Data:      []byte(`"https://example.com"`),
		CreatedBy: "admin-1",
	})
	if err != nil {
		t.Fatalf("Create вернул ошибку: %v", err)
	}

	if qr.QRID != "Ab3dEf9h" {
		t.Errorf("QRID = %q, ожидалось Ab3dEf9h", qr.QRID)
	}
	if !qr.Status {
		t.Error("новая запись должна быть активной")
	}
	if created == nil {
		t.Fatal("repo.Create не вызван")
	}

	if len(store.uploads) != 1 {
		t.Fatalf("загрузок = %d, ожидалась 1 (только изображение кода)", len(store.uploads))
	}
	up := store.uploads[0]
	if up.bucket != "qr-codes" || up.key != "Ab3dEf9h.png" || up.contentType != "image/png" {
		t.Errorf("загрузка кода: %+v", up)
	}
}

// TestQRService_CreateMediaTypeWithoutFile проверяет, что медиа-типы
// без файла отклоняются до обращения к хранилищу.
func TestQRService_CreateMediaTypeWithoutFile(t *testing.T) {
	store := &mockStore{}
	svc := newTestQRService(&mockQRRepo{}, store)

	_, err := svc.Create(context.Background(), CreateQRInput{
		Type:      "PDF",
		QRName:    "Каталог",
		Data:      []byte(`{"title":"Каталог","description":"Продукция"}`),
		CreatedBy: "admin-1",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Create = %v, ожидался ErrValidation", err)
	}
	if len(store.uploads) != 0 {
		t.Errorf("загрузок = %d, хранилище не должно вызываться", len(store.uploads))
	}
}

// TestQRService_CreateWebsiteWithFile проверяет отклонение файла для WEBSITE.
func TestQRService_CreateWebsiteWithFile(t *testing.T) {
	svc := newTestQRService(&mockQRRepo{}, &mockStore{})

	_, err := svc.Create(context.Background(), CreateQRInput{
		Type:      "WEBSITE",
		QRName:    "Сайт",
		Data:      []byte(`"https://example.com"`),
		File:      &UploadedFile{Filename: "x.png", ContentType: "image/png", Data: []byte{1}},
		CreatedBy: "admin-1",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Create = %v, ожидался ErrValidation", err)
	}
}

// TestQRService_CreatePDFContentType проверяет, что медиа-объект
// записи PDF получает content-type application/pdf.
func TestQRService_CreatePDFContentType(t *testing.T) {
	repo := &mockQRRepo{createFn: func(_ context.Context, _ *model.QR) error { return nil }}
	store := &mockStore{}
	svc := newTestQRService(repo, store)

	qr, err := svc.Create(context.Background(), CreateQRInput{
		Type:      "PDF",
		QRName:    "Каталог",
		Data:      []byte(`{"title":"Каталог","description":"Продукция"}`),
		File:      &UploadedFile{Filename: "catalog.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		CreatedBy: "admin-1",
	})
	if err != nil {
		t.Fatalf("Create вернул ошибку: %v", err)
	}

	if len(store.uploads) != 2 {
		t.Fatalf("загрузок = %d, ожидалось 2", len(store.uploads))
	}
	media := store.uploads[1]
	if media.bucket != "qr-media" || media.key != "Ab3dEf9h/catalog.pdf" {
		t.Errorf("медиа-загрузка: %+v", media)
	}
	if media.contentType != "application/pdf" {
		t.Errorf("contentType = %q, ожидался application/pdf", media.contentType)
	}
	if qr.Data.MediaAsset() == nil {
		t.Error("медиа-ассет должен быть прикреплён к payload")
	}
}

// TestQRService_CreateCompensation проверяет компенсирующее удаление
// загруженных объектов при ошибке сохранения записи.
func TestQRService_CreateCompensation(t *testing.T) {
	repo := &mockQRRepo{
		createFn: func(_ context.Context, _ *model.QR) error {
			return fmt.Errorf("обрыв соединения с БД")
		},
	}
	store := &mockStore{}
	svc := newTestQRService(repo, store)

	_, err := svc.Create(context.Background(), CreateQRInput{
		Type:      "IMAGE",
		QRName:    "Баннер",
		Data:      []byte(`{"title":"Баннер","description":"Акция"}`),
		File:      &UploadedFile{Filename: "banner.png", ContentType: "image/png", Data: []byte{1, 2}},
		CreatedBy: "admin-1",
	})
	if err == nil {
		t.Fatal("Create должен вернуть ошибку сохранения")
	}

	// Оба загруженных объекта удалены
	want := map[string]bool{
		"qr-codes/Ab3dEf9h.png":        true,
		"qr-media/Ab3dEf9h/banner.png": true,
	}
	if len(store.deletes) != 2 {
		t.Fatalf("удалений = %d, ожидалось 2: %v", len(store.deletes), store.deletes)
	}
	for _, d := range store.deletes {
		if !want[d] {
			t.Errorf("неожиданное удаление %q", d)
		}
	}
}

// --- Тесты Update ---

// existingVCard возвращает запись V_CARD с прикреплённым медиа.
func existingVCard() *model.QR {
	return &model.QR{
		ID:     "uuid-1",
		QRID:   "Ab3dEf9h",
		QRName: "Визитка",
		Type:   model.QRTypeVCard,
		QRCode: model.Asset{Key: "Ab3dEf9h.png", URL: "https://s3/qr-codes/Ab3dEf9h.png"},
		Data: model.Payload{VCard: &model.VCard{
			FirstName: "Иван", LastName: "Петров",
			Phone: "79001234567", Email: "ivan@example.com",
			Media: &model.Asset{Key: "Ab3dEf9h/photo.png", URL: "https://s3/qr-media/Ab3dEf9h/photo.png"},
		}},
		Status: true,
	}
}

// TestQRService_UpdateToWebsiteDeletesMedia проверяет смену типа
// V_CARD → WEBSITE: старый медиа-объект удаляется.
func TestQRService_UpdateToWebsiteDeletesMedia(t *testing.T) {
	var updated *model.QR
	repo := &mockQRRepo{
		getByIDFn: func(_ context.Context, _ string) (*model.QR, error) { return existingVCard(), nil },
		updateFn: func(_ context.Context, q *model.QR) error {
			updated = q
			return nil
		},
	}
	store := &mockStore{}
	svc := newTestQRService(repo, store)

	newType := "WEBSITE"
	qr, err := svc.Update(context.Background(), "uuid-1", UpdateQRInput{
		Type:      &newType,
		Data:      []byte(`"https://example.com"`),
		UpdatedBy: "admin-2",
	})
	if err != nil {
		t.Fatalf("Update вернул ошибку: %v", err)
	}

	if qr.Type != model.QRTypeWebsite {
		t.Errorf("Type = %s, ожидался WEBSITE", qr.Type)
	}
	if qr.Data.MediaAsset() != nil {
		t.Error("payload WEBSITE не должен нести медиа")
	}
	if len(store.deletes) != 1 || store.deletes[0] != "qr-media/Ab3dEf9h/photo.png" {
		t.Errorf("удаления = %v, ожидалось только старое медиа", store.deletes)
	}
	if updated == nil || updated.UpdatedBy != "admin-2" {
		t.Errorf("updatedBy не сохранён: %+v", updated)
	}
}

// TestQRService_UpdateTypeChangeRequiresData проверяет, что смена типа
// без нового payload отклоняется.
func TestQRService_UpdateTypeChangeRequiresData(t *testing.T) {
	repo := &mockQRRepo{
		getByIDFn: func(_ context.Context, _ string) (*model.QR, error) { return existingVCard(), nil },
	}
	svc := newTestQRService(repo, &mockStore{})

	newType := "WEBSITE"
	_, err := svc.Update(context.Background(), "uuid-1", UpdateQRInput{
		Type:      &newType,
		UpdatedBy: "admin-2",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Update = %v, ожидался ErrValidation", err)
	}
}

// TestQRService_UpdateNewFileReplacesOld проверяет замену медиа-файла:
// старый объект удаляется до загрузки нового.
func TestQRService_UpdateNewFileReplacesOld(t *testing.T) {
	repo := &mockQRRepo{
		getByIDFn: func(_ context.Context, _ string) (*model.QR, error) { return existingVCard(), nil },
		updateFn:  func(_ context.Context, _ *model.QR) error { return nil },
	}
	store := &mockStore{}
	svc := newTestQRService(repo, store)

	qr, err := svc.Update(context.Background(), "uuid-1", UpdateQRInput{
		File:      &UploadedFile{Filename: "new.png", ContentType: "image/png", Data: []byte{9}},
		UpdatedBy: "admin-2",
	})
	if err != nil {
		t.Fatalf("Update вернул ошибку: %v", err)
	}

	if len(store.deletes) != 1 || store.deletes[0] != "qr-media/Ab3dEf9h/photo.png" {
		t.Errorf("удаления = %v, ожидалось старое медиа", store.deletes)
	}
	if len(store.uploads) != 1 || store.uploads[0].key != "Ab3dEf9h/new.png" {
		t.Errorf("загрузки = %+v, ожидался новый файл", store.uploads)
	}
	if asset := qr.Data.MediaAsset(); asset == nil || asset.Key != "Ab3dEf9h/new.png" {
		t.Errorf("медиа-ассет = %+v, ожидался новый", asset)
	}
}

// TestQRService_UpdateDeleteFailurePropagates проверяет, что ошибка
// удаления старого медиа на пути обновления прерывает операцию.
func TestQRService_UpdateDeleteFailurePropagates(t *testing.T) {
	repo := &mockQRRepo{
		getByIDFn: func(_ context.Context, _ string) (*model.QR, error) { return existingVCard(), nil },
	}
	store := &mockStore{
		deleteFn: func(_ context.Context, _, _ string) error {
			return fmt.Errorf("S3 недоступен")
		},
	}
	svc := newTestQRService(repo, store)

	_, err := svc.Update(context.Background(), "uuid-1", UpdateQRInput{
		File:      &UploadedFile{Filename: "new.png", ContentType: "image/png", Data: []byte{9}},
		UpdatedBy: "admin-2",
	})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Update = %v, ожидался ErrStoreUnavailable", err)
	}
	if len(store.uploads) != 0 {
		t.Error("новый файл не должен загружаться после ошибки удаления")
	}
}

// TestQRService_UpdateCarriesOverMedia проверяет, что обновление
// без нового файла переносит существующий медиа-ассет.
func TestQRService_UpdateCarriesOverMedia(t *testing.T) {
	repo := &mockQRRepo{
		getByIDFn: func(_ context.Context, _ string) (*model.QR, error) { return existingVCard(), nil },
		updateFn:  func(_ context.Context, _ *model.QR) error { return nil },
	}
	store := &mockStore{}
	svc := newTestQRService(repo, store)

	qr, err := svc.Update(context.Background(), "uuid-1", UpdateQRInput{
		Data:      []byte(`{"firstName":"Пётр","lastName":"Иванов","phone":"79007654321","email":"petr@example.com"}`),
		UpdatedBy: "admin-2",
	})
	if err != nil {
		t.Fatalf("Update вернул ошибку: %v", err)
	}

	asset := qr.Data.MediaAsset()
	if asset == nil || asset.Key != "Ab3dEf9h/photo.png" {
		t.Errorf("медиа-ассет = %+v, ожидался перенос старого", asset)
	}
	if qr.Data.VCard.FirstName != "Пётр" {
		t.Errorf("payload не обновлён: %+v", qr.Data.VCard)
	}
	if len(store.deletes)+len(store.uploads) != 0 {
		t.Error("хранилище не должно вызываться при переносе ассета")
	}
}

// --- Тесты Delete ---

// TestQRService_DeleteRemovesAssets проверяет удаление записи PDF:
// из хранилища удаляются изображение кода и медиа-файл.
func TestQRService_DeleteRemovesAssets(t *testing.T) {
	snapshot := &model.QR{
		ID:     "uuid-1",
		QRID:   "Ab3dEf9h",
		Type:   model.QRTypePDF,
		QRCode: model.Asset{Key: "Ab3dEf9h.png"},
		Data: model.Payload{Media: &model.MediaData{
			Title: "Каталог", Description: "Продукция",
			Media: &model.Asset{Key: "Ab3dEf9h/catalog.pdf"},
		}},
	}
	repo := &mockQRRepo{
		deleteFn: func(_ context.Context, id string) (*model.QR, error) {
			if id != "uuid-1" {
				return nil, repository.ErrNotFound
			}
			return snapshot, nil
		},
	}
	store := &mockStore{}
	svc := newTestQRService(repo, store)

	qr, err := svc.Delete(context.Background(), "uuid-1")
	if err != nil {
		t.Fatalf("Delete вернул ошибку: %v", err)
	}
	if qr.QRID != "Ab3dEf9h" {
		t.Errorf("QRID = %q", qr.QRID)
	}

	want := map[string]bool{
		"qr-codes/Ab3dEf9h.png":         true,
		"qr-media/Ab3dEf9h/catalog.pdf": true,
	}
	if len(store.deletes) != 2 {
		t.Fatalf("удалений = %d, ожидалось 2: %v", len(store.deletes), store.deletes)
	}
	for _, d := range store.deletes {
		if !want[d] {
			t.Errorf("неожиданное удаление %q", d)
		}
	}
}

// TestQRService_UpdateInvalidatesCache проверяет, что замена медиа-файла
// вытесняет из кэша ассетов и старый, и новый ключ.
func TestQRService_UpdateInvalidatesCache(t *testing.T) {
	repo := &mockQRRepo{
		getByIDFn: func(_ context.Context, _ string) (*model.QR, error) { return existingVCard(), nil },
		updateFn:  func(_ context.Context, _ *model.QR) error { return nil },
	}
	store := &mockStore{}
	cache := &mockInvalidator{}
	svc := newTestQRService(repo, store)
	svc.cache = cache

	_, err := svc.Update(context.Background(), "uuid-1", UpdateQRInput{
		File:      &UploadedFile{Filename: "new.png", ContentType: "image/png", Data: []byte{9}},
		UpdatedBy: "admin-2",
	})
	if err != nil {
		t.Fatalf("Update вернул ошибку: %v", err)
	}

	want := []string{"qr-media/Ab3dEf9h/photo.png", "qr-media/Ab3dEf9h/new.png"}
	if len(cache.invalidated) != len(want) {
		t.Fatalf("вытеснений = %d, ожидалось %d: %v", len(cache.invalidated), len(want), cache.invalidated)
	}
	for i, key := range want {
		if cache.invalidated[i] != key {
			t.Errorf("вытеснение[%d] = %q, ожидалось %q", i, cache.invalidated[i], key)
		}
	}
}

// TestQRService_DeleteInvalidatesCache проверяет, что удаление записи
// вытесняет объекты из кэша даже при ошибке удаления в хранилище.
func TestQRService_DeleteInvalidatesCache(t *testing.T) {
	repo := &mockQRRepo{
		deleteFn: func(_ context.Context, _ string) (*model.QR, error) {
			return &model.QR{
				ID: "uuid-1", QRID: "Ab3dEf9h",
				Type:   model.QRTypePDF,
				QRCode: model.Asset{Key: "Ab3dEf9h.png"},
				Data: model.Payload{Media: &model.MediaData{
					Title: "Каталог", Description: "Продукция",
					Media: &model.Asset{Key: "Ab3dEf9h/catalog.pdf"},
				}},
			}, nil
		},
	}
	store := &mockStore{
		deleteFn: func(_ context.Context, _, _ string) error {
			return fmt.Errorf("S3 недоступен")
		},
	}
	cache := &mockInvalidator{}
	svc := newTestQRService(repo, store)
	svc.cache = cache

	if _, err := svc.Delete(context.Background(), "uuid-1"); err != nil {
		t.Fatalf("Delete вернул ошибку: %v", err)
	}

	want := map[string]bool{
		"qr-codes/Ab3dEf9h.png":         true,
		"qr-media/Ab3dEf9h/catalog.pdf": true,
	}
	if len(cache.invalidated) != 2 {
		t.Fatalf("вытеснений = %d, ожидалось 2: %v", len(cache.invalidated), cache.invalidated)
	}
	for _, key := range cache.invalidated {
		if !want[key] {
			t.Errorf("неожиданное вытеснение %q", key)
		}
	}
}

// TestQRService_DeleteBestEffort проверяет, что ошибки удаления
// объектов не проваливают операцию удаления записи.
func TestQRService_DeleteBestEffort(t *testing.T) {
	repo := &mockQRRepo{
		deleteFn: func(_ context.Context, _ string) (*model.QR, error) {
			return &model.QR{
				ID: "uuid-1", QRID: "Ab3dEf9h",
				Type:   model.QRTypeWebsite,
				QRCode: model.Asset{Key: "Ab3dEf9h.png"},
				Data:   model.Payload{Website: "https://example.com"},
			}, nil
		},
	}
	store := &mockStore{
		deleteFn: func(_ context.Context, _, _ string) error {
			return fmt.Errorf("S3 недоступен")
		},
	}
	svc := newTestQRService(repo, store)

	if _, err := svc.Delete(context.Background(), "uuid-1"); err != nil {
		t.Fatalf("Delete вернул ошибку: %v (удаление объектов — best-effort)", err)
	}
}

// --- Тесты Resolve и RecordScan ---

// TestQRService_ResolveDisabled проверяет, что отключённая запись
// не разрешается по публичному идентификатору.
func TestQRService_ResolveDisabled(t *testing.T) {
	repo := &mockQRRepo{
		getByQRIDFn: func(_ context.Context, _ string) (*model.QR, error) {
			return &model.QR{QRID: "Ab3dEf9h", Status: false}, nil
		},
	}
	svc := newTestQRService(repo, &mockStore{})

	_, err := svc.Resolve(context.Background(), "Ab3dEf9h")
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Resolve = %v, ожидался ErrDisabled", err)
	}
}

// TestQRService_RecordScanDay проверяет, что сканирование попадает
// в bucket календарного дня UTC, в том числе на границе суток.
func TestQRService_RecordScanDay(t *testing.T) {
	var capturedDay string
	repo := &mockQRRepo{
		recordScanFn: func(_ context.Context, _, day string) (*model.QR, error) {
			capturedDay = day
			return &model.QR{QRID: "Ab3dEf9h", ScanCount: 1}, nil
		},
	}
	svc := newTestQRService(repo, &mockStore{})

	// 23:59 UTC
	svc.now = func() time.Time {
		return time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)
	}
	if _, err := svc.RecordScan(context.Background(), "Ab3dEf9h"); err != nil {
		t.Fatalf("RecordScan вернул ошибку: %v", err)
	}
	if capturedDay != "2025-03-10" {
		t.Errorf("day = %q, ожидалось 2025-03-10", capturedDay)
	}

	// Минутой позже — уже следующий день
	svc.now = func() time.Time {
		return time.Date(2025, 3, 11, 0, 0, 59, 0, time.UTC)
	}
	if _, err := svc.RecordScan(context.Background(), "Ab3dEf9h"); err != nil {
		t.Fatalf("RecordScan вернул ошибку: %v", err)
	}
	if capturedDay != "2025-03-11" {
		t.Errorf("day = %q, ожидалось 2025-03-11", capturedDay)
	}
}

// TestQRService_RecordScanNotFound проверяет, что отсутствующая или
// отключённая запись даёт ErrNotFound.
func TestQRService_RecordScanNotFound(t *testing.T) {
	svc := newTestQRService(&mockQRRepo{}, &mockStore{})

	_, err := svc.RecordScan(context.Background(), "missing1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordScan = %v, ожидался ErrNotFound", err)
	}
}

// --- Тесты List ---

// TestQRService_ListPagination проверяет метаданные пагинации:
// 25 записей, страница 2, лимит 10 → totalPages 3.
func TestQRService_ListPagination(t *testing.T) {
	repo := &mockQRRepo{
		listFn: func(_ context.Context, _ repository.QRListFilters, limit, offset int) ([]*model.QR, int, error) {
			if limit != 10 {
				t.Errorf("limit = %d, ожидался 10", limit)
			}
			if offset != 10 {
				t.Errorf("offset = %d, ожидался 10 (страница 2)", offset)
			}
			qrs := make([]*model.QR, 10)
			for i := range qrs {
				qrs[i] = &model.QR{QRID: fmt.Sprintf("qr%05d", i)}
			}
			return qrs, 25, nil
		},
	}
	svc := newTestQRService(repo, &mockStore{})

	qrs, meta, err := svc.List(context.Background(), repository.QRListFilters{}, 2, 10)
	if err != nil {
		t.Fatalf("List вернул ошибку: %v", err)
	}

	if len(qrs) != 10 {
		t.Errorf("записей = %d, ожидалось 10", len(qrs))
	}
	if meta.Total != 25 || meta.Page != 2 || meta.Limit != 10 || meta.TotalPages != 3 {
		t.Errorf("meta = %+v, ожидалось {25 2 10 3}", meta)
	}
}

// TestQRService_ListNormalizesParams проверяет нормализацию
// некорректных параметров пагинации.
func TestQRService_ListNormalizesParams(t *testing.T) {
	repo := &mockQRRepo{
		listFn: func(_ context.Context, _ repository.QRListFilters, limit, offset int) ([]*model.QR, int, error) {
			if limit != 10 || offset != 0 {
				t.Errorf("limit/offset = %d/%d, ожидалось 10/0", limit, offset)
			}
			return nil, 0, nil
		},
	}
	svc := newTestQRService(repo, &mockStore{})

	_, meta, err := svc.List(context.Background(), repository.QRListFilters{}, -5, 0)
	if err != nil {
		t.Fatalf("List вернул ошибку: %v", err)
	}
	if meta.Page != 1 {
		t.Errorf("Page = %d, ожидалась 1", meta.Page)
	}
	if meta.TotalPages != 0 {
		t.Errorf("TotalPages = %d, ожидалось 0 для пустого списка", meta.TotalPages)
	}
}

// TestMediaKey проверяет построение ключей медиа-объектов.
func TestMediaKey(t *testing.T) {
	key := mediaKey("Ab3dEf9h", "каталог 2025.pdf")
	if !strings.HasPrefix(key, "Ab3dEf9h/") {
		t.Errorf("ключ %q должен начинаться с префикса qrId", key)
	}
}
