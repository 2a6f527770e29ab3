// qr.go — обработчики QR-записей: multipart создание и обновление,
// списки, публичное разрешение, регистрация сканирований,
// переключение статуса и удаление.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goqrstore/internal/api/errors"
	"github.com/bigkaa/goqrstore/internal/api/middleware"
	"github.com/bigkaa/goqrstore/internal/repository"
	"github.com/bigkaa/goqrstore/internal/service"
)

// allowedMediaTypes — допустимые content-type загружаемых медиа-файлов.
var allowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/pdf": true,
}

// QRHandler — обработчик endpoints QR-записей.
type QRHandler struct {
	qrs           *service.QRService
	maxUploadSize int64
	logger        *slog.Logger
}

// NewQRHandler создаёт обработчик QR-записей.
// maxUploadSize — максимальный размер медиа-файла в байтах.
func NewQRHandler(qrs *service.QRService, maxUploadSize int64, logger *slog.Logger) *QRHandler {
	return &QRHandler{
		qrs:           qrs,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("handler", "qr")),
	}
}

// writeQRError маппит ошибки сервисного слоя на HTTP-ответы.
func (h *QRHandler) writeQRError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "QR-запись не найдена")
	case errors.Is(err, service.ErrDisabled):
		apierrors.QRDisabled(w, "QR-запись отключена")
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		apierrors.StoreUnavailable(w, "объектное хранилище недоступно")
	default:
		h.logger.Error("Ошибка операции с QR-записью", slog.String("error", err.Error()))
		apierrors.InternalError(w, "внутренняя ошибка")
	}
}

// formFile извлекает медиа-файл из multipart-поля "file".
// Возвращает nil без ошибки, если поле отсутствует.
func (h *QRHandler) formFile(r *http.Request) (*service.UploadedFile, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения поля file: %w", err)
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		return nil, fmt.Errorf("файл превышает максимальный размер %d байт", h.maxUploadSize)
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedMediaTypes[contentType] {
		return nil, fmt.Errorf("недопустимый тип файла %q: разрешены jpeg, jpg, png, pdf", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if int64(len(data)) > h.maxUploadSize {
		return nil, fmt.Errorf("файл превышает максимальный размер %d байт", h.maxUploadSize)
	}

	return &service.UploadedFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Create обрабатывает POST /api/v1/qr.
// Multipart form: type, qrName, data (JSON payload), file (для медиа-типов).
func (h *QRHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	if err := r.ParseMultipartForm(h.maxUploadSize + (1 << 20)); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("ошибка парсинга multipart: %s", err.Error()))
		return
	}

	file, err := h.formFile(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	qr, err := h.qrs.Create(r.Context(), service.CreateQRInput{
		Type:      r.FormValue("type"),
		QRName:    r.FormValue("qrName"),
		Data:      []byte(r.FormValue("data")),
		File:      file,
		CreatedBy: identity.AdminID,
	})
	if err != nil {
		h.writeQRError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "QR-запись создана", qr)
}

// List обрабатывает GET /api/v1/qr.
// Query-параметры: page, limit, type (exact), qrName (partial match).
func (h *QRHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	var filters repository.QRListFilters
	if t := r.URL.Query().Get("type"); t != "" {
		filters.Type = &t
	}
	if name := r.URL.Query().Get("qrName"); name != "" {
		filters.QRName = &name
	}

	qrs, meta, err := h.qrs.List(r.Context(), filters, page, limit)
	if err != nil {
		h.writeQRError(w, err)
		return
	}

	writeList(w, "Список QR-записей", qrs, meta)
}

// Get обрабатывает GET /api/v1/qr/{id}.
func (h *QRHandler) Get(w http.ResponseWriter, r *http.Request) {
	qr, err := h.qrs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeQRError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "QR-запись", qr)
}

// Resolve обрабатывает GET /api/v1/qr/qrId/{qrId} (публичный).
// Возвращает запись по короткому идентификатору. Отключённая запись — 400.
func (h *QRHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	qr, err := h.qrs.Resolve(r.Context(), chi.URLParam(r, "qrId"))
	if err != nil {
		h.writeQRError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "QR-запись", qr)
}

// Scan обрабатывает PATCH /api/v1/qr/scan/{qrId} (публичный).
// Регистрирует сканирование и возвращает запись.
func (h *QRHandler) Scan(w http.ResponseWriter, r *http.Request) {
	qr, err := h.qrs.RecordScan(r.Context(), chi.URLParam(r, "qrId"))
	if err != nil {
		h.writeQRError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Сканирование зарегистрировано", qr)
}

// Update обрабатывает PUT /api/v1/qr/{id}.
// Multipart form: type, qrName, data, file — все поля опциональны.
func (h *QRHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	if err := r.ParseMultipartForm(h.maxUploadSize + (1 << 20)); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("ошибка парсинга multipart: %s", err.Error()))
		return
	}

	file, err := h.formFile(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	in := service.UpdateQRInput{
		File:      file,
		UpdatedBy: identity.AdminID,
	}
	if t := r.FormValue("type"); t != "" {
		in.Type = &t
	}
	if name := r.FormValue("qrName"); name != "" {
		in.QRName = &name
	}
	if data := r.FormValue("data"); data != "" {
		in.Data = []byte(data)
	}

	qr, err := h.qrs.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeQRError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "QR-запись обновлена", qr)
}

// ToggleStatus обрабатывает PATCH /api/v1/qr/toggle-status/{id}.
func (h *QRHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	qr, err := h.qrs.ToggleStatus(r.Context(), chi.URLParam(r, "id"), identity.AdminID)
	if err != nil {
		h.writeQRError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Статус переключён", qr)
}

// Delete обрабатывает DELETE /api/v1/qr/{id}.
func (h *QRHandler) Delete(w http.ResponseWriter, r *http.Request) {
	qr, err := h.qrs.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeQRError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "QR-запись удалена", qr)
}
