// assets.go — отдача бинарных ассетов: PNG-изображений кодов и
// медиа-файлов. Суффикс /download отдаёт объект как attachment.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goqrstore/internal/api/errors"
	"github.com/bigkaa/goqrstore/internal/objstore"
	"github.com/bigkaa/goqrstore/internal/service"
)

// AssetsHandler — обработчик endpoints отдачи ассетов.
type AssetsHandler struct {
	assets *service.AssetService
	logger *slog.Logger
}

// NewAssetsHandler создаёт обработчик ассетов.
func NewAssetsHandler(assets *service.AssetService, logger *slog.Logger) *AssetsHandler {
	return &AssetsHandler{
		assets: assets,
		logger: logger.With(slog.String("handler", "assets")),
	}
}

// assetKey извлекает ключ объекта из wildcard-сегмента пути.
// Суффикс /download означает отдачу как attachment.
func assetKey(r *http.Request) (key string, download bool) {
	key = chi.URLParam(r, "*")
	if strings.HasSuffix(key, "/download") {
		return strings.TrimSuffix(key, "/download"), true
	}
	return key, false
}

// writeObject записывает объект в ответ с его content-type.
func (h *AssetsHandler) writeObject(w http.ResponseWriter, obj *objstore.Object, download bool) {
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	if download {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", path.Base(obj.Key)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data)
}

// writeAssetError маппит ошибки сервисного слоя на HTTP-ответы.
func (h *AssetsHandler) writeAssetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "объект не найден")
	case errors.Is(err, service.ErrStoreUnavailable):
		apierrors.StoreUnavailable(w, "объектное хранилище недоступно")
	default:
		h.logger.Error("Ошибка отдачи ассета", slog.String("error", err.Error()))
		apierrors.InternalError(w, "внутренняя ошибка")
	}
}

// QRCode обрабатывает GET /api/v1/qrcode/* — PNG-изображение кода.
func (h *AssetsHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	key, download := assetKey(r)

	obj, err := h.assets.QRCodeImage(r.Context(), key)
	if err != nil {
		h.writeAssetError(w, err)
		return
	}
	h.writeObject(w, obj, download)
}

// Media обрабатывает GET /api/v1/media/* — медиа-файл записи.
func (h *AssetsHandler) Media(w http.ResponseWriter, r *http.Request) {
	key, download := assetKey(r)

	obj, err := h.assets.Media(r.Context(), key)
	if err != nil {
		h.writeAssetError(w, err)
		return
	}
	h.writeObject(w, obj, download)
}
