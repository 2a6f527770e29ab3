// admins.go — обработчики CRUD администраторов.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goqrstore/internal/api/errors"
	"github.com/bigkaa/goqrstore/internal/repository"
	"github.com/bigkaa/goqrstore/internal/service"
)

// AdminsHandler — обработчик endpoints управления администраторами.
type AdminsHandler struct {
	admins *service.AdminService
	logger *slog.Logger
}

// NewAdminsHandler создаёт обработчик администраторов.
func NewAdminsHandler(admins *service.AdminService, logger *slog.Logger) *AdminsHandler {
	return &AdminsHandler{
		admins: admins,
		logger: logger.With(slog.String("handler", "admins")),
	}
}

// pageParams извлекает параметры пагинации из query string.
// Отсутствующие или некорректные значения заменяются значениями по умолчанию.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

// writeAdminError маппит ошибки сервисного слоя на HTTP-ответы.
func (h *AdminsHandler) writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "администратор не найден")
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	default:
		h.logger.Error("Ошибка операции с администратором", slog.String("error", err.Error()))
		apierrors.InternalError(w, "внутренняя ошибка")
	}
}

// Create обрабатывает POST /api/v1/admins.
func (h *AdminsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateAdminInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}

	admin, err := h.admins.Create(r.Context(), in)
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Администратор создан", admin)
}

// List обрабатывает GET /api/v1/admins.
// Query-параметры: page, limit, username (partial match), email (exact).
func (h *AdminsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	var filters repository.AdminListFilters
	if username := r.URL.Query().Get("username"); username != "" {
		filters.Username = &username
	}
	if email := r.URL.Query().Get("email"); email != "" {
		filters.Email = &email
	}

	admins, meta, err := h.admins.List(r.Context(), filters, page, limit)
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	writeList(w, "Список администраторов", admins, meta)
}

// Get обрабатывает GET /api/v1/admins/{id}.
func (h *AdminsHandler) Get(w http.ResponseWriter, r *http.Request) {
	admin, err := h.admins.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Администратор", admin)
}

// Update обрабатывает PUT /api/v1/admins/{id}.
func (h *AdminsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateAdminInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}

	admin, err := h.admins.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Администратор обновлён", admin)
}

// Delete обрабатывает DELETE /api/v1/admins/{id}.
func (h *AdminsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	admin, err := h.admins.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeAdminError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Администратор удалён", admin)
}
