// auth.go — обработчики аутентификации: вход и текущий администратор.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goqrstore/internal/api/errors"
	"github.com/bigkaa/goqrstore/internal/api/middleware"
	"github.com/bigkaa/goqrstore/internal/service"
)

// AuthHandler — обработчик endpoints аутентификации.
type AuthHandler struct {
	admins *service.AdminService
	logger *slog.Logger
}

// NewAuthHandler создаёт обработчик аутентификации.
func NewAuthHandler(admins *service.AdminService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		admins: admins,
		logger: logger.With(slog.String("handler", "auth")),
	}
}

// signInRequest — тело запроса входа.
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn обрабатывает POST /api/v1/auth/sign-in.
// Проверяет учётные данные и возвращает пару JWT.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}
	if req.Email == "" || req.Password == "" {
		apierrors.ValidationError(w, "email и password обязательны")
		return
	}

	_, pair, err := h.admins.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			apierrors.Unauthorized(w, "неверный email или пароль")
			return
		}
		h.logger.Error("Ошибка входа", slog.String("error", err.Error()))
		apierrors.InternalError(w, "внутренняя ошибка")
		return
	}

	writeSuccess(w, http.StatusOK, "Успешный вход", pair)
}

// Me обрабатывает GET /api/v1/auth/me.
// Возвращает запись текущего администратора.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		apierrors.Forbidden(w, "требуется аутентификация")
		return
	}

	admin, err := h.admins.Get(r.Context(), identity.AdminID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			// Токен валиден, но администратор удалён.
			apierrors.Forbidden(w, "администратор не найден")
			return
		}
		h.logger.Error("Ошибка получения текущего администратора", slog.String("error", err.Error()))
		apierrors.InternalError(w, "внутренняя ошибка")
		return
	}

	writeSuccess(w, http.StatusOK, "Текущий администратор", admin)
}
