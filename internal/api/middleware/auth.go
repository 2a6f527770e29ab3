// auth.go — JWT middleware аутентификации QR Store.
// Deserialize извлекает identity из access-токена; при истёкшем access
// и валидном refresh (заголовок x-refresh-token) прозрачно выпускает
// новый access-токен и отдаёт его клиенту в заголовке x-access-token.
// RequireUser закрывает защищённые маршруты: без identity — 403.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/goqrstore/internal/api/errors"
	"github.com/bigkaa/goqrstore/internal/token"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyIdentity — identity аутентифицированного администратора
// в контексте запроса.
const ContextKeyIdentity contextKey = "admin_identity"

// HeaderRefreshToken — заголовок с refresh-токеном клиента.
const HeaderRefreshToken = "x-refresh-token"

// HeaderAccessToken — заголовок ответа с перевыпущенным access-токеном.
const HeaderAccessToken = "x-access-token"

// IdentityFromContext возвращает identity из контекста запроса
// или nil для неаутентифицированного запроса.
func IdentityFromContext(ctx context.Context) *token.Identity {
	id, _ := ctx.Value(ContextKeyIdentity).(*token.Identity)
	return id
}

// bearerToken извлекает токен из заголовка Authorization.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimPrefix(auth, prefix)
}

// Deserialize возвращает middleware, помещающий identity администратора
// в контекст запроса. Запрос без токена или с невалидным токеном
// проходит дальше неаутентифицированным — отказ выдаёт RequireUser.
func Deserialize(tokens *token.Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access := bearerToken(r)
			if access == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Verify(access)
			if err == nil {
				ctx := context.WithValue(r.Context(), ContextKeyIdentity, &claims.Identity)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// Истёкший access: пробуем прозрачное обновление по refresh-токену.
			if errors.Is(err, token.ErrExpired) {
				refresh := r.Header.Get(HeaderRefreshToken)
				if refresh == "" {
					next.ServeHTTP(w, r)
					return
				}

				refreshClaims, rerr := tokens.Verify(refresh)
				if rerr != nil {
					next.ServeHTTP(w, r)
					return
				}

				newAccess, ierr := tokens.IssueAccess(refreshClaims.Identity)
				if ierr != nil {
					logger.Error("Перевыпуск access-токена не удался",
						slog.String("admin_id", refreshClaims.Identity.AdminID),
						slog.String("error", ierr.Error()),
					)
					next.ServeHTTP(w, r)
					return
				}

				w.Header().Set(HeaderAccessToken, newAccess)
				ctx := context.WithValue(r.Context(), ContextKeyIdentity, &refreshClaims.Identity)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser закрывает маршрут: запрос без identity получает 403.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()) == nil {
			apierrors.Forbidden(w, "требуется аутентификация")
			return
		}
		next.ServeHTTP(w, r)
	})
}
