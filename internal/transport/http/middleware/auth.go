package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/identity-service/internal/autherr"
	logctx "github.com/pribylovaa/identity-service/internal/pkg/log"
	"github.com/pribylovaa/identity-service/internal/token"
	apierrors "github.com/pribylovaa/identity-service/internal/transport/http/errors"
)

// AccessVerifier проверяет access-токен (реализуется *token.Manager).
type AccessVerifier interface {
	VerifyAccess(tokenStr string) (*token.AccessClaims, error)
}

// AuthBearer извлекает Bearer-токен из Authorization и кладёт «сырой» токен
// в контекст (TokenFrom). Отсутствие или иной формат заголовка не ошибка:
// решение принимает RequireSelf.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if auth != "" {
				const prefix = "Bearer "
				if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
					tok := strings.TrimSpace(auth[len(prefix):])

					if tok != "" {
						ctx := context.WithValue(r.Context(), ctxAuthToken, tok)
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelf пропускает запрос, только если access-токен принадлежит
// пользователю из параметра пути param:
//   - токена нет -> 401 "Authentication required";
//   - токен не проходит VerifyAccess (подпись, срок, формат, тип) -> 401 "Invalid or expired token";
//   - userId токена не совпадает с путём -> 403 "Forbidden".
//
// Должен стоять после AuthBearer и внутри маршрута chi (иначе URLParam пуст).
func RequireSelf(v AccessVerifier, param string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := TokenFrom(r.Context())
			if !ok {
				apierrors.WriteError(w, r, autherr.ErrAuthRequired)
				return
			}

			claims, err := v.VerifyAccess(tok)
			if err != nil {
				logctx.From(r.Context()).Debug("access_token_rejected",
					slog.String("err", err.Error()),
				)
				apierrors.WriteError(w, r, autherr.ErrInvalidToken)
				return
			}

			userID := token.ExtractUserID(claims)
			if userID == "" || userID != chi.URLParam(r, param) {
				logctx.From(r.Context()).Warn("access_forbidden",
					slog.String("user_id", userID),
					slog.String("path", r.URL.Path),
				)
				apierrors.WriteError(w, r, autherr.ErrForbidden)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = logctx.With(ctx, slog.String("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
