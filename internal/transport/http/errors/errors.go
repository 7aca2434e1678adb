// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает ошибку ядра (internal/autherr),
// а на выход даёт:
//   - HTTP-статус по классу ошибки;
//   - тело {"error": string, "details"?: [string]} без утечки внутренних причин.
//
// Маппинг классов:
//   - validation -> 400 (с details);
//   - authentication -> 401;
//   - authorization -> 403;
//   - not_found -> 404;
//   - conflict -> 409;
//   - rate_limit -> 429;
//   - прочее -> 500 "Internal server error", причина пишется в лог.
package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/identity-service/internal/autherr"
	logctx "github.com/pribylovaa/identity-service/internal/pkg/log"
)

// MsgInternal — единственное сообщение, которое клиент видит при 500.
const MsgInternal = "Internal server error"

// ErrorResponse — корневой объект ответа об ошибке.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500, чтобы не маскировать баг;
//   - ошибка без *autherr.Error в цепочке — 500;
//   - иначе статус выбирается по Kind, сообщение берётся из Message.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, ErrorResponse{Error: MsgInternal}
	}

	e := autherr.As(err)
	status := statusOf(e.Kind)
	if status == http.StatusInternalServerError || e.Message == "" {
		return status, ErrorResponse{Error: MsgInternal}
	}

	resp := ErrorResponse{Error: e.Message}
	if e.Kind == autherr.KindValidation && len(e.Details) > 0 {
		resp.Details = append([]string(nil), e.Details...)
	}

	return status, resp
}

// WriteError — хелпер для HTTP-хендлеров и мидлваров.
// Для 500 полная причина пишется в request-scoped лог.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if status == http.StatusInternalServerError {
		cause := "<nil>"
		if err != nil {
			cause = err.Error()
		}

		logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "http_internal_error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("err", cause),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func statusOf(k autherr.Kind) int {
	switch k {
	case autherr.KindValidation:
		return http.StatusBadRequest
	case autherr.KindAuthentication:
		return http.StatusUnauthorized
	case autherr.KindAuthorization:
		return http.StatusForbidden
	case autherr.KindNotFound:
		return http.StatusNotFound
	case autherr.KindConflict:
		return http.StatusConflict
	case autherr.KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
