// autherr описывает таксономию ошибок ядра аутентификации.
//
// Каждая ошибка несёт Kind (класс, по которому транспорт выбирает HTTP-статус),
// безопасное для клиента сообщение и, для валидации, список деталей.
// Внутренняя причина (Cause) доступна через errors.Unwrap только для логов и
// наружу не отдаётся.
//
// Классы и статусы:
//   - KindValidation -> 400 (сообщения конкретные, их безопасно показывать);
//   - KindAuthentication -> 401 (всегда одно общее сообщение);
//   - KindAuthorization -> 403;
//   - KindNotFound -> 404;
//   - KindConflict -> 409;
//   - KindRateLimit -> 429 (выставляется внешним слоем, ядро его не производит);
//   - KindInternal -> 500 (store/crypto/secret; сообщение всегда общее).
package autherr

import (
	"errors"
	"strings"
)

// Kind — класс ошибки.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindRateLimit
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "internal"
	}
}

// Источники внутренних ошибок (для логов).
const (
	SourceStore  = "store"
	SourceCrypto = "crypto"
	SourceSecret = "secret"
)

// Error — типизированная ошибка ядра.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	// Source заполняется только для KindInternal: store/crypto/secret.
	Source string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())

	if e.Source != "" {
		b.WriteString("[" + e.Source + "]")
	}

	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}

	if len(e.Details) > 0 {
		b.WriteString(" (" + strings.Join(e.Details, "; ") + ")")
	}

	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is сравнивает по классу; если у цели задано сообщение — ещё и по сообщению.
// Поэтому errors.Is(err, ErrAuthentication) совпадает с любой 401,
// а errors.Is(err, ErrInvalidCredentials) — только с конкретной.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	if t.Source != "" && t.Source != e.Source {
		return false
	}

	return t.Message == "" || t.Message == e.Message
}

// Сентинелы классов — для errors.Is по классу.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrAuthorization  = &Error{Kind: KindAuthorization}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrRateLimit      = &Error{Kind: KindRateLimit}
	ErrInternal       = &Error{Kind: KindInternal}

	ErrStore  = &Error{Kind: KindInternal, Source: SourceStore}
	ErrCrypto = &Error{Kind: KindInternal, Source: SourceCrypto}
	ErrSecret = &Error{Kind: KindInternal, Source: SourceSecret}
)

// Конкретные ошибки с фиксированными сообщениями.
var (
	// ErrInvalidCredentials — e-mail не найден ИЛИ пароль неверен; причины неразличимы.
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Message: "Invalid credentials"}
	// ErrInvalidToken — подпись/срок/формат/тип токена (access, refresh или reset).
	ErrInvalidToken = &Error{Kind: KindAuthentication, Message: "Invalid or expired token"}
	// ErrAuthRequired — заголовок Authorization отсутствует.
	ErrAuthRequired = &Error{Kind: KindAuthentication, Message: "Authentication required"}
	// ErrForbidden — токен валиден, но принадлежит другому пользователю.
	ErrForbidden = &Error{Kind: KindAuthorization, Message: "Forbidden"}
	// ErrEmailTaken — e-mail уже зарегистрирован.
	ErrEmailTaken = &Error{Kind: KindConflict, Message: "Email already registered"}
	// ErrUserNotFound — пользователь из пути не найден.
	ErrUserNotFound = &Error{Kind: KindNotFound, Message: "User not found"}
	// ErrTooManyRequests — контракт для внешнего rate-limit слоя.
	ErrTooManyRequests = &Error{Kind: KindRateLimit, Message: "Too many requests"}
)

// Validation создаёт ошибку валидации со списком конкретных нарушений.
func Validation(details ...string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "Validation failed",
		Details: append([]string(nil), details...),
	}
}

// Store оборачивает нативную ошибку хранилища.
func Store(cause error) *Error {
	return &Error{Kind: KindInternal, Source: SourceStore, Message: "Internal server error", Cause: cause}
}

// Crypto оборачивает сбой криптопримитива (bcrypt, crypto/rand, подпись JWT).
func Crypto(cause error) *Error {
	return &Error{Kind: KindInternal, Source: SourceCrypto, Message: "Internal server error", Cause: cause}
}

// Secret оборачивает сбой получения ключа подписи.
func Secret(cause error) *Error {
	return &Error{Kind: KindInternal, Source: SourceSecret, Message: "Internal server error", Cause: cause}
}

// As достаёт *Error из цепочки; для «чужих» ошибок возвращает Store-подобную
// внутреннюю ошибку без источника, чтобы транспорт всегда имел класс.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{Kind: KindInternal, Message: "Internal server error", Cause: err}
}
