// validate — проверка формы e-mail и входных JSON-тел эндпоинтов.
//
// Набор видов запросов закрыт (Kind); для каждого вида известен список
// обязательных строковых полей. Отсутствующее поле и поле неверного типа дают
// по одному конкретному сообщению; неизвестные поля игнорируются.
package validate

import (
	"bytes"
	"encoding/json"
	"regexp"

	"github.com/pribylovaa/identity-service/internal/models"
)

// MsgNotObject — тело не является JSON-объектом.
const MsgNotObject = "Request body must be a JSON object"

// MsgInvalidEmail — e-mail не прошёл проверку формы.
const MsgInvalidEmail = "Invalid email format"

const maxEmailLen = 254

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@.]+(\.[^\s@.]+)+$`)

// Email проверяет форму адреса: локальная часть, '@', домен с точкой. Без DNS.
func Email(s string) bool {
	if len(s) == 0 || len(s) > maxEmailLen {
		return false
	}

	return emailShape.MatchString(s)
}

// Kind — вид входного запроса.
type Kind string

const (
	KindRegister      Kind = "register"
	KindLogin         Kind = "login"
	KindRefresh       Kind = "refresh"
	KindResetRequest  Kind = "reset-request"
	KindResetComplete Kind = "reset-complete"
	KindProfileUpdate Kind = "profile-update"
)

// fields — обязательные строковые поля по видам (в порядке сообщений).
var fields = map[Kind][]string{
	KindRegister:      {"email", "password"},
	KindLogin:         {"email", "password"},
	KindRefresh:       {"refreshToken"},
	KindResetRequest:  {"email"},
	KindResetComplete: {"resetToken", "newPassword"},
	KindProfileUpdate: {"displayName"},
}

// Request — закрытое множество типизированных запросов.
type Request interface {
	models.RegisterRequest |
		models.LoginRequest |
		models.RefreshRequest |
		models.ResetRequest |
		models.ResetCompleteRequest |
		models.ProfileUpdateRequest
}

// KindOf возвращает вид для типа запроса.
func KindOf[T Request]() Kind {
	var zero T
	switch any(zero).(type) {
	case models.RegisterRequest:
		return KindRegister
	case models.LoginRequest:
		return KindLogin
	case models.RefreshRequest:
		return KindRefresh
	case models.ResetRequest:
		return KindResetRequest
	case models.ResetCompleteRequest:
		return KindResetComplete
	default:
		return KindProfileUpdate
	}
}

// Payload проверяет тело запроса вида kind: объект, наличие и тип полей.
// Неизвестный kind считается ошибкой программиста и даёт невалидный результат.
func Payload(kind Kind, body []byte) models.ValidationResult {
	names, ok := fields[kind]
	if !ok {
		return models.Invalid("Unsupported request kind: " + string(kind))
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return models.Invalid(MsgNotObject)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return models.Invalid(MsgNotObject)
	}

	var errs []string
	for _, name := range names {
		raw, present := obj[name]
		if !present || string(bytes.TrimSpace(raw)) == "null" {
			errs = append(errs, models.MissingField(name))
			continue
		}

		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			errs = append(errs, models.WrongType(name, "string"))
			continue
		}

		if s == "" {
			errs = append(errs, models.MissingField(name))
		}
	}

	return models.Invalid(errs...)
}

// Decode проверяет тело и, если оно валидно, раскладывает его в типизированный запрос.
func Decode[T Request](body []byte) (T, models.ValidationResult) {
	var out T

	res := Payload(KindOf[T](), body)
	if !res.Valid {
		return out, res
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, models.Invalid(MsgNotObject)
	}

	return out, res
}
