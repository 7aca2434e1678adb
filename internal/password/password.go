// password хэширует и проверяет пароли (bcrypt) и проверяет их сложность.
package password

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/pribylovaa/identity-service/internal/autherr"
	"github.com/pribylovaa/identity-service/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost — фиксированная стоимость bcrypt для сервиса.
const DefaultCost = 10

// MinLength — минимальная длина пароля в символах.
const MinLength = 8

// maxBytes — предел bcrypt: более длинный ввод не хэшируется.
const maxBytes = 72

// Сообщения о нарушении правил сложности, по одному на правило.
const (
	MsgTooShort    = "Password must be at least 8 characters long"
	MsgNoUppercase = "Password must contain at least one uppercase letter"
	MsgNoLowercase = "Password must contain at least one lowercase letter"
	MsgNoDigit     = "Password must contain at least one number"
	MsgTooLong     = "Password must be at most 72 bytes long"
)

var bcryptShape = regexp.MustCompile(`^\$2[abxy]?\$\d{2}\$[./A-Za-z0-9]{53}$`)

// Hasher — bcrypt с неизменной в течение жизни экземпляра стоимостью.
type Hasher struct {
	cost int
}

// New создаёт Hasher. Стоимость вне допустимого bcrypt-диапазона заменяется на DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	return &Hasher{cost: cost}
}

// Cost возвращает стоимость, с которой работает Hasher.
func (h *Hasher) Cost() int { return h.cost }

// Hash хэширует пароль. Ошибка возможна только при сбое примитива
// (или при вводе длиннее 72 байт, который отсекается проверкой сложности раньше).
func (h *Hasher) Hash(plain string) (string, error) {
	const op = "password.Hash"

	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, autherr.Crypto(err))
	}

	return string(b), nil
}

// Verify сравнивает пароль с хэшем средствами bcrypt.
// Несовпадение и битый хэш дают false, а не ошибку.
func (h *Hasher) Verify(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// IsBcryptHash проверяет форму bcrypt-строки ($2a$10$<53 символа>).
func IsBcryptHash(s string) bool {
	return bcryptShape.MatchString(s)
}

// ValidateStrength проверяет правила сложности и возвращает ВСЕ нарушения.
func ValidateStrength(pw string) models.ValidationResult {
	var errs []string

	if utf8.RuneCountInString(pw) < MinLength {
		errs = append(errs, MsgTooShort)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		errs = append(errs, MsgNoUppercase)
	}

	if !hasLower {
		errs = append(errs, MsgNoLowercase)
	}

	if !hasDigit {
		errs = append(errs, MsgNoDigit)
	}

	if len(pw) > maxBytes {
		errs = append(errs, MsgTooLong)
	}

	return models.Invalid(errs...)
}
