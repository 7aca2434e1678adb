// token выпускает и проверяет подписанные JWT (HS256) двух типов:
// access (1 час) и refresh (7 дней).
//
// Ключ и алгоритм фиксируются при создании Manager и не меняются за время его
// жизни. Manager не хранит изменяемого состояния и безопасен для
// конкурентного использования.
//
// Verify сам проверяет claim "type": refresh-токен, предъявленный как access,
// отвергается так же, как просроченный или поддельный.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/identity-service/internal/autherr"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTTL — время жизни access-токена.
	AccessTTL = time.Hour
	// RefreshTTL — время жизни refresh-токена.
	RefreshTTL = 7 * 24 * time.Hour
)

// Type — значение claim "type".
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// ErrEmptyKey — ключ подписи не задан.
var ErrEmptyKey = errors.New("token: empty signing key")

// Claims — проверенное содержимое токена: *AccessClaims или *RefreshClaims.
type Claims interface {
	jwt.Claims
	TokenType() Type
	subject() string
}

// AccessClaims — содержимое access-токена.
type AccessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Type   Type   `json:"type"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) TokenType() Type { return TypeAccess }
func (c *AccessClaims) subject() string { return c.UserID }

// RefreshClaims — содержимое refresh-токена; e-mail в него не кладётся.
type RefreshClaims struct {
	UserID string `json:"userId"`
	Type   Type   `json:"type"`
	jwt.RegisteredClaims
}

func (c *RefreshClaims) TokenType() Type { return TypeRefresh }
func (c *RefreshClaims) subject() string { return c.UserID }

// ExtractUserID возвращает userId из проверенных claims.
func ExtractUserID(c Claims) string {
	if c == nil {
		return ""
	}

	return c.subject()
}

// Manager выпускает и проверяет токены одним ключом.
type Manager struct {
	key []byte
	now func() time.Time
}

// Option настраивает Manager.
type Option func(*Manager)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New создаёт Manager. Ключ копируется.
func New(key []byte, opts ...Option) (*Manager, error) {
	const op = "token.token.New"

	if len(key) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyKey)
	}

	m := &Manager{
		key: append([]byte(nil), key...),
		now: time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// IssueAccessToken выпускает access-токен {userId, email, type, iat, exp=iat+1h}.
func (m *Manager) IssueAccessToken(userID, email string) (string, error) {
	const op = "token.token.IssueAccessToken"

	now := m.now().UTC()
	claims := &AccessClaims{
		UserID: userID,
		Email:  email,
		Type:   TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
		},
	}

	signed, err := m.sign(claims)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// IssueRefreshToken выпускает refresh-токен {userId, type, iat, exp=iat+7d}.
func (m *Manager) IssueRefreshToken(userID string) (string, error) {
	const op = "token.token.IssueRefreshToken"

	now := m.now().UTC()
	claims := &RefreshClaims{
		UserID: userID,
		Type:   TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTTL)),
		},
	}

	signed, err := m.sign(claims)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

func (m *Manager) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", autherr.Crypto(err)
	}

	return signed, nil
}

// rawClaims — общий вид обоих типов до проверки "type".
type rawClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Type   Type   `json:"type"`
	jwt.RegisteredClaims
}

// Verify проверяет подпись, срок (exp <= now — истёк) и тип токена.
// Любая неудача даёт autherr.ErrInvalidToken с причиной внутри.
func (m *Manager) Verify(tokenStr string, want Type) (Claims, error) {
	const op = "token.token.Verify"

	var raw rawClaims
	_, err := jwt.ParseWithClaims(tokenStr, &raw,
		func(*jwt.Token) (any, error) { return m.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, invalid(err))
	}

	if raw.Type != want {
		return nil, fmt.Errorf("%s: %w", op, invalid(fmt.Errorf("token type %q, want %q", raw.Type, want)))
	}

	if raw.UserID == "" {
		return nil, fmt.Errorf("%s: %w", op, invalid(errors.New("missing userId")))
	}

	switch want {
	case TypeAccess:
		return &AccessClaims{UserID: raw.UserID, Email: raw.Email, Type: raw.Type, RegisteredClaims: raw.RegisteredClaims}, nil
	case TypeRefresh:
		return &RefreshClaims{UserID: raw.UserID, Type: raw.Type, RegisteredClaims: raw.RegisteredClaims}, nil
	default:
		return nil, fmt.Errorf("%s: %w", op, invalid(fmt.Errorf("unknown token type %q", want)))
	}
}

// VerifyAccess — Verify(token, TypeAccess) с типизированным результатом.
func (m *Manager) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	c, err := m.Verify(tokenStr, TypeAccess)
	if err != nil {
		return nil, err
	}

	return c.(*AccessClaims), nil
}

// VerifyRefresh — Verify(token, TypeRefresh) с типизированным результатом.
func (m *Manager) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	c, err := m.Verify(tokenStr, TypeRefresh)
	if err != nil {
		return nil, err
	}

	return c.(*RefreshClaims), nil
}

func invalid(cause error) *autherr.Error {
	return &autherr.Error{
		Kind:    autherr.KindAuthentication,
		Message: autherr.ErrInvalidToken.Message,
		Cause:   cause,
	}
}
