// secret получает ключ подписи JWT из внешнего хранилища секретов.
//
// Провайдеры:
//   - Static — значение из конфига/ENV (JWT_SECRET);
//   - AWS — AWS Secrets Manager (GetSecretValue);
//   - Object — объект в S3-совместимом бакете (MinIO).
//
// Cached оборачивает любой провайдер: первое успешное значение живёт до
// конца процесса, сбои повторяются с экспоненциальной паузой и не кэшируются.
package secret

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound — секрет с таким именем отсутствует.
	ErrNotFound = errors.New("secret: not found")
	// ErrEmpty — секрет найден, но пуст.
	ErrEmpty = errors.New("secret: empty value")
)

// Provider возвращает значение секрета по имени.
type Provider interface {
	SigningSecret(ctx context.Context, name string) ([]byte, error)
}

// Static — провайдер с заранее известным значением (ENV/конфиг).
// Имя секрета игнорируется.
type Static struct {
	value []byte
}

// NewStatic создаёт Static.
func NewStatic(value string) *Static {
	return &Static{value: []byte(value)}
}

func (s *Static) SigningSecret(_ context.Context, _ string) ([]byte, error) {
	const op = "secret.secret.Static.SigningSecret"

	if len(s.value) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmpty)
	}

	return append([]byte(nil), s.value...), nil
}
