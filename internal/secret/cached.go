package secret

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pribylovaa/identity-service/internal/autherr"
	"github.com/pribylovaa/identity-service/internal/pkg/log"

	"github.com/sethvargo/go-retry"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 200 * time.Millisecond
)

// Cached кэширует первое успешно полученное значение каждого секрета на всё
// время жизни процесса. Вызовы сериализуются, поэтому конкурентные вызывающие
// дожидаются одного запроса к провайдеру. Ошибки не кэшируются.
type Cached struct {
	next     Provider
	attempts int
	backoff  time.Duration

	mu     sync.Mutex
	values map[string][]byte
}

// CachedOption настраивает Cached.
type CachedOption func(*Cached)

// WithAttempts задаёт общее число попыток (>= 1).
func WithAttempts(n int) CachedOption {
	return func(c *Cached) {
		if n >= 1 {
			c.attempts = n
		}
	}
}

// WithBackoff задаёт базовую паузу экспоненциального ретрая.
func WithBackoff(d time.Duration) CachedOption {
	return func(c *Cached) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// NewCached оборачивает провайдер.
func NewCached(next Provider, opts ...CachedOption) *Cached {
	c := &Cached{
		next:     next,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		values:   make(map[string][]byte),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SigningSecret возвращает закэшированное значение или получает его.
// ErrNotFound и ErrEmpty не повторяются. После исчерпания попыток
// возвращается autherr.Secret (internal), кэш остаётся пустым.
func (c *Cached) SigningSecret(ctx context.Context, name string) ([]byte, error) {
	const op = "secret.cached.SigningSecret"

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.values[name]; ok {
		return append([]byte(nil), v...), nil
	}

	lg := log.From(ctx)

	var value []byte
	backoff := retry.WithMaxRetries(uint64(c.attempts-1), retry.NewExponential(c.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := c.next.SigningSecret(ctx, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmpty) {
				return err
			}

			lg.Warn("secret_fetch_retry",
				slog.String("op", op),
				slog.String("name", name),
				slog.String("err", err.Error()),
			)
			return retry.RetryableError(err)
		}

		if len(v) == 0 {
			return ErrEmpty
		}

		value = v
		return nil
	})
	if err != nil {
		lg.Error("secret_fetch_failed",
			slog.String("op", op),
			slog.String("name", name),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, autherr.Secret(err))
	}

	c.values[name] = append([]byte(nil), value...)
	lg.Info("secret_fetched", slog.String("name", name))

	return value, nil
}
