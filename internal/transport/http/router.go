// http собирает REST-слой сервиса: chi-роутер, мидлвары, хендлеры
// и служебные эндпоинты /livez, /healthz, /metrics.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/identity-service/internal/metrics"
	"github.com/pribylovaa/identity-service/internal/transport/http/handlers"
	"github.com/pribylovaa/identity-service/internal/transport/http/middleware"
)

// Pinger — проверка доступности хранилища для /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// Metrics — HTTP-метрики; nil отключает сбор.
	Metrics *metrics.HTTP
	// Gatherer — источник для /metrics; nil — prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Health — зависимость для /healthz; nil — только флаг готовности.
	Health Pinger
	// Ready — флаг готовности (1 — готов); nil считается «всегда готов».
	Ready *atomic.Int32
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.Service, verifier middleware.AccessVerifier, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Metrics != nil {
		root.Use(opts.Metrics.Middleware)
	}

	registerProbes(root, opts)

	root.Group(func(r chi.Router) {
		r.Use(middleware.AuthBearer())
		if opts.Timeout > 0 {
			r.Use(middleware.Timeout(opts.Timeout))
		}

		registerRoutes(r, handlers.New(svc), verifier)
	})

	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, verifier middleware.AccessVerifier) {
	// auth (публичные)
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/password-reset/request", h.RequestPasswordReset)
	r.Post("/auth/password-reset/complete", h.CompletePasswordReset)

	// users (только владелец)
	self := r.With(middleware.RequireSelf(verifier, handlers.UserIDParam))
	self.Get("/users/{"+handlers.UserIDParam+"}", h.GetProfile)
	self.Put("/users/{"+handlers.UserIDParam+"}", h.UpdateProfile)
}

func registerProbes(r chi.Router, opts Options) {
	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Ready != nil && opts.Ready.Load() != 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		if opts.Health != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			if err := opts.Health.Ping(ctx); err != nil {
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
