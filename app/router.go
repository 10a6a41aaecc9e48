package app

import (
	"context"
	"net/http"
	"time"

	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qr-serverless/internal/auth"
	"qr-serverless/internal/config"
	"qr-serverless/internal/httpx"
	"qr-serverless/internal/observability"
	"qr-serverless/internal/qrcode"
	"qr-serverless/internal/render"
	"qr-serverless/internal/symbol"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies are the stores and settings the HTTP surface is built from.
type Dependencies struct {
	Config     config.Config
	Logger     *observability.Logger
	Identities auth.IdentityStore
	Records    qrcode.RecordStore
	Health     Pinger
	HashCost   int
}

func NewHandler(deps Dependencies) (http.Handler, error) {
	renderer, err := render.NewRenderer(render.Geometry{
		BoxSize:       deps.Config.Render.BoxSize,
		Border:        deps.Config.Render.Border,
		RoundedRadius: deps.Config.Render.RoundedRadius,
		GapRatio:      deps.Config.Render.GapRatio,
	})
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenService(deps.Config.JWTSecret, deps.Config.AccessTokenTTL)
	authService := auth.NewService(deps.Identities, tokens)
	if deps.HashCost != 0 {
		authService.WithHashCost(deps.HashCost)
	}
	authenticator := auth.NewAuthenticator(tokens, deps.Identities, deps.Logger)
	authHandler := auth.NewHandler(authService, deps.Logger)

	qrService := qrcode.NewService(deps.Records, symbol.NewQREncoder(), renderer)
	qrHandler := qrcode.NewHandler(qrService, authenticator, deps.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /signup", authHandler.Signup)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /qr/create", qrHandler.Create)
	mux.Handle("GET /qr", authenticator.Middleware(http.HandlerFunc(qrHandler.List)))
	mux.Handle("GET /qr/{id}", authenticator.Middleware(http.HandlerFunc(qrHandler.Get)))
	mux.Handle("DELETE /qr/{id}", authenticator.Middleware(http.HandlerFunc(qrHandler.Delete)))
	mux.HandleFunc("GET /health", healthHandler(deps.Health))
	if deps.Config.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	var handler http.Handler = observability.MetricsMiddleware(mux)
	handler = observability.CORS(deps.Config.CORSOrigins)(handler)
	handler = observability.SecureHeaders(deps.Config.IsDevelopment())(handler)
	handler = observability.RequestLoggingMiddleware(deps.Logger, handler)
	handler = chimid.RealIP(handler)
	handler = chimid.RequestID(handler)
	handler = observability.RecoverMiddleware(deps.Logger, handler)

	return handler, nil
}

func healthHandler(health Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if health == nil || health.PingContext(ctx) != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}

		httpx.WriteJSON(w, status, body)
	}
}
