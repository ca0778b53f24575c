package router

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/federation"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
)

// Deps are the handlers and settings the router mounts. Federation may be
// nil when no Google client is configured.
type Deps struct {
	Users      *user.Handler
	Federation *federation.Handler
	Tokens     *token.Service
	CookieName string
	ClientURL  string
}

// RegisterRoutes mounts all endpoints on an http.ServeMux and wraps it with
// logging, security headers and CORS.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("hello from server"))
	})

	mux.HandleFunc("POST /api/auth/signup", d.Users.Signup)
	mux.HandleFunc("POST /api/auth/login", d.Users.Login)
	mux.HandleFunc("POST /api/auth/logout", d.Users.Logout)
	requireSession := token.RequireSession(d.Tokens, d.CookieName, logger)
	mux.Handle("GET /api/auth/me", requireSession(http.HandlerFunc(d.Users.Me)))

	if d.Federation != nil {
		mux.HandleFunc("GET /auth/google", d.Federation.Start)
		mux.HandleFunc("GET /auth/google/callback", d.Federation.Callback)
	} else {
		logger.Info("google login disabled: GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET or GOOGLE_REDIRECT_URL not set")
	}

	return LoggingMiddleware(logger)(SecurityHeadersMiddleware()(CORSMiddleware(d.ClientURL)(mux)))
}
