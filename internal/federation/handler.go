package federation

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
)

// Provider is an OAuth identity provider.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Profile, error)
}

// Handler drives the browser side of the Google login: it sends the user to
// the provider and turns the callback into a session cookie.
type Handler struct {
	svc        *Service
	provider   Provider
	cookie     token.CookieConfig
	successURL string
	failureURL string
	logger     *zap.SugaredLogger
}

// NewHandler redirects to clientURL after a successful login and to
// clientURL+loginPath after a failed one.
func NewHandler(svc *Service, provider Provider, cookie token.CookieConfig, clientURL, loginPath string, logger *zap.SugaredLogger) *Handler {
	base := strings.TrimRight(clientURL, "/")
	return &Handler{
		svc:        svc,
		provider:   provider,
		cookie:     cookie,
		successURL: base,
		failureURL: base + loginPath,
		logger:     logger,
	}
}

// Start handles GET /auth/google.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	state := utilities.NewKSUID()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		// the callback arrives as a cross-site top-level navigation
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /auth/google/callback.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	h.clearState(w)
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.fail(w, r, "provider returned error", nil, "provider_error", e)
		return
	}
	c, err := r.Cookie(stateCookieName)
	if err != nil || c.Value == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(q.Get("state"))) != 1 {
		h.fail(w, r, "state check failed", ErrStateMismatch)
		return
	}
	code := q.Get("code")
	if code == "" {
		h.fail(w, r, "callback without code", ErrMissingCode)
		return
	}

	profile, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, r, "provider exchange failed", err)
		return
	}
	res, err := h.svc.Complete(r.Context(), profile)
	if err != nil {
		h.fail(w, r, "federated login failed", err)
		return
	}
	token.SetCookie(w, h.cookie, res.Token)
	h.logger.Debugw("federated login", "user_id", res.User.ID, "created", res.Created)
	http.Redirect(w, r, h.successURL, http.StatusFound)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error, kv ...any) {
	h.logger.Warnw(msg, append(kv, "err", err)...)
	http.Redirect(w, r, h.failureURL, http.StatusFound)
}

func (h *Handler) clearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
