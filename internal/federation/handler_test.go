package federation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
)

type stubProvider struct {
	profile Profile
	err     error
	codes   []string
}

func (s *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (s *stubProvider) Exchange(_ context.Context, code string) (Profile, error) {
	s.codes = append(s.codes, code)
	return s.profile, s.err
}

func newTestHandler(t *testing.T, p *stubProvider) (*Handler, *token.Service) {
	t.Helper()
	tokens := newTokens(t)
	svc := NewService(repo.NewMemoryRepo(), tokens, nil)
	cookie := token.NewCookieConfig(false, time.Hour)
	return NewHandler(svc, p, cookie, "http://localhost:5173/", "/login", zap.NewNop().Sugar()), tokens
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandler_StartSetsState(t *testing.T) {
	h, _ := newTestHandler(t, &stubProvider{})
	rec := httptest.NewRecorder()
	h.Start(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	st := cookieNamed(rec, stateCookieName)
	require.NotNil(t, st)
	assert.NotEmpty(t, st.Value)
	assert.True(t, st.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, st.SameSite)
	assert.Contains(t, rec.Header().Get("Location"), "state="+st.Value)
}

func callback(h *Handler, query, state string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+query, nil)
	if state != "" {
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: state})
	}
	rec := httptest.NewRecorder()
	h.Callback(rec, req)
	return rec
}

func TestHandler_CallbackSuccess(t *testing.T) {
	p := &stubProvider{profile: googleProfile()}
	h, tokens := newTestHandler(t, p)

	rec := callback(h, "code=abc&state=s1", "s1")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Location"))
	assert.Equal(t, []string{"abc"}, p.codes)

	sess := cookieNamed(rec, "token")
	require.NotNil(t, sess)
	_, err := tokens.Verify(sess.Value)
	assert.NoError(t, err)
}

func TestHandler_CallbackFailuresRedirectToLogin(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		state    string
		provider *stubProvider
	}{
		{"provider error", "error=access_denied&state=s1", "s1", &stubProvider{profile: googleProfile()}},
		{"missing state cookie", "code=abc&state=s1", "", &stubProvider{profile: googleProfile()}},
		{"state mismatch", "code=abc&state=s2", "s1", &stubProvider{profile: googleProfile()}},
		{"missing code", "state=s1", "s1", &stubProvider{profile: googleProfile()}},
		{"exchange fails", "code=abc&state=s1", "s1", &stubProvider{err: errors.New("boom")}},
		{"unverified email", "code=abc&state=s1", "s1", &stubProvider{profile: Profile{ProviderUserID: "g", Email: "x@y.z"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, tt.provider)
			rec := callback(h, tt.query, tt.state)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "http://localhost:5173/login", rec.Header().Get("Location"))
			assert.Nil(t, cookieNamed(rec, "token"))
		})
	}
}
