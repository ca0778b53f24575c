package token

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the session lifetime when Config.TTL is unset.
const DefaultTTL = 7 * 24 * time.Hour

// Config is the process-wide signing configuration, built once at startup.
// Changing Secret invalidates every outstanding token.
type Config struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// Claims carried by a session token. The user id is the subject.
type Claims struct {
	jwt.RegisteredClaims
}

// CookieConfig controls how the session token travels between server and browser.
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// NewCookieConfig returns the session cookie settings: cross-site capable and
// secure in production, strict same-site otherwise.
func NewCookieConfig(production bool, ttl time.Duration) CookieConfig {
	c := CookieConfig{Name: "token", SameSite: http.SameSiteStrictMode, MaxAge: ttl}
	if production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}
