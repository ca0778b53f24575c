package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("token expired")
	ErrNoSecret     = errors.New("token signing secret is empty")
)

// Service issues and verifies HS256 session tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrNoSecret
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{
		secret: append([]byte(nil), cfg.Secret...),
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// TTL returns the lifetime given to issued tokens.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs a token for userID that expires after the configured TTL.
func (s *Service) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("token: empty user id")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the user id bound to tokenString. The signature is checked
// before any claim, so a tampered token is ErrInvalidToken even when expired.
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	tok, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return "", ErrExpired
		}
		return "", ErrInvalidToken
	}
	if !tok.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
