package federation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// Directory is the slice of the user store federation needs.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, in entity.NewUser) (*entity.User, error)
	LinkProvider(ctx context.Context, id, googleID string) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Service turns a provider profile into a local account and a session token.
type Service struct {
	dir    Directory
	tokens TokenIssuer
	link   bool
	logger *zap.SugaredLogger
}

type Option func(*Service)

// WithProviderLinking records the provider id on an existing password-only
// account the first time its owner signs in through the provider.
func WithProviderLinking(enabled bool) Option {
	return func(s *Service) { s.link = enabled }
}

func NewService(dir Directory, tokens TokenIssuer, logger *zap.SugaredLogger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Service{dir: dir, tokens: tokens, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Complete finds or creates the account matching the profile email and
// issues a session for it. Existing accounts are reused as they are unless
// provider linking is enabled.
func (s *Service) Complete(ctx context.Context, p Profile) (*Result, error) {
	p.ProviderUserID = strings.TrimSpace(p.ProviderUserID)
	p.Email = strings.TrimSpace(p.Email)
	if p.ProviderUserID == "" {
		return nil, ErrNoProviderID
	}
	if p.Email == "" || !p.EmailVerified {
		return nil, ErrNoProviderEmail
	}

	u, err := s.dir.FindByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if err := s.maybeLink(ctx, u, p.ProviderUserID); err != nil {
			return nil, err
		}
		return s.issue(u, false)
	case !errors.Is(err, entity.ErrNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	in := entity.NewUser{
		Name:     firstNonEmpty(p.DisplayName, DefaultDisplayName),
		Email:    p.Email,
		GoogleID: &p.ProviderUserID,
		Role:     entity.DefaultRole,
	}
	if p.PhotoURL != "" {
		in.PhotoURL = &p.PhotoURL
	}
	u, err = s.dir.Create(ctx, in)
	if errors.Is(err, entity.ErrEmailTaken) {
		// a concurrent first login created it; use the winner
		u, err = s.dir.FindByEmail(ctx, p.Email)
		if err != nil {
			return nil, fmt.Errorf("reload user: %w", err)
		}
		return s.issue(u, false)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Infow("federated user created", "user_id", u.ID)
	return s.issue(u, true)
}

func (s *Service) maybeLink(ctx context.Context, u *entity.User, providerID string) error {
	if !s.link || u.GoogleID != nil {
		return nil
	}
	if err := s.dir.LinkProvider(ctx, u.ID, providerID); err != nil {
		return fmt.Errorf("link provider: %w", err)
	}
	u.GoogleID = &providerID
	s.logger.Infow("provider linked", "user_id", u.ID)
	return nil
}

func (s *Service) issue(u *entity.User, created bool) (*Result, error) {
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Result{User: u, Token: tok, Created: created}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
