package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// Directory is the user store the service reads and writes. Profile reads
// never return the password digest; FindCredentialsByEmail is the only
// credential-bearing read.
type Directory interface {
	Create(ctx context.Context, in entity.NewUser) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindCredentialsByEmail(ctx context.Context, email string) (*entity.Credentials, error)
	FindIdentityByID(ctx context.Context, id string) (*entity.Identity, error)
}

// TokenIssuer mints session tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Session is the outcome of a successful signup or login.
type Session struct {
	User  *entity.User
	Token string
}

// SignupInput carries the raw signup fields; Role uses the external spelling.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type LoginInput struct {
	Email    string
	Password string
}

// Service orchestrates signup, login, logout and identity lookup.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	dir      Directory
	hasher   PasswordHasher
	tokens   TokenIssuer
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewService(dir Directory, hasher PasswordHasher, tokens TokenIssuer, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher, _ = NewBcryptHasher(DefaultBcryptCost, 0)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		dir:      dir,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger,
	}
}

// Signup validates the input, creates a password account and starts a session.
// All validation happens before the directory is touched.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" || in.Role == "" {
		return nil, ErrEmptyFields
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	role, err := entity.RoleFromExternal(in.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	_, err = s.dir.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrUserExists
	case !errors.Is(err, entity.ErrNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.dir.Create(ctx, entity.NewUser{
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
	})
	if err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, entity.ErrEmailTaken) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Infow("user signed up", "user_id", u.ID)
	return s.startSession(u)
}

// Login checks an email/password pair and starts a session.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrEmptyFields
	}
	c, err := s.dir.FindCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, fmt.Errorf("lookup credentials: %w", err)
	}
	if !c.HasPassword() {
		return nil, ErrFederationOnly
	}
	if !s.hasher.Verify(ctx, *c.PasswordHash, in.Password) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("verify password: %w", err)
		}
		return nil, ErrInvalidCredentials
	}
	u := c.User
	return s.startSession(&u)
}

// Logout has nothing to revoke server side: tokens are stateless and the
// transport drops its copy. It always succeeds.
func (s *Service) Logout(ctx context.Context) error {
	return nil
}

// CurrentIdentity returns name, email and role for an already verified user id.
func (s *Service) CurrentIdentity(ctx context.Context, userID string) (*entity.Identity, error) {
	if userID == "" {
		return nil, ErrNotFound
	}
	v, err := s.dir.FindIdentityByID(ctx, userID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	return v, nil
}

func (s *Service) startSession(u *entity.User) (*Session, error) {
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: u, Token: tok}, nil
}
