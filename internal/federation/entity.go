package federation

import (
	"errors"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// DefaultDisplayName is used when the provider profile carries no name.
const DefaultDisplayName = "Google User"

var (
	ErrNoProviderEmail = errors.New("provider profile has no verified email")
	ErrNoProviderID    = errors.New("provider profile has no subject")
	ErrStateMismatch   = errors.New("oauth state mismatch")
	ErrMissingCode     = errors.New("missing authorization code")
)

// Profile is what an identity provider tells us about the person who just
// authenticated.
type Profile struct {
	ProviderUserID string
	DisplayName    string
	Email          string
	EmailVerified  bool
	PhotoURL       string
}

// Result of completing a federated login.
type Result struct {
	User    *entity.User
	Token   string
	Created bool
}
