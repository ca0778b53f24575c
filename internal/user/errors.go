package user

import (
	"errors"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

var (
	// validation
	ErrEmptyFields  = errors.New("empty fields")
	ErrInvalidEmail = errors.New("enter valid email")
	ErrWeakPassword = errors.New("password must have 8 characters")
	ErrInvalidRole  = errors.New("invalid role")

	// conflict
	ErrUserExists = errors.New("user already exists")

	// authentication
	ErrNoSuchUser         = errors.New("user does not exist, register first")
	ErrFederationOnly     = errors.New("use google login for this account")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrNotFound = errors.New("user not found")
)

// Kind groups errors by who is at fault and how the transport should answer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindToken
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindToken:
		return "token"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Classify maps err onto the error taxonomy. Anything unrecognised is internal.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrEmptyFields), errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrWeakPassword), errors.Is(err, ErrInvalidRole),
		errors.Is(err, entity.ErrInvalidRole):
		return KindValidation
	case errors.Is(err, ErrUserExists), errors.Is(err, entity.ErrEmailTaken):
		return KindConflict
	case errors.Is(err, ErrNoSuchUser), errors.Is(err, ErrFederationOnly),
		errors.Is(err, ErrInvalidCredentials):
		return KindAuthentication
	case errors.Is(err, token.ErrInvalidToken), errors.Is(err, token.ErrExpired):
		return KindToken
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}
