package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

// NOTE: password_hash is only selected by FindCredentialsByEmail.
const profileColumns = `id, name, email, role, google_id, photo_url, description, created_at, updated_at`

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db    *sqlx.DB
	newID func() string
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db, newID: utilities.NewSnowflakeID}
}

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT,
  role TEXT NOT NULL DEFAULT 'Role_1',
  google_id TEXT,
  photo_url TEXT,
  description TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  CONSTRAINT users_email_key UNIQUE (email),
  CONSTRAINT users_google_id_key UNIQUE (google_id),
  CONSTRAINT users_role_check CHECK (role IN ('Role_1', 'Role_2')),
  CONSTRAINT users_auth_method_check CHECK (password_hash IS NOT NULL OR google_id IS NOT NULL)
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new user row and returns its profile projection.
// A duplicate email is reported as entity.ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, in entity.NewUser) (*entity.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	q := `INSERT INTO users (id, name, email, password_hash, role, google_id, photo_url)
		  VALUES (:id, :name, :email, :password_hash, :role, :google_id, :photo_url) RETURNING created_at, updated_at`
	u := &entity.User{
		ID:       r.newID(),
		Name:     in.Name,
		Email:    in.Email,
		Role:     in.Role,
		GoogleID: in.GoogleID,
		PhotoURL: in.PhotoURL,
	}
	params := map[string]any{
		"id":            u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"password_hash": in.PasswordHash,
		"role":          string(u.Role),
		"google_id":     u.GoogleID,
		"photo_url":     u.PhotoURL,
	}
	rows, err := r.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return nil, translateWriteErr(err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, translateWriteErr(err)
		}
		return nil, errors.New("no row returned")
	}
	if err := rows.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// FindByEmail returns the profile for an exact email match.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+profileColumns+` FROM users WHERE email=$1`, email); err != nil {
		return nil, translateReadErr(err)
	}
	return &u, nil
}

// FindByID returns the profile for id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+profileColumns+` FROM users WHERE id=$1`, id); err != nil {
		return nil, translateReadErr(err)
	}
	return &u, nil
}

// FindCredentialsByEmail is the only read that includes the password digest.
func (r *UserRepo) FindCredentialsByEmail(ctx context.Context, email string) (*entity.Credentials, error) {
	var c entity.Credentials
	q := `SELECT ` + profileColumns + `, password_hash FROM users WHERE email=$1`
	if err := r.db.GetContext(ctx, &c, q, email); err != nil {
		return nil, translateReadErr(err)
	}
	return &c, nil
}

// FindIdentityByID returns only name, email and role.
func (r *UserRepo) FindIdentityByID(ctx context.Context, id string) (*entity.Identity, error) {
	var v entity.Identity
	if err := r.db.GetContext(ctx, &v, `SELECT name, email, role FROM users WHERE id=$1`, id); err != nil {
		return nil, translateReadErr(err)
	}
	return &v, nil
}

// LinkProvider attaches an external provider id to an existing account.
func (r *UserRepo) LinkProvider(ctx context.Context, id, googleID string) error {
	const q = `UPDATE users SET google_id=$2, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, googleID)
	if err != nil {
		return translateWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func translateReadErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func translateWriteErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgerrcode.UniqueViolation && pqErr.Constraint != "users_google_id_key" {
		return entity.ErrEmailTaken
	}
	return fmt.Errorf("db error: %w", err)
}
