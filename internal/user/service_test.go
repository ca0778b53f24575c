package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
)

var (
	_ Directory = (*repo.UserRepo)(nil)
	_ Directory = (*repo.MemoryRepo)(nil)
)

// countingDir wraps a Directory and records every call.
type countingDir struct {
	Directory
	mu    sync.Mutex
	calls int

	createErr error
	findErr   error
}

func (c *countingDir) hit() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingDir) Create(ctx context.Context, in entity.NewUser) (*entity.User, error) {
	c.hit()
	if c.createErr != nil {
		return nil, c.createErr
	}
	return c.Directory.Create(ctx, in)
}

func (c *countingDir) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	c.hit()
	if c.findErr != nil {
		return nil, c.findErr
	}
	return c.Directory.FindByEmail(ctx, email)
}

func (c *countingDir) FindCredentialsByEmail(ctx context.Context, email string) (*entity.Credentials, error) {
	c.hit()
	if c.findErr != nil {
		return nil, c.findErr
	}
	return c.Directory.FindCredentialsByEmail(ctx, email)
}

func (c *countingDir) FindIdentityByID(ctx context.Context, id string) (*entity.Identity, error) {
	c.hit()
	return c.Directory.FindIdentityByID(ctx, id)
}

type fixture struct {
	svc    *Service
	mem    *repo.MemoryRepo
	dir    *countingDir
	tokens *token.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repo.NewMemoryRepo()
	dir := &countingDir{Directory: mem}
	hasher, err := NewBcryptHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)
	tokens, err := token.NewService(token.Config{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)
	return &fixture{svc: NewService(dir, hasher, tokens, nil), mem: mem, dir: dir, tokens: tokens}
}

func validSignup() SignupInput {
	return SignupInput{Name: "Ann", Email: "a@b.com", Password: "password1", Role: "Role-2"}
}

func TestSignup_ThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Signup(ctx, validSignup())
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, entity.RoleTwo, sess.User.Role)
	assert.Equal(t, "Role-2", sess.User.Role.External())

	uid, err := f.tokens.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, uid)

	login, err := f.svc.Login(ctx, LoginInput{Email: "a@b.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, login.User.ID)
	assert.Equal(t, sess.User.Role.External(), login.User.Role.External())
}

func TestSignup_StoresDigestNotPlaintext(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	c, err := f.mem.FindCredentialsByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.True(t, c.HasPassword())
	assert.NotEqual(t, "password1", *c.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*c.PasswordHash), []byte("password1")))
	assert.Nil(t, c.GoogleID)
}

func TestSignup_Twice(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	_, err = f.svc.Signup(context.Background(), validSignup())
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, KindConflict, Classify(err))
}

func TestSignup_CreateRaceBecomesUserExists(t *testing.T) {
	f := newFixture(t)
	f.dir.createErr = entity.ErrEmailTaken

	_, err := f.svc.Signup(context.Background(), validSignup())
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestSignup_ValidationBeforeDirectory(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*SignupInput)
		want error
	}{
		{"missing name", func(in *SignupInput) { in.Name = "" }, ErrEmptyFields},
		{"blank email", func(in *SignupInput) { in.Email = "   " }, ErrEmptyFields},
		{"missing password", func(in *SignupInput) { in.Password = "" }, ErrEmptyFields},
		{"missing role", func(in *SignupInput) { in.Role = "" }, ErrEmptyFields},
		{"bad email", func(in *SignupInput) { in.Email = "not-an-email" }, ErrInvalidEmail},
		{"short password", func(in *SignupInput) { in.Password = "short1" }, ErrWeakPassword},
		{"seven runes", func(in *SignupInput) { in.Password = "пароль7" }, ErrWeakPassword},
		{"internal role spelling", func(in *SignupInput) { in.Role = "Role_1" }, ErrInvalidRole},
		{"unknown role", func(in *SignupInput) { in.Role = "admin" }, ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := validSignup()
			tt.mod(&in)

			sess, err := f.svc.Signup(context.Background(), in)
			assert.Nil(t, sess)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, KindValidation, Classify(err))
			assert.Zero(t, f.dir.calls, "directory must not be touched")
		})
	}
}

func TestSignup_TrimsNameAndEmail(t *testing.T) {
	f := newFixture(t)
	in := validSignup()
	in.Name = "  Ann  "
	in.Email = " a@b.com "
	sess, err := f.svc.Signup(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Ann", sess.User.Name)
	assert.Equal(t, "a@b.com", sess.User.Email)
}

func TestSignup_DirectoryFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.dir.findErr = errors.New("connection refused")

	_, err := f.svc.Signup(context.Background(), validSignup())
	require.Error(t, err)
	assert.Equal(t, KindInternal, Classify(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	sess, err := f.svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "password2"})
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotContains(t, err.Error(), "$2a$")
}

func TestLogin_NoSuchUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Login(context.Background(), LoginInput{Email: "nobody@b.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrNoSuchUser)
	assert.Equal(t, KindAuthentication, Classify(err))
}

func TestLogin_EmptyFields(t *testing.T) {
	f := newFixture(t)
	for _, in := range []LoginInput{{Email: "a@b.com"}, {Password: "x"}, {}} {
		_, err := f.svc.Login(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyFields)
	}
	assert.Zero(t, f.dir.calls)
}

func TestLogin_FederationOnlyAccount(t *testing.T) {
	f := newFixture(t)
	gid := "google-123"
	_, err := f.mem.Create(context.Background(), entity.NewUser{Name: "G", Email: "g@b.com", GoogleID: &gid})
	require.NoError(t, err)

	for _, pw := range []string{"password1", "anything-else", strings.Repeat("x", 80)} {
		_, err := f.svc.Login(context.Background(), LoginInput{Email: "g@b.com", Password: pw})
		assert.ErrorIs(t, err, ErrFederationOnly)
	}
}

func TestLogin_CancelledContextIsInternal(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.Login(ctx, LoginInput{Email: "a@b.com", Password: "password1"})
	require.Error(t, err)
	assert.Equal(t, KindInternal, Classify(err))
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.Logout(context.Background()))
}

func TestCurrentIdentity(t *testing.T) {
	f := newFixture(t)
	sess, err := f.svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	v, err := f.svc.CurrentIdentity(context.Background(), sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.Identity{Name: "Ann", Email: "a@b.com", Role: entity.RoleTwo}, *v)
	assert.Equal(t, "Role-2", v.Role.External())

	f.mem.Delete(sess.User.ID)
	_, err = f.svc.CurrentIdentity(context.Background(), sess.User.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, Classify(err))

	_, err = f.svc.CurrentIdentity(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)
	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Signup(context.Background(), validSignup())
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrUserExists)
	}
	assert.Equal(t, 1, ok)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindToken, Classify(token.ErrExpired))
	assert.Equal(t, KindToken, Classify(token.ErrInvalidToken))
	assert.Equal(t, KindValidation, Classify(entity.ErrInvalidRole))
	assert.Equal(t, KindInternal, Classify(errors.New("boom")))
	assert.Equal(t, "internal", KindInternal.String())
}
