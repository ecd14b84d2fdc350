// AngelaMos | 2026
// service_test.go

package auth_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlastrail/atlas-backend/internal/auth"
	"github.com/atlastrail/atlas-backend/internal/config"
	"github.com/atlastrail/atlas-backend/internal/core"
)

func newJWTManager(t *testing.T) *auth.JWTManager {
	t.Helper()

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")
	require.NoError(t, auth.GenerateKeyPair(privatePath, publicPath))

	manager, err := auth.NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     privatePath,
		PublicKeyPath:      publicPath,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "atlas-backend",
		Audience:           "atlas-backend-api",
	})
	require.NoError(t, err)
	return manager
}

type fakeUsers struct {
	users map[string]*auth.UserInfo
}

func (f fakeUsers) GetByEmail(
	_ context.Context,
	email string,
) (*auth.UserInfo, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f fakeUsers) GetByID(
	_ context.Context,
	id string,
) (*auth.UserInfo, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func (f fakeUsers) Create(
	_ context.Context,
	email, passwordHash, name, _ string,
) (*auth.UserInfo, error) {
	u := &auth.UserInfo{
		ID:           email,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         "user",
	}
	f.users[u.ID] = u
	return u, nil
}

func (f fakeUsers) IncrementTokenVersion(
	_ context.Context,
	id string,
) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.TokenVersion++
	return nil
}

func (f fakeUsers) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f fakeUsers) SetTwoFactorEnabled(
	_ context.Context,
	id string,
	_ bool,
) error {
	if _, ok := f.users[id]; !ok {
		return core.ErrNotFound
	}
	return nil
}

func (f fakeUsers) MarkEmailVerified(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.EmailVerified = true
	return nil
}

var _ auth.UserProvider = fakeUsers{}

type captureMailer struct {
	email string
	token string
	sends int
}

func (m *captureMailer) SendVerification(
	_ context.Context,
	email, token string,
) error {
	m.email = email
	m.token = token
	m.sends++
	return nil
}

func TestEmailVerification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := newJWTManager(t)

	newService := func(users fakeUsers, mailer *captureMailer) *auth.Service {
		return auth.NewService(nil, manager, users, nil, mailer)
	}

	t.Run("token round trip marks the account verified", func(t *testing.T) {
		t.Parallel()

		users := fakeUsers{users: map[string]*auth.UserInfo{
			"u1": {ID: "u1", Email: "u1@example.com"},
		}}
		mailer := &captureMailer{}
		svc := newService(users, mailer)

		require.NoError(t, svc.RequestEmailVerification(ctx, "u1"))
		require.Equal(t, "u1@example.com", mailer.email)
		require.NotEmpty(t, mailer.token)

		require.NoError(t, svc.VerifyEmail(ctx, mailer.token))
		require.True(t, users.users["u1"].EmailVerified)
	})

	t.Run("resend is refused once verified", func(t *testing.T) {
		t.Parallel()

		users := fakeUsers{users: map[string]*auth.UserInfo{
			"u1": {ID: "u1", Email: "u1@example.com", EmailVerified: true},
		}}
		mailer := &captureMailer{}
		svc := newService(users, mailer)

		err := svc.RequestEmailVerification(ctx, "u1")
		require.ErrorIs(t, err, core.ErrInvalidInput)
		require.Zero(t, mailer.sends)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		t.Parallel()

		users := fakeUsers{users: map[string]*auth.UserInfo{
			"u1": {ID: "u1", Email: "u1@example.com"},
		}}
		svc := newService(users, &captureMailer{})

		err := svc.VerifyEmail(ctx, "not-a-token")
		require.ErrorIs(t, err, core.ErrTokenInvalid)
		require.False(t, users.users["u1"].EmailVerified)
	})

	t.Run("access tokens cannot verify an email", func(t *testing.T) {
		t.Parallel()

		users := fakeUsers{users: map[string]*auth.UserInfo{
			"u1": {ID: "u1", Email: "u1@example.com"},
		}}
		svc := newService(users, &captureMailer{})

		accessToken, err := manager.CreateAccessToken(auth.AccessTokenClaims{
			UserID: "u1",
			Role:   "user",
		})
		require.NoError(t, err)

		err = svc.VerifyEmail(ctx, accessToken)
		require.ErrorIs(t, err, core.ErrTokenInvalid)
		require.False(t, users.users["u1"].EmailVerified)
	})

	t.Run("unknown subject surfaces not found", func(t *testing.T) {
		t.Parallel()

		users := fakeUsers{users: map[string]*auth.UserInfo{}}
		svc := newService(users, &captureMailer{})

		token, err := manager.CreateEmailVerificationToken("ghost")
		require.NoError(t, err)

		err = svc.VerifyEmail(ctx, token)
		require.ErrorIs(t, err, core.ErrNotFound)
	})
}
