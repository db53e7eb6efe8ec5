package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
	apperrors "github.com/mydrops/storefront-edge/internal/errors"
	"github.com/mydrops/storefront-edge/internal/ports"
)

func TestFakeBackend_LoginAndVerify(t *testing.T) {
	fake := NewFakeBackend()
	ctx := context.Background()
	creds := domainauth.Credentials{Email: fake.DefaultUser.Email, Password: fake.DefaultPassword}

	grant, err := fake.AdminLogin(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, "admin-token-1", grant.Token)
	assert.True(t, grant.Permissions.Has(domainauth.PermManageBooks))

	v, err := fake.VerifyToken(ctx, domainauth.SessionAdmin, grant.Token)
	require.NoError(t, err)
	assert.True(t, v.Valid)

	_, err = fake.VerifyToken(ctx, domainauth.SessionUser, grant.Token)
	assert.True(t, apperrors.IsInvalidToken(err), "admin token must not verify as user")

	assert.Equal(t, 1, fake.Calls("AdminLogin"))
	assert.Equal(t, 2, fake.Calls("VerifyToken"))
	assert.Equal(t, 3, fake.TotalCalls())
}

func TestFakeBackend_WrongPassword(t *testing.T) {
	fake := NewFakeBackend()
	_, err := fake.Login(context.Background(), domainauth.Credentials{Email: fake.DefaultUser.Email, Password: "nope"})
	assert.True(t, apperrors.IsUpstream(err))
}

func TestFakeBackend_FuncOverrides(t *testing.T) {
	boom := errors.New("boom")
	fake := &FakeBackend{
		RegisterFunc: func(context.Context, domainauth.Registration) error { return boom },
	}
	assert.ErrorIs(t, fake.Register(context.Background(), domainauth.Registration{}), boom)
}

func TestFakeForwarder(t *testing.T) {
	fwd := &FakeForwarder{}
	res, err := fwd.Forward(context.Background(), ports.ForwardRequest{Method: "GET", Path: "/api/v1/products/"})
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)
	require.Len(t, fwd.Requests(), 1)
	assert.Equal(t, "/api/v1/products/", fwd.Requests()[0].Path)
}

func TestCountingLimiter(t *testing.T) {
	l := &CountingLimiter{Limit: 2}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, l.Count("k"))

	require.NoError(t, l.Reset(ctx, "k"))
	assert.Zero(t, l.Count("k"))
}
