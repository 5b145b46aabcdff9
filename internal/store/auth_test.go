package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"snapfeed/internal/models"
	"snapfeed/internal/service"
	"snapfeed/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwtWithExp(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestLogin_PersistsToken(t *testing.T) {
	f := newFixture()
	f.auth.login = func(_ context.Context, email, _ string) (models.User, string, error) {
		return models.User{ID: 1, Username: "ann", Email: email}, "tok-1", nil
	}

	require.NoError(t, f.store.Login(context.Background(), "ann@example.com", "secret1"))

	a := f.store.Auth()
	assert.True(t, a.IsAuthenticated)
	assert.False(t, a.IsLoading)
	assert.Empty(t, a.Error)
	require.NotNil(t, a.User)
	assert.Equal(t, "ann", a.User.Username)
	assert.Equal(t, "tok-1", f.store.Token())

	creds, ok, err := f.session.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-1", creds.Token)
}

func TestLogin_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bad request", models.NewHTTPError(400, "whatever"), "Invalid email or password"},
		{"not found", models.NewHTTPError(404, ""), "API endpoint not found"},
		{"server message", models.NewHTTPError(500, "Database unavailable"), "Database unavailable"},
		{"no message", models.NewHTTPError(502, ""), "Login failed. Please try again."},
		{"network", models.NewNetworkError(errors.New("dial tcp")), "Login failed. Please try again."},
		{"local validation", models.NewValidationError("Email and password are required"), "Email and password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.auth.login = func(context.Context, string, string) (models.User, string, error) {
				return models.User{}, "", tt.err
			}
			err := f.store.Login(context.Background(), "a@b.co", "x")
			assert.ErrorIs(t, err, tt.err)

			a := f.store.Auth()
			assert.Equal(t, tt.want, a.Error)
			assert.False(t, a.IsAuthenticated)
			assert.False(t, a.IsLoading)
		})
	}
}

func TestRegister(t *testing.T) {
	f := newFixture()
	f.auth.register = func(context.Context, service.RegisterInput) (models.User, string, error) {
		return models.User{ID: 2, Username: "bo"}, "", nil
	}
	require.NoError(t, f.store.Register(context.Background(), service.RegisterInput{}))
	assert.False(t, f.store.Auth().IsAuthenticated, "no token means no session")
	_, ok, _ := f.session.Load(context.Background())
	assert.False(t, ok)

	f.auth.register = func(context.Context, service.RegisterInput) (models.User, string, error) {
		return models.User{}, "", models.NewHTTPError(400, "")
	}
	require.Error(t, f.store.Register(context.Background(), service.RegisterInput{}))
	assert.Equal(t, "Email already exists or invalid data", f.store.Auth().Error)

	f.auth.register = func(context.Context, service.RegisterInput) (models.User, string, error) {
		return models.User{}, "", models.NewHTTPError(500, "")
	}
	require.Error(t, f.store.Register(context.Background(), service.RegisterInput{}))
	assert.Equal(t, "Registration failed. Please try again.", f.store.Auth().Error)
}

func TestRestoreSession_NoToken(t *testing.T) {
	f := newFixture()
	err := f.store.RestoreSession(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, "No token found", f.store.Auth().Error)
}

func TestRestoreSession_ExpiredTokenSkipsNetwork(t *testing.T) {
	f := newFixture()
	f.auth.me = func(context.Context) (models.User, error) {
		t.Fatal("Me must not be called for an expired token")
		return models.User{}, nil
	}
	ctx := context.Background()
	require.NoError(t, f.session.Save(ctx, session.Credentials{Token: jwtWithExp(t, time.Now().Add(-time.Hour))}))

	err := f.store.RestoreSession(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, "Session expired", f.store.Auth().Error)
	_, ok, _ := f.session.Load(ctx)
	assert.False(t, ok)
}

func TestRestoreSession_Valid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	token := jwtWithExp(t, time.Now().Add(time.Hour))
	require.NoError(t, f.session.Save(ctx, session.Credentials{Token: token}))

	f.auth.me = func(context.Context) (models.User, error) {
		assert.Equal(t, token, f.store.Token(), "the token must be usable while Me runs")
		return models.User{ID: 7, Username: "cy"}, nil
	}
	require.NoError(t, f.store.RestoreSession(ctx))

	a := f.store.Auth()
	assert.True(t, a.IsAuthenticated)
	assert.Equal(t, models.ID(7), a.User.ID)
	creds, _, _ := f.session.Load(ctx)
	assert.Equal(t, "cy", creds.User.Username)
}

func TestRestoreSession_MeFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.session.Save(ctx, session.Credentials{Token: "opaque"}))
	f.auth.me = func(context.Context) (models.User, error) {
		return models.User{}, models.NewHTTPError(500, "")
	}

	require.Error(t, f.store.RestoreSession(ctx))
	a := f.store.Auth()
	assert.False(t, a.IsAuthenticated)
	assert.Empty(t, a.Token)
	assert.Equal(t, "Session expired", a.Error)
	_, ok, _ := f.session.Load(ctx)
	assert.False(t, ok)
}

func TestHandleUnauthorized_ClearsSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.auth.login = func(context.Context, string, string) (models.User, string, error) {
		return models.User{ID: 1}, "tok", nil
	}
	require.NoError(t, f.store.Login(ctx, "a@b.co", "secret1"))

	f.store.HandleUnauthorized()

	a := f.store.Auth()
	assert.False(t, a.IsAuthenticated)
	assert.Empty(t, f.store.Token())
	assert.Equal(t, "Session expired", a.Error)
	_, ok, _ := f.session.Load(ctx)
	assert.False(t, ok)
}

func TestLogoutAndClearError(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.auth.login = func(context.Context, string, string) (models.User, string, error) {
		return models.User{ID: 1}, "tok", nil
	}
	require.NoError(t, f.store.Login(ctx, "a@b.co", "secret1"))
	require.NoError(t, f.store.Logout(ctx))
	assert.Equal(t, AuthState{}, f.store.Auth())

	f.store.HandleUnauthorized()
	f.store.ClearError()
	assert.Empty(t, f.store.Auth().Error)
}
