package integration

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	identityapp "github.com/remotive/saleshub/internal/application/identity"
	"github.com/remotive/saleshub/internal/infrastructure/cache"
	"github.com/remotive/saleshub/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthIntegration(t *testing.T) {
	app := NewApp(t, NewSharedTestDB(t))
	dealer := app.Bootstrap(t, uniqueCode("AUTH"))

	login := func(t *testing.T, password string) *httptest.ResponseRecorder {
		return app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/auth/login",
			Body:   map[string]string{"tenant_code": dealer.Code, "email": dealer.OwnerEmail, "password": password},
		})
	}

	t.Run("me returns the caller and dealership", func(t *testing.T) {
		w := app.Do(t, testutil.Request{Path: "/api/v1/auth/me", Token: dealer.OwnerToken})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		me := testutil.DecodeData[identityapp.LoginResult](t, w)
		assert.Equal(t, dealer.OwnerEmail, me.User.Email)
		assert.Equal(t, dealer.Code, me.Tenant.Code)
		assert.Empty(t, me.AccessToken)
	})

	t.Run("tenant code is case insensitive", func(t *testing.T) {
		w := app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/auth/login",
			Body:   map[string]string{"tenant_code": " " + strings.ToLower(dealer.Code), "email": dealer.OwnerEmail, "password": testutil.TestPassword},
		})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("refresh rotates the refresh token", func(t *testing.T) {
		session := app.Login(t, dealer.Code, dealer.OwnerEmail, testutil.TestPassword)

		w := app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/auth/refresh",
			Body:   map[string]string{"refresh_token": session.RefreshToken},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		rotated := testutil.DecodeData[identityapp.RefreshTokenResult](t, w)
		assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

		w = app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/auth/refresh",
			Body:   map[string]string{"refresh_token": session.RefreshToken},
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_TOKEN_REVOKED", testutil.ErrorCode(t, w))

		w = app.Do(t, testutil.Request{Path: "/api/v1/auth/me", Token: rotated.AccessToken})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("logout revokes both tokens in redis", func(t *testing.T) {
		session := app.Login(t, dealer.Code, dealer.OwnerEmail, testutil.TestPassword)

		w := app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/auth/logout",
			Token:  session.AccessToken,
			Body:   map[string]string{"refresh_token": session.RefreshToken},
		})
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = app.Do(t, testutil.Request{Path: "/api/v1/auth/me", Token: session.AccessToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_TOKEN_REVOKED", testutil.ErrorCode(t, w))

		w = app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/auth/refresh",
			Body:   map[string]string{"refresh_token": session.RefreshToken},
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		// Other sessions survive.
		w = app.Do(t, testutil.Request{Path: "/api/v1/auth/me", Token: dealer.OwnerToken})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("repeated failures lock the account", func(t *testing.T) {
		w := login(t, "wrong-password")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_INVALID_CREDENTIALS", testutil.ErrorCode(t, w))
		for i := 0; i < 4; i++ {
			login(t, "wrong-password")
		}

		w = login(t, testutil.TestPassword)
		assert.Equal(t, http.StatusTooManyRequests, w.Code, w.Body.String())
		assert.Equal(t, "ERR_TOO_MANY_ATTEMPTS", testutil.ErrorCode(t, w))

		// The window lives in redis; expiring it lifts the lock.
		app.Redis.FastForward(cache.DefaultThrottleConfig().Window)
		w = login(t, testutil.TestPassword)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("unknown dealership looks like a bad password", func(t *testing.T) {
		w := app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/auth/login",
			Body:   map[string]string{"tenant_code": "NO-SUCH-LOT", "email": dealer.OwnerEmail, "password": testutil.TestPassword},
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_INVALID_CREDENTIALS", testutil.ErrorCode(t, w))
	})

	t.Run("readiness pings postgres and redis", func(t *testing.T) {
		w := app.Do(t, testutil.Request{Path: "/ready"})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

		app.Redis.SetError("redis down")
		defer app.Redis.SetError("")
		w = app.Do(t, testutil.Request{Path: "/ready"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		// Sessions keep working while redis is down.
		w = app.Do(t, testutil.Request{Path: "/api/v1/auth/me", Token: dealer.OwnerToken})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
