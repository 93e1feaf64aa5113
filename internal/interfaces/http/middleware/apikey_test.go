package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, apiKey string) (*identity.Tenant, error) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func TestInboundAPIKey(t *testing.T) {
	tenant := &identity.Tenant{Code: "RMT", Name: "Remotive Trailers"}
	tenant.ID = uuid.New()

	authn := new(mockAuthenticator)
	authn.On("Authenticate", mock.Anything, "good-key").Return(tenant, nil)
	authn.On("Authenticate", mock.Anything, "bad-key").Return(nil, shared.ErrUnauthorized)
	authn.On("Authenticate", mock.Anything, "").Return(nil, shared.ErrUnauthorized)
	authn.On("Authenticate", mock.Anything, "boom").Return(nil, errors.New("db down"))

	var resolved *identity.Tenant
	router := gin.New()
	router.POST("/leads/inbound", InboundAPIKey(authn, zap.NewNop()), func(c *gin.Context) {
		resolved, _ = GetInboundTenant(c)
		c.Status(http.StatusCreated)
	})

	serve := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/leads/inbound", nil)
		if key != "" {
			req.Header.Set(APIKeyHeader, key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := serve("good-key")
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, resolved)
	assert.Equal(t, tenant.ID, resolved.ID)

	w = serve("bad-key")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INVALID_API_KEY")

	assert.Equal(t, http.StatusUnauthorized, serve("").Code)
	assert.Equal(t, http.StatusInternalServerError, serve("boom").Code)
	authn.AssertExpectations(t)
}
