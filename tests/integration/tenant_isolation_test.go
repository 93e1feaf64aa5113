package integration

import (
	"net/http"
	"testing"

	crmapp "github.com/remotive/saleshub/internal/application/crm"
	identityapp "github.com/remotive/saleshub/internal/application/identity"
	inventoryapp "github.com/remotive/saleshub/internal/application/inventory"
	"github.com/remotive/saleshub/internal/interfaces/http/middleware"
	"github.com/remotive/saleshub/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantIsolation(t *testing.T) {
	app := NewApp(t, NewSharedTestDB(t))
	north := app.Bootstrap(t, uniqueCode("NORTH"))
	south := app.Bootstrap(t, uniqueCode("SOUTH"))

	createCustomer := func(t *testing.T, d Dealer, name, email string) crmapp.CustomerResponse {
		t.Helper()
		w := app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/crm/customers",
			Token:  d.OwnerToken,
			Body:   map[string]any{"name": name, "email": email, "source": "walk_in"},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return testutil.DecodeData[crmapp.CustomerResponse](t, w)
	}
	createUnit := func(t *testing.T, d Dealer, stock string) inventoryapp.UnitResponse {
		t.Helper()
		w := app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/inventory/units",
			Token:  d.OwnerToken,
			Body:   map[string]any{"stock_number": stock, "make": "Big Tex", "model": "14GN", "cost": "8000"},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return testutil.DecodeData[inventoryapp.UnitResponse](t, w)
	}

	// Same contact details on both lots are two unrelated customers.
	northCustomer := createCustomer(t, north, "Pat Hauler", "pat@example.com")
	southCustomer := createCustomer(t, south, "Pat Hauler", "pat@example.com")
	assert.NotEqual(t, northCustomer.ID, southCustomer.ID)

	t.Run("customer reads and writes stop at the tenant", func(t *testing.T) {
		path := "/api/v1/crm/customers/" + northCustomer.ID.String()

		w := app.Do(t, testutil.Request{Path: path, Token: south.OwnerToken})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ERR_NOT_FOUND", testutil.ErrorCode(t, w))

		w = app.Do(t, testutil.Request{Method: http.MethodPatch, Path: path, Token: south.OwnerToken,
			Body: map[string]any{"notes": "hijacked"}})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = app.Do(t, testutil.Request{Method: http.MethodPut, Path: path + "/stage", Token: south.OwnerToken,
			Body: map[string]any{"stage": "lost"}})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = app.Do(t, testutil.Request{Method: http.MethodDelete, Path: path, Token: south.OwnerToken})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = app.Do(t, testutil.Request{Path: path, Token: north.OwnerToken})
		require.Equal(t, http.StatusOK, w.Code)
		got := testutil.DecodeData[crmapp.CustomerResponse](t, w)
		assert.Empty(t, got.Notes)
		assert.Equal(t, "new", got.Stage)
	})

	t.Run("lists only contain the caller's tenant", func(t *testing.T) {
		w := app.Do(t, testutil.Request{Path: "/api/v1/crm/customers", Token: south.OwnerToken})
		require.Equal(t, http.StatusOK, w.Code)
		customers := testutil.DecodeData[[]crmapp.CustomerResponse](t, w)
		require.Len(t, customers, 1)
		assert.Equal(t, southCustomer.ID, customers[0].ID)
	})

	t.Run("stock numbers are unique per tenant only", func(t *testing.T) {
		northUnit := createUnit(t, north, "ISO-100")
		createUnit(t, south, "ISO-100")

		w := app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/inventory/units",
			Token:  north.OwnerToken,
			Body:   map[string]any{"stock_number": "iso-100", "cost": "8000"},
		})
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		// Another lot's customer cannot hold this unit, nor can another lot see it.
		w = app.Do(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/inventory/units/" + northUnit.ID.String() + "/hold",
			Token:  north.OwnerToken,
			Body:   map[string]any{"customer_id": southCustomer.ID},
		})
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

		w = app.Do(t, testutil.Request{Path: "/api/v1/inventory/units/" + northUnit.ID.String(), Token: south.OwnerToken})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("inbound keys land leads in their own tenant", func(t *testing.T) {
		w := app.Do(t, testutil.Request{
			Method:  http.MethodPost,
			Path:    "/api/v1/leads/inbound",
			Headers: map[string]string{middleware.APIKeyHeader: south.InboundKey},
			Body:    map[string]any{"name": "Pat Hauler", "email": "PAT@example.com", "source": "facebook"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := testutil.DecodeData[crmapp.InboundResult](t, w)
		assert.True(t, result.Duplicate)
		assert.Equal(t, southCustomer.ID, result.CustomerID)

		w = app.Do(t, testutil.Request{Path: "/api/v1/crm/customers/" + northCustomer.ID.String(), Token: north.OwnerToken})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, testutil.DecodeData[crmapp.CustomerResponse](t, w).InquiryCount)
	})

	t.Run("rotating the key retires the old one", func(t *testing.T) {
		w := app.Do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/tenant/inbound-key", Token: north.OwnerToken})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		rotated := testutil.DecodeData[identityapp.InboundKeyResult](t, w)
		require.NotEmpty(t, rotated.Key)

		lead := map[string]any{"name": "Rae Flatbed", "phone": "555-300-4000"}
		w = app.Do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/leads/inbound",
			Headers: map[string]string{middleware.APIKeyHeader: north.InboundKey}, Body: lead})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_INVALID_API_KEY", testutil.ErrorCode(t, w))

		w = app.Do(t, testutil.Request{Method: http.MethodPost, Path: "/api/v1/leads/inbound",
			Headers: map[string]string{middleware.APIKeyHeader: rotated.Key}, Body: lead})
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("users are tenant scoped", func(t *testing.T) {
		w := app.Do(t, testutil.Request{Path: "/api/v1/auth/me", Token: south.OwnerToken})
		require.Equal(t, http.StatusOK, w.Code)
		southOwner := testutil.DecodeData[identityapp.LoginResult](t, w).User

		w = app.Do(t, testutil.Request{Path: "/api/v1/users/" + southOwner.ID.String(), Token: north.OwnerToken})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
