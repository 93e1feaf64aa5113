package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/remotive/saleshub/internal/application/crm"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/interfaces/http/dto"
	"github.com/remotive/saleshub/internal/interfaces/http/middleware"
	"github.com/remotive/saleshub/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorRouter(err error) *gin.Engine {
	h := &BaseHandler{}
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/err", func(c *gin.Context) { h.HandleError(c, err) })
	return r
}

func TestHandleError_DomainCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"stage transition", shared.NewDomainError("INVALID_STAGE_TRANSITION", "no"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidStageChange},
		{"unlisted invalid input", shared.NewDomainError("INVALID_TERM", "no"), http.StatusBadRequest, "ERR_INVALID_TERM"},
		{"unlisted rule", shared.NewDomainError("CONTACT_REQUIRED", "no"), http.StatusUnprocessableEntity, "ERR_CONTACT_REQUIRED"},
		{"wrapped", fmt.Errorf("loading: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"send failed", shared.NewDomainError("SEND_FAILED", "provider down"), http.StatusBadGateway, dto.ErrCodeSendFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.Do(t, errorRouter(tt.err), testutil.Request{Path: "/err"})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, testutil.ErrorCode(t, w))
		})
	}
}

func TestHandleError_UnknownErrorHidesDetail(t *testing.T) {
	w := testutil.Do(t, errorRouter(errors.New("pq: connection refused")), testutil.Request{Path: "/err"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := testutil.DecodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeInternal, env.Error.Code)
	assert.NotContains(t, env.Error.Message, "pq")
}

func TestHandleError_DuplicateCarriesExistingID(t *testing.T) {
	id := uuid.New()
	dup := &crmapp.DuplicateCustomerError{
		DomainError: shared.NewDomainError("ALREADY_EXISTS", "exists"),
		ExistingID:  &id,
	}
	w := testutil.Do(t, errorRouter(dup), testutil.Request{Path: "/err"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"existing_id":"`+id.String()+`"`)

	hidden := &crmapp.DuplicateCustomerError{DomainError: shared.NewDomainError("ALREADY_EXISTS", "exists")}
	w = testutil.Do(t, errorRouter(hidden), testutil.Request{Path: "/err"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotContains(t, w.Body.String(), "existing_id")
}

func TestHandleError_RequestIDEchoed(t *testing.T) {
	w := testutil.Do(t, errorRouter(shared.ErrNotFound), testutil.Request{
		Path:    "/err",
		Headers: map[string]string{middleware.RequestIDHeader: "req-abc"},
	})
	assert.Contains(t, w.Body.String(), `"request_id":"req-abc"`)
}

func TestBaseHandler_ParamIDAndCaller(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		if _, ok := h.Caller(c); !ok {
			return
		}
		id, ok := h.ParamID(c, "id")
		if !ok {
			return
		}
		h.Success(c, id)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r2 := gin.New()
	r2.Use(func(c *gin.Context) {
		middleware.SetCaller(c, testCaller())
		c.Next()
	})
	r2.GET("/things/:id", func(c *gin.Context) {
		if _, ok := h.ParamID(c, "id"); !ok {
			return
		}
		h.NoContent(c)
	})
	w = testutil.Do(t, r2, testutil.Request{Path: "/things/not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, testutil.ErrorCode(t, w))
}
