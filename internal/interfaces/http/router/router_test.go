package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.APIVersion())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.APIVersion())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	crm := NewDomainGroup("crm", "/crm")
	crm.GET("/pipeline", func(c *gin.Context) {
		c.String(http.StatusOK, "board")
	})
	r.Register(crm).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/crm/pipeline")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "board", w.Body.String())
}

func TestRouterUseAppliesToAPIRoutesOnly(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	})
	g := NewDomainGroup("dashboard", "/dashboard")
	g.GET("", func(c *gin.Context) { c.String(http.StatusOK, "summary") })
	r.Register(g).Setup()

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/dashboard").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
}

func TestDomainGroupVerbs(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("units", "/units")
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.GET("/:id", ok).
		POST("", ok).
		PUT("/:id", ok).
		PATCH("/:id", ok).
		DELETE("/:id", ok)
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/units/42"},
		{http.MethodPost, "/api/v1/units"},
		{http.MethodPut, "/api/v1/units/42"},
		{http.MethodPatch, "/api/v1/units/42"},
		{http.MethodDelete, "/api/v1/units/42"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.method, w.Body.String())
		})
	}
}

func TestDomainGroupMiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("inventory", "/inventory")
	assert.Equal(t, "inventory", g.Name())
	assert.Equal(t, "/inventory", g.Prefix())

	g.Use(func(c *gin.Context) {
		c.Header("X-Group", "inventory")
		c.Next()
	})
	g.GET("/summary", func(c *gin.Context) { c.String(http.StatusOK, "summary") })
	units := g.Group("units", "/units")
	units.GET("", func(c *gin.Context) { c.String(http.StatusOK, "units") })
	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/inventory/units")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "units", w.Body.String())
	assert.Equal(t, "inventory", w.Header().Get("X-Group"))

	assert.Equal(t, []string{"GET /inventory/summary", "GET /inventory/units"}, g.Routes())
}
