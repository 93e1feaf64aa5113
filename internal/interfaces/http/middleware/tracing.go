// Package middleware provides the gin middleware chain for the SalesHub API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys set on every API request span.
const (
	AttrRequestID     = attribute.Key("request_id")
	AttrTenantID      = attribute.Key("tenant_id")
	AttrUserID        = attribute.Key("user_id")
	AttrRole          = attribute.Key("saleshub.role")
	AttrAuthMethod    = attribute.Key("saleshub.auth")
	AttrInboundTenant = attribute.Key("saleshub.inbound_tenant")
)

const (
	authMethodJWT      = "jwt"
	authMethodInbound  = "api_key"
	defaultServiceName = "saleshub"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing wraps otelgin. Spans are named "METHOD /route/:pattern" and carry
// the request ID; caller attributes are added by AnnotateSpan once a
// request is authenticated.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	name := cfg.ServiceName
	if name == "" {
		name = defaultServiceName
	}
	return otelgin.Middleware(name)
}

// TracingAttributeInjector annotates the span after JWT authentication.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		AnnotateSpan(c)
		c.Next()
	}
}

// AnnotateSpan copies who is calling onto the request span: the dashboard
// user and role for JWT traffic, the owning dealership for lead feeds.
// Tenant IDs come only from verified credentials, never from headers.
func AnnotateSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	if id := c.GetString(RequestIDKey); id != "" {
		span.SetAttributes(AttrRequestID.String(id))
	}
	if tenantID := c.GetString(JWTTenantIDKey); tenantID != "" {
		span.SetAttributes(AttrTenantID.String(tenantID))
	}
	if caller, ok := GetCaller(c); ok {
		span.SetAttributes(
			AttrUserID.String(caller.UserID.String()),
			AttrRole.String(string(caller.Role)),
			AttrAuthMethod.String(authMethodJWT),
		)
		return
	}
	if tenant, ok := GetInboundTenant(c); ok {
		span.SetAttributes(
			AttrInboundTenant.String(tenant.Code),
			AttrAuthMethod.String(authMethodInbound),
		)
	}
}
