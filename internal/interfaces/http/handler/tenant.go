package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/remotive/saleshub/internal/application/identity"
)

// TenantHandler handles the caller's own dealership
type TenantHandler struct {
	BaseHandler
	tenantService *identityapp.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService *identityapp.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// Get godoc
// @ID           getTenant
// @Summary      Get dealership
// @Tags         tenant
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.TenantInfo]
// @Security     BearerAuth
// @Router       /tenant [get]
func (h *TenantHandler) Get(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	tenant, err := h.tenantService.Get(c.Request.Context(), caller)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// UpdateSettings godoc
// @ID           updateTenantSettings
// @Summary      Update dealership settings
// @Description  Pricing, commission, doc fee and tax defaults
// @Tags         tenant
// @Accept       json
// @Produce      json
// @Param        request body identityapp.SettingsDTO true "Settings"
// @Success      200 {object} APIResponse[identityapp.TenantInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/settings [put]
func (h *TenantHandler) UpdateSettings(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req identityapp.SettingsDTO
	if !h.BindJSON(c, &req) {
		return
	}
	tenant, err := h.tenantService.UpdateSettings(c.Request.Context(), caller, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// RotateInboundKey godoc
// @ID           rotateInboundKey
// @Summary      Generate inbound lead API key
// @Description  Replaces any existing key. The plain key is only returned here.
// @Tags         tenant
// @Produce      json
// @Success      201 {object} APIResponse[identityapp.InboundKeyResult]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/inbound-key [post]
func (h *TenantHandler) RotateInboundKey(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	result, err := h.tenantService.RotateInboundKey(c.Request.Context(), caller)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
