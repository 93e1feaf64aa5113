package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	crmapp "github.com/remotive/saleshub/internal/application/crm"
	"github.com/remotive/saleshub/internal/interfaces/http/dto"
	"github.com/remotive/saleshub/internal/interfaces/http/middleware"
)

// InboundHandler receives leads from website forms and lead feeds
type InboundHandler struct {
	BaseHandler
	inboundService *crmapp.InboundService
}

// NewInboundHandler creates a new InboundHandler
func NewInboundHandler(inboundService *crmapp.InboundService) *InboundHandler {
	return &InboundHandler{inboundService: inboundService}
}

// Receive godoc
// @ID           receiveInboundLead
// @Summary      Submit an inbound lead
// @Description  Deduplicates by email or phone. Returns 201 for a new lead and 200 for a repeat inquiry.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        X-API-Key header string true "Dealership inbound key"
// @Param        request body crmapp.InboundLeadRequest true "Lead"
// @Success      200 {object} APIResponse[crmapp.InboundResult]
// @Success      201 {object} APIResponse[crmapp.InboundResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /leads/inbound [post]
func (h *InboundHandler) Receive(c *gin.Context) {
	tenant, ok := middleware.GetInboundTenant(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidAPIKey, "Missing or invalid API key")
		return
	}
	var req crmapp.InboundLeadRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.inboundService.Receive(c.Request.Context(), tenant.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}
