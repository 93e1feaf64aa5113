package handler

import (
	"github.com/gin-gonic/gin"
	dashboardapp "github.com/remotive/saleshub/internal/application/dashboard"
)

// DashboardHandler serves the home screen counters
type DashboardHandler struct {
	BaseHandler
	dashboardService *dashboardapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *dashboardapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary godoc
// @ID           getDashboard
// @Summary      Dashboard summary
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[dashboardapp.Summary]
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	summary, err := h.dashboardService.Summary(c.Request.Context(), caller)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
