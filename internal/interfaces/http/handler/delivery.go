package handler

import (
	"github.com/gin-gonic/gin"
	salesapp "github.com/remotive/saleshub/internal/application/sales"
)

// DeliveryHandler handles deliveries and commission reporting
type DeliveryHandler struct {
	BaseHandler
	deliveryService *salesapp.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler
func NewDeliveryHandler(deliveryService *salesapp.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

// Schedule godoc
// @ID           scheduleDelivery
// @Summary      Schedule a delivery
// @Description  Holds the unit and fixes sale price, cost and commission rates
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Param        request body salesapp.ScheduleDeliveryRequest true "Delivery"
// @Success      201 {object} APIResponse[salesapp.DeliveryResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/deliveries [post]
func (h *DeliveryHandler) Schedule(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req salesapp.ScheduleDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	delivery, err := h.deliveryService.Schedule(c.Request.Context(), caller, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, delivery)
}

// List godoc
// @ID           listDeliveries
// @Summary      List deliveries
// @Tags         deliveries
// @Produce      json
// @Param        status query string false "scheduled, delivered or cancelled"
// @Param        customer_id query string false "Customer" format(uuid)
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD)"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]salesapp.DeliveryResponse]
// @Security     BearerAuth
// @Router       /sales/deliveries [get]
func (h *DeliveryHandler) List(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var filter salesapp.DeliveryListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	result, err := h.deliveryService.List(c.Request.Context(), caller, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Deliveries, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @ID           getDelivery
// @Summary      Get a delivery
// @Tags         deliveries
// @Produce      json
// @Param        id path string true "Delivery ID" format(uuid)
// @Success      200 {object} APIResponse[salesapp.DeliveryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/deliveries/{id} [get]
func (h *DeliveryHandler) Get(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	delivery, err := h.deliveryService.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, delivery)
}

// Reschedule godoc
// @ID           rescheduleDelivery
// @Summary      Move a scheduled delivery
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Param        id path string true "Delivery ID" format(uuid)
// @Param        request body salesapp.RescheduleDeliveryRequest true "New date"
// @Success      200 {object} APIResponse[salesapp.DeliveryResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/deliveries/{id}/schedule [put]
func (h *DeliveryHandler) Reschedule(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req salesapp.RescheduleDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	delivery, err := h.deliveryService.Reschedule(c.Request.Context(), caller, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, delivery)
}

// Complete godoc
// @ID           completeDelivery
// @Summary      Complete a delivery
// @Description  Marks the unit sold and the customer delivered
// @Tags         deliveries
// @Produce      json
// @Param        id path string true "Delivery ID" format(uuid)
// @Success      200 {object} APIResponse[salesapp.DeliveryResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/deliveries/{id}/complete [post]
func (h *DeliveryHandler) Complete(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	delivery, err := h.deliveryService.Complete(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, delivery)
}

// Cancel godoc
// @ID           cancelDelivery
// @Summary      Cancel a delivery
// @Description  Releases the held unit
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Param        id path string true "Delivery ID" format(uuid)
// @Param        request body salesapp.CancelDeliveryRequest false "Reason"
// @Success      200 {object} APIResponse[salesapp.DeliveryResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/deliveries/{id}/cancel [post]
func (h *DeliveryHandler) Cancel(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req salesapp.CancelDeliveryRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	delivery, err := h.deliveryService.Cancel(c.Request.Context(), caller, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, delivery)
}

// CommissionReport godoc
// @ID           getCommissionReport
// @Summary      Commission by rep
// @Description  Delivered deals in the period, scoped to the caller's reps. Defaults to the current month.
// @Tags         deliveries
// @Produce      json
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[salesapp.CommissionReport]
// @Security     BearerAuth
// @Router       /sales/commissions [get]
func (h *DeliveryHandler) CommissionReport(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var filter salesapp.CommissionReportFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	report, err := h.deliveryService.CommissionReport(c.Request.Context(), caller, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
