package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/remotive/saleshub/internal/application/inventory"
	"github.com/shopspring/decimal"
)

// UnitHandler handles trailer inventory
type UnitHandler struct {
	BaseHandler
	unitService *inventoryapp.UnitService
}

// NewUnitHandler creates a new UnitHandler
func NewUnitHandler(unitService *inventoryapp.UnitService) *UnitHandler {
	return &UnitHandler{unitService: unitService}
}

// MarkSoldRequest names the buyer of a unit
type MarkSoldRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
}

// InventorySummaryResponse reports what is on the lot
type InventorySummaryResponse struct {
	AvailableCount int64           `json:"available_count"`
	AvailableValue decimal.Decimal `json:"available_value"`
	OnHoldCount    int64           `json:"on_hold_count"`
}

// Create godoc
// @ID           createUnit
// @Summary      Add a trailer
// @Description  The desired price is derived from landed cost and dealership pricing settings
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateUnitRequest true "Unit"
// @Success      201 {object} APIResponse[inventoryapp.UnitResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/units [post]
func (h *UnitHandler) Create(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req inventoryapp.CreateUnitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	unit, err := h.unitService.Create(c.Request.Context(), caller, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, unit)
}

// List godoc
// @ID           listUnits
// @Summary      List trailers
// @Tags         inventory
// @Produce      json
// @Param        search query string false "Stock number, VIN, make or model"
// @Param        status query string false "available, on_hold or sold"
// @Param        category query string false "Category"
// @Param        condition query string false "new or used"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]inventoryapp.UnitResponse]
// @Security     BearerAuth
// @Router       /inventory/units [get]
func (h *UnitHandler) List(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var filter inventoryapp.UnitListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	result, err := h.unitService.List(c.Request.Context(), caller, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Units, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @ID           getUnit
// @Summary      Get a trailer
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Unit ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.UnitResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/units/{id} [get]
func (h *UnitHandler) Get(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	unit, err := h.unitService.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, unit)
}

// Update godoc
// @ID           updateUnit
// @Summary      Update a trailer
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "Unit ID" format(uuid)
// @Param        request body inventoryapp.UpdateUnitRequest true "Changes"
// @Success      200 {object} APIResponse[inventoryapp.UnitResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/units/{id} [patch]
func (h *UnitHandler) Update(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.UpdateUnitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	unit, err := h.unitService.Update(c.Request.Context(), caller, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, unit)
}

// Hold godoc
// @ID           holdUnit
// @Summary      Put a trailer on hold for a customer
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "Unit ID" format(uuid)
// @Param        request body inventoryapp.HoldUnitRequest true "Customer"
// @Success      200 {object} APIResponse[inventoryapp.UnitResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/units/{id}/hold [post]
func (h *UnitHandler) Hold(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.HoldUnitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	unit, err := h.unitService.Hold(c.Request.Context(), caller, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, unit)
}

// Release godoc
// @ID           releaseUnit
// @Summary      Release a hold
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Unit ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.UnitResponse]
// @Security     BearerAuth
// @Router       /inventory/units/{id}/release [post]
func (h *UnitHandler) Release(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	unit, err := h.unitService.Release(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, unit)
}

// MarkSold godoc
// @ID           markUnitSold
// @Summary      Mark a trailer sold
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "Unit ID" format(uuid)
// @Param        request body MarkSoldRequest true "Buyer"
// @Success      200 {object} APIResponse[inventoryapp.UnitResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/units/{id}/sold [post]
func (h *UnitHandler) MarkSold(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req MarkSoldRequest
	if !h.BindJSON(c, &req) {
		return
	}
	unit, err := h.unitService.MarkSold(c.Request.Context(), caller, id, req.CustomerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, unit)
}

// PricePreview godoc
// @ID           previewUnitPrice
// @Summary      Preview a desired price
// @Description  Pricing settings default to the dealership's and may be overridden
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.PricePreviewRequest true "Costs"
// @Success      200 {object} APIResponse[inventoryapp.PricePreviewResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/price-preview [post]
func (h *UnitHandler) PricePreview(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req inventoryapp.PricePreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	preview, err := h.unitService.PricePreview(c.Request.Context(), caller, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// Summary godoc
// @ID           getInventorySummary
// @Summary      Lot summary
// @Tags         inventory
// @Produce      json
// @Success      200 {object} APIResponse[InventorySummaryResponse]
// @Security     BearerAuth
// @Router       /inventory/summary [get]
func (h *UnitHandler) Summary(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	summary, err := h.unitService.Summary(c.Request.Context(), caller)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, InventorySummaryResponse{
		AvailableCount: summary.AvailableCount,
		AvailableValue: summary.AvailableValue,
		OnHoldCount:    summary.OnHoldCount,
	})
}
