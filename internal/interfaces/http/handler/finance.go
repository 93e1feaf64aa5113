package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/remotive/saleshub/internal/application/finance"
)

// FinanceHandler exposes the payment calculator
type FinanceHandler struct {
	BaseHandler
	calculator *financeapp.CalculatorService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(calculator *financeapp.CalculatorService) *FinanceHandler {
	return &FinanceHandler{calculator: calculator}
}

// Calculate godoc
// @ID           calculatePayment
// @Summary      Estimate cash, finance or rent-to-own payments
// @Tags         finance
// @Accept       json
// @Produce      json
// @Param        request body financeapp.CalculateRequest true "Deal"
// @Success      200 {object} APIResponse[financeapp.EstimateResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /finance/calculate [post]
func (h *FinanceHandler) Calculate(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req financeapp.CalculateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	estimate, err := h.calculator.Calculate(c.Request.Context(), caller, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, estimate)
}

// Options godoc
// @ID           getFinanceOptions
// @Summary      Calculator defaults
// @Description  Dealership doc fee and tax rate plus the supported rent-to-own terms
// @Tags         finance
// @Produce      json
// @Success      200 {object} APIResponse[financeapp.OptionsResponse]
// @Security     BearerAuth
// @Router       /finance/options [get]
func (h *FinanceHandler) Options(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	opts, err := h.calculator.Options(c.Request.Context(), caller)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, opts)
}
