package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	quoteapp "github.com/remotive/saleshub/internal/application/quote"
)

// QuoteHandler handles customer quotes and their documents
type QuoteHandler struct {
	BaseHandler
	quoteService *quoteapp.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService *quoteapp.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

// Create godoc
// @ID           createQuote
// @Summary      Create a quote
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        request body quoteapp.CreateQuoteRequest true "Quote"
// @Success      201 {object} APIResponse[quoteapp.QuoteResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req quoteapp.CreateQuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	q, err := h.quoteService.Create(c.Request.Context(), caller, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, q)
}

// Get godoc
// @ID           getQuote
// @Summary      Get a quote
// @Tags         quotes
// @Produce      json
// @Param        id path string true "Quote ID" format(uuid)
// @Success      200 {object} APIResponse[quoteapp.QuoteResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /quotes/{id} [get]
func (h *QuoteHandler) Get(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	q, err := h.quoteService.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// ListByCustomer godoc
// @ID           listCustomerQuotes
// @Summary      Quotes for a customer
// @Tags         quotes
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[[]quoteapp.QuoteResponse]
// @Security     BearerAuth
// @Router       /crm/customers/{id}/quotes [get]
func (h *QuoteHandler) ListByCustomer(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	quotes, err := h.quoteService.ListByCustomer(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quotes)
}

// HTML godoc
// @ID           renderQuoteHTML
// @Summary      Quote as HTML
// @Tags         quotes
// @Produce      html
// @Param        id path string true "Quote ID" format(uuid)
// @Success      200 {string} string
// @Security     BearerAuth
// @Router       /quotes/{id}/html [get]
func (h *QuoteHandler) HTML(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	html, err := h.quoteService.RenderHTML(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// PDF godoc
// @ID           renderQuotePDF
// @Summary      Quote as PDF
// @Description  X-Archive-URL carries a presigned link when archiving is enabled
// @Tags         quotes
// @Produce      application/pdf
// @Param        id path string true "Quote ID" format(uuid)
// @Success      200 {file} file
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /quotes/{id}/pdf [get]
func (h *QuoteHandler) PDF(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.quoteService.RenderPDF(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if doc.URL != "" {
		c.Header("X-Archive-URL", doc.URL)
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

// MarkSent godoc
// @ID           markQuoteSent
// @Summary      Mark a quote sent
// @Tags         quotes
// @Produce      json
// @Param        id path string true "Quote ID" format(uuid)
// @Success      200 {object} APIResponse[quoteapp.QuoteResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /quotes/{id}/send [post]
func (h *QuoteHandler) MarkSent(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	q, err := h.quoteService.MarkSent(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// MarkAccepted godoc
// @ID           markQuoteAccepted
// @Summary      Mark a quote accepted
// @Tags         quotes
// @Produce      json
// @Param        id path string true "Quote ID" format(uuid)
// @Success      200 {object} APIResponse[quoteapp.QuoteResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /quotes/{id}/accept [post]
func (h *QuoteHandler) MarkAccepted(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	q, err := h.quoteService.MarkAccepted(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}
