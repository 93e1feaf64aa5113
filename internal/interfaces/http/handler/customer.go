package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	crmapp "github.com/remotive/saleshub/internal/application/crm"
	messagingapp "github.com/remotive/saleshub/internal/application/messaging"
)

// CustomerHandler handles leads, the pipeline board and customer timelines
type CustomerHandler struct {
	BaseHandler
	customerService *crmapp.CustomerService
	messageService  *messagingapp.MessageService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *crmapp.CustomerService, messageService *messagingapp.MessageService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		messageService:  messageService,
	}
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a lead
// @Description  Requires a name and an email or phone. Assignment follows the caller's role.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body crmapp.CreateCustomerRequest true "Lead"
// @Success      201 {object} APIResponse[crmapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Duplicate; existing_id is set when visible"
// @Security     BearerAuth
// @Router       /crm/customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var req crmapp.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Create(c.Request.Context(), caller, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// List godoc
// @ID           listCustomers
// @Summary      List visible customers
// @Description  Role visibility is always applied; search only narrows it
// @Tags         customers
// @Produce      json
// @Param        search query string false "Name, email or phone"
// @Param        stage query string false "Pipeline stage"
// @Param        source query string false "Lead source"
// @Param        temperature query string false "hot, warm or cold"
// @Param        assigned_to_id query string false "Assigned rep" format(uuid)
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "asc or desc"
// @Success      200 {object} APIResponse[[]crmapp.CustomerResponse]
// @Security     BearerAuth
// @Router       /crm/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var filter crmapp.CustomerListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	result, err := h.customerService.List(c.Request.Context(), caller, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Customers, result.Total, result.Page, result.PageSize)
}

// Export godoc
// @ID           exportCustomers
// @Summary      Export visible customers as CSV
// @Tags         customers
// @Produce      text/csv
// @Param        search query string false "Name, email or phone"
// @Param        stage query string false "Pipeline stage"
// @Success      200 {file} file
// @Security     BearerAuth
// @Router       /crm/customers/export [get]
func (h *CustomerHandler) Export(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	var filter crmapp.CustomerListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	// Buffered so a failure can still be reported as a JSON error.
	var buf bytes.Buffer
	rows, err := h.customerService.Export(c.Request.Context(), caller, filter, &buf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("customers-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("X-Total-Count", strconv.Itoa(rows))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Import godoc
// @ID           importCustomers
// @Summary      Import leads from CSV
// @Description  Upload a CSV as multipart field "file" or as a text/csv body. Requires a name column and an email or phone column.
// @Tags         customers
// @Accept       multipart/form-data
// @Accept       text/csv
// @Produce      json
// @Param        file formData file false "CSV file"
// @Success      200 {object} APIResponse[crmapp.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/import [post]
func (h *CustomerHandler) Import(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}

	body := io.Reader(c.Request.Body)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			h.BadRequest(c, "Missing CSV file in field 'file'")
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.BadRequest(c, "Unreadable upload")
			return
		}
		defer f.Close()
		body = f
	}

	result, err := h.customerService.Import(c.Request.Context(), caller, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Get godoc
// @ID           getCustomer
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.CustomerResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body crmapp.UpdateCustomerRequest true "Changes"
// @Success      200 {object} APIResponse[crmapp.CustomerResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id} [patch]
func (h *CustomerHandler) Update(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req crmapp.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Update(c.Request.Context(), caller, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// ChangeStage godoc
// @ID           changeCustomerStage
// @Summary      Move a customer on the pipeline
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body crmapp.ChangeStageRequest true "Target stage"
// @Success      200 {object} APIResponse[crmapp.CustomerResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id}/stage [put]
func (h *CustomerHandler) ChangeStage(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req crmapp.ChangeStageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.ChangeStage(c.Request.Context(), caller, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Reassign godoc
// @ID           reassignCustomer
// @Summary      Reassign a customer
// @Description  Managers within their team, administrators to anyone
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body crmapp.ReassignRequest true "New rep"
// @Success      200 {object} APIResponse[crmapp.CustomerResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id}/assign [put]
func (h *CustomerHandler) Reassign(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req crmapp.ReassignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Reassign(c.Request.Context(), caller, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer
// @Tags         customers
// @Param        id path string true "Customer ID" format(uuid)
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.Delete(c.Request.Context(), caller, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddActivity godoc
// @ID           addCustomerActivity
// @Summary      Log a note, call, email or SMS
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body crmapp.AddActivityRequest true "Activity"
// @Success      201 {object} APIResponse[crmapp.ActivityResponse]
// @Security     BearerAuth
// @Router       /crm/customers/{id}/activities [post]
func (h *CustomerHandler) AddActivity(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req crmapp.AddActivityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	activity, err := h.customerService.AddActivity(c.Request.Context(), caller, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, activity)
}

// ListActivities godoc
// @ID           listCustomerActivities
// @Summary      Customer timeline
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[[]crmapp.ActivityResponse]
// @Security     BearerAuth
// @Router       /crm/customers/{id}/activities [get]
func (h *CustomerHandler) ListActivities(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	activities, err := h.customerService.ListActivities(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, activities)
}

// SendMessage godoc
// @ID           sendCustomerMessage
// @Summary      Send an SMS or email to a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body messagingapp.SendMessageRequest true "Message"
// @Success      201 {object} APIResponse[messagingapp.MessageResponse]
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id}/messages [post]
func (h *CustomerHandler) SendMessage(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req messagingapp.SendMessageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	msg, err := h.messageService.Send(c.Request.Context(), caller, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

// ListMessages godoc
// @ID           listCustomerMessages
// @Summary      Messages exchanged with a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[[]messagingapp.MessageResponse]
// @Security     BearerAuth
// @Router       /crm/customers/{id}/messages [get]
func (h *CustomerHandler) ListMessages(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.messageService.ListByCustomer(c.Request.Context(), caller, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msgs)
}

// Pipeline godoc
// @ID           getPipeline
// @Summary      Pipeline board
// @Description  Visible customers grouped by stage, in stage order
// @Tags         customers
// @Produce      json
// @Param        search query string false "Name, email or phone"
// @Success      200 {object} APIResponse[crmapp.PipelineBoard]
// @Security     BearerAuth
// @Router       /crm/pipeline [get]
func (h *CustomerHandler) Pipeline(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	board, err := h.customerService.Pipeline(c.Request.Context(), caller, c.Query("search"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, board)
}
