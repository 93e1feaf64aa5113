package crm

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/infrastructure/csvimport"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Customer DTOs
// =============================================================================

// InterestRequest describes what the customer is shopping for.
type InterestRequest struct {
	TrailerType string           `json:"trailer_type" binding:"max=100"`
	StockNumber string           `json:"stock_number" binding:"max=50"`
	Budget      *decimal.Decimal `json:"budget"`
	Payment     string           `json:"payment" binding:"omitempty,oneof=cash finance rto"`
}

func (r *InterestRequest) domain() (crm.Interest, error) {
	pay, err := crm.ParsePaymentPreference(r.Payment)
	if err != nil {
		return crm.Interest{}, err
	}
	i := crm.Interest{TrailerType: r.TrailerType, StockNumber: r.StockNumber, Payment: pay}
	if r.Budget != nil {
		i.Budget = *r.Budget
	}
	return i, nil
}

// CreateCustomerRequest represents a request to create a new lead
type CreateCustomerRequest struct {
	Name         string           `json:"name" binding:"required,min=1,max=200"`
	Email        string           `json:"email" binding:"omitempty,email,max=200"`
	Phone        string           `json:"phone" binding:"max=50"`
	City         string           `json:"city" binding:"max=100"`
	State        string           `json:"state" binding:"max=50"`
	Source       string           `json:"source" binding:"max=50"`
	AssignedToID *uuid.UUID       `json:"assigned_to_id"`
	Interest     *InterestRequest `json:"interest"`
	Notes        string           `json:"notes"`
	Tags         []string         `json:"tags"`
}

// UpdateCustomerRequest carries optional changes; nil fields are left alone.
type UpdateCustomerRequest struct {
	Name     *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Email    *string          `json:"email" binding:"omitempty,max=200"`
	Phone    *string          `json:"phone" binding:"omitempty,max=50"`
	City     *string          `json:"city" binding:"omitempty,max=100"`
	State    *string          `json:"state" binding:"omitempty,max=50"`
	Interest *InterestRequest `json:"interest"`
	Notes    *string          `json:"notes"`
	Tags     []string         `json:"tags"`
	// Version enables optimistic locking when set.
	Version *int `json:"version"`
}

// ChangeStageRequest moves a customer on the board
type ChangeStageRequest struct {
	Stage string `json:"stage" binding:"required"`
	Note  string `json:"note" binding:"max=5000"`
}

// ReassignRequest hands a customer to another rep
type ReassignRequest struct {
	AssignedToID uuid.UUID `json:"assigned_to_id" binding:"required"`
}

// AddActivityRequest logs a manual timeline entry
type AddActivityRequest struct {
	Type string `json:"type" binding:"required,oneof=note call email sms"`
	Body string `json:"body" binding:"required,min=1,max=5000"`
}

// CustomerListFilter narrows the visible customer list
type CustomerListFilter struct {
	Search       string     `form:"search"`
	Stage        string     `form:"stage"`
	Source       string     `form:"source"`
	Temperature  string     `form:"temperature" binding:"omitempty,oneof=hot warm cold"`
	AssignedToID *uuid.UUID `form:"assigned_to_id"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// InterestResponse is the interest block of a customer
type InterestResponse struct {
	TrailerType string          `json:"trailer_type,omitempty"`
	StockNumber string          `json:"stock_number,omitempty"`
	Budget      decimal.Decimal `json:"budget"`
	Payment     string          `json:"payment,omitempty"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID              uuid.UUID        `json:"id"`
	TenantID        uuid.UUID        `json:"tenant_id"`
	Name            string           `json:"name"`
	Email           string           `json:"email,omitempty"`
	Phone           string           `json:"phone,omitempty"`
	City            string           `json:"city,omitempty"`
	State           string           `json:"state,omitempty"`
	Source          string           `json:"source"`
	Stage           string           `json:"stage"`
	AssignedToID    *uuid.UUID       `json:"assigned_to_id,omitempty"`
	ManagerID       *uuid.UUID       `json:"manager_id,omitempty"`
	Score           int              `json:"score"`
	Temperature     string           `json:"temperature"`
	Interest        InterestResponse `json:"interest"`
	Notes           string           `json:"notes,omitempty"`
	Tags            []string         `json:"tags"`
	InquiryCount    int              `json:"inquiry_count"`
	LastContactedAt *time.Time       `json:"last_contacted_at,omitempty"`
	LastInquiryAt   *time.Time       `json:"last_inquiry_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Version         int              `json:"version"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *crm.Customer) CustomerResponse {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return CustomerResponse{
		ID:           c.ID,
		TenantID:     c.TenantID,
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		City:         c.City,
		State:        c.State,
		Source:       string(c.Source),
		Stage:        string(c.Stage),
		AssignedToID: c.AssignedToID,
		ManagerID:    c.ManagerID,
		Score:        c.Score,
		Temperature:  string(c.Temperature),
		Interest: InterestResponse{
			TrailerType: c.Interest.TrailerType,
			StockNumber: c.Interest.StockNumber,
			Budget:      c.Interest.Budget,
			Payment:     string(c.Interest.Payment),
		},
		Notes:           c.Notes,
		Tags:            tags,
		InquiryCount:    c.InquiryCount,
		LastContactedAt: c.LastContactedAt,
		LastInquiryAt:   c.LastInquiryAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Version:         c.Version,
	}
}

// ToCustomerResponses converts a slice of customers
func ToCustomerResponses(customers []crm.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(customers))
	for i := range customers {
		out[i] = ToCustomerResponse(&customers[i])
	}
	return out
}

// CustomerListResult is one page of visible customers
type CustomerListResult struct {
	Customers  []CustomerResponse `json:"customers"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// ImportResult summarises a CSV upload. Errors lists the first problems by
// file line; duplicates are reported there too.
type ImportResult struct {
	TotalRows       int                  `json:"total_rows"`
	Created         int                  `json:"created"`
	Duplicates      int                  `json:"duplicates"`
	Failed          int                  `json:"failed"`
	Errors          []csvimport.RowError `json:"errors"`
	ErrorsTruncated bool                 `json:"errors_truncated"`
}

// ActivityResponse is one timeline entry
type ActivityResponse struct {
	ID         uuid.UUID  `json:"id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	Type       string     `json:"type"`
	Body       string     `json:"body"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ToActivityResponse converts a domain Activity
func ToActivityResponse(a *crm.Activity) ActivityResponse {
	return ActivityResponse{
		ID:         a.ID,
		CustomerID: a.CustomerID,
		Type:       string(a.Type),
		Body:       a.Body,
		ActorID:    a.ActorID,
		CreatedAt:  a.CreatedAt,
	}
}

// PipelineColumn is one stage of the board
type PipelineColumn struct {
	Stage     string             `json:"stage"`
	Count     int                `json:"count"`
	Customers []CustomerResponse `json:"customers"`
}

// PipelineBoard is the visible pipeline in stage order
type PipelineBoard struct {
	Columns []PipelineColumn `json:"columns"`
	Total   int              `json:"total"`
}

// =============================================================================
// Inbound DTOs
// =============================================================================

// InboundLeadRequest is the payload posted by website forms and lead feeds
type InboundLeadRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Email       string           `json:"email" binding:"omitempty,max=200"`
	Phone       string           `json:"phone" binding:"max=50"`
	Source      string           `json:"source" binding:"max=50"`
	Message     string           `json:"message" binding:"max=5000"`
	City        string           `json:"city" binding:"max=100"`
	State       string           `json:"state" binding:"max=50"`
	TrailerType string           `json:"trailer_type" binding:"max=100"`
	StockNumber string           `json:"stock_number" binding:"max=50"`
	Budget      *decimal.Decimal `json:"budget"`
	Payment     string           `json:"payment"`
	RepEmail    string           `json:"rep_email" binding:"max=200"`
}

// InboundResult reports what intake did with a lead
type InboundResult struct {
	CustomerID   uuid.UUID  `json:"customer_id"`
	Duplicate    bool       `json:"duplicate"`
	Reopened     bool       `json:"reopened,omitempty"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty"`
}
