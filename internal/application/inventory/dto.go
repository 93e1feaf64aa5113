package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// CreateUnitRequest represents a request to add a trailer to the lot
type CreateUnitRequest struct {
	StockNumber string           `json:"stock_number" binding:"required,min=1,max=50"`
	VIN         string           `json:"vin" binding:"max=17"`
	Year        int              `json:"year" binding:"omitempty,min=1950,max=2100"`
	Make        string           `json:"make" binding:"max=100"`
	Model       string           `json:"model" binding:"max=100"`
	Category    string           `json:"category" binding:"max=50"`
	Condition   string           `json:"condition" binding:"omitempty,oneof=new used"`
	Cost        decimal.Decimal  `json:"cost"`
	Freight     decimal.Decimal  `json:"freight"`
	Prep        decimal.Decimal  `json:"prep"`
	ListPrice   *decimal.Decimal `json:"list_price"`
}

// UpdateUnitRequest carries optional changes; nil fields are left alone.
type UpdateUnitRequest struct {
	VIN       *string          `json:"vin" binding:"omitempty,max=17"`
	Year      *int             `json:"year" binding:"omitempty,min=1950,max=2100"`
	Make      *string          `json:"make" binding:"omitempty,max=100"`
	Model     *string          `json:"model" binding:"omitempty,max=100"`
	Category  *string          `json:"category" binding:"omitempty,max=50"`
	Condition *string          `json:"condition" binding:"omitempty,oneof=new used"`
	Cost      *decimal.Decimal `json:"cost"`
	Freight   *decimal.Decimal `json:"freight"`
	Prep      *decimal.Decimal `json:"prep"`
	ListPrice *decimal.Decimal `json:"list_price"`
}

// HoldUnitRequest reserves a unit for a customer
type HoldUnitRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
}

// UnitListFilter narrows the inventory list
type UnitListFilter struct {
	Search    string `form:"search"`
	Status    string `form:"status" binding:"omitempty,oneof=available on_hold sold"`
	Category  string `form:"category"`
	Condition string `form:"condition" binding:"omitempty,oneof=new used"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// PricePreviewRequest prices a hypothetical unit. Nil rule fields fall
// back to the dealership settings.
type PricePreviewRequest struct {
	Cost          decimal.Decimal  `json:"cost"`
	Freight       decimal.Decimal  `json:"freight"`
	Prep          decimal.Decimal  `json:"prep"`
	MinimumProfit *decimal.Decimal `json:"minimum_profit"`
	MarkupPercent *decimal.Decimal `json:"markup_percent"`
}

// PricePreviewResponse is the outcome of the pricing rules
type PricePreviewResponse struct {
	LandedCost      decimal.Decimal `json:"landed_cost"`
	DesiredPrice    decimal.Decimal `json:"desired_price"`
	ProjectedProfit decimal.Decimal `json:"projected_profit"`
	MarginPercent   decimal.Decimal `json:"margin_percent"`
	MinimumProfit   decimal.Decimal `json:"minimum_profit"`
	MarkupPercent   decimal.Decimal `json:"markup_percent"`
}

// UnitResponse represents a unit in API responses
type UnitResponse struct {
	ID              uuid.UUID       `json:"id"`
	StockNumber     string          `json:"stock_number"`
	Title           string          `json:"title"`
	VIN             string          `json:"vin,omitempty"`
	Year            int             `json:"year,omitempty"`
	Make            string          `json:"make,omitempty"`
	Model           string          `json:"model,omitempty"`
	Category        string          `json:"category,omitempty"`
	Condition       string          `json:"condition"`
	Cost            decimal.Decimal `json:"cost"`
	Freight         decimal.Decimal `json:"freight"`
	Prep            decimal.Decimal `json:"prep"`
	LandedCost      decimal.Decimal `json:"landed_cost"`
	ListPrice       decimal.Decimal `json:"list_price"`
	DesiredPrice    decimal.Decimal `json:"desired_price"`
	BelowDesired    bool            `json:"below_desired"`
	ProjectedProfit decimal.Decimal `json:"projected_profit"`
	Status          string          `json:"status"`
	HoldCustomerID  *uuid.UUID      `json:"hold_customer_id,omitempty"`
	SoldTo          *uuid.UUID      `json:"sold_to,omitempty"`
	SoldAt          *time.Time      `json:"sold_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToUnitResponse converts a domain Unit to UnitResponse
func ToUnitResponse(u *inventory.Unit) UnitResponse {
	return UnitResponse{
		ID:              u.ID,
		StockNumber:     u.StockNumber,
		Title:           u.Title(),
		VIN:             u.VIN,
		Year:            u.Year,
		Make:            u.Make,
		Model:           u.Model,
		Category:        u.Category,
		Condition:       string(u.Condition),
		Cost:            u.Cost,
		Freight:         u.Freight,
		Prep:            u.Prep,
		LandedCost:      u.LandedCost(),
		ListPrice:       u.ListPrice,
		DesiredPrice:    u.DesiredPrice,
		BelowDesired:    u.IsBelowDesired(),
		ProjectedProfit: u.ListPrice.Sub(u.LandedCost()),
		Status:          string(u.Status),
		HoldCustomerID:  u.HoldCustomer,
		SoldTo:          u.SoldTo,
		SoldAt:          u.SoldAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// UnitListResult is one page of units
type UnitListResult struct {
	Units      []UnitResponse `json:"units"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}
