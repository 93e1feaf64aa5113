package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// ScheduleDeliveryRequest books a delivery. A nil sale price takes the
// unit's list price; nil commission fields take the dealership settings.
type ScheduleDeliveryRequest struct {
	CustomerID        uuid.UUID        `json:"customer_id" binding:"required"`
	UnitID            uuid.UUID        `json:"unit_id" binding:"required"`
	RepID             *uuid.UUID       `json:"rep_id"`
	SplitRepID        *uuid.UUID       `json:"split_rep_id"`
	SalePrice         *decimal.Decimal `json:"sale_price"`
	Fees              decimal.Decimal  `json:"fees"`
	CommissionPercent *decimal.Decimal `json:"commission_percent"`
	MinimumCommission *decimal.Decimal `json:"minimum_commission"`
	ScheduledFor      time.Time        `json:"scheduled_for" binding:"required"`
	Notes             string           `json:"notes" binding:"max=2000"`
}

// RescheduleDeliveryRequest moves a scheduled delivery
type RescheduleDeliveryRequest struct {
	ScheduledFor time.Time `json:"scheduled_for" binding:"required"`
}

// CancelDeliveryRequest drops a scheduled delivery
type CancelDeliveryRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// DeliveryListFilter narrows the delivery list
type DeliveryListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=scheduled delivered cancelled"`
	CustomerID *uuid.UUID `form:"customer_id"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CommissionReportFilter selects the report period. Zero dates mean the
// current calendar month.
type CommissionReportFilter struct {
	From time.Time `form:"from" time_format:"2006-01-02"`
	To   time.Time `form:"to" time_format:"2006-01-02"`
}

// CommissionLineResponse is one rep's share of a deal
type CommissionLineResponse struct {
	RepID  uuid.UUID       `json:"rep_id"`
	Amount decimal.Decimal `json:"amount"`
}

// DeliveryResponse represents a delivery in API responses
type DeliveryResponse struct {
	ID                uuid.UUID                `json:"id"`
	CustomerID        uuid.UUID                `json:"customer_id"`
	UnitID            uuid.UUID                `json:"unit_id"`
	RepID             uuid.UUID                `json:"rep_id"`
	SplitRepID        *uuid.UUID               `json:"split_rep_id,omitempty"`
	SalePrice         decimal.Decimal          `json:"sale_price"`
	UnitCost          decimal.Decimal          `json:"unit_cost"`
	Fees              decimal.Decimal          `json:"fees"`
	GrossProfit       decimal.Decimal          `json:"gross_profit"`
	CommissionPercent decimal.Decimal          `json:"commission_percent"`
	MinimumCommission decimal.Decimal          `json:"minimum_commission"`
	ScheduledFor      time.Time                `json:"scheduled_for"`
	DeliveredAt       *time.Time               `json:"delivered_at,omitempty"`
	Status            string                   `json:"status"`
	Notes             string                   `json:"notes,omitempty"`
	Commissions       []CommissionLineResponse `json:"commissions"`
	TotalCommission   decimal.Decimal          `json:"total_commission"`
	Version           int                      `json:"version"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

// ToDeliveryResponse converts a domain Delivery to DeliveryResponse
func ToDeliveryResponse(d *sales.Delivery) DeliveryResponse {
	lines := make([]CommissionLineResponse, 0, len(d.Commissions))
	for _, l := range d.Commissions {
		lines = append(lines, CommissionLineResponse{RepID: l.RepID, Amount: l.Amount})
	}
	return DeliveryResponse{
		ID:                d.ID,
		CustomerID:        d.CustomerID,
		UnitID:            d.UnitID,
		RepID:             d.RepID,
		SplitRepID:        d.SplitRepID,
		SalePrice:         d.SalePrice,
		UnitCost:          d.UnitCost,
		Fees:              d.Fees,
		GrossProfit:       d.GrossProfit,
		CommissionPercent: d.Rule.RatePercent,
		MinimumCommission: d.Rule.Minimum,
		ScheduledFor:      d.ScheduledFor,
		DeliveredAt:       d.DeliveredAt,
		Status:            string(d.Status),
		Notes:             d.Notes,
		Commissions:       lines,
		TotalCommission:   d.TotalCommission(),
		Version:           d.Version,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// DeliveryListResult is one page of deliveries
type DeliveryListResult struct {
	Deliveries []DeliveryResponse `json:"deliveries"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// RepCommissionResponse is one row of the commission report
type RepCommissionResponse struct {
	RepID       uuid.UUID       `json:"rep_id"`
	RepName     string          `json:"rep_name"`
	Deals       int64           `json:"deals"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	Commission  decimal.Decimal `json:"commission"`
}

// CommissionReport sums settled commission per rep for a period
type CommissionReport struct {
	From             time.Time               `json:"from"`
	To               time.Time               `json:"to"`
	Reps             []RepCommissionResponse `json:"reps"`
	TotalDeals       int64                   `json:"total_deals"`
	TotalGrossProfit decimal.Decimal         `json:"total_gross_profit"`
	TotalCommission  decimal.Decimal         `json:"total_commission"`
}
