package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DeliveryQuery filters deliveries. A nil RepIDs means every rep.
type DeliveryQuery struct {
	Filter     shared.Filter
	RepIDs     []uuid.UUID
	Status     DeliveryStatus
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// DeliverySummary counts deliveries for the dashboard.
type DeliverySummary struct {
	Delivered   int64
	GrossProfit decimal.Decimal
	Scheduled   int64
}

// DeliveryRepository persists deliveries and their commission lines.
type DeliveryRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Delivery, error)
	FindOpenByUnit(ctx context.Context, tenantID, unitID uuid.UUID) (*Delivery, error)
	List(ctx context.Context, tenantID uuid.UUID, q DeliveryQuery) ([]Delivery, int64, error)
	// CommissionByRep sums settled commission per rep for deliveries
	// completed in [from, to). A nil repIDs means every rep.
	CommissionByRep(ctx context.Context, tenantID uuid.UUID, repIDs []uuid.UUID, from, to time.Time) ([]RepCommission, error)
	// Summary counts deliveries completed in [from, to) plus every delivery
	// still scheduled. A nil repIDs means every rep.
	Summary(ctx context.Context, tenantID uuid.UUID, repIDs []uuid.UUID, from, to time.Time) (DeliverySummary, error)
	Save(ctx context.Context, d *Delivery) error
}
