package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UnitQuery filters the inventory list.
type UnitQuery struct {
	Filter    shared.Filter
	Status    UnitStatus
	Category  string
	Condition Condition
}

// InventorySummary aggregates what is on the lot.
type InventorySummary struct {
	AvailableCount int64
	AvailableValue decimal.Decimal
	OnHoldCount    int64
}

// UnitRepository persists trailers.
type UnitRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Unit, error)
	FindByStockNumber(ctx context.Context, tenantID uuid.UUID, stockNumber string) (*Unit, error)
	ExistsByStockNumber(ctx context.Context, tenantID uuid.UUID, stockNumber string) (bool, error)
	List(ctx context.Context, tenantID uuid.UUID, q UnitQuery) ([]Unit, int64, error)
	Summary(ctx context.Context, tenantID uuid.UUID) (InventorySummary, error)
	Save(ctx context.Context, u *Unit) error
}
