package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// DeliveryModel is the persistence model for a booked delivery.
type DeliveryModel struct {
	TenantAggregateModel
	CustomerID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	UnitID            uuid.UUID             `gorm:"type:uuid;not null;index"`
	RepID             uuid.UUID             `gorm:"type:uuid;not null;index"`
	SplitRepID        *uuid.UUID            `gorm:"type:uuid"`
	SalePrice         decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	UnitCost          decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	Fees              decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	CommissionPercent decimal.Decimal       `gorm:"type:decimal(6,2);not null"`
	MinimumCommission decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	ScheduledFor      time.Time             `gorm:"not null;index"`
	DeliveredAt       *time.Time            `gorm:"index"`
	Status            sales.DeliveryStatus  `gorm:"type:varchar(20);not null;index"`
	Notes             string                `gorm:"type:text"`
	GrossProfit       decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	Commissions       []CommissionLineModel `gorm:"foreignKey:DeliveryID"`
}

// TableName returns the table name for GORM
func (DeliveryModel) TableName() string {
	return "deliveries"
}

// CommissionLineModel is one rep's settled share of a delivery.
type CommissionLineModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	DeliveryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	RepID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (CommissionLineModel) TableName() string {
	return "commission_lines"
}

// ToDomain converts the persistence model to a domain Delivery.
func (m *DeliveryModel) ToDomain() *sales.Delivery {
	lines := make([]sales.CommissionLine, len(m.Commissions))
	for i, l := range m.Commissions {
		lines[i] = sales.CommissionLine{RepID: l.RepID, Amount: l.Amount}
	}
	return &sales.Delivery{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		CustomerID:          m.CustomerID,
		UnitID:              m.UnitID,
		RepID:               m.RepID,
		SplitRepID:          m.SplitRepID,
		SalePrice:           m.SalePrice,
		UnitCost:            m.UnitCost,
		Fees:                m.Fees,
		Rule: sales.CommissionRule{
			RatePercent: m.CommissionPercent,
			Minimum:     m.MinimumCommission,
		},
		ScheduledFor: m.ScheduledFor,
		DeliveredAt:  m.DeliveredAt,
		Status:       m.Status,
		Notes:        m.Notes,
		GrossProfit:  m.GrossProfit,
		Commissions:  lines,
	}
}

// DeliveryModelFromDomain creates a persistence model, commission lines
// included, from a domain Delivery.
func DeliveryModelFromDomain(d *sales.Delivery) *DeliveryModel {
	m := &DeliveryModel{
		CustomerID:        d.CustomerID,
		UnitID:            d.UnitID,
		RepID:             d.RepID,
		SplitRepID:        d.SplitRepID,
		SalePrice:         d.SalePrice,
		UnitCost:          d.UnitCost,
		Fees:              d.Fees,
		CommissionPercent: d.Rule.RatePercent,
		MinimumCommission: d.Rule.Minimum,
		ScheduledFor:      d.ScheduledFor,
		DeliveredAt:       d.DeliveredAt,
		Status:            d.Status,
		Notes:             d.Notes,
		GrossProfit:       d.GrossProfit,
	}
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	for _, l := range d.Commissions {
		m.Commissions = append(m.Commissions, CommissionLineModel{
			ID:         uuid.New(),
			TenantID:   d.TenantID,
			DeliveryID: d.ID,
			RepID:      l.RepID,
			Amount:     l.Amount,
		})
	}
	return m
}
