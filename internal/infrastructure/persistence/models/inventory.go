package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// UnitModel is the persistence model for a trailer on the lot.
type UnitModel struct {
	TenantAggregateModel
	StockNumber  string               `gorm:"type:varchar(50);not null"`
	VIN          string               `gorm:"column:vin;type:varchar(17)"`
	Year         int                  `gorm:"not null"`
	Make         string               `gorm:"type:varchar(100);not null"`
	Model        string               `gorm:"type:varchar(100)"`
	Category     string               `gorm:"type:varchar(50);index"`
	Condition    inventory.Condition  `gorm:"type:varchar(10);not null"`
	Cost         decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	Freight      decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0"`
	Prep         decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0"`
	ListPrice    decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0"`
	DesiredPrice decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0"`
	Status       inventory.UnitStatus `gorm:"type:varchar(20);not null;index"`
	HoldCustomer *uuid.UUID           `gorm:"type:uuid"`
	SoldTo       *uuid.UUID           `gorm:"type:uuid"`
	SoldAt       *time.Time
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "units"
}

// ToDomain converts the persistence model to a domain Unit.
func (m *UnitModel) ToDomain() *inventory.Unit {
	return &inventory.Unit{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		StockNumber:         m.StockNumber,
		VIN:                 m.VIN,
		Year:                m.Year,
		Make:                m.Make,
		Model:               m.Model,
		Category:            m.Category,
		Condition:           m.Condition,
		Cost:                m.Cost,
		Freight:             m.Freight,
		Prep:                m.Prep,
		ListPrice:           m.ListPrice,
		DesiredPrice:        m.DesiredPrice,
		Status:              m.Status,
		HoldCustomer:        m.HoldCustomer,
		SoldTo:              m.SoldTo,
		SoldAt:              m.SoldAt,
	}
}

// UnitModelFromDomain creates a persistence model from a domain Unit.
func UnitModelFromDomain(u *inventory.Unit) *UnitModel {
	m := &UnitModel{
		StockNumber:  u.StockNumber,
		VIN:          u.VIN,
		Year:         u.Year,
		Make:         u.Make,
		Model:        u.Model,
		Category:     u.Category,
		Condition:    u.Condition,
		Cost:         u.Cost,
		Freight:      u.Freight,
		Prep:         u.Prep,
		ListPrice:    u.ListPrice,
		DesiredPrice: u.DesiredPrice,
		Status:       u.Status,
		HoldCustomer: u.HoldCustomer,
		SoldTo:       u.SoldTo,
		SoldAt:       u.SoldAt,
	}
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	return m
}
