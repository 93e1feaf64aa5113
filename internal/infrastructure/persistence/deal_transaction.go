package persistence

import (
	"context"

	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/inventory"
	"github.com/remotive/saleshub/internal/domain/sales"
	"gorm.io/gorm"
)

// GormDealTransaction implements sales.DealTransaction using GORM transactions.
type GormDealTransaction struct {
	db *gorm.DB
}

// NewGormDealTransaction creates a new GormDealTransaction.
func NewGormDealTransaction(db *gorm.DB) *GormDealTransaction {
	return &GormDealTransaction{db: db}
}

// Execute runs fn within a database transaction. If fn returns an error
// the transaction is rolled back.
func (s *GormDealTransaction) Execute(ctx context.Context, fn func(repos sales.DealRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormDealRepositories{tx: tx})
	})
}

// gormDealRepositories hands out repositories bound to one transaction.
type gormDealRepositories struct {
	tx *gorm.DB
}

func (r *gormDealRepositories) Deliveries() sales.DeliveryRepository {
	return NewGormDeliveryRepository(r.tx)
}

func (r *gormDealRepositories) Units() inventory.UnitRepository {
	return NewGormUnitRepository(r.tx)
}

func (r *gormDealRepositories) Customers() crm.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormDealRepositories) Activities() crm.ActivityRepository {
	return NewGormActivityRepository(r.tx)
}

var (
	_ sales.DealTransaction  = (*GormDealTransaction)(nil)
	_ sales.DealRepositories = (*gormDealRepositories)(nil)
)
