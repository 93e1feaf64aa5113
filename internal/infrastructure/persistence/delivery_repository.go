package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/sales"
	"github.com/remotive/saleshub/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDeliveryRepository implements sales.DeliveryRepository using GORM
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GormDeliveryRepository
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// FindByID finds a delivery with its commission lines
func (r *GormDeliveryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sales.Delivery, error) {
	var model models.DeliveryModel
	if err := r.db.WithContext(ctx).
		Preload("Commissions").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindOpenByUnit finds the scheduled delivery for a unit, if any.
func (r *GormDeliveryRepository) FindOpenByUnit(ctx context.Context, tenantID, unitID uuid.UUID) (*sales.Delivery, error) {
	var model models.DeliveryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND unit_id = ? AND status = ?", tenantID, unitID, sales.DeliveryScheduled).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// List returns one page of deliveries matching the query.
func (r *GormDeliveryRepository) List(ctx context.Context, tenantID uuid.UUID, q sales.DeliveryQuery) ([]sales.Delivery, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DeliveryModel{}).Where("tenant_id = ?", tenantID)
	if q.RepIDs != nil {
		if len(q.RepIDs) == 0 {
			query = query.Where("1 = 0")
		} else {
			query = query.Where("(rep_id IN ? OR split_rep_id IN ?)", q.RepIDs, q.RepIDs)
		}
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.CustomerID != nil {
		query = query.Where("customer_id = ?", *q.CustomerID)
	}
	if q.From != nil {
		query = query.Where("scheduled_for >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("scheduled_for < ?", *q.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.DeliveryModel
	if err := paginate(query, q.Filter, DeliverySortFields, "scheduled_for").
		Preload("Commissions").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]sales.Delivery, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// CommissionByRep sums settled commission lines per rep for deliveries
// completed in [from, to).
func (r *GormDeliveryRepository) CommissionByRep(ctx context.Context, tenantID uuid.UUID, repIDs []uuid.UUID, from, to time.Time) ([]sales.RepCommission, error) {
	if repIDs != nil && len(repIDs) == 0 {
		return []sales.RepCommission{}, nil
	}
	query := r.db.WithContext(ctx).
		Table("commission_lines AS cl").
		Select("cl.rep_id AS rep_id, COUNT(cl.id) AS deals, "+
			"COALESCE(SUM(d.gross_profit), 0) AS gross_profit, COALESCE(SUM(cl.amount), 0) AS commission").
		Joins("JOIN deliveries d ON d.id = cl.delivery_id").
		Where("d.tenant_id = ? AND d.status = ?", tenantID, sales.DeliveryDelivered).
		Where("d.delivered_at >= ? AND d.delivered_at < ?", from, to)
	if repIDs != nil {
		query = query.Where("cl.rep_id IN ?", repIDs)
	}

	var rows []struct {
		RepID       uuid.UUID
		Deals       int64
		GrossProfit decimal.Decimal
		Commission  decimal.Decimal
	}
	if err := query.Group("cl.rep_id").Order("commission DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sales.RepCommission, len(rows))
	for i, row := range rows {
		out[i] = sales.RepCommission{
			RepID:       row.RepID,
			Deals:       row.Deals,
			GrossProfit: row.GrossProfit,
			Commission:  row.Commission,
		}
	}
	return out, nil
}

// Summary counts completed and open deliveries for the dashboard.
func (r *GormDeliveryRepository) Summary(ctx context.Context, tenantID uuid.UUID, repIDs []uuid.UUID, from, to time.Time) (sales.DeliverySummary, error) {
	if repIDs != nil && len(repIDs) == 0 {
		return sales.DeliverySummary{GrossProfit: decimal.Zero}, nil
	}
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.DeliveryModel{}).Where("tenant_id = ?", tenantID)
		if repIDs != nil {
			q = q.Where("(rep_id IN ? OR split_rep_id IN ?)", repIDs, repIDs)
		}
		return q
	}

	var done struct {
		Delivered   int64
		GrossProfit decimal.Decimal
	}
	if err := scoped().
		Select("COUNT(*) AS delivered, COALESCE(SUM(gross_profit), 0) AS gross_profit").
		Where("status = ? AND delivered_at >= ? AND delivered_at < ?", sales.DeliveryDelivered, from, to).
		Scan(&done).Error; err != nil {
		return sales.DeliverySummary{}, err
	}
	var scheduled int64
	if err := scoped().Where("status = ?", sales.DeliveryScheduled).Count(&scheduled).Error; err != nil {
		return sales.DeliverySummary{}, err
	}
	return sales.DeliverySummary{Delivered: done.Delivered, GrossProfit: done.GrossProfit, Scheduled: scheduled}, nil
}

// Save upserts the delivery and replaces its commission lines.
func (r *GormDeliveryRepository) Save(ctx context.Context, d *sales.Delivery) error {
	model := models.DeliveryModelFromDomain(d)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("delivery_id = ?", d.ID).Delete(&models.CommissionLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Commissions) == 0 {
			return nil
		}
		return tx.Create(&model.Commissions).Error
	})
}
