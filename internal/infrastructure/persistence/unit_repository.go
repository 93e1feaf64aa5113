package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/inventory"
	"github.com/remotive/saleshub/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormUnitRepository implements inventory.UnitRepository using GORM
type GormUnitRepository struct {
	db *gorm.DB
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// FindByID finds a unit by ID within a tenant
func (r *GormUnitRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByStockNumber finds a unit by stock number within a tenant
func (r *GormUnitRepository) FindByStockNumber(ctx context.Context, tenantID uuid.UUID, stockNumber string) (*inventory.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND stock_number = ?", tenantID, normalizeStock(stockNumber)).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ExistsByStockNumber checks if a stock number is taken within the tenant
func (r *GormUnitRepository) ExistsByStockNumber(ctx context.Context, tenantID uuid.UUID, stockNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UnitModel{}).
		Where("tenant_id = ? AND stock_number = ?", tenantID, normalizeStock(stockNumber)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns one page of units matching the query.
func (r *GormUnitRepository) List(ctx context.Context, tenantID uuid.UUID, q inventory.UnitQuery) ([]inventory.Unit, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UnitModel{}).Where("tenant_id = ?", tenantID)
	if s := strings.TrimSpace(q.Filter.Search); s != "" {
		p := likePattern(s)
		query = query.Where(
			`(LOWER(stock_number) LIKE ? ESCAPE '\' OR LOWER(make) LIKE ? ESCAPE '\' OR LOWER(model) LIKE ? ESCAPE '\' OR LOWER(vin) LIKE ? ESCAPE '\')`,
			p, p, p, p,
		)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.Condition != "" {
		query = query.Where("condition = ?", q.Condition)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.UnitModel
	if err := paginate(query, q.Filter, UnitSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]inventory.Unit, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Summary counts available and held units and sums available list prices.
func (r *GormUnitRepository) Summary(ctx context.Context, tenantID uuid.UUID) (inventory.InventorySummary, error) {
	var row struct {
		AvailableCount int64
		AvailableValue decimal.Decimal
		OnHoldCount    int64
	}
	err := r.db.WithContext(ctx).Model(&models.UnitModel{}).
		Select(
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS available_count, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN list_price ELSE 0 END), 0) AS available_value, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS on_hold_count",
			inventory.UnitStatusAvailable, inventory.UnitStatusAvailable, inventory.UnitStatusOnHold,
		).
		Where("tenant_id = ?", tenantID).
		Scan(&row).Error
	if err != nil {
		return inventory.InventorySummary{}, err
	}
	return inventory.InventorySummary{
		AvailableCount: row.AvailableCount,
		AvailableValue: row.AvailableValue,
		OnHoldCount:    row.OnHoldCount,
	}, nil
}

// Save creates or updates a unit
func (r *GormUnitRepository) Save(ctx context.Context, u *inventory.Unit) error {
	return r.db.WithContext(ctx).Save(models.UnitModelFromDomain(u)).Error
}

func normalizeStock(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
