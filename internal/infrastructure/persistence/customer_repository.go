package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements crm.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by ID within a tenant
func (r *GormCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*crm.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindDuplicate finds the most recently updated customer, other than
// excludeID, sharing the key's normalized email or phone.
func (r *GormCustomerRepository) FindDuplicate(ctx context.Context, tenantID uuid.UUID, key crm.DuplicateKey, excludeID uuid.UUID) (*crm.Customer, error) {
	if key.IsEmpty() {
		return nil, shared.ErrNotFound
	}
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	switch {
	case key.Email != "" && key.Phone != "":
		query = query.Where("(email_normalized = ? OR phone_normalized = ?)", key.Email, key.Phone)
	case key.Email != "":
		query = query.Where("email_normalized = ?", key.Email)
	default:
		query = query.Where("phone_normalized = ?", key.Phone)
	}

	var model models.CustomerModel
	if err := query.Order("updated_at DESC").First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// List returns one page of visible customers and the total match count.
func (r *GormCustomerRepository) List(ctx context.Context, tenantID uuid.UUID, q crm.CustomerQuery) ([]crm.Customer, int64, error) {
	query := r.baseQuery(ctx, tenantID, q)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CustomerModel
	if err := paginate(query, q.Filter, CustomerSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toCustomers(rows), total, nil
}

// ListAll returns every visible customer matching the query, sorted but
// unpaginated.
func (r *GormCustomerRepository) ListAll(ctx context.Context, tenantID uuid.UUID, q crm.CustomerQuery) ([]crm.Customer, error) {
	f := q.Filter
	f.PageSize = 0
	var rows []models.CustomerModel
	if err := paginate(r.baseQuery(ctx, tenantID, q), f, CustomerSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCustomers(rows), nil
}

// baseQuery is tenant AND visibility AND search AND filters.
func (r *GormCustomerRepository) baseQuery(ctx context.Context, tenantID uuid.UUID, q crm.CustomerQuery) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("tenant_id = ?", tenantID).
		Scopes(visibilityScope(q.Visibility), customerSearchScope(q.Filter.Search))
	if q.Stage != "" {
		query = query.Where("stage = ?", q.Stage)
	}
	if q.Source != "" {
		query = query.Where("source = ?", q.Source)
	}
	if q.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *q.AssignedToID)
	}
	if q.Temperature != "" {
		query = query.Where("temperature = ?", q.Temperature)
	}
	return query
}

// CountByStage counts visible customers per stage. Stages without
// customers are omitted.
func (r *GormCustomerRepository) CountByStage(ctx context.Context, tenantID uuid.UUID, vis crm.Visibility) ([]crm.StageCount, error) {
	var rows []struct {
		Stage string
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Select("stage, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Scopes(visibilityScope(vis)).
		Group("stage").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]crm.StageCount, len(rows))
	for i, row := range rows {
		out[i] = crm.StageCount{Stage: crm.Stage(row.Stage), Count: row.Count}
	}
	return out, nil
}

// CountCreatedSince counts visible customers created at or after since.
func (r *GormCustomerRepository) CountCreatedSince(ctx context.Context, tenantID uuid.UUID, vis crm.Visibility, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND created_at >= ?", tenantID, since).
		Scopes(visibilityScope(vis)).
		Count(&count).Error
	return count, err
}

// CountByTemperature counts visible open customers at a temperature.
func (r *GormCustomerRepository) CountByTemperature(ctx context.Context, tenantID uuid.UUID, vis crm.Visibility, t crm.Temperature) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND temperature = ?", tenantID, t).
		Where("stage NOT IN ?", []crm.Stage{crm.StageDelivered, crm.StageLost}).
		Scopes(visibilityScope(vis)).
		Count(&count).Error
	return count, err
}

// Save creates or fully updates a customer without a version check. A
// second customer with the same normalized email or phone in the tenant
// fails with shared.ErrAlreadyExists.
func (r *GormCustomerRepository) Save(ctx context.Context, c *crm.Customer) error {
	return duplicateKey(r.db.WithContext(ctx).Save(models.CustomerModelFromDomain(c)).Error)
}

// SaveWithLock updates the customer only if the stored version still equals
// c.Version, then advances c.Version.
func (r *GormCustomerRepository) SaveWithLock(ctx context.Context, c *crm.Customer) error {
	model := models.CustomerModelFromDomain(c)
	model.Version = c.Version + 1
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", c.TenantID, c.ID, c.Version).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return duplicateKey(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	c.Version = model.Version
	return nil
}

// Delete removes a customer and its timeline.
func (r *GormCustomerRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.CustomerModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Where("tenant_id = ? AND customer_id = ?", tenantID, id).Delete(&models.ActivityModel{}).Error
	})
}

func toCustomers(rows []models.CustomerModel) []crm.Customer {
	out := make([]crm.Customer, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormActivityRepository implements crm.ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Append inserts a timeline entry.
func (r *GormActivityRepository) Append(ctx context.Context, a *crm.Activity) error {
	return r.db.WithContext(ctx).Create(models.ActivityModelFromDomain(a)).Error
}

// ListByCustomer returns the newest entries first; limit <= 0 means all.
func (r *GormActivityRepository) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]crm.Activity, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.ActivityModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]crm.Activity, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}
