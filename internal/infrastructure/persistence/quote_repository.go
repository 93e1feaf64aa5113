package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/quote"
	"github.com/remotive/saleshub/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormQuoteRepository implements quote.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID finds a quote with its lines
func (r *GormQuoteRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*quote.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ListByCustomer returns a customer's quotes, newest first.
func (r *GormQuoteRepository) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]quote.Quote, error) {
	var rows []models.QuoteModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]quote.Quote, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountCreatedOn counts the tenant's quotes created on day's UTC date.
func (r *GormQuoteRepository) CountCreatedOn(ctx context.Context, tenantID uuid.UUID, day time.Time) (int64, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QuoteModel{}).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, start, start.AddDate(0, 0, 1)).
		Count(&count).Error
	return count, err
}

// ListLapsed returns open quotes past their validity.
func (r *GormQuoteRepository) ListLapsed(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]quote.Quote, error) {
	var rows []models.QuoteModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("tenant_id = ? AND status IN ? AND valid_until < ?", tenantID,
			[]string{string(quote.StatusDraft), string(quote.StatusSent)}, now).
		Order("valid_until ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]quote.Quote, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save upserts the quote and replaces its lines.
func (r *GormQuoteRepository) Save(ctx context.Context, q *quote.Quote) error {
	model := models.QuoteModelFromDomain(q)
	return duplicateKey(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", q.ID).Delete(&models.QuoteLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Create(&model.Lines).Error
	}))
}
