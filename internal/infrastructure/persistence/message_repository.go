package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/messaging"
	"github.com/remotive/saleshub/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMessageRepository implements messaging.MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Save creates or updates a message log row
func (r *GormMessageRepository) Save(ctx context.Context, m *messaging.Message) error {
	return r.db.WithContext(ctx).Save(models.MessageModelFromDomain(m)).Error
}

// ListByCustomer returns a customer's messages, newest first.
func (r *GormMessageRepository) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]messaging.Message, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.MessageModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]messaging.Message, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}
