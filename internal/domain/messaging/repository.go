package messaging

import (
	"context"

	"github.com/google/uuid"
)

// MessageRepository persists the message log.
type MessageRepository interface {
	Save(ctx context.Context, m *Message) error
	ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]Message, error)
}
