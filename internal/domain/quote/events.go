package quote

import (
	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeQuote is the aggregate type for quote events
const AggregateTypeQuote = "Quote"

// EventTypeQuoteSent is raised when a quote is sent to a customer
const EventTypeQuoteSent = "QuoteSent"

// QuoteSentEvent is published when a quote goes out
type QuoteSentEvent struct {
	shared.BaseDomainEvent
	Number       string          `json:"number"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	PreparedByID uuid.UUID       `json:"prepared_by_id"`
	Total        decimal.Decimal `json:"total"`
}

// NewQuoteSentEvent creates a new QuoteSentEvent
func NewQuoteSentEvent(q *Quote) *QuoteSentEvent {
	return &QuoteSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteSent, AggregateTypeQuote, q.ID, q.TenantID),
		Number:          q.Number,
		CustomerID:      q.CustomerID,
		PreparedByID:    q.PreparedByID,
		Total:           q.Total,
	}
}
