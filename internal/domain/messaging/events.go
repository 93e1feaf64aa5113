package messaging

import (
	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
)

// AggregateTypeMessage is the aggregate type for message events
const AggregateTypeMessage = "Message"

// EventTypeMessageSent is raised when a rep's message reaches the provider
const EventTypeMessageSent = "MessageSent"

// MessageSentEvent is published after an outbound customer message is sent
type MessageSentEvent struct {
	shared.BaseDomainEvent
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	SenderID   *uuid.UUID `json:"sender_id,omitempty"`
	Channel    Channel    `json:"channel"`
	Template   string     `json:"template,omitempty"`
}

// NewMessageSentEvent creates a new MessageSentEvent
func NewMessageSentEvent(m *Message) *MessageSentEvent {
	return &MessageSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessageSent, AggregateTypeMessage, m.ID, m.TenantID),
		CustomerID:      m.CustomerID,
		SenderID:        m.SenderID,
		Channel:         m.Channel,
		Template:        m.Template,
	}
}
