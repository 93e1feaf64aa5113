package messaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/messaging"
)

// SendMessageRequest sends a message to a customer. With a template, the
// rendered subject and body are used unless Subject or Body override them.
type SendMessageRequest struct {
	Channel  string            `json:"channel" binding:"required,oneof=sms email"`
	Template string            `json:"template" binding:"max=50"`
	Subject  string            `json:"subject" binding:"max=200"`
	Body     string            `json:"body" binding:"max=100000"`
	Extra    map[string]string `json:"extra"`
}

// MessageResponse represents a message in API responses
type MessageResponse struct {
	ID          uuid.UUID  `json:"id"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	Channel     string     `json:"channel"`
	Direction   string     `json:"direction"`
	To          string     `json:"to"`
	Subject     string     `json:"subject,omitempty"`
	Body        string     `json:"body"`
	Template    string     `json:"template,omitempty"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty"`
	ProviderRef string     `json:"provider_ref,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

// ToMessageResponse converts a domain Message to MessageResponse
func ToMessageResponse(m *messaging.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		Channel:     string(m.Channel),
		Direction:   string(m.Direction),
		To:          m.To,
		Subject:     m.Subject,
		Body:        m.Body,
		Template:    m.Template,
		Status:      string(m.Status),
		Error:       m.Error,
		SenderID:    m.SenderID,
		ProviderRef: m.ProviderRef,
		CreatedAt:   m.CreatedAt,
		SentAt:      m.SentAt,
	}
}
