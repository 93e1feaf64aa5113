package messaging

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
)

// Channel is the medium a message travels on.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// ParseChannel validates a channel name.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(s))); c {
	case ChannelSMS, ChannelEmail:
		return c, nil
	default:
		return "", shared.NewDomainError("INVALID_CHANNEL", "Channel must be sms or email")
	}
}

// Direction is outbound (we sent it) or inbound (the customer did).
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// Status is the delivery state reported by the sender.
type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

const (
	maxSMSLength   = 1600
	maxEmailLength = 100_000
)

// Message is one entry in a customer conversation. Recipients are staff
// users for internal notifications, in which case CustomerID is nil.
type Message struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	CustomerID  *uuid.UUID
	RecipientID *uuid.UUID
	Channel     Channel
	Direction   Direction
	To          string
	Subject     string
	Body        string
	Template    string
	Status      Status
	Error       string
	SenderID    *uuid.UUID
	ProviderRef string
	CreatedAt   time.Time
	SentAt      *time.Time
}

// NewOutbound drafts an outbound message.
func NewOutbound(tenantID uuid.UUID, channel Channel, to, subject, body string) (*Message, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "Recipient has no "+string(channel)+" address")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message body cannot be empty")
	}
	limit := maxEmailLength
	if channel == ChannelSMS {
		limit = maxSMSLength
		subject = ""
	}
	if len(body) > limit {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message body is too long for "+string(channel))
	}
	if channel == ChannelEmail && strings.TrimSpace(subject) == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Email subject is required")
	}
	return &Message{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Channel:   channel,
		Direction: DirectionOutbound,
		To:        to,
		Subject:   strings.TrimSpace(subject),
		Body:      body,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
	}, nil
}

// MarkSent records a successful hand-off to the provider.
func (m *Message) MarkSent(ref string, at time.Time) {
	m.Status = StatusSent
	m.ProviderRef = ref
	m.SentAt = &at
	m.Error = ""
}

// MarkFailed records a provider failure.
func (m *Message) MarkFailed(err error) {
	m.Status = StatusFailed
	if err != nil {
		m.Error = err.Error()
	}
}
