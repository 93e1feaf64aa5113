package crm

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
)

// ActivityType classifies a timeline entry on a customer.
type ActivityType string

const (
	ActivityNote             ActivityType = "note"
	ActivityCall             ActivityType = "call"
	ActivityEmail            ActivityType = "email"
	ActivitySMS              ActivityType = "sms"
	ActivityStageChange      ActivityType = "stage_change"
	ActivityAssignment       ActivityType = "assignment"
	ActivityDuplicateInquiry ActivityType = "duplicate_inquiry"
	ActivityQuote            ActivityType = "quote"
	ActivityDelivery         ActivityType = "delivery"
)

// ManualActivityTypes are the types a user may log by hand.
var ManualActivityTypes = []ActivityType{ActivityNote, ActivityCall, ActivityEmail, ActivitySMS}

// ParseManualActivityType validates a user-logged activity type.
func ParseManualActivityType(s string) (ActivityType, error) {
	for _, t := range ManualActivityTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", shared.NewDomainError("INVALID_ACTIVITY_TYPE", "Activity type must be note, call, email or sms")
}

// Activity is one entry on a customer's timeline. Activities are append-only.
type Activity struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	Type       ActivityType
	Body       string
	ActorID    *uuid.UUID
	CreatedAt  time.Time
}

// NewActivity creates a timeline entry.
func NewActivity(c *Customer, typ ActivityType, body string, actorID *uuid.UUID) (*Activity, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewDomainError("INVALID_ACTIVITY", "Activity body cannot be empty")
	}
	if len(body) > 5000 {
		return nil, shared.NewDomainError("INVALID_ACTIVITY", "Activity body cannot exceed 5000 characters")
	}
	return &Activity{
		ID:         uuid.New(),
		TenantID:   c.TenantID,
		CustomerID: c.ID,
		Type:       typ,
		Body:       body,
		ActorID:    actorID,
		CreatedAt:  time.Now(),
	}, nil
}

// IsContact is true for activities that count as reaching out.
func (a *Activity) IsContact() bool {
	return a.Type == ActivityCall || a.Type == ActivityEmail || a.Type == ActivitySMS
}
