package onboarding

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
)

// Step is one item on the rep onboarding checklist.
type Step string

const (
	StepProfile      Step = "profile"
	StepPassword     Step = "password"
	StepCRMTour      Step = "crm_tour"
	StepFirstLead    Step = "first_lead"
	StepFirstMessage Step = "first_message"
	StepFirstQuote   Step = "first_quote"
)

// Steps is the checklist in display order.
var Steps = []Step{StepProfile, StepPassword, StepCRMTour, StepFirstLead, StepFirstMessage, StepFirstQuote}

// StepTitles are the labels shown to reps.
var StepTitles = map[Step]string{
	StepProfile:      "Complete your profile",
	StepPassword:     "Set a new password",
	StepCRMTour:      "Take the CRM tour",
	StepFirstLead:    "Receive your first lead",
	StepFirstMessage: "Send your first message",
	StepFirstQuote:   "Send your first quote",
}

// ParseStep validates a step name.
func ParseStep(s string) (Step, error) {
	for _, st := range Steps {
		if string(st) == s {
			return st, nil
		}
	}
	return "", shared.NewDomainError("INVALID_STEP", "Unknown onboarding step: "+s)
}

// Checklist tracks one user's onboarding.
type Checklist struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Completed   map[Step]time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// NewChecklist starts an empty checklist for a user.
func NewChecklist(tenantID, userID uuid.UUID) *Checklist {
	now := time.Now()
	return &Checklist{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Completed: make(map[Step]time.Time),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Complete ticks a step. Completing a step twice keeps the first time and
// reports false.
func (c *Checklist) Complete(step Step, at time.Time) (bool, error) {
	if _, err := ParseStep(string(step)); err != nil {
		return false, err
	}
	if c.Completed == nil {
		c.Completed = make(map[Step]time.Time)
	}
	if _, done := c.Completed[step]; done {
		return false, nil
	}
	c.Completed[step] = at
	c.UpdatedAt = at
	if c.IsDone() && c.CompletedAt == nil {
		c.CompletedAt = &at
	}
	return true, nil
}

// IsDone is true once every step is ticked.
func (c *Checklist) IsDone() bool {
	for _, s := range Steps {
		if _, ok := c.Completed[s]; !ok {
			return false
		}
	}
	return true
}

// Progress is the completed share in whole percent.
func (c *Checklist) Progress() int {
	done := 0
	for _, s := range Steps {
		if _, ok := c.Completed[s]; ok {
			done++
		}
	}
	return done * 100 / len(Steps)
}

// NextStep returns the first incomplete step, or "" when done.
func (c *Checklist) NextStep() Step {
	for _, s := range Steps {
		if _, ok := c.Completed[s]; !ok {
			return s
		}
	}
	return ""
}
