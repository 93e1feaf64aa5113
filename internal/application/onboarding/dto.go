package onboarding

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/onboarding"
)

// StepResponse is one checklist item
type StepResponse struct {
	Step        string     `json:"step"`
	Title       string     `json:"title"`
	Done        bool       `json:"done"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ChecklistResponse is a user's onboarding progress
type ChecklistResponse struct {
	UserID      uuid.UUID      `json:"user_id"`
	Progress    int            `json:"progress"`
	NextStep    string         `json:"next_step,omitempty"`
	Steps       []StepResponse `json:"steps"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// ToChecklistResponse converts a domain Checklist to ChecklistResponse
func ToChecklistResponse(c *onboarding.Checklist) ChecklistResponse {
	steps := make([]StepResponse, 0, len(onboarding.Steps))
	for _, s := range onboarding.Steps {
		item := StepResponse{Step: string(s), Title: onboarding.StepTitles[s]}
		if at, ok := c.Completed[s]; ok {
			at := at
			item.Done = true
			item.CompletedAt = &at
		}
		steps = append(steps, item)
	}
	return ChecklistResponse{
		UserID:      c.UserID,
		Progress:    c.Progress(),
		NextStep:    string(c.NextStep()),
		Steps:       steps,
		CompletedAt: c.CompletedAt,
	}
}

// MemberProgress is one row of the team onboarding view
type MemberProgress struct {
	UserID      uuid.UUID  `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	Progress    int        `json:"progress"`
	NextStep    string     `json:"next_step,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
