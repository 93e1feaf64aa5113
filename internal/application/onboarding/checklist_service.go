// Package onboarding tracks new reps through their first-week checklist.
package onboarding

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/onboarding"
	"github.com/remotive/saleshub/internal/domain/shared"
	"go.uber.org/zap"
)

const teamPageSize = 200

// ChecklistService reads and ticks onboarding checklists.
type ChecklistService struct {
	checklists onboarding.ChecklistRepository
	users      identity.UserRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewChecklistService creates a new ChecklistService
func NewChecklistService(checklists onboarding.ChecklistRepository, users identity.UserRepository, logger *zap.Logger) *ChecklistService {
	return &ChecklistService{checklists: checklists, users: users, logger: logger, now: time.Now}
}

// Mine returns the caller's checklist, starting one if needed.
func (s *ChecklistService) Mine(ctx context.Context, caller access.Caller) (*ChecklistResponse, error) {
	c, err := s.findOrStart(ctx, caller.TenantID, caller.UserID)
	if err != nil {
		return nil, err
	}
	resp := ToChecklistResponse(c)
	return &resp, nil
}

// CompleteStep ticks a step on the caller's checklist.
func (s *ChecklistService) CompleteStep(ctx context.Context, caller access.Caller, step string) (*ChecklistResponse, error) {
	parsed, err := onboarding.ParseStep(step)
	if err != nil {
		return nil, err
	}
	c, _, err := s.complete(ctx, caller.TenantID, caller.UserID, parsed)
	if err != nil {
		return nil, err
	}
	resp := ToChecklistResponse(c)
	return &resp, nil
}

// Start creates an empty checklist for a new user. It is a no-op when one
// already exists.
func (s *ChecklistService) Start(ctx context.Context, tenantID, userID uuid.UUID) error {
	_, err := s.findOrStart(ctx, tenantID, userID)
	return err
}

// complete ticks step for a user and reports whether it was newly done.
func (s *ChecklistService) complete(ctx context.Context, tenantID, userID uuid.UUID, step onboarding.Step) (*onboarding.Checklist, bool, error) {
	c, err := s.findOrStart(ctx, tenantID, userID)
	if err != nil {
		return nil, false, err
	}
	changed, err := c.Complete(step, s.now())
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return c, false, nil
	}
	if err := s.checklists.Save(ctx, c); err != nil {
		return nil, false, err
	}
	s.logger.Info("Onboarding step completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.String("step", string(step)),
		zap.Int("progress", c.Progress()),
	)
	return c, true, nil
}

func (s *ChecklistService) findOrStart(ctx context.Context, tenantID, userID uuid.UUID) (*onboarding.Checklist, error) {
	c, err := s.checklists.FindByUser(ctx, tenantID, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	c = onboarding.NewChecklist(tenantID, userID)
	if err := s.checklists.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// TeamProgress lists onboarding progress for the people the caller leads:
// a manager's team, or every active user for administrators.
func (s *ChecklistService) TeamProgress(ctx context.Context, caller access.Caller) ([]MemberProgress, error) {
	var members []identity.User
	switch {
	case caller.Role.IsAdmin():
		all, err := s.activeUsers(ctx, caller.TenantID)
		if err != nil {
			return nil, err
		}
		members = all
	case caller.Role == identity.RoleManager:
		team, err := s.users.FindTeam(ctx, caller.TenantID, caller.UserID)
		if err != nil {
			return nil, err
		}
		members = team
	default:
		return nil, shared.ErrForbidden
	}
	if len(members) == 0 {
		return []MemberProgress{}, nil
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, u := range members {
		ids = append(ids, u.ID)
	}
	lists, err := s.checklists.ListByUsers(ctx, caller.TenantID, ids)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uuid.UUID]*onboarding.Checklist, len(lists))
	for i := range lists {
		byUser[lists[i].UserID] = &lists[i]
	}

	out := make([]MemberProgress, 0, len(members))
	for _, u := range members {
		c := byUser[u.ID]
		if c == nil {
			c = onboarding.NewChecklist(caller.TenantID, u.ID)
		}
		out = append(out, MemberProgress{
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			Role:        string(u.Role),
			Progress:    c.Progress(),
			NextStep:    string(c.NextStep()),
			CompletedAt: c.CompletedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Progress != out[j].Progress {
			return out[i].Progress < out[j].Progress
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out, nil
}

func (s *ChecklistService) activeUsers(ctx context.Context, tenantID uuid.UUID) ([]identity.User, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = teamPageSize
	filter.OrderBy = "created_at"
	filter.OrderDir = "asc"
	filter.Filters["active"] = true
	var out []identity.User
	for {
		page, total, err := s.users.FindAll(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if int64(len(out)) >= total || len(page) == 0 {
			return out, nil
		}
		filter.Page++
	}
}
