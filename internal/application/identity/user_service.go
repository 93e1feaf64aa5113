package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/application/event"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var errCannotManageUser = shared.NewDomainError("FORBIDDEN", "You cannot manage this user")

// UserService handles staff management within a dealership.
type UserService struct {
	users     identity.UserRepository
	blacklist auth.TokenBlacklist
	tokenTTL  time.Duration
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewUserService creates a new user service. tokenTTL bounds how long a
// deactivated user's outstanding tokens must stay revoked.
func NewUserService(
	users identity.UserRepository,
	blacklist auth.TokenBlacklist,
	tokenTTL time.Duration,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:     users,
		blacklist: blacklist,
		tokenTTL:  tokenTTL,
		publisher: publisher,
		logger:    logger,
	}
}

// Create adds a staff member. Managers may only onboard salespeople, who
// join the manager's own team.
func (s *UserService) Create(ctx context.Context, caller access.Caller, input CreateUserInput) (*UserDTO, error) {
	if !caller.Role.CanAssignRole(input.Role) {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot create a user with role "+string(input.Role))
	}

	exists, err := s.users.ExistsByEmail(ctx, caller.TenantID, identity.NormalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
	}

	user, err := identity.NewUser(caller.TenantID, input.Email, input.DisplayName, input.Password, input.Role)
	if err != nil {
		return nil, err
	}
	if input.Phone != "" {
		if err := user.SetPhone(input.Phone); err != nil {
			return nil, err
		}
	}

	managerID := input.ManagerID
	if caller.Role == identity.RoleManager {
		managerID = caller.Actor()
	}
	if managerID != nil {
		manager, err := s.loadManager(ctx, caller.TenantID, *managerID)
		if err != nil {
			return nil, err
		}
		if err := user.AssignManager(manager); err != nil {
			return nil, err
		}
	}
	if input.AcceptsLeads != nil {
		user.SetAcceptsLeads(*input.AcceptsLeads)
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.publisher, s.logger, user)

	s.logger.Info("User created",
		zap.String("tenant_id", caller.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("created_by", caller.UserID.String()),
	)

	dto := ToUserDTO(user)
	return &dto, nil
}

// Get returns a user the caller may see: admins see everyone, managers see
// themselves and their team, anyone else only themselves.
func (s *UserService) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*UserDTO, error) {
	user, err := s.users.FindByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, user) {
		return nil, shared.ErrNotFound
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// List returns a page of users. Managers only see their own team.
func (s *UserService) List(ctx context.Context, caller access.Caller, input UserListInput) (*UserListResult, error) {
	if !caller.Role.CanManageTeam() {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot list users")
	}

	filter := shared.DefaultFilter()
	if input.Page > 0 {
		filter.Page = input.Page
	}
	if input.PageSize > 0 {
		filter.PageSize = input.PageSize
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if input.OrderBy != "" {
		filter.OrderBy = input.OrderBy
	}
	if input.OrderDir != "" {
		filter.OrderDir = input.OrderDir
	}
	filter.Search = input.Search
	filter.Filters = map[string]any{}
	if input.Role != "" {
		filter.Filters["role"] = input.Role
	}
	if input.Active != nil {
		filter.Filters["active"] = *input.Active
	}
	if !caller.Role.IsAdmin() {
		filter.Filters["manager_id"] = caller.UserID
	}

	users, total, err := s.users.FindAll(ctx, caller.TenantID, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = ToUserDTO(&users[i])
	}
	return &UserListResult{
		Users:      dtos,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: filter.TotalPages(total),
	}, nil
}

// ListTeam returns the reps reporting to managerID. Managers may only ask
// about themselves.
func (s *UserService) ListTeam(ctx context.Context, caller access.Caller, managerID uuid.UUID) ([]UserDTO, error) {
	if !caller.Role.IsAdmin() && !(caller.Role == identity.RoleManager && caller.UserID == managerID) {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot view this team")
	}
	team, err := s.users.FindTeam(ctx, caller.TenantID, managerID)
	if err != nil {
		return nil, err
	}
	dtos := make([]UserDTO, len(team))
	for i := range team {
		dtos[i] = ToUserDTO(&team[i])
	}
	return dtos, nil
}

// Update applies the non-nil fields of input. Anyone may edit their own
// name and phone; role, team, activation and lead flags need management
// rights over the target.
func (s *UserService) Update(ctx context.Context, caller access.Caller, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.users.FindByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, user) {
		return nil, shared.ErrNotFound
	}

	self := user.ID == caller.UserID
	privileged := input.Role != nil || input.ManagerID != nil || input.ClearManager ||
		input.Active != nil || input.AcceptsLeads != nil
	if privileged && !canManage(caller, user) {
		return nil, errCannotManageUser
	}
	if !self && !canManage(caller, user) {
		return nil, errCannotManageUser
	}

	if input.DisplayName != nil {
		if err := user.SetDisplayName(*input.DisplayName); err != nil {
			return nil, err
		}
	}
	if input.Phone != nil {
		if err := user.SetPhone(*input.Phone); err != nil {
			return nil, err
		}
	}
	if input.Role != nil {
		if !caller.Role.CanAssignRole(*input.Role) {
			return nil, shared.NewDomainError("FORBIDDEN", "You cannot assign role "+string(*input.Role))
		}
		if err := user.ChangeRole(*input.Role); err != nil {
			return nil, err
		}
	}
	if input.ClearManager || input.ManagerID != nil {
		if !caller.Role.IsAdmin() {
			return nil, shared.NewDomainError("FORBIDDEN", "Only administrators can move users between teams")
		}
		var manager *identity.User
		if input.ManagerID != nil {
			if manager, err = s.loadManager(ctx, caller.TenantID, *input.ManagerID); err != nil {
				return nil, err
			}
		}
		if err := user.AssignManager(manager); err != nil {
			return nil, err
		}
	}
	if input.AcceptsLeads != nil {
		user.SetAcceptsLeads(*input.AcceptsLeads)
	}

	deactivated := false
	if input.Active != nil && *input.Active != user.Active {
		if *input.Active {
			err = user.Activate()
		} else {
			if self {
				return nil, shared.NewDomainError("INVALID_OPERATION", "You cannot deactivate yourself")
			}
			err = user.Deactivate()
			deactivated = true
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	if deactivated {
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.tokenTTL); err != nil {
			s.logger.Error("Failed to revoke tokens of deactivated user",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}
	event.PublishPending(ctx, s.publisher, s.logger, user)

	s.logger.Info("User updated",
		zap.String("user_id", user.ID.String()),
		zap.String("updated_by", caller.UserID.String()),
	)

	dto := ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) loadManager(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	manager, err := s.users.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_MANAGER", "Manager not found")
		}
		return nil, err
	}
	return manager, nil
}

func canView(caller access.Caller, user *identity.User) bool {
	if caller.Role.IsAdmin() || user.ID == caller.UserID {
		return true
	}
	return caller.Role == identity.RoleManager && user.ReportsTo(caller.UserID)
}

// canManage reports whether caller may change privileged fields of user.
// Nobody manages themselves, and an admin cannot manage a role they could
// not have granted.
func canManage(caller access.Caller, user *identity.User) bool {
	if user.ID == caller.UserID {
		return false
	}
	if caller.Role.IsAdmin() {
		return caller.Role.CanAssignRole(user.Role)
	}
	return caller.Role == identity.RoleManager && user.ReportsTo(caller.UserID)
}
