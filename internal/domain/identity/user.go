package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetterRegex = regexp.MustCompile(`[a-zA-Z]`)
	hasNumberRegex = regexp.MustCompile(`[0-9]`)
)

// User is a dealership staff member. Salespeople report to a manager via
// ManagerID; the set of users sharing a ManagerID is that manager's team.
type User struct {
	shared.TenantAggregateRoot
	Email        string
	DisplayName  string
	Phone        string
	PasswordHash string
	Role         Role
	ManagerID    *uuid.UUID
	Active       bool
	AcceptsLeads bool
	LastLoginAt  *time.Time
}

// NewUser creates an active user.
func NewUser(tenantID uuid.UUID, email, displayName, password string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name cannot be empty")
	}
	if len(displayName) > 200 {
		return nil, shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name cannot exceed 200 characters")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role: "+string(role))
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               email,
		DisplayName:         displayName,
		PasswordHash:        hash,
		Role:                role,
		Active:              true,
		AcceptsLeads:        role == RoleSalesperson,
	}
	u.AddDomainEvent(NewUserCreatedEvent(u))
	return u, nil
}

// SetPhone sets the user's phone number
func (u *User) SetPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	u.Phone = phone
	u.Touch()
	return nil
}

// SetDisplayName renames the user.
func (u *User) SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name must be 1-200 characters")
	}
	u.DisplayName = name
	u.Touch()
	return nil
}

// ChangeRole moves the user to a new role. A user who stops being a
// salesperson no longer receives round-robin leads.
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Unknown role: "+string(role))
	}
	if u.Role == role {
		return nil
	}
	old := u.Role
	u.Role = role
	if role != RoleSalesperson {
		u.AcceptsLeads = false
	}
	u.Touch()
	u.IncrementVersion()
	u.AddDomainEvent(NewUserRoleChangedEvent(u, old))
	return nil
}

// AssignManager places the user on a manager's team. A nil manager removes
// the user from any team.
func (u *User) AssignManager(manager *User) error {
	if manager == nil {
		u.ManagerID = nil
		u.Touch()
		return nil
	}
	if manager.ID == u.ID {
		return shared.NewDomainError("INVALID_MANAGER", "A user cannot manage themselves")
	}
	if manager.TenantID != u.TenantID {
		return shared.NewDomainError("INVALID_MANAGER", "Manager belongs to another dealership")
	}
	if manager.Role != RoleManager && !manager.Role.IsAdmin() {
		return shared.NewDomainError("INVALID_MANAGER", "Manager must hold a manager or admin role")
	}
	id := manager.ID
	u.ManagerID = &id
	u.Touch()
	return nil
}

// SetAcceptsLeads toggles round-robin eligibility.
func (u *User) SetAcceptsLeads(accepts bool) {
	u.AcceptsLeads = accepts
	u.Touch()
}

// Deactivate disables login and lead routing.
func (u *User) Deactivate() error {
	if !u.Active {
		return shared.NewDomainError("ALREADY_DEACTIVATED", "User is already deactivated")
	}
	u.Active = false
	u.AcceptsLeads = false
	u.Touch()
	u.IncrementVersion()
	u.AddDomainEvent(NewUserDeactivatedEvent(u))
	return nil
}

// Activate re-enables a deactivated user.
func (u *User) Activate() error {
	if u.Active {
		return shared.NewDomainError("ALREADY_ACTIVE", "User is already active")
	}
	u.Active = true
	u.Touch()
	u.IncrementVersion()
	return nil
}

// SetPassword replaces the password hash.
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.Touch()
	u.IncrementVersion()
	return nil
}

// ChangePassword verifies the current password before setting a new one.
func (u *User) ChangePassword(current, next string) error {
	if !u.VerifyPassword(current) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(next)
}

// VerifyPassword checks a plaintext password against the stored hash.
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLogin stamps a successful login.
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
	u.Touch()
}

// CanReceiveLeads is true for active salespeople who opted in.
func (u *User) CanReceiveLeads() bool {
	return u.Active && u.AcceptsLeads && u.Role == RoleSalesperson
}

// ReportsTo reports whether the user is on managerID's team.
func (u *User) ReportsTo(managerID uuid.UUID) bool {
	return u.ManagerID != nil && *u.ManagerID == managerID
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetterRegex.MatchString(password) || !hasNumberRegex.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
