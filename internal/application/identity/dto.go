package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/shopspring/decimal"
)

// LoginInput contains the input for user login
type LoginInput struct {
	TenantCode string
	Email      string
	Password   string
	IP         string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string     `json:"access_token"`
	RefreshToken          string     `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time  `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time  `json:"refresh_token_expires_at"`
	TokenType             string     `json:"token_type"`
	User                  UserDTO    `json:"user"`
	Tenant                TenantInfo `json:"tenant"`
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LogoutInput identifies the tokens to revoke. RefreshToken is optional.
type LogoutInput struct {
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string
}

// UserDTO represents user data transfer object
type UserDTO struct {
	ID           uuid.UUID     `json:"id"`
	TenantID     uuid.UUID     `json:"tenant_id"`
	Email        string        `json:"email"`
	DisplayName  string        `json:"display_name"`
	Phone        string        `json:"phone,omitempty"`
	Role         identity.Role `json:"role"`
	ManagerID    *uuid.UUID    `json:"manager_id,omitempty"`
	Active       bool          `json:"active"`
	AcceptsLeads bool          `json:"accepts_leads"`
	LastLoginAt  *time.Time    `json:"last_login_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ToUserDTO converts a domain user.
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		TenantID:     u.TenantID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Phone:        u.Phone,
		Role:         u.Role,
		ManagerID:    u.ManagerID,
		Active:       u.Active,
		AcceptsLeads: u.AcceptsLeads,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// CreateUserInput contains input for creating a user
type CreateUserInput struct {
	Email        string
	DisplayName  string
	Phone        string
	Password     string
	Role         identity.Role
	ManagerID    *uuid.UUID
	AcceptsLeads *bool
}

// UpdateUserInput carries optional changes; nil fields are left alone.
type UpdateUserInput struct {
	DisplayName  *string
	Phone        *string
	Role         *identity.Role
	ManagerID    *uuid.UUID
	ClearManager bool
	Active       *bool
	AcceptsLeads *bool
}

// UserListInput filters the user list.
type UserListInput struct {
	Search   string
	Role     identity.Role
	Active   *bool
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// UserListResult represents paginated user list result
type UserListResult struct {
	Users      []UserDTO `json:"users"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// TenantInfo is the dealership as shown to its own staff.
type TenantInfo struct {
	ID            uuid.UUID   `json:"id"`
	Code          string      `json:"code"`
	Name          string      `json:"name"`
	HasInboundKey bool        `json:"has_inbound_key"`
	Settings      SettingsDTO `json:"settings"`
	CreatedAt     time.Time   `json:"created_at"`
}

// SettingsDTO mirrors identity.DealershipSettings.
type SettingsDTO struct {
	MinimumProfit     decimal.Decimal `json:"minimum_profit"`
	MarkupPercent     decimal.Decimal `json:"markup_percent"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	MinimumCommission decimal.Decimal `json:"minimum_commission"`
	DocFee            decimal.Decimal `json:"doc_fee"`
	TaxRatePercent    decimal.Decimal `json:"tax_rate_percent"`
}

// ToTenantInfo converts a domain tenant.
func ToTenantInfo(t *identity.Tenant) TenantInfo {
	return TenantInfo{
		ID:            t.ID,
		Code:          t.Code,
		Name:          t.Name,
		HasInboundKey: t.InboundKeyHash != "",
		Settings:      toSettingsDTO(t.Settings),
		CreatedAt:     t.CreatedAt,
	}
}

func toSettingsDTO(s identity.DealershipSettings) SettingsDTO {
	return SettingsDTO{
		MinimumProfit:     s.MinimumProfit,
		MarkupPercent:     s.MarkupPercent,
		CommissionPercent: s.CommissionPercent,
		MinimumCommission: s.MinimumCommission,
		DocFee:            s.DocFee,
		TaxRatePercent:    s.TaxRatePercent,
	}
}

// Domain returns the settings as a domain value.
func (s SettingsDTO) Domain() identity.DealershipSettings {
	return identity.DealershipSettings{
		MinimumProfit:     s.MinimumProfit,
		MarkupPercent:     s.MarkupPercent,
		CommissionPercent: s.CommissionPercent,
		MinimumCommission: s.MinimumCommission,
		DocFee:            s.DocFee,
		TaxRatePercent:    s.TaxRatePercent,
	}
}

// BootstrapInput creates a dealership with its first owner.
type BootstrapInput struct {
	Code       string
	Name       string
	OwnerEmail string
	OwnerName  string
	Password   string
	Settings   *identity.DealershipSettings
}

// BootstrapResult reports what Bootstrap created.
type BootstrapResult struct {
	Tenant     TenantInfo `json:"tenant"`
	Owner      UserDTO    `json:"owner"`
	InboundKey string     `json:"inbound_key"`
}

// InboundKeyResult is returned once when a key is rotated.
type InboundKeyResult struct {
	Key string `json:"key"`
}
