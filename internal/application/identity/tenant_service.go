package identity

import (
	"context"
	"strings"

	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/application/event"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"go.uber.org/zap"
)

// TenantService manages a dealership's own record.
type TenantService struct {
	tenants   identity.TenantRepository
	users     identity.UserRepository
	defaults  identity.DealershipSettings
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewTenantService creates a new tenant service. defaults seed the
// settings of dealerships created by Bootstrap.
func NewTenantService(
	tenants identity.TenantRepository,
	users identity.UserRepository,
	defaults identity.DealershipSettings,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *TenantService {
	return &TenantService{
		tenants:   tenants,
		users:     users,
		defaults:  defaults,
		publisher: publisher,
		logger:    logger,
	}
}

// Get returns the caller's dealership.
func (s *TenantService) Get(ctx context.Context, caller access.Caller) (*TenantInfo, error) {
	tenant, err := s.tenants.FindByID(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	info := ToTenantInfo(tenant)
	return &info, nil
}

// UpdateSettings replaces the pricing and commission settings.
func (s *TenantService) UpdateSettings(ctx context.Context, caller access.Caller, settings SettingsDTO) (*TenantInfo, error) {
	if !caller.Role.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only administrators can change dealership settings")
	}
	tenant, err := s.tenants.FindByID(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	if err := tenant.UpdateSettings(settings.Domain()); err != nil {
		return nil, err
	}
	if err := s.tenants.Save(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Info("Dealership settings updated",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("updated_by", caller.UserID.String()),
	)
	info := ToTenantInfo(tenant)
	return &info, nil
}

// RotateInboundKey issues a new inbound lead key, invalidating the old one.
func (s *TenantService) RotateInboundKey(ctx context.Context, caller access.Caller) (*InboundKeyResult, error) {
	if !caller.Role.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only administrators can rotate the inbound key")
	}
	tenant, err := s.tenants.FindByID(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	key, err := tenant.RotateInboundKey()
	if err != nil {
		return nil, err
	}
	if err := s.tenants.Save(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Info("Inbound key rotated",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("rotated_by", caller.UserID.String()),
	)
	return &InboundKeyResult{Key: key}, nil
}

// Bootstrap creates a dealership, its owner and a first inbound key.
func (s *TenantService) Bootstrap(ctx context.Context, input BootstrapInput) (*BootstrapResult, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	exists, err := s.tenants.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A dealership with code "+code+" already exists")
	}

	tenant, err := identity.NewTenant(code, input.Name)
	if err != nil {
		return nil, err
	}
	settings := s.defaults
	if input.Settings != nil {
		settings = *input.Settings
	}
	if err := tenant.UpdateSettings(settings); err != nil {
		return nil, err
	}
	key, err := tenant.RotateInboundKey()
	if err != nil {
		return nil, err
	}

	ownerName := input.OwnerName
	if strings.TrimSpace(ownerName) == "" {
		ownerName = input.Name
	}
	owner, err := identity.NewUser(tenant.ID, input.OwnerEmail, ownerName, input.Password, identity.RoleOwner)
	if err != nil {
		return nil, err
	}

	if err := s.tenants.Save(ctx, tenant); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, owner); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.publisher, s.logger, owner)

	s.logger.Info("Dealership bootstrapped",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("code", tenant.Code),
		zap.String("owner_id", owner.ID.String()),
	)
	return &BootstrapResult{
		Tenant:     ToTenantInfo(tenant),
		Owner:      ToUserDTO(owner),
		InboundKey: key,
	}, nil
}
