package identity

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/auth"
	"github.com/remotive/saleshub/internal/infrastructure/cache"
	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LoginThrottle counts failed logins per tenant+email.
type LoginThrottle interface {
	Blocked(ctx context.Context, key string) (bool, time.Duration, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

var (
	errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid dealership, email or password")
	errAccountDeactivated = shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	errTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
)

// AuthService handles authentication operations
type AuthService struct {
	tenants    identity.TenantRepository
	users      identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	throttle   LoginThrottle
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tenants identity.TenantRepository,
	users identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	throttle LoginThrottle,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		tenants:    tenants,
		users:      users,
		jwtService: jwtService,
		blacklist:  blacklist,
		throttle:   throttle,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates a user within a dealership and returns tokens.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "login")
	defer span.End()

	key := cache.ThrottleKey(input.TenantCode, input.Email)
	blocked, retryAfter, err := s.throttle.Blocked(ctx, key)
	if err != nil {
		// Fail open: a cache outage must not lock everyone out.
		s.logger.Error("Login throttle unavailable", zap.Error(err))
	}
	if blocked {
		s.logger.Warn("Login blocked by throttle", zap.String("tenant_code", input.TenantCode))
		return nil, shared.NewDomainError("TOO_MANY_ATTEMPTS",
			"Too many failed login attempts. Try again in "+strconv.Itoa(int(retryAfter.Round(time.Minute).Minutes())+1)+" minutes")
	}

	tenant, err := s.tenants.FindByCode(ctx, input.TenantCode)
	if err != nil || !tenant.Active {
		return nil, s.loginFailed(ctx, key, err)
	}
	user, err := s.users.FindByEmail(ctx, tenant.ID, input.Email)
	if err != nil {
		return nil, s.loginFailed(ctx, key, err)
	}
	if !user.VerifyPassword(input.Password) {
		return nil, s.loginFailed(ctx, key, nil)
	}
	if !user.Active {
		s.logger.Warn("Login attempt for deactivated account", zap.String("user_id", user.ID.String()))
		return nil, errAccountDeactivated
	}

	if err := s.throttle.Reset(ctx, key); err != nil {
		s.logger.Warn("Failed to reset login throttle", zap.Error(err))
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: tenant.ID,
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLogin(s.now())
	if err := s.users.Save(ctx, user); err != nil {
		// The login itself succeeded.
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("ip", input.IP),
	)

	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserDTO(user),
		Tenant:                ToTenantInfo(tenant),
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, key string, cause error) error {
	if cause != nil && !errors.Is(cause, shared.ErrNotFound) {
		s.logger.Error("Login lookup failed", zap.Error(cause))
		return cause
	}
	if err := s.throttle.RecordFailure(ctx, key); err != nil {
		s.logger.Warn("Failed to record login failure", zap.Error(err))
	}
	return errInvalidCredentials
}

// RefreshToken exchanges a refresh token for a new pair. The old refresh
// token is revoked and the role is re-read from the user record.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*RefreshTokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "User no longer exists")
		}
		return nil, err
	}
	if !user.Active {
		return nil, errAccountDeactivated
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID:     tenantID,
		UserID:       userID,
		Email:        user.Email,
		Role:         user.Role,
		RefreshCount: claims.RefreshCount + 1,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to refresh token")
	}

	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke rotated refresh token", zap.Error(err))
	}

	return &RefreshTokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return errTokenRevoked
	}
	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return err
	}
	if invalidated {
		return errTokenRevoked
	}
	return nil
}

// Logout revokes the access token and, when given, the refresh token.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.AccessJTI != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.AccessJTI, input.AccessTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken == "" {
		return nil
	}
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		// Already unusable.
		return nil
	}
	return s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL())
}

// GetCurrentUser returns the caller's profile and dealership.
func (s *AuthService) GetCurrentUser(ctx context.Context, caller access.Caller) (*LoginResult, error) {
	user, err := s.users.FindByID(ctx, caller.TenantID, caller.UserID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenants.FindByID(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: ToUserDTO(user), Tenant: ToTenantInfo(tenant)}, nil
}

// ChangePassword changes the caller's password and revokes their other tokens.
func (s *AuthService) ChangePassword(ctx context.Context, caller access.Caller, current, next string) error {
	user, err := s.users.FindByID(ctx, caller.TenantID, caller.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(current, next); err != nil {
		return err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Warn("Failed to revoke tokens after password change", zap.Error(err))
	}
	s.logger.Info("User password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
