package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var tenantCodeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_\-]{1,49}$`)

// inboundKeyPrefix marks SalesHub inbound keys so they are recognisable in logs.
const inboundKeyPrefix = "shk_"

// DealershipSettings holds the pricing and payout knobs each dealership tunes.
type DealershipSettings struct {
	MinimumProfit     decimal.Decimal
	MarkupPercent     decimal.Decimal
	CommissionPercent decimal.Decimal
	MinimumCommission decimal.Decimal
	DocFee            decimal.Decimal
	TaxRatePercent    decimal.Decimal
}

// DefaultDealershipSettings returns the settings a new dealership starts with.
func DefaultDealershipSettings() DealershipSettings {
	return DealershipSettings{
		MinimumProfit:     decimal.NewFromInt(1500),
		MarkupPercent:     decimal.NewFromInt(20),
		CommissionPercent: decimal.NewFromInt(25),
		MinimumCommission: decimal.NewFromInt(200),
		DocFee:            decimal.NewFromInt(199),
		TaxRatePercent:    decimal.Zero,
	}
}

// Validate rejects negative values and out-of-range percentages.
func (s DealershipSettings) Validate() error {
	hundred := decimal.NewFromInt(100)
	for _, v := range []decimal.Decimal{s.MinimumProfit, s.MarkupPercent, s.CommissionPercent, s.MinimumCommission, s.DocFee, s.TaxRatePercent} {
		if v.IsNegative() {
			return shared.NewDomainError("INVALID_SETTINGS", "Dealership settings cannot be negative")
		}
	}
	if s.CommissionPercent.GreaterThan(hundred) || s.TaxRatePercent.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_SETTINGS", "Percentages cannot exceed 100")
	}
	return nil
}

// Tenant is a dealership. Every other record belongs to exactly one.
type Tenant struct {
	shared.BaseEntity
	Version        int
	Code           string
	Name           string
	Active         bool
	InboundKeyHash string
	Settings       DealershipSettings
}

// NewTenant creates a new dealership with default settings.
func NewTenant(code, name string) (*Tenant, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !tenantCodeRegex.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_TENANT_CODE", "Tenant code must be 2-50 characters of letters, digits, '-' or '_'")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name must be 1-200 characters")
	}
	return &Tenant{
		BaseEntity: shared.NewBaseEntity(),
		Version:    1,
		Code:       code,
		Name:       name,
		Active:     true,
		Settings:   DefaultDealershipSettings(),
	}, nil
}

// UpdateSettings replaces the dealership settings after validation.
func (t *Tenant) UpdateSettings(s DealershipSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	t.Settings = s
	t.Version++
	t.Touch()
	return nil
}

// RotateInboundKey issues a new inbound API key. Only its hash is kept; the
// plaintext is returned once for the caller to hand to the lead source.
func (t *Tenant) RotateInboundKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	key := inboundKeyPrefix + hex.EncodeToString(buf)
	t.InboundKeyHash = HashInboundKey(key)
	t.Version++
	t.Touch()
	return key, nil
}

// HashInboundKey returns the stored form of an inbound API key.
func HashInboundKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

// GetTenantID returns the tenant's own ID.
func (t *Tenant) GetTenantID() uuid.UUID {
	return t.ID
}
