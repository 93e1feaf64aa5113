package crm

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Source is where a lead came from.
type Source string

const (
	SourceWebsite     Source = "website"
	SourceFacebook    Source = "facebook"
	SourceMarketplace Source = "marketplace"
	SourceReferral    Source = "referral"
	SourceWalkIn      Source = "walk_in"
	SourcePhone       Source = "phone"
	SourceOther       Source = "other"
)

var knownSources = map[Source]struct{}{
	SourceWebsite: {}, SourceFacebook: {}, SourceMarketplace: {}, SourceReferral: {},
	SourceWalkIn: {}, SourcePhone: {}, SourceOther: {},
}

// ParseSource maps free-form source labels onto known sources. Unknown
// labels become SourceOther rather than failing intake.
func ParseSource(s string) Source {
	if src, ok := LookupSource(s); ok {
		return src
	}
	return SourceOther
}

// LookupSource resolves a source name or one of its common aliases.
func LookupSource(s string) (Source, bool) {
	norm := Source(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := knownSources[norm]; ok {
		return norm, true
	}
	switch norm {
	case "walkin", "walk in", "showroom":
		return SourceWalkIn, true
	case "fb", "instagram", "meta":
		return SourceFacebook, true
	case "web", "site", "form":
		return SourceWebsite, true
	case "call", "inbound_call":
		return SourcePhone, true
	}
	return "", false
}

// IsKnownSource reports whether LookupSource recognises s.
func IsKnownSource(s string) bool {
	_, ok := LookupSource(s)
	return ok
}

// PaymentPreference is how the customer intends to pay.
type PaymentPreference string

const (
	PaymentUnknown PaymentPreference = ""
	PaymentCash    PaymentPreference = "cash"
	PaymentFinance PaymentPreference = "finance"
	PaymentRTO     PaymentPreference = "rto"
)

// ParsePaymentPreference validates a payment preference; empty is allowed.
func ParsePaymentPreference(s string) (PaymentPreference, error) {
	switch p := PaymentPreference(strings.ToLower(strings.TrimSpace(s))); p {
	case PaymentUnknown, PaymentCash, PaymentFinance, PaymentRTO:
		return p, nil
	default:
		return "", shared.NewDomainError("INVALID_PAYMENT_PREFERENCE", "Payment preference must be cash, finance or rto")
	}
}

// Interest captures what the customer is shopping for.
type Interest struct {
	TrailerType string
	StockNumber string
	Budget      decimal.Decimal
	Payment     PaymentPreference
}

// IsZero is true when nothing is known about the customer's interest.
func (i Interest) IsZero() bool {
	return i.TrailerType == "" && i.StockNumber == "" && i.Budget.IsZero() && i.Payment == PaymentUnknown
}

// Customer is a lead or buyer working through the sales pipeline.
type Customer struct {
	shared.TenantAggregateRoot
	Name            string
	Email           string
	Phone           string
	EmailNormalized string
	PhoneNormalized string
	City            string
	State           string
	Source          Source
	Stage           Stage
	AssignedToID    *uuid.UUID
	ManagerID       *uuid.UUID
	Interest        Interest
	Notes           string
	Tags            []string
	Score           int
	Temperature     Temperature
	InquiryCount    int
	LastContactedAt *time.Time
	LastInquiryAt   *time.Time
	CreatedByID     *uuid.UUID
}

// NewCustomer creates a new lead in the "new" stage. A name and at least one
// usable contact method are required.
func NewCustomer(tenantID uuid.UUID, name, email, phone string, source Source) (*Customer, error) {
	c := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Source:              source,
		Stage:               StageNew,
		InquiryCount:        1,
		Tags:                []string{},
	}
	if err := c.setContact(name, email, phone); err != nil {
		return nil, err
	}
	now := c.CreatedAt
	c.LastInquiryAt = &now
	c.Rescore(now)
	c.AddDomainEvent(NewCustomerCreatedEvent(c))
	return c, nil
}

func (c *Customer) setContact(name, email, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	email = strings.TrimSpace(email)
	if email != "" && !strings.Contains(email, "@") {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	phone = strings.TrimSpace(phone)
	key := NewDuplicateKey(email, phone)
	if phone != "" && key.Phone == "" {
		return shared.NewDomainError("INVALID_PHONE", "Phone number has too few digits")
	}
	if key.IsEmpty() {
		return shared.NewDomainError("CONTACT_REQUIRED", "An email or phone number is required")
	}
	c.Name = name
	c.Email = email
	c.Phone = phone
	c.EmailNormalized = key.Email
	c.PhoneNormalized = key.Phone
	return nil
}

// UpdateContact changes the customer's name and contact details.
func (c *Customer) UpdateContact(name, email, phone string) error {
	if err := c.setContact(name, email, phone); err != nil {
		return err
	}
	c.touchAndRescore()
	return nil
}

// SetLocation sets city and state.
func (c *Customer) SetLocation(city, state string) {
	c.City = strings.TrimSpace(city)
	c.State = strings.ToUpper(strings.TrimSpace(state))
	c.Touch()
}

// SetInterest records what the customer is shopping for.
func (c *Customer) SetInterest(i Interest) error {
	if i.Budget.IsNegative() {
		return shared.NewDomainError("INVALID_BUDGET", "Budget cannot be negative")
	}
	i.TrailerType = strings.TrimSpace(i.TrailerType)
	i.StockNumber = strings.ToUpper(strings.TrimSpace(i.StockNumber))
	c.Interest = i
	c.touchAndRescore()
	return nil
}

// SetNotes replaces the free-form notes.
func (c *Customer) SetNotes(notes string) {
	c.Notes = notes
	c.Touch()
}

// SetTags replaces the tag list, dropping blanks and duplicates.
func (c *Customer) SetTags(tags []string) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	c.Tags = out
	c.Touch()
}

// AssignTo hands the customer to a rep. managerID is the rep's manager, or
// the assigning manager when a manager keeps the lead.
func (c *Customer) AssignTo(repID uuid.UUID, managerID *uuid.UUID, actorID *uuid.UUID) error {
	if repID == uuid.Nil {
		return shared.NewDomainError("INVALID_ASSIGNEE", "Assignee cannot be empty")
	}
	var previous *uuid.UUID
	if c.AssignedToID != nil {
		prev := *c.AssignedToID
		previous = &prev
	}
	sameRep := previous != nil && *previous == repID
	sameMgr := (c.ManagerID == nil && managerID == nil) ||
		(c.ManagerID != nil && managerID != nil && *c.ManagerID == *managerID)
	if sameRep && sameMgr {
		return nil
	}
	rep := repID
	c.AssignedToID = &rep
	if managerID != nil {
		mgr := *managerID
		c.ManagerID = &mgr
	} else {
		c.ManagerID = nil
	}
	c.Touch()
	if !sameRep {
		c.AddDomainEvent(NewCustomerAssignedEvent(c, previous, actorID))
	}
	return nil
}

// MoveTo moves the customer to another pipeline stage.
func (c *Customer) MoveTo(next Stage, actorID *uuid.UUID) error {
	if next.Position() < 0 {
		return shared.NewDomainError("INVALID_STAGE", "Unknown pipeline stage: "+string(next))
	}
	if c.Stage == next {
		return nil
	}
	if !c.Stage.CanTransitionTo(next) {
		return shared.NewDomainError("INVALID_STAGE_TRANSITION",
			"Cannot move a customer from "+string(c.Stage)+" to "+string(next))
	}
	from := c.Stage
	c.Stage = next
	c.touchAndRescore()
	c.AddDomainEvent(NewCustomerStageChangedEvent(c, from, actorID))
	return nil
}

// RecordInquiry registers a repeat inquiry from an existing lead. A lost lead
// is reopened to the new stage. It reports whether the lead was reopened.
func (c *Customer) RecordInquiry(at time.Time, source Source) bool {
	c.InquiryCount++
	c.LastInquiryAt = &at
	reopened := false
	if c.Stage == StageLost {
		c.Stage = StageNew
		c.AddDomainEvent(NewCustomerStageChangedEvent(c, StageLost, nil))
		reopened = true
	}
	c.AddDomainEvent(NewDuplicateInquiryEvent(c, source))
	c.UpdatedAt = at
	c.Rescore(at)
	return reopened
}

// MarkContacted stamps the last outbound touch. A new lead advances to
// contacted.
func (c *Customer) MarkContacted(at time.Time, actorID *uuid.UUID) {
	c.LastContactedAt = &at
	if c.Stage == StageNew {
		_ = c.MoveTo(StageContacted, actorID)
	}
	c.UpdatedAt = at
	c.Rescore(at)
}

// Rescore recomputes score and temperature.
func (c *Customer) Rescore(now time.Time) {
	c.Score = ScoreCustomer(c, now)
	c.Temperature = TemperatureFor(c.Score)
}

// IsAssignedTo reports whether userID owns the customer.
func (c *Customer) IsAssignedTo(userID uuid.UUID) bool {
	return c.AssignedToID != nil && *c.AssignedToID == userID
}

func (c *Customer) touchAndRescore() {
	c.Touch()
	c.Rescore(c.UpdatedAt)
}
