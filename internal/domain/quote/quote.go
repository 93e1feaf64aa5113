package quote

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/finance"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is a quote's lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
)

// DefaultValidDays is how long a quote is honoured unless overridden.
const DefaultValidDays = 14

const maxLines = 50

// Line is one priced row on the quote. Discounts are negative amounts.
type Line struct {
	Description string
	Amount      decimal.Decimal
}

// Terms are the money knobs applied on top of the lines.
type Terms struct {
	DocFee         decimal.Decimal
	TaxRatePercent decimal.Decimal
	DownPayment    decimal.Decimal
	Plan           finance.Plan
}

// Quote is a priced offer for a customer.
type Quote struct {
	shared.TenantAggregateRoot
	Number       string
	CustomerID   uuid.UUID
	UnitID       *uuid.UUID
	PreparedByID uuid.UUID
	Lines        []Line
	Terms        Terms
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	Estimate     finance.Estimate
	Status       Status
	ValidUntil   time.Time
	Notes        string
	SentAt       *time.Time
	AcceptedAt   *time.Time
	DocumentKey  string
}

// FormatNumber builds Q-YYYYMMDD-NNNN.
func FormatNumber(day time.Time, seq int) string {
	return fmt.Sprintf("Q-%s-%04d", day.Format("20060102"), seq)
}

// NewQuote creates a draft quote.
func NewQuote(tenantID uuid.UUID, number string, customerID, preparedByID uuid.UUID, validDays int) (*Quote, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_QUOTE", "Quote number is required")
	}
	if customerID == uuid.Nil || preparedByID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_QUOTE", "Customer and preparer are required")
	}
	if validDays <= 0 {
		validDays = DefaultValidDays
	}
	q := &Quote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		CustomerID:          customerID,
		PreparedByID:        preparedByID,
		Lines:               []Line{},
		Status:              StatusDraft,
		Terms:               Terms{Plan: finance.Plan{Method: finance.MethodCash}},
	}
	q.ValidUntil = q.CreatedAt.AddDate(0, 0, validDays)
	return q, nil
}

// AttachUnit links the quote to a trailer on the lot.
func (q *Quote) AttachUnit(unitID uuid.UUID) {
	q.UnitID = &unitID
	q.Touch()
}

// AddLine appends a priced row.
func (q *Quote) AddLine(description string, amount decimal.Decimal) error {
	if q.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft quotes can be edited")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return shared.NewDomainError("INVALID_LINE", "Line description is required")
	}
	if len(q.Lines) >= maxLines {
		return shared.NewDomainError("INVALID_LINE", "Too many lines on quote")
	}
	q.Lines = append(q.Lines, Line{Description: description, Amount: amount.Round(2)})
	q.Touch()
	return nil
}

// SetTerms replaces the fee, tax and payment terms.
func (q *Quote) SetTerms(t Terms) error {
	if q.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft quotes can be edited")
	}
	q.Terms = t
	q.Touch()
	return nil
}

// Recalculate prices the quote under its terms.
func (q *Quote) Recalculate() error {
	if len(q.Lines) == 0 {
		return shared.NewDomainError("INVALID_QUOTE", "A quote needs at least one line")
	}
	subtotal := decimal.Zero
	for _, l := range q.Lines {
		subtotal = subtotal.Add(l.Amount)
	}
	if subtotal.IsNegative() {
		return shared.NewDomainError("INVALID_QUOTE", "Discounts cannot exceed the quoted price")
	}
	sale := finance.Sale{
		Price:          subtotal,
		DocFee:         q.Terms.DocFee,
		TaxRatePercent: q.Terms.TaxRatePercent,
		DownPayment:    q.Terms.DownPayment,
	}
	est, err := finance.Calculate(sale, q.Terms.Plan)
	if err != nil {
		return err
	}
	q.Subtotal = subtotal
	q.Tax = sale.Tax()
	q.Total = sale.CashTotal()
	q.Estimate = est
	q.Touch()
	return nil
}

// MarkSent records that the quote went out to the customer.
func (q *Quote) MarkSent(at time.Time) error {
	if q.Status != StatusDraft && q.Status != StatusSent {
		return shared.NewDomainError("INVALID_STATE", "Quote can no longer be sent")
	}
	if q.Total.IsZero() && len(q.Lines) > 0 {
		if err := q.Recalculate(); err != nil {
			return err
		}
	}
	q.Status = StatusSent
	q.SentAt = &at
	q.UpdatedAt = at
	q.AddDomainEvent(NewQuoteSentEvent(q))
	return nil
}

// Accept records the customer's acceptance. Expired quotes cannot be accepted.
func (q *Quote) Accept(at time.Time) error {
	if q.IsExpired(at) {
		q.Status = StatusExpired
		return shared.NewDomainError("QUOTE_EXPIRED", "Quote has expired")
	}
	if q.Status != StatusSent && q.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Quote cannot be accepted in status "+string(q.Status))
	}
	q.Status = StatusAccepted
	q.AcceptedAt = &at
	q.UpdatedAt = at
	return nil
}

// IsExpired reports whether an unaccepted quote is past its validity.
func (q *Quote) IsExpired(now time.Time) bool {
	return q.Status != StatusAccepted && now.After(q.ValidUntil)
}

// Expire moves a lapsed draft or sent quote to expired. It reports whether
// the status changed.
func (q *Quote) Expire(at time.Time) bool {
	if q.Status != StatusDraft && q.Status != StatusSent {
		return false
	}
	if !q.IsExpired(at) {
		return false
	}
	q.Status = StatusExpired
	q.UpdatedAt = at
	return true
}

// SetDocumentKey records where the rendered PDF was archived.
func (q *Quote) SetDocumentKey(key string) {
	q.DocumentKey = key
	q.Touch()
}
