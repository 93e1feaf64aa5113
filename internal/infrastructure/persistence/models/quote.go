package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/finance"
	"github.com/remotive/saleshub/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// QuoteModel is the persistence model for a quote. The payment estimate is
// flattened into est_* columns.
type QuoteModel struct {
	TenantAggregateModel
	Number          string          `gorm:"type:varchar(30);not null;index"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitID          *uuid.UUID      `gorm:"type:uuid"`
	PreparedByID    uuid.UUID       `gorm:"type:uuid;not null"`
	DocFee          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TaxRatePercent  decimal.Decimal `gorm:"type:decimal(6,3);not null;default:0"`
	DownPayment     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PlanMethod      finance.Method  `gorm:"type:varchar(10);not null"`
	PlanAPRPercent  decimal.Decimal `gorm:"column:plan_apr_percent;type:decimal(6,3);not null;default:0"`
	PlanTermMonths  int             `gorm:"not null;default:0"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EstCashTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EstFinanced     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EstMonthly      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EstTotalPayment decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EstCharge       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Status          quote.Status    `gorm:"type:varchar(20);not null"`
	ValidUntil      time.Time       `gorm:"not null"`
	Notes           string          `gorm:"type:text"`
	SentAt          *time.Time
	AcceptedAt      *time.Time
	DocumentKey     string           `gorm:"type:varchar(300)"`
	Lines           []QuoteLineModel `gorm:"foreignKey:QuoteID"`
}

// TableName returns the table name for GORM
func (QuoteModel) TableName() string {
	return "quotes"
}

// QuoteLineModel is one priced line on a quote.
type QuoteLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	QuoteID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	Description string          `gorm:"type:varchar(300);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (QuoteLineModel) TableName() string {
	return "quote_lines"
}

// ToDomain converts the persistence model to a domain Quote. Lines are
// expected in position order.
func (m *QuoteModel) ToDomain() *quote.Quote {
	lines := make([]quote.Line, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = quote.Line{Description: l.Description, Amount: l.Amount}
	}
	plan := finance.Plan{Method: m.PlanMethod, APRPercent: m.PlanAPRPercent, TermMonths: m.PlanTermMonths}
	return &quote.Quote{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Number:              m.Number,
		CustomerID:          m.CustomerID,
		UnitID:              m.UnitID,
		PreparedByID:        m.PreparedByID,
		Lines:               lines,
		Terms: quote.Terms{
			DocFee:         m.DocFee,
			TaxRatePercent: m.TaxRatePercent,
			DownPayment:    m.DownPayment,
			Plan:           plan,
		},
		Subtotal: m.Subtotal,
		Tax:      m.Tax,
		Total:    m.Total,
		Estimate: finance.Estimate{
			Method:          m.PlanMethod,
			CashTotal:       m.EstCashTotal,
			AmountFinanced:  m.EstFinanced,
			TermMonths:      m.PlanTermMonths,
			APRPercent:      m.PlanAPRPercent,
			MonthlyPayment:  m.EstMonthly,
			TotalOfPayments: m.EstTotalPayment,
			FinanceCharge:   m.EstCharge,
		},
		Status:      m.Status,
		ValidUntil:  m.ValidUntil,
		Notes:       m.Notes,
		SentAt:      m.SentAt,
		AcceptedAt:  m.AcceptedAt,
		DocumentKey: m.DocumentKey,
	}
}

// QuoteModelFromDomain creates a persistence model, lines included, from a
// domain Quote.
func QuoteModelFromDomain(q *quote.Quote) *QuoteModel {
	m := &QuoteModel{
		Number:          q.Number,
		CustomerID:      q.CustomerID,
		UnitID:          q.UnitID,
		PreparedByID:    q.PreparedByID,
		DocFee:          q.Terms.DocFee,
		TaxRatePercent:  q.Terms.TaxRatePercent,
		DownPayment:     q.Terms.DownPayment,
		PlanMethod:      q.Terms.Plan.Method,
		PlanAPRPercent:  q.Terms.Plan.APRPercent,
		PlanTermMonths:  q.Terms.Plan.TermMonths,
		Subtotal:        q.Subtotal,
		Tax:             q.Tax,
		Total:           q.Total,
		EstCashTotal:    q.Estimate.CashTotal,
		EstFinanced:     q.Estimate.AmountFinanced,
		EstMonthly:      q.Estimate.MonthlyPayment,
		EstTotalPayment: q.Estimate.TotalOfPayments,
		EstCharge:       q.Estimate.FinanceCharge,
		Status:          q.Status,
		ValidUntil:      q.ValidUntil,
		Notes:           q.Notes,
		SentAt:          q.SentAt,
		AcceptedAt:      q.AcceptedAt,
		DocumentKey:     q.DocumentKey,
	}
	m.FromDomainTenantAggregateRoot(q.TenantAggregateRoot)
	for i, l := range q.Lines {
		m.Lines = append(m.Lines, QuoteLineModel{
			ID:          uuid.New(),
			QuoteID:     q.ID,
			Position:    i,
			Description: l.Description,
			Amount:      l.Amount,
		})
	}
	return m
}
