package quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// LineRequest is one priced row on a new quote
type LineRequest struct {
	Description string          `json:"description" binding:"required,max=200"`
	Amount      decimal.Decimal `json:"amount"`
}

// CreateQuoteRequest prepares a quote. Without lines, the unit's list price
// becomes the only line. Nil doc fee and tax rate take the dealership
// settings.
type CreateQuoteRequest struct {
	CustomerID     uuid.UUID        `json:"customer_id" binding:"required"`
	UnitID         *uuid.UUID       `json:"unit_id"`
	Lines          []LineRequest    `json:"lines" binding:"omitempty,max=50,dive"`
	DocFee         *decimal.Decimal `json:"doc_fee"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent"`
	DownPayment    decimal.Decimal  `json:"down_payment"`
	Method         string           `json:"method" binding:"omitempty,oneof=cash finance rto"`
	APRPercent     decimal.Decimal  `json:"apr_percent"`
	TermMonths     int              `json:"term_months" binding:"omitempty,min=1,max=240"`
	ValidDays      int              `json:"valid_days" binding:"omitempty,min=1,max=90"`
	Notes          string           `json:"notes" binding:"max=2000"`
}

// LineResponse is one row of a quote
type LineResponse struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// QuoteResponse represents a quote in API responses
type QuoteResponse struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"number"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	UnitID          *uuid.UUID      `json:"unit_id,omitempty"`
	PreparedByID    uuid.UUID       `json:"prepared_by_id"`
	Lines           []LineResponse  `json:"lines"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DocFee          decimal.Decimal `json:"doc_fee"`
	TaxRatePercent  decimal.Decimal `json:"tax_rate_percent"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	DownPayment     decimal.Decimal `json:"down_payment"`
	Method          string          `json:"method"`
	APRPercent      decimal.Decimal `json:"apr_percent"`
	TermMonths      int             `json:"term_months,omitempty"`
	AmountFinanced  decimal.Decimal `json:"amount_financed"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	TotalOfPayments decimal.Decimal `json:"total_of_payments"`
	Status          string          `json:"status"`
	ValidUntil      time.Time       `json:"valid_until"`
	Notes           string          `json:"notes,omitempty"`
	SentAt          *time.Time      `json:"sent_at,omitempty"`
	AcceptedAt      *time.Time      `json:"accepted_at,omitempty"`
	Archived        bool            `json:"archived"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToQuoteResponse converts a domain Quote to QuoteResponse. A lapsed draft
// or sent quote reports as expired.
func ToQuoteResponse(q *quote.Quote, now time.Time) QuoteResponse {
	lines := make([]LineResponse, 0, len(q.Lines))
	for _, l := range q.Lines {
		lines = append(lines, LineResponse{Description: l.Description, Amount: l.Amount})
	}
	status := q.Status
	if status != quote.StatusExpired && q.IsExpired(now) {
		status = quote.StatusExpired
	}
	return QuoteResponse{
		ID:              q.ID,
		Number:          q.Number,
		CustomerID:      q.CustomerID,
		UnitID:          q.UnitID,
		PreparedByID:    q.PreparedByID,
		Lines:           lines,
		Subtotal:        q.Subtotal,
		DocFee:          q.Terms.DocFee,
		TaxRatePercent:  q.Terms.TaxRatePercent,
		Tax:             q.Tax,
		Total:           q.Total,
		DownPayment:     q.Terms.DownPayment,
		Method:          string(q.Estimate.Method),
		APRPercent:      q.Estimate.APRPercent,
		TermMonths:      q.Estimate.TermMonths,
		AmountFinanced:  q.Estimate.AmountFinanced,
		MonthlyPayment:  q.Estimate.MonthlyPayment,
		TotalOfPayments: q.Estimate.TotalOfPayments,
		Status:          string(status),
		ValidUntil:      q.ValidUntil,
		Notes:           q.Notes,
		SentAt:          q.SentAt,
		AcceptedAt:      q.AcceptedAt,
		Archived:        q.DocumentKey != "",
		CreatedAt:       q.CreatedAt,
	}
}

// PDFDocument is a rendered quote ready to download
type PDFDocument struct {
	Filename string
	Content  []byte
	// URL is a presigned link to the archived copy, when archiving is on.
	URL string
}
