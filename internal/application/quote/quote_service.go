// Package quote prepares, renders and tracks customer quotes.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/application/event"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/finance"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/inventory"
	"github.com/remotive/saleshub/internal/domain/quote"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/printing"
	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// HTMLRenderer turns a quote into a printable page.
type HTMLRenderer interface {
	RenderQuote(doc printing.QuoteDocument) (string, error)
}

// PDFRenderer prints HTML to PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// DocumentStore archives rendered PDFs.
type DocumentStore interface {
	Key(tenantID uuid.UUID, number, ext string) string
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// QuoteService prepares and renders quotes for visible customers.
type QuoteService struct {
	quotes     quote.QuoteRepository
	customers  crm.CustomerRepository
	activities crm.ActivityRepository
	units      inventory.UnitRepository
	users      identity.UserRepository
	tenants    identity.TenantRepository
	html       HTMLRenderer
	pdf        PDFRenderer
	store      DocumentStore
	resolver   *access.Resolver
	validDays  int
	publisher  shared.EventPublisher
	logger     *zap.Logger
	metrics    *telemetry.SalesMetrics
	now        func() time.Time
}

// QuoteServiceOption is a functional option for configuring QuoteService
type QuoteServiceOption func(*QuoteService)

// WithPDFRenderer enables PDF rendering.
func WithPDFRenderer(r PDFRenderer) QuoteServiceOption {
	return func(s *QuoteService) { s.pdf = r }
}

// WithDocumentStore archives every rendered PDF.
func WithDocumentStore(store DocumentStore) QuoteServiceOption {
	return func(s *QuoteService) { s.store = store }
}

// WithDefaultValidDays sets the validity applied when a request names none.
func WithDefaultValidDays(days int) QuoteServiceOption {
	return func(s *QuoteService) { s.validDays = days }
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	quotes quote.QuoteRepository,
	customers crm.CustomerRepository,
	activities crm.ActivityRepository,
	units inventory.UnitRepository,
	users identity.UserRepository,
	tenants identity.TenantRepository,
	html HTMLRenderer,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	opts ...QuoteServiceOption,
) *QuoteService {
	s := &QuoteService{
		quotes:     quotes,
		customers:  customers,
		activities: activities,
		units:      units,
		users:      users,
		tenants:    tenants,
		html:       html,
		resolver:   access.NewResolver(users),
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create prices a draft quote. An early-stage customer moves to quoted.
func (s *QuoteService) Create(ctx context.Context, caller access.Caller, req CreateQuoteRequest) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "create",
		"tenant_id", caller.TenantID.String(),
		"customer_id", req.CustomerID.String(),
	)
	defer span.End()

	customer, err := s.visibleCustomer(ctx, caller, req.CustomerID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenants.FindByID(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	method, err := finance.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}

	now := s.now()
	number, err := s.nextNumber(ctx, caller.TenantID, now, 0)
	if err != nil {
		return nil, err
	}
	validDays := req.ValidDays
	if validDays == 0 {
		validDays = s.validDays
	}
	q, err := quote.NewQuote(caller.TenantID, number, customer.ID, caller.UserID, validDays)
	if err != nil {
		return nil, err
	}
	q.Notes = req.Notes

	if req.UnitID != nil {
		unit, err := s.units.FindByID(ctx, caller.TenantID, *req.UnitID)
		if err != nil {
			return nil, err
		}
		if unit.Status == inventory.UnitStatusSold {
			return nil, shared.NewDomainError("UNIT_SOLD", "Unit is already sold")
		}
		q.AttachUnit(unit.ID)
		if len(req.Lines) == 0 {
			if err := q.AddLine(unit.StockNumber+" "+unit.Title(), unit.ListPrice); err != nil {
				return nil, err
			}
		}
	}
	for _, l := range req.Lines {
		if err := q.AddLine(l.Description, l.Amount); err != nil {
			return nil, err
		}
	}

	terms := quote.Terms{
		DocFee:         tenant.Settings.DocFee,
		TaxRatePercent: tenant.Settings.TaxRatePercent,
		DownPayment:    req.DownPayment,
		Plan:           finance.Plan{Method: method, APRPercent: req.APRPercent, TermMonths: req.TermMonths},
	}
	if req.DocFee != nil {
		terms.DocFee = *req.DocFee
	}
	if req.TaxRatePercent != nil {
		terms.TaxRatePercent = *req.TaxRatePercent
	}
	if err := q.SetTerms(terms); err != nil {
		return nil, err
	}
	if err := q.Recalculate(); err != nil {
		return nil, err
	}
	if err := s.insert(ctx, q, now); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.advanceToQuoted(ctx, caller, customer)
	s.appendActivity(ctx, customer, fmt.Sprintf("Quote %s prepared: %s", q.Number, printing.FormatMoney(q.Total)), caller.Actor())

	s.logger.Info("Quote created",
		zap.String("tenant_id", caller.TenantID.String()),
		zap.String("quote_id", q.ID.String()),
		zap.String("number", q.Number),
		zap.String("total", q.Total.String()),
	)
	resp := ToQuoteResponse(q, now)
	return &resp, nil
}

// maxNumberAttempts bounds how often Create renumbers a quote whose number
// was taken by a concurrent create.
const maxNumberAttempts = 5

// nextNumber sequences quotes per tenant per day. skip moves past numbers
// already found taken.
func (s *QuoteService) nextNumber(ctx context.Context, tenantID uuid.UUID, now time.Time, skip int) (string, error) {
	count, err := s.quotes.CountCreatedOn(ctx, tenantID, now)
	if err != nil {
		return "", err
	}
	return quote.FormatNumber(now, int(count)+1+skip), nil
}

// insert saves a new quote, renumbering it when the tenant's unique number
// index rejects the first choice.
func (s *QuoteService) insert(ctx context.Context, q *quote.Quote, now time.Time) error {
	for attempt := 1; ; attempt++ {
		err := s.quotes.Save(ctx, q)
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return err
		}
		if attempt == maxNumberAttempts {
			s.logger.Warn("Quote number still taken after retries",
				zap.String("tenant_id", q.TenantID.String()),
				zap.String("number", q.Number),
			)
			return shared.NewDomainError("CONFLICT", "Could not allocate a quote number, please retry")
		}
		number, err := s.nextNumber(ctx, q.TenantID, now, attempt)
		if err != nil {
			return err
		}
		s.logger.Debug("Quote number taken, renumbering",
			zap.String("taken", q.Number), zap.String("number", number))
		q.Number = number
	}
}

// advanceToQuoted moves a lead still before the quoted column. The quote is
// already saved, so failures are logged.
func (s *QuoteService) advanceToQuoted(ctx context.Context, caller access.Caller, c *crm.Customer) {
	if !c.Stage.IsOpen() || c.Stage.Position() >= crm.StageQuoted.Position() {
		return
	}
	if err := c.MoveTo(crm.StageQuoted, caller.Actor()); err != nil {
		return
	}
	if err := s.customers.SaveWithLock(ctx, c); err != nil {
		s.logger.Warn("Failed to move customer to quoted",
			zap.String("customer_id", c.ID.String()),
			zap.Error(err),
		)
		c.ClearDomainEvents()
		return
	}
	event.PublishPending(ctx, s.publisher, s.logger, c)
}

func (s *QuoteService) appendActivity(ctx context.Context, c *crm.Customer, body string, actor *uuid.UUID) {
	a, err := crm.NewActivity(c, crm.ActivityQuote, body, actor)
	if err == nil {
		err = s.activities.Append(ctx, a)
	}
	if err != nil {
		s.logger.Warn("Failed to record quote activity",
			zap.String("customer_id", c.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *QuoteService) visibleCustomer(ctx context.Context, caller access.Caller, id uuid.UUID) (*crm.Customer, error) {
	viewer, err := s.resolver.Viewer(ctx, caller)
	if err != nil {
		return nil, err
	}
	return access.VisibleCustomer(ctx, s.customers, viewer, id)
}

// load returns a quote whose customer the caller can see.
func (s *QuoteService) load(ctx context.Context, caller access.Caller, id uuid.UUID) (*quote.Quote, *crm.Customer, error) {
	q, err := s.quotes.FindByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.visibleCustomer(ctx, caller, q.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	return q, c, nil
}

// Get returns a quote.
func (s *QuoteService) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*QuoteResponse, error) {
	q, _, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	resp := ToQuoteResponse(q, s.now())
	return &resp, nil
}

// ListByCustomer returns a visible customer's quotes, newest first.
func (s *QuoteService) ListByCustomer(ctx context.Context, caller access.Caller, customerID uuid.UUID) ([]QuoteResponse, error) {
	if _, err := s.visibleCustomer(ctx, caller, customerID); err != nil {
		return nil, err
	}
	quotes, err := s.quotes.ListByCustomer(ctx, caller.TenantID, customerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]QuoteResponse, 0, len(quotes))
	for i := range quotes {
		out = append(out, ToQuoteResponse(&quotes[i], now))
	}
	return out, nil
}

// RenderHTML renders the printable quote page.
func (s *QuoteService) RenderHTML(ctx context.Context, caller access.Caller, id uuid.UUID) (string, error) {
	q, c, err := s.load(ctx, caller, id)
	if err != nil {
		return "", err
	}
	return s.render(ctx, q, c)
}

func (s *QuoteService) render(ctx context.Context, q *quote.Quote, c *crm.Customer) (string, error) {
	doc := printing.QuoteDocument{Quote: q, Customer: c}
	tenant, err := s.tenants.FindByID(ctx, q.TenantID)
	if err != nil {
		return "", err
	}
	doc.Dealership = tenant
	if q.UnitID != nil {
		unit, err := s.units.FindByID(ctx, q.TenantID, *q.UnitID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return "", err
		}
		doc.Unit = unit
	}
	if rep, err := s.users.FindByID(ctx, q.TenantID, q.PreparedByID); err == nil {
		doc.PreparedBy = rep
	}
	return s.html.RenderQuote(doc)
}

// RenderPDF prints the quote and, when a document store is configured,
// archives the PDF and returns a presigned link to it.
func (s *QuoteService) RenderPDF(ctx context.Context, caller access.Caller, id uuid.UUID) (*PDFDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "render_pdf",
		"tenant_id", caller.TenantID.String(),
		"quote_id", id.String(),
	)
	defer span.End()

	if s.pdf == nil {
		return nil, shared.NewDomainError("PDF_UNAVAILABLE", "PDF rendering is not configured")
	}
	q, c, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	html, err := s.render(ctx, q, c)
	if err != nil {
		return nil, err
	}
	pdf, err := s.pdf.RenderPDF(ctx, html)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("render quote %s: %w", q.Number, err)
	}
	doc := &PDFDocument{Filename: q.Number + ".pdf", Content: pdf}
	if s.store == nil {
		return doc, nil
	}

	key := s.store.Key(q.TenantID, q.Number, "pdf")
	if err := s.store.Put(ctx, key, pdf, "application/pdf"); err != nil {
		// Archival is best effort; the caller still gets the PDF.
		s.logger.Warn("Failed to archive quote PDF",
			zap.String("quote_id", q.ID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		return doc, nil
	}
	if q.DocumentKey != key {
		q.SetDocumentKey(key)
		if err := s.quotes.Save(ctx, q); err != nil {
			return nil, err
		}
	}
	if url, err := s.store.PresignGet(ctx, key); err == nil {
		doc.URL = url
	}
	telemetry.SetAttributes(span, "archived_key", key, "bytes", len(pdf))
	return doc, nil
}

// MarkSent records that the quote went to the customer.
func (s *QuoteService) MarkSent(ctx context.Context, caller access.Caller, id uuid.UUID) (*QuoteResponse, error) {
	q, c, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if q.IsExpired(now) {
		return nil, shared.NewDomainError("QUOTE_EXPIRED", "Quote has expired")
	}
	if err := q.MarkSent(now); err != nil {
		return nil, err
	}
	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, err
	}
	s.appendActivity(ctx, c, fmt.Sprintf("Quote %s sent", q.Number), caller.Actor())
	event.PublishPending(ctx, s.publisher, s.logger, q)
	resp := ToQuoteResponse(q, now)
	return &resp, nil
}

// MarkAccepted records the customer's acceptance and moves an open lead
// to negotiating.
func (s *QuoteService) MarkAccepted(ctx context.Context, caller access.Caller, id uuid.UUID) (*QuoteResponse, error) {
	q, c, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := q.Accept(now); err != nil {
		if q.Status == quote.StatusExpired {
			if saveErr := s.quotes.Save(ctx, q); saveErr != nil {
				s.logger.Warn("Failed to persist expired quote", zap.String("quote_id", q.ID.String()), zap.Error(saveErr))
			}
		}
		return nil, err
	}
	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, err
	}
	s.appendActivity(ctx, c, fmt.Sprintf("Quote %s accepted", q.Number), caller.Actor())
	if c.Stage.IsOpen() && c.Stage.Position() < crm.StageNegotiating.Position() {
		if err := c.MoveTo(crm.StageNegotiating, caller.Actor()); err == nil {
			if err := s.customers.SaveWithLock(ctx, c); err != nil {
				s.logger.Warn("Failed to move customer to negotiating", zap.String("customer_id", c.ID.String()), zap.Error(err))
				c.ClearDomainEvents()
			}
			event.PublishPending(ctx, s.publisher, s.logger, c)
		}
	}
	resp := ToQuoteResponse(q, now)
	return &resp, nil
}

// SetSalesMetrics sets the collector counting expired quotes.
func (s *QuoteService) SetSalesMetrics(m *telemetry.SalesMetrics) {
	s.metrics = m
}

// ExpireLapsed marks the tenant's draft and sent quotes past their validity
// as expired and returns how many were updated.
func (s *QuoteService) ExpireLapsed(ctx context.Context, tenantID uuid.UUID) (int, error) {
	now := s.now()
	lapsed, err := s.quotes.ListLapsed(ctx, tenantID, now)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range lapsed {
		q := &lapsed[i]
		if !q.Expire(now) {
			continue
		}
		if err := s.quotes.Save(ctx, q); err != nil {
			return expired, fmt.Errorf("expire quote %s: %w", q.Number, err)
		}
		expired++
	}
	if s.metrics != nil {
		s.metrics.RecordQuotesExpired(ctx, tenantID, expired)
	}
	if expired > 0 {
		s.logger.Info("Quotes expired",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("count", expired))
	}
	return expired, nil
}
