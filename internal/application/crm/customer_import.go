package crm

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/csvimport"
	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxImportErrors = 100

var errImportManagersOnly = shared.NewDomainError("FORBIDDEN", "Only managers and administrators can import customers")

// importAliases maps common spreadsheet headings onto import columns.
var importAliases = map[string]string{
	"full_name":     "name",
	"customer":      "name",
	"e_mail":        "email",
	"email_address": "email",
	"phone_number":  "phone",
	"mobile":        "phone",
	"cell":          "phone",
	"lead_source":   "source",
	"rep":           "assigned_to",
	"salesperson":   "assigned_to",
	"trailer":       "trailer_type",
	"stock":         "stock_number",
}

var customerImportRules = csvimport.NewValidator(
	csvimport.Field("name").Required().MaxLength(200),
	csvimport.Field("email").Email().MaxLength(200),
	csvimport.Field("phone").MaxLength(50),
	csvimport.Field("city").MaxLength(100),
	csvimport.Field("state").MaxLength(50),
	csvimport.Field("source").MaxLength(50).
		Accept(crm.IsKnownSource, "must be a known lead source such as website, facebook, marketplace, referral, walk_in or phone"),
	csvimport.Field("trailer_type").MaxLength(100),
	csvimport.Field("stock_number").MaxLength(50),
	csvimport.Field("budget").Decimal().Min(decimal.Zero),
	csvimport.Field("payment").OneOf("cash", "finance", "rto"),
	csvimport.Field("assigned_to").Email(),
)

// Import creates customers from a CSV upload. Rows that fail validation or
// match an existing customer are reported and skipped; the rest are created
// as if entered by hand, so assignment and duplicate rules still apply.
func (s *CustomerService) Import(ctx context.Context, caller access.Caller, r io.Reader) (*ImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "import",
		telemetry.AttrTenantID, caller.TenantID.String(), telemetry.AttrUserID, caller.UserID.String())
	defer span.End()

	if !caller.Role.CanManageTeam() {
		return nil, errImportManagersOnly
	}

	rows, err := readImportRows(r, s.exportMax)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{TotalRows: len(rows)}
	problems := csvimport.NewErrorCollection(maxImportErrors)
	reps := map[string]*uuid.UUID{}

	for _, row := range rows {
		if errs := customerImportRules.Validate(row); len(errs) > 0 {
			problems.AddAll(errs)
			result.Failed++
			continue
		}

		req, rowErr, err := s.importRequest(ctx, caller, row, reps)
		if err != nil {
			return nil, err
		}
		if rowErr != nil {
			problems.Add(*rowErr)
			result.Failed++
			continue
		}

		_, err = s.Create(ctx, caller, req)
		var dup *DuplicateCustomerError
		var de *shared.DomainError
		switch {
		case err == nil:
			result.Created++
		case errors.As(err, &dup):
			problems.Add(csvimport.RowError{
				Row: row.LineNumber, Code: csvimport.CodeDuplicate,
				Message: "a customer with this email or phone already exists",
			})
			result.Duplicates++
		case errors.As(err, &de):
			problems.Add(csvimport.RowError{Row: row.LineNumber, Code: de.Code, Message: de.Message})
			result.Failed++
		default:
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	result.Errors = problems.Errors()
	result.ErrorsTruncated = problems.IsTruncated()
	telemetry.SetAttributes(span, "created", result.Created, "duplicates", result.Duplicates, "failed", result.Failed)
	s.logger.Info("Customers imported",
		zap.String("tenant_id", caller.TenantID.String()),
		zap.String("user_id", caller.UserID.String()),
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func readImportRows(r io.Reader, maxRows int) ([]*csvimport.Row, error) {
	parser, err := csvimport.NewParser(r, csvimport.WithAliases(importAliases), csvimport.WithMaxRows(maxRows))
	if err != nil {
		return nil, importFileError(err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, importFileError(err)
	}
	if missing := parser.MissingHeaders(customerImportRules.RequiredColumns()); len(missing) > 0 {
		return nil, shared.NewDomainError("INVALID_IMPORT_FILE", "Missing required column: "+strings.Join(missing, ", "))
	}
	if !parser.HasHeader("email") && !parser.HasHeader("phone") {
		return nil, shared.NewDomainError("INVALID_IMPORT_FILE", "An email or phone column is required")
	}
	rows, err := parser.ReadAll()
	if err != nil {
		return nil, importFileError(err)
	}
	return rows, nil
}

func importFileError(err error) error {
	return shared.NewDomainError("INVALID_IMPORT_FILE", err.Error())
}

// importRequest turns a validated row into a create request. A rep column
// naming nobody in the dealership is reported against the row.
func (s *CustomerService) importRequest(ctx context.Context, caller access.Caller, row *csvimport.Row, reps map[string]*uuid.UUID) (CreateCustomerRequest, *csvimport.RowError, error) {
	req := CreateCustomerRequest{
		Name:   row.Get("name"),
		Email:  row.Get("email"),
		Phone:  row.Get("phone"),
		City:   row.Get("city"),
		State:  row.Get("state"),
		Source: row.Get("source"),
		Notes:  row.Get("notes"),
	}
	if req.Source == "" {
		req.Source = "other"
	}

	interest := InterestRequest{
		TrailerType: row.Get("trailer_type"),
		StockNumber: row.Get("stock_number"),
		Payment:     strings.ToLower(row.Get("payment")),
	}
	if v := row.Get("budget"); v != "" {
		budget, err := csvimport.ParseAmount(v)
		if err != nil {
			return req, nil, err
		}
		interest.Budget = &budget
	}
	if interest != (InterestRequest{}) {
		req.Interest = &interest
	}

	if email := strings.ToLower(row.Get("assigned_to")); email != "" {
		id, seen := reps[email]
		if !seen {
			rep, err := s.users.FindByEmail(ctx, caller.TenantID, email)
			switch {
			case err == nil:
				id = &rep.ID
			case errors.Is(err, shared.ErrNotFound):
			default:
				return req, nil, err
			}
			reps[email] = id
		}
		if id == nil {
			return req, &csvimport.RowError{
				Row: row.LineNumber, Column: "assigned_to", Code: csvimport.CodeNotFound,
				Message: "no user with this email", Value: email,
			}, nil
		}
		req.AssignedToID = id
	}
	return req, nil, nil
}
