package csvimport

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeDecimal FieldType = "decimal"
	TypeEmail   FieldType = "email"
)

// FieldRule defines validation rules for a column.
type FieldRule struct {
	Column    string
	Type      FieldType
	Required  bool
	MaxLength int
	Min       *decimal.Decimal
	OneOf     []string
	// Accept, when set, must hold for every non-empty value.
	Accept        func(string) bool
	AcceptMessage string
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a string rule for column.
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Email sets the field type to email
func (b *FieldRuleBuilder) Email() *FieldRuleBuilder {
	b.rule.Type = TypeEmail
	return b
}

// Decimal sets the field type to decimal
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// MaxLength caps the value length in characters.
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Min sets the smallest accepted decimal value.
func (b *FieldRuleBuilder) Min(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.Min = &v
	return b
}

// OneOf restricts the value, compared case-insensitively.
func (b *FieldRuleBuilder) OneOf(values ...string) *FieldRuleBuilder {
	b.rule.OneOf = values
	return b
}

// Accept rejects values for which fn is false with a NOT_ALLOWED error
// carrying msg.
func (b *FieldRuleBuilder) Accept(fn func(string) bool, msg string) *FieldRuleBuilder {
	b.rule.Accept = fn
	b.rule.AcceptMessage = msg
	return b
}

// Build returns the rule.
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// Validator checks rows against a rule set.
type Validator struct {
	rules []FieldRule
}

// NewValidator creates a Validator from builders.
func NewValidator(rules ...*FieldRuleBuilder) *Validator {
	v := &Validator{rules: make([]FieldRule, len(rules))}
	for i, r := range rules {
		v.rules[i] = r.Build()
	}
	return v
}

// RequiredColumns lists the columns marked Required.
func (v *Validator) RequiredColumns() []string {
	var cols []string
	for _, r := range v.rules {
		if r.Required {
			cols = append(cols, r.Column)
		}
	}
	return cols
}

// Validate returns every rule the row breaks.
func (v *Validator) Validate(row *Row) []RowError {
	var errs []RowError
	for _, rule := range v.rules {
		if err := rule.check(row.LineNumber, row.Get(rule.Column)); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

func (r FieldRule) check(line int, value string) *RowError {
	fail := func(code, msg string) *RowError {
		return &RowError{Row: line, Column: r.Column, Code: code, Message: msg, Value: value}
	}
	if value == "" {
		if r.Required {
			return fail(CodeRequired, "is required")
		}
		return nil
	}
	if r.MaxLength > 0 && utf8.RuneCountInString(value) > r.MaxLength {
		return fail(CodeTooLong, fmt.Sprintf("must be at most %d characters", r.MaxLength))
	}
	switch r.Type {
	case TypeEmail:
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return fail(CodeInvalid, "must be an email address")
		}
	case TypeDecimal:
		d, err := ParseAmount(value)
		if err != nil {
			return fail(CodeInvalid, "must be a number")
		}
		if r.Min != nil && d.LessThan(*r.Min) {
			return fail(CodeInvalid, "must be at least "+r.Min.String())
		}
	}
	if len(r.OneOf) > 0 && !slices.Contains(r.OneOf, strings.ToLower(value)) {
		return fail(CodeNotAllowed, "must be one of "+strings.Join(r.OneOf, ", "))
	}
	if r.Accept != nil && !r.Accept(value) {
		return fail(CodeNotAllowed, r.AcceptMessage)
	}
	return nil
}

// ParseAmount reads a currency cell such as "$12,500.00".
func ParseAmount(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(value)))
}
