package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	CodeRequired   = "REQUIRED"
	CodeInvalid    = "INVALID_FORMAT"
	CodeTooLong    = "TOO_LONG"
	CodeNotAllowed = "NOT_ALLOWED"
	CodeDuplicate  = "DUPLICATE"
	CodeNotFound   = "REFERENCE_NOT_FOUND"
)

var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned for content that is not UTF-8
	ErrInvalidEncoding = errors.New("CSV file must be UTF-8 encoded")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrNoDataRows is returned when the CSV file has no data rows
	ErrNoDataRows = errors.New("CSV file contains no data rows")

	// ErrMalformedRow wraps a line the CSV reader could not split
	ErrMalformedRow = errors.New("malformed CSV row")

	// ErrTooManyRows is returned when a file exceeds the row cap
	ErrTooManyRows = errors.New("CSV file has too many rows")
)

// RowError locates a problem in the uploaded file.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection gathers row errors up to a cap so a bad file cannot
// produce an unbounded response.
type ErrorCollection struct {
	errors    []RowError
	maxErrors int
	total     int
}

// NewErrorCollection keeps at most maxErrors entries; zero means 100.
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add records err, counting it even when the list is full.
func (ec *ErrorCollection) Add(err RowError) {
	ec.total++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddAll records every error in errs.
func (ec *ErrorCollection) AddAll(errs []RowError) {
	for _, e := range errs {
		ec.Add(e)
	}
}

// Errors returns the kept errors in insertion order, never nil.
func (ec *ErrorCollection) Errors() []RowError {
	if ec.errors == nil {
		return []RowError{}
	}
	return ec.errors
}

// TotalCount includes errors dropped past the cap.
func (ec *ErrorCollection) TotalCount() int {
	return ec.total
}

// IsTruncated reports whether errors were dropped.
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.total > len(ec.errors)
}
