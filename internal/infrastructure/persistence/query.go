package persistence

import (
	"errors"
	"strings"

	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC (the default).
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, else defaultField.
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	if f := strings.TrimSpace(sortField); allowed[f] {
		return f
	}
	return defaultField
}

// CustomerSortFields are the columns the customer list may sort on.
var CustomerSortFields = map[string]bool{
	"created_at":        true,
	"updated_at":        true,
	"name":              true,
	"score":             true,
	"stage":             true,
	"last_contacted_at": true,
	"last_inquiry_at":   true,
}

// UserSortFields are the columns the user list may sort on.
var UserSortFields = map[string]bool{
	"created_at":    true,
	"display_name":  true,
	"email":         true,
	"role":          true,
	"last_login_at": true,
}

// UnitSortFields are the columns the inventory list may sort on.
var UnitSortFields = map[string]bool{
	"created_at":   true,
	"stock_number": true,
	"year":         true,
	"list_price":   true,
	"status":       true,
}

// DeliverySortFields are the columns the delivery list may sort on.
var DeliverySortFields = map[string]bool{
	"created_at":    true,
	"scheduled_for": true,
	"delivered_at":  true,
	"sale_price":    true,
}

// paginate applies the filter's sort (whitelisted) and page window.
func paginate(db *gorm.DB, f shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(f.OrderBy, allowed, defaultField)
	db = db.Order(field + " " + ValidateSortOrder(f.OrderDir))
	if f.PageSize > 0 {
		db = db.Offset(f.Offset()).Limit(f.PageSize)
	}
	return db
}

// visibilityScope turns a role visibility into a parenthesized WHERE clause.
// It is always ANDed with whatever else the query carries, so nothing added
// after it can widen the rows a viewer sees.
func visibilityScope(vis crm.Visibility) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case vis.All:
			return db
		case vis.IsNone():
			return db.Where("1 = 0")
		case vis.ManagedBy != nil && len(vis.AssignedTo) > 0:
			return db.Where("(assigned_to_id IN ? OR manager_id = ?)", vis.AssignedTo, *vis.ManagedBy)
		case vis.ManagedBy != nil:
			return db.Where("(manager_id = ?)", *vis.ManagedBy)
		default:
			return db.Where("(assigned_to_id IN ?)", vis.AssignedTo)
		}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive contains pattern with LIKE
// metacharacters escaped.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// customerSearchScope matches name, email or phone digits. The OR group is
// parenthesized on its own and ANDed onto the query.
func customerSearchScope(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" {
			return db
		}
		pattern := likePattern(term)
		digits := crm.DigitsOnly(term)
		if len(digits) >= 3 {
			return db.Where(
				`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR phone_normalized LIKE ?)`,
				pattern, pattern, "%"+digits+"%",
			)
		}
		return db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// duplicateKey maps a unique index violation to shared.ErrAlreadyExists.
// The connection must be opened with gorm.Config.TranslateError.
func duplicateKey(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}
