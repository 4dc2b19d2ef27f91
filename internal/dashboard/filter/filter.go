package filter

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/snapshot"
	apperrors "github.com/merchantpulse/merchantpulse-backend/pkg/errors"
)

// Filterable transaction fields.
const (
	CategoryID       = "id"
	CategoryAmount   = "amount"
	CategoryCustomer = "customer"
	CategoryProduct  = "product"
)

// Criteria is a validated search filter. An empty Query clears the filter.
type Criteria struct {
	Category string
	Query    string
}

// IsZero reports whether the criteria matches everything.
func (c Criteria) IsZero() bool {
	return c.Query == ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Letters, digits, and spaces. Free-text fields accept nothing else
	// so a query can never smuggle control characters into downstream use.
	_ = v.RegisterValidation("alnumspace", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
				return false
			}
		}
		return true
	})
	return v
}

// Validate checks the criteria. Identifier and amount categories accept
// digits only; free-text categories accept letters, digits, and spaces.
func Validate(c Criteria) error {
	switch c.Category {
	case CategoryID, CategoryAmount, CategoryCustomer, CategoryProduct:
	default:
		return apperrors.New(apperrors.CodeValidation, "unknown filter category").
			WithDetails(map[string]any{"category": c.Category})
	}

	if c.Query == "" {
		return nil
	}

	rule := "alnumspace"
	if c.Category == CategoryID || c.Category == CategoryAmount {
		rule = "numeric"
	}
	if err := validate.Var(c.Query, rule); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "query not allowed for category").
			WithDetails(map[string]any{"category": c.Category, "query": c.Query})
	}
	return nil
}

// Apply returns the transactions matching the criteria. Matching is a
// case-insensitive substring test on the selected field.
func Apply(txs []snapshot.Transaction, c Criteria) []snapshot.Transaction {
	if c.IsZero() {
		return txs
	}
	needle := strings.ToLower(c.Query)
	matched := make([]snapshot.Transaction, 0, len(txs))
	for _, tx := range txs {
		if strings.Contains(strings.ToLower(fieldValue(tx, c.Category)), needle) {
			matched = append(matched, tx)
		}
	}
	return matched
}

func fieldValue(tx snapshot.Transaction, category string) string {
	switch category {
	case CategoryID:
		return tx.ID
	case CategoryAmount:
		return tx.Amount.Amount.String()
	case CategoryCustomer:
		return tx.Customer
	case CategoryProduct:
		return tx.Product
	default:
		return ""
	}
}
