package dashboard

import (
	"net/http"
	"strings"

	"github.com/merchantpulse/merchantpulse-backend/api/responses"
	"github.com/merchantpulse/merchantpulse-backend/api/validators"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/filter"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/snapshot"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
)

const transactionsLimitMax = 1000

// ListTransactions returns the published transaction list, optionally
// narrowed by category/query criteria, a since date, and a limit.
// Request-scoped criteria are validated up front and bypass the
// debounced filter.
func ListTransactions(service Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, transactionsLimitMax)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		since, err := validators.ParseQueryDate(r, "since")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		category := strings.TrimSpace(r.URL.Query().Get("category"))
		query := strings.TrimSpace(r.URL.Query().Get("q"))

		criteria := filter.Criteria{Category: category, Query: query}
		if category == "" && query != "" {
			criteria.Category = filter.CategoryCustomer
		}
		if !criteria.IsZero() {
			if err := filter.Validate(criteria); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		applied := criteria
		if applied.IsZero() {
			applied = service.CurrentFilter()
		}

		transactions := service.FilteredTransactions(criteria)
		if since != nil {
			sinceKey := since.Format("2006-01-02")
			kept := make([]snapshot.Transaction, 0, len(transactions))
			for _, tx := range transactions {
				if tx.Day >= sinceKey {
					kept = append(kept, tx)
				}
			}
			transactions = kept
		}
		if limit > 0 && len(transactions) > limit {
			transactions = transactions[:limit]
		}

		responses.WriteSuccess(w, map[string]any{
			"transactions": transactions,
			"count":        len(transactions),
			"filter": map[string]string{
				"category": applied.Category,
				"query":    applied.Query,
			},
		})
	}
}

type filterRequest struct {
	Category string `json:"category" validate:"required"`
	Query    string `json:"query"`
}

// SetFilter submits the debounced search filter used by the default
// transaction view. Invalid input leaves the previous filter in force.
func SetFilter(service Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req filterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := service.SetSearchFilter(req.Category, req.Query); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "filter queued"})
	}
}
