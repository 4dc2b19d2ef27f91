package dashboard

import (
	"net/http"
	"time"

	"github.com/merchantpulse/merchantpulse-backend/api/responses"
	"github.com/merchantpulse/merchantpulse-backend/api/validators"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/filter"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/snapshot"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/window"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
)

// Service is the engine surface the dashboard controllers use.
type Service interface {
	Snapshot() snapshot.MetricSnapshot
	Subscribe(fn func(snapshot.MetricSnapshot)) func()
	Window() (window.Window, uint64)
	SetReportingWindow(start, end *time.Time) (window.Window, error)
	Refresh()
	SetSearchFilter(category, query string) error
	CurrentFilter() filter.Criteria
	FilteredTransactions(override filter.Criteria) []snapshot.Transaction
}

// Fetch returns the full dashboard snapshot with its reporting window.
func Fetch(service Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := service.Snapshot()
		win, _ := service.Window()
		responses.WriteSuccess(w, map[string]any{
			"window": map[string]string{
				"start_date": win.StartDate(),
				"end_date":   win.EndDate(),
			},
			"snapshot": snap,
		})
	}
}

type windowRequest struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// SetWindow updates the reporting window. Both dates must be present; a
// request missing either side leaves the window as it was.
func SetWindow(service Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req windowRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var start, end *time.Time
		if req.StartDate != "" {
			parsed, _ := time.Parse("2006-01-02", req.StartDate)
			utc := parsed.UTC()
			start = &utc
		}
		if req.EndDate != "" {
			parsed, _ := time.Parse("2006-01-02", req.EndDate)
			utc := parsed.UTC()
			end = &utc
		}

		win, err := service.SetReportingWindow(start, end)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		_, generation := service.Window()
		responses.WriteSuccess(w, map[string]any{
			"start_date": win.StartDate(),
			"end_date":   win.EndDate(),
			"generation": generation,
		})
	}
}

// Refresh queues a fetch cycle and returns immediately.
func Refresh(service Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		service.Refresh()
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "refresh queued"})
	}
}
