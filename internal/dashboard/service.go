package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/aggregate"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/fetch"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/filter"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/snapshot"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/sources"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/window"
	"github.com/merchantpulse/merchantpulse-backend/pkg/config"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
	"github.com/merchantpulse/merchantpulse-backend/pkg/metrics"
)

// Engine owns the dashboard state: the reporting window, the aggregated
// snapshot, and the search filter. Fetch cycles run one at a time on the
// Run loop; callers trigger them through a buffered channel so a burst of
// refresh requests collapses into one pending cycle.
type Engine struct {
	windows     *window.Store
	coordinator *fetch.Coordinator
	builder     *aggregate.Builder
	store       *snapshot.Store
	debouncer   *filter.Debouncer

	refreshInterval time.Duration
	trigger         chan struct{}

	metrics *metrics.DashboardMetrics
	logg    *logger.Logger
}

// New wires an engine from configuration and a source registry.
func New(cfg config.DashboardConfig, registry []sources.Source, fetchTimeout time.Duration, logg *logger.Logger, m *metrics.DashboardMetrics) (*Engine, error) {
	if len(registry) == 0 {
		return nil, errors.New("source registry is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	engine := &Engine{
		windows:         window.NewStore(cfg.DefaultWindowDays, time.Now),
		coordinator:     fetch.NewCoordinator(registry, fetchTimeout, logg, m),
		builder:         aggregate.NewBuilder(cfg.TransactionsCap, cfg.ProductsCap, logg),
		store:           snapshot.NewStore(time.Now),
		refreshInterval: cfg.RefreshInterval,
		trigger:         make(chan struct{}, 1),
		metrics:         m,
		logg:            logg,
	}
	engine.debouncer = filter.NewDebouncer(cfg.FilterDebounce, func(filter.Criteria) {})
	return engine, nil
}

// Store exposes the snapshot store for live-merge wiring.
func (e *Engine) Store() *snapshot.Store {
	return e.store
}

// Windows exposes the window store for live-merge wiring.
func (e *Engine) Windows() *window.Store {
	return e.windows
}

// Run performs an initial fetch, then refreshes on the configured
// interval and whenever a cycle is requested, until the context ends.
func (e *Engine) Run(ctx context.Context) error {
	e.runCycle(ctx)

	interval := e.refreshInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.debouncer.Close()
			return ctx.Err()
		case <-ticker.C:
			e.runCycle(ctx)
		case <-e.trigger:
			e.runCycle(ctx)
		}
	}
}

// Refresh requests a fetch cycle. Non-blocking; a cycle already pending
// absorbs the request.
func (e *Engine) Refresh() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

func (e *Engine) runCycle(ctx context.Context) {
	win, generation := e.windows.Current()

	report := e.coordinator.FetchAll(ctx, win, generation)

	if !e.windows.IsCurrent(report.Generation) {
		e.metrics.IncStaleDiscard()
		e.logg.Info(e.logg.WithGeneration(ctx, report.Generation), "discarding fetch for superseded window")
		return
	}

	snap := e.builder.Build(ctx, report, e.store.Current())
	if !e.store.ApplyFetch(report.Generation, snap) {
		e.metrics.IncStaleDiscard()
		return
	}
	e.metrics.SetGeneration(report.Generation)
}

// Snapshot returns a copy of the published dashboard state.
func (e *Engine) Snapshot() snapshot.MetricSnapshot {
	return e.store.Current()
}

// Subscribe registers a listener for snapshot changes.
func (e *Engine) Subscribe(fn func(snapshot.MetricSnapshot)) func() {
	return e.store.Subscribe(fn)
}

// Window returns the active reporting window.
func (e *Engine) Window() (window.Window, uint64) {
	return e.windows.Current()
}

// SetReportingWindow updates the window and triggers a fetch when it
// actually changed. A nil on either side retains the previous window.
func (e *Engine) SetReportingWindow(start, end *time.Time) (window.Window, error) {
	win, generation, changed, err := e.windows.Set(start, end)
	if err != nil {
		return win, err
	}
	if changed {
		e.logg.Info(e.logg.WithGeneration(context.Background(), generation), "reporting window changed")
		e.Refresh()
	}
	return win, nil
}

// SetSearchFilter submits a filter; application is debounced. Invalid
// input keeps the previous filter in force and is reported both by the
// returned error and on FilterHints.
func (e *Engine) SetSearchFilter(category, query string) error {
	return e.debouncer.Submit(category, query)
}

// CurrentFilter returns the filter criteria currently applied.
func (e *Engine) CurrentFilter() filter.Criteria {
	return e.debouncer.Current()
}

// FilterHints delivers a message per rejected filter submission.
func (e *Engine) FilterHints() <-chan string {
	return e.debouncer.Hints()
}

// FilteredTransactions applies the criteria to the published
// transactions. The override, when non-zero, wins over the debounced
// filter so request-scoped queries bypass the debounce delay.
func (e *Engine) FilteredTransactions(override filter.Criteria) []snapshot.Transaction {
	criteria := override
	if criteria.IsZero() {
		criteria = e.debouncer.Current()
	}
	return filter.Apply(e.store.Current().Transactions, criteria)
}
