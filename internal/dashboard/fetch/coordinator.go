package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/sources"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/window"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
	"github.com/merchantpulse/merchantpulse-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// Result is the outcome of one source fetch. Exactly one of Payload or
// Err is meaningful.
type Result struct {
	Payload  sources.Payload
	Err      error
	Critical bool
}

// Report collects every source outcome from one fan-out cycle. The
// generation token identifies the window the cycle was started under.
type Report struct {
	Generation uint64
	Window     window.Window
	Results    map[string]Result
	Duration   time.Duration
}

// Degraded returns the IDs of sources that failed, in no particular order.
func (r Report) Degraded() []string {
	var ids []string
	for id, result := range r.Results {
		if result.Err != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// CriticalErr combines the failures of critical sources into one error.
// A critical source that answered with an empty payload counts as failed.
// Returns nil when every critical source delivered data.
func (r Report) CriticalErr() error {
	var combined error
	for id, result := range r.Results {
		if !result.Critical {
			continue
		}
		if result.Err != nil {
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", id, result.Err))
			continue
		}
		if result.Payload.IsEmpty() {
			combined = multierr.Append(combined, fmt.Errorf("%s: empty payload", id))
		}
	}
	return combined
}

// Coordinator fans a fetch cycle out across every registered source.
type Coordinator struct {
	sources []sources.Source
	timeout time.Duration
	logg    *logger.Logger
	metrics *metrics.DashboardMetrics
}

func NewCoordinator(registry []sources.Source, timeout time.Duration, logg *logger.Logger, m *metrics.DashboardMetrics) *Coordinator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Coordinator{
		sources: registry,
		timeout: timeout,
		logg:    logg,
		metrics: m,
	}
}

// FetchAll runs every source concurrently and waits for all of them.
// Each source gets its own timeout so one hung endpoint cannot stall the
// cycle past the deadline. Failures land in the report instead of
// aborting the cycle.
func (c *Coordinator) FetchAll(ctx context.Context, win window.Window, generation uint64) Report {
	started := time.Now()
	ctx = c.logg.WithGeneration(ctx, generation)

	report := Report{
		Generation: generation,
		Window:     win,
		Results:    make(map[string]Result, len(c.sources)),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, src := range c.sources {
		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			payload, err := c.fetchOne(fetchCtx, src, win)
			if err != nil {
				c.metrics.IncSourceFailure(src.ID())
				c.logg.Error(c.logg.WithSource(ctx, src.ID()), "source fetch failed", err)
			}

			mu.Lock()
			report.Results[src.ID()] = Result{
				Payload:  payload,
				Err:      err,
				Critical: src.Critical(),
			}
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	report.Duration = time.Since(started)

	outcome := "ok"
	if len(report.Degraded()) > 0 {
		outcome = "degraded"
	}
	c.metrics.ObserveFetchDuration(outcome, report.Duration)
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{
		"sources":  len(c.sources),
		"degraded": len(report.Degraded()),
		"outcome":  outcome,
	}), "fetch cycle finished")

	return report
}

// A panicking source implementation degrades like any other failure
// instead of taking the process down with it.
func (c *Coordinator) fetchOne(ctx context.Context, src sources.Source, win window.Window) (payload sources.Payload, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			payload = sources.Payload{}
			err = fmt.Errorf("source panicked: %v", rec)
		}
	}()
	return src.Fetch(ctx, win)
}
