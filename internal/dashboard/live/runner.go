package live

import (
	"context"
	"errors"
	"time"

	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/snapshot"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
	"github.com/sethvargo/go-retry"
)

// receiver is the surface of Service the runner drives.
type receiver interface {
	Run(ctx context.Context) error
}

// Runner keeps the live channel alive. When Receive drops it marks the
// snapshot stale, waits out an exponential backoff, and reconnects. The
// marker stays until an event is applied again, so readers can tell how
// long live data has been missing.
type Runner struct {
	service receiver
	store   *snapshot.Store
	logg    *logger.Logger
	initial time.Duration
	max     time.Duration
	now     func() time.Time
}

func NewRunner(service receiver, store *snapshot.Store, logg *logger.Logger, initial, max time.Duration) (*Runner, error) {
	if service == nil {
		return nil, errors.New("live service is required")
	}
	if store == nil {
		return nil, errors.New("snapshot store is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if initial <= 0 {
		initial = time.Second
	}
	if max < initial {
		max = time.Minute
	}
	return &Runner{
		service: service,
		store:   store,
		logg:    logg,
		initial: initial,
		max:     max,
		now:     time.Now,
	}, nil
}

// Run blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	backoff := retry.WithCappedDuration(r.max, retry.NewExponential(r.initial))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		runErr := r.service.Run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if runErr == nil {
			runErr = errors.New("live receive returned without error")
		}

		r.markStale()
		r.logg.Error(ctx, "live channel dropped, reconnecting", runErr)
		return retry.RetryableError(runErr)
	})

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (r *Runner) markStale() {
	r.store.Dispatch(func(snap *snapshot.MetricSnapshot) {
		if snap.StaleSince == nil {
			ts := r.now().UTC()
			snap.StaleSince = &ts
		}
	})
}
