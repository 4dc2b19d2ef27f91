package window

import (
	"sync"
	"time"

	apperrors "github.com/merchantpulse/merchantpulse-backend/pkg/errors"
)

// Window is a closed reporting interval normalized to whole UTC days.
// Start sits at 00:00:00 and End at the last nanosecond of its day, so
// records stamped anywhere inside either boundary day are included.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the window, boundaries included.
func (w Window) Contains(ts time.Time) bool {
	utc := ts.UTC()
	return !utc.Before(w.Start) && !utc.After(w.End)
}

// StartDate returns the start boundary formatted as YYYY-MM-DD.
func (w Window) StartDate() string {
	return w.Start.Format("2006-01-02")
}

// EndDate returns the end boundary formatted as YYYY-MM-DD.
func (w Window) EndDate() string {
	return w.End.Format("2006-01-02")
}

// Days returns the number of calendar days the window spans.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Store holds the active reporting window together with a monotonically
// increasing generation token. The token changes only when the window
// actually changes, so in-flight fetches started under an older window can
// be recognized and discarded.
type Store struct {
	mu         sync.Mutex
	current    Window
	generation uint64
}

// NewStore seeds the store with a trailing window of defaultDays ending today.
func NewStore(defaultDays int, now func() time.Time) *Store {
	if defaultDays <= 0 {
		defaultDays = 30
	}
	if now == nil {
		now = time.Now
	}
	end := dayEnd(now().UTC())
	start := dayStart(end.AddDate(0, 0, -(defaultDays - 1)))
	return &Store{
		current:    Window{Start: start, End: end},
		generation: 1,
	}
}

// Current returns the active window and its generation token.
func (s *Store) Current() (Window, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.generation
}

// Set replaces the window with the supplied pair of dates. Both endpoints
// must be present; a nil on either side retains the previous window as a
// whole. The returned bool reports whether the window changed; the
// generation advances only then.
func (s *Store) Set(start, end *time.Time) (Window, uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if start == nil || end == nil {
		return s.current, s.generation, false, nil
	}

	candidate := Window{
		Start: dayStart(start.UTC()),
		End:   dayEnd(end.UTC()),
	}

	if candidate.Start.After(candidate.End) {
		return s.current, s.generation, false, apperrors.New(
			apperrors.CodeValidation,
			"window start must not be after window end",
		)
	}

	if candidate == s.current {
		return s.current, s.generation, false, nil
	}

	s.current = candidate
	s.generation++
	return s.current, s.generation, true, nil
}

// IsCurrent reports whether the supplied generation still matches the
// active window.
func (s *Store) IsCurrent(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return generation == s.generation
}

func dayStart(ts time.Time) time.Time {
	utc := ts.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

func dayEnd(ts time.Time) time.Time {
	utc := ts.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}
