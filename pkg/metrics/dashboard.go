package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DashboardMetrics records fetch-cycle and live-merge instrumentation.
type DashboardMetrics struct {
	fetchDuration  *prometheus.HistogramVec
	sourceFailures *prometheus.CounterVec
	staleDiscards  prometheus.Counter
	liveEvents     *prometheus.CounterVec
	generation     prometheus.Gauge
}

// NewDashboardMetrics registers the dashboard metrics on the provided registerer.
func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	if reg == nil {
		return &DashboardMetrics{}
	}
	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_fetch_duration_seconds",
		Help:    "Duration of full dashboard fetch cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	sourceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_source_failures",
		Help: "Failed upstream source fetches.",
	}, []string{"source"})
	staleDiscards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_stale_discards",
		Help: "Fetch results discarded because a newer window superseded them.",
	})
	liveEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_live_events",
		Help: "Live events processed, by type and result.",
	}, []string{"type", "result"})
	generation := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_snapshot_generation",
		Help: "Generation token of the currently published snapshot.",
	})
	reg.MustRegister(fetchDuration, sourceFailures, staleDiscards, liveEvents, generation)
	return &DashboardMetrics{
		fetchDuration:  fetchDuration,
		sourceFailures: sourceFailures,
		staleDiscards:  staleDiscards,
		liveEvents:     liveEvents,
		generation:     generation,
	}
}

// ObserveFetchDuration records the duration of a fetch cycle.
func (m *DashboardMetrics) ObserveFetchDuration(outcome string, duration time.Duration) {
	if m == nil || m.fetchDuration == nil {
		return
	}
	m.fetchDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncSourceFailure increments the failure counter for the named source.
func (m *DashboardMetrics) IncSourceFailure(source string) {
	if m == nil || m.sourceFailures == nil {
		return
	}
	m.sourceFailures.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncStaleDiscard counts a fetch result thrown away for being stale.
func (m *DashboardMetrics) IncStaleDiscard() {
	if m == nil || m.staleDiscards == nil {
		return
	}
	m.staleDiscards.Inc()
}

// IncLiveEvent counts a processed live event by type and result.
func (m *DashboardMetrics) IncLiveEvent(eventType, result string) {
	if m == nil || m.liveEvents == nil {
		return
	}
	m.liveEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

// SetGeneration publishes the generation token of the current snapshot.
func (m *DashboardMetrics) SetGeneration(generation uint64) {
	if m == nil || m.generation == nil {
		return
	}
	m.generation.Set(float64(generation))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
