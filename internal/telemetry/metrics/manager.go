package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter
	CounterSnapshotLoads       *prometheus.CounterVec
	CounterRowsRejected        *prometheus.CounterVec
	CounterEntriesRecorded     prometheus.Counter
	CounterViewCache           *prometheus.CounterVec

	// gauges
	GaugeRequests        prometheus.Gauge
	GaugeLifeSignal      prometheus.Gauge
	GaugeSnapshotVersion prometheus.Gauge
	GaugeVisibleEntries  prometheus.Gauge

	// histograms
	HistSnapshotLoadDuration prometheus.Histogram
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("liftlog", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("liftlog", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})
	counterSnapshotLoads := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_loads",
		Help:      "Workout log snapshot loads from the data source",
	}, []string{"result"})
	counterRowsRejected := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rows_rejected",
		Help:      "Workout log rows skipped while normalizing, per reason",
	}, []string{"kind"})
	counterEntriesRecorded := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "entries_recorded",
		Help:      "The total number of workout entries appended to the data source",
	})
	counterViewCache := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "view_cache",
		Help:      "Rendered view cache lookups",
	}, []string{"result"})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugeSnapshotVersion := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_version",
		Help:      "Current workout log snapshot version",
	})
	gaugeVisibleEntries := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "visible_entries",
		Help:      "Entries of the last loaded snapshot shown in the charts",
	})

	histSnapshotLoadDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_load_duration_seconds",
		Help:      "Duration of reading and normalizing the workout log",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})
	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterRequests:            counterRequests,
		CounterHandleRequestPanic:  counterHandleRequestPanic,
		CounterRateLimitedRequests: counterRateLimitedRequests,
		CounterSnapshotLoads:       counterSnapshotLoads,
		CounterRowsRejected:        counterRowsRejected,
		CounterEntriesRecorded:     counterEntriesRecorded,
		CounterViewCache:           counterViewCache,
		GaugeRequests:              gaugeRequests,
		GaugeLifeSignal:            gaugeLifeSignal,
		GaugeSnapshotVersion:       gaugeSnapshotVersion,
		GaugeVisibleEntries:        gaugeVisibleEntries,
		HistSnapshotLoadDuration:   histSnapshotLoadDuration,
		HistogramRequestDuration:   histogramRequestDuration,
	}
}
