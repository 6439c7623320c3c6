package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives reporting pipeline events.
type Recorder interface {
	CacheHit(source string)
	CacheMiss(source string)
	CacheEviction()
	RecordsLoaded(source string, n int)
	ValidationError(stage string)
	Session(outcome string, d time.Duration)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) CacheHit(string)               {}
func (NopRecorder) CacheMiss(string)              {}
func (NopRecorder) CacheEviction()                {}
func (NopRecorder) RecordsLoaded(string, int)     {}
func (NopRecorder) ValidationError(string)        {}
func (NopRecorder) Session(string, time.Duration) {}

// PromRecorder records pipeline events in Prometheus collectors.
type PromRecorder struct {
	cache      *prometheus.CounterVec
	evictions  prometheus.Counter
	records    *prometheus.CounterVec
	validation *prometheus.CounterVec
	sessions   *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewPromRecorder registers the collectors on reg. If reg is nil, the default
// registerer is used. Collectors that are already registered are reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PromRecorder{
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_source_cache_requests_total",
			Help: "Source cache lookups by source kind and result.",
		}, []string{"source", "result"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_source_cache_evictions_total",
			Help: "Source cache entries evicted by capacity or age.",
		}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_records_loaded_total",
			Help: "Event records produced by sources.",
		}, []string{"source"}),
		validation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_validation_errors_total",
			Help: "Validation errors by pipeline stage.",
		}, []string{"stage"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_report_sessions_total",
			Help: "Reporting sessions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleet_report_session_duration_seconds",
			Help:    "Wall time of a reporting session.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	var err error
	if r.cache, err = register(reg, r.cache); err != nil {
		return nil, err
	}
	if r.evictions, err = register(reg, r.evictions); err != nil {
		return nil, err
	}
	if r.records, err = register(reg, r.records); err != nil {
		return nil, err
	}
	if r.validation, err = register(reg, r.validation); err != nil {
		return nil, err
	}
	if r.sessions, err = register(reg, r.sessions); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) CacheHit(source string) {
	r.cache.WithLabelValues(source, "hit").Inc()
}

func (r *PromRecorder) CacheMiss(source string) {
	r.cache.WithLabelValues(source, "miss").Inc()
}

func (r *PromRecorder) CacheEviction() {
	r.evictions.Inc()
}

func (r *PromRecorder) RecordsLoaded(source string, n int) {
	r.records.WithLabelValues(source).Add(float64(n))
}

func (r *PromRecorder) ValidationError(stage string) {
	r.validation.WithLabelValues(stage).Inc()
}

func (r *PromRecorder) Session(outcome string, d time.Duration) {
	r.sessions.WithLabelValues(outcome).Inc()
	r.duration.Observe(d.Seconds())
}
