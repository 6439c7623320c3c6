package report

import (
	"context"
	"fmt"
	"time"

	"fleet-ops-report/internal/filter"
	"fleet-ops-report/internal/logger"
	"fleet-ops-report/internal/metrics"
	"fleet-ops-report/internal/models"
	"fleet-ops-report/internal/source"
)

// Session outcomes recorded in metrics.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Service runs reporting sessions: load through the cache, filter, build.
// It holds no per-session state, so one Service serves concurrent sessions.
type Service struct {
	cache   *source.Cache
	log     logger.Logger
	metrics metrics.Recorder
}

func NewService(cache *source.Cache, log logger.Logger, m metrics.Recorder) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	if m == nil {
		m = metrics.NopRecorder{}
	}
	if cache == nil {
		cache = source.NewCache(source.WithMetrics(m), source.WithLogger(log))
	}
	return &Service{cache: cache, log: log, metrics: m}
}

// Load returns the full batch of src.
func (s *Service) Load(ctx context.Context, src source.Source) ([]models.EventRecord, error) {
	records, err := s.cache.Get(ctx, src)
	if err != nil {
		if models.IsValidation(err) {
			s.metrics.ValidationError("ingest")
		}
		return nil, fmt.Errorf("load %s source: %w", src.Kind(), err)
	}
	return records, nil
}

// Run computes a report for src narrowed by p.
func (s *Service) Run(ctx context.Context, src source.Source, p models.FilterParams) (*models.Report, error) {
	start := time.Now()
	records, err := s.Load(ctx, src)
	if err != nil {
		s.finish(err, start)
		return nil, err
	}
	return s.runOn(records, p, start)
}

// RunRecords computes a report over an already ingested batch.
func (s *Service) RunRecords(records []models.EventRecord, p models.FilterParams) (*models.Report, error) {
	return s.runOn(records, p, time.Now())
}

func (s *Service) runOn(records []models.EventRecord, p models.FilterParams, start time.Time) (*models.Report, error) {
	filtered, err := filter.Apply(records, p)
	if err != nil {
		s.metrics.ValidationError("filter")
		s.finish(err, start)
		return nil, err
	}

	rep := Build(filtered, p)
	s.finish(nil, start)
	s.log.Debugw("report built", map[string]any{
		"vehicle":  string(p.Vehicle),
		"range":    p.Range.String(),
		"input":    len(records),
		"filtered": len(filtered),
	})
	return rep, nil
}

// DefaultParams returns params selecting every vehicle over the span of
// src's data, the selection a fresh session starts with.
func (s *Service) DefaultParams(ctx context.Context, src source.Source) (models.FilterParams, error) {
	records, err := s.Load(ctx, src)
	if err != nil {
		return models.FilterParams{}, err
	}
	return SpanParams(records, models.AllVehicles), nil
}

// SpanParams selects vehicle over the span of records. An empty batch gets
// a single-day range at the Unix epoch; any valid range yields no data.
func SpanParams(records []models.EventRecord, vehicle models.VehicleSelector) models.FilterParams {
	span, ok := filter.Span(records)
	if !ok {
		d := models.Date(1970, time.January, 1)
		span = models.DateRange{Start: d, End: d}
	}
	return models.FilterParams{Vehicle: vehicle, Range: span}
}

// Vehicles lists the selectable vehicle ids of src.
func (s *Service) Vehicles(ctx context.Context, src source.Source) ([]string, error) {
	records, err := s.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return filter.Vehicles(records), nil
}

func (s *Service) finish(err error, start time.Time) {
	outcome := OutcomeOK
	switch {
	case err == nil:
	case models.IsValidation(err):
		outcome = OutcomeInvalid
		s.log.Warnf("session rejected: %v", err)
	default:
		outcome = OutcomeError
		s.log.Errorf("session failed: %v", err)
	}
	s.metrics.Session(outcome, time.Since(start))
}
