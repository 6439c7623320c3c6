package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleet-ops-report/internal/models"

	"github.com/gorilla/mux"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.Vehicles(r.Context(), s.src)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ids)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.Load(r.Context(), s.src)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	stats := map[string]interface{}{
		"source":  s.src.Kind(),
		"records": len(records),
	}
	if s.feed != nil {
		feedStats, err := s.feed.Stats(r.Context())
		if err != nil {
			s.respondFailure(w, r, err)
			return
		}
		stats["feed"] = feedStats
	}
	respondJSON(w, http.StatusOK, stats)
}

// filterFromQuery reads vehicle, start and end. Without both bounds the
// range spans the source data; a single bound is rejected.
func (s *Server) filterFromQuery(r *http.Request) (models.FilterParams, error) {
	q := r.URL.Query()
	vehicle := models.ParseVehicleSelector(q.Get("vehicle"))

	var bounds []string
	for _, key := range []string{"start", "end"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			bounds = append(bounds, v)
		}
	}
	if len(bounds) == 0 {
		p, err := s.svc.DefaultParams(r.Context(), s.src)
		p.Vehicle = vehicle
		return p, err
	}
	rng, err := models.ParseDateRange(bounds)
	if err != nil {
		return models.FilterParams{}, err
	}
	return models.FilterParams{Vehicle: vehicle, Range: rng}, nil
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request) (*models.Report, *meta, bool) {
	start := time.Now()
	params, err := s.filterFromQuery(r)
	if err != nil {
		s.respondFailure(w, r, err)
		return nil, nil, false
	}
	rep, err := s.svc.Run(r.Context(), s.src, params)
	if err != nil {
		s.respondFailure(w, r, err)
		return nil, nil, false
	}
	return rep, &meta{
		RequestID: requestID(r.Context()),
		QueryMs:   time.Since(start).Milliseconds(),
		Records:   rep.RecordCount,
	}, true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, m, ok := s.runQuery(w, r)
	if !ok {
		return
	}
	respondWithMeta(w, rep, m)
}

func (s *Server) handleReportView(w http.ResponseWriter, r *http.Request) {
	view := mux.Vars(r)["view"]
	switch view {
	case "efficiency", "maintenance", "incidents", "kpi":
	default:
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown view %q", view))
		return
	}

	rep, m, ok := s.runQuery(w, r)
	if !ok {
		return
	}
	switch view {
	case "efficiency":
		respondWithMeta(w, rep.Efficiency, m)
	case "maintenance":
		respondWithMeta(w, rep.Maintenance, m)
	case "incidents":
		respondWithMeta(w, rep.Incidents, m)
	case "kpi":
		respondWithMeta(w, rep.KPI, m)
	}
}

type reportRequest struct {
	Records []models.RecordWire `json:"records"`
	Filter  struct {
		Vehicle string   `json:"vehicle"`
		Range   []string `json:"range"`
	} `json:"filter"`
}

// handleReportRecords reports on a caller-supplied batch
func (s *Server) handleReportRecords(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req reportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	records := make([]models.EventRecord, 0, len(req.Records))
	for i, wire := range req.Records {
		rec, err := wire.Record()
		if err != nil {
			s.respondFailure(w, r, models.AtRow(err, i+1))
			return
		}
		records = append(records, rec)
	}

	rng, err := models.ParseDateRange(req.Filter.Range)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	params := models.FilterParams{Vehicle: models.ParseVehicleSelector(req.Filter.Vehicle), Range: rng}

	rep, err := s.svc.RunRecords(records, params)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondWithMeta(w, rep, &meta{
		RequestID: requestID(r.Context()),
		QueryMs:   time.Since(start).Milliseconds(),
		Records:   rep.RecordCount,
	})
}
