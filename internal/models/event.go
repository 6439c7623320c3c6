package models

import (
	"math"
	"strings"
	"time"
)

// EventType classifies a fleet event record
type EventType string

const (
	Trip                  EventType = "Trip"
	PreventiveMaintenance EventType = "PreventiveMaintenance"
	CorrectiveMaintenance EventType = "CorrectiveMaintenance"
	Incident              EventType = "Incident"
)

// EventTypes returns the four event types in canonical order
func EventTypes() []EventType {
	return []EventType{Trip, PreventiveMaintenance, CorrectiveMaintenance, Incident}
}

var eventTypeAliases = map[string]EventType{
	"trip":                   Trip,
	"preventivemaintenance":  PreventiveMaintenance,
	"preventive_maintenance": PreventiveMaintenance,
	"correctivemaintenance":  CorrectiveMaintenance,
	"corrective_maintenance": CorrectiveMaintenance,
	"incident":               Incident,
}

// ParseEventType accepts canonical labels (any case) and snake_case forms
func ParseEventType(s string) (EventType, error) {
	if t, ok := eventTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", &ValidationError{Field: "event_type", Value: s, Reason: "unknown event type"}
}

// Valid reports whether t is one of the four known event types
func (t EventType) Valid() bool {
	switch t {
	case Trip, PreventiveMaintenance, CorrectiveMaintenance, Incident:
		return true
	}
	return false
}

// IsMaintenance is true for preventive and corrective maintenance
func (t EventType) IsMaintenance() bool {
	return t == PreventiveMaintenance || t == CorrectiveMaintenance
}

// EventRecord is a single fleet event. Records are values and are never
// mutated once produced by a source.
type EventRecord struct {
	Date          time.Time
	VehicleID     string
	DistanceKM    float64 // km
	FuelConsumedL float64 // liters
	EventType     EventType
	Cost          float64
	Description   string
}

// Validate checks the record invariants. The first violation is returned.
func (r EventRecord) Validate() error {
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	if strings.TrimSpace(r.VehicleID) == "" {
		return &ValidationError{Field: "vehicle_id", Reason: "is required"}
	}
	if !r.EventType.Valid() {
		return &ValidationError{Field: "event_type", Value: string(r.EventType), Reason: "unknown event type"}
	}
	for _, q := range []struct {
		field string
		v     float64
	}{
		{"distance_km", r.DistanceKM},
		{"fuel_consumed_l", r.FuelConsumedL},
		{"cost", r.Cost},
	} {
		if math.IsNaN(q.v) || math.IsInf(q.v, 0) {
			return &ValidationError{Field: q.field, Reason: "must be a finite number"}
		}
		if q.v < 0 {
			return &ValidationError{Field: q.field, Reason: "cannot be negative"}
		}
	}
	return nil
}

// DateLayout is the wire layout for calendar dates
const DateLayout = "2006-01-02"

// Date returns the UTC midnight of the given calendar day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar day in t's own location
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a calendar date. RFC3339 timestamps are accepted and
// truncated to their day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, &ValidationError{Field: "date", Value: s, Reason: "expected YYYY-MM-DD"}
}
