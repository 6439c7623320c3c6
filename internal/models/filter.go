package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// VehicleSelector picks either every vehicle or a single vehicle id
type VehicleSelector string

// AllVehicles disables the vehicle predicate
const AllVehicles VehicleSelector = "all"

// ParseVehicleSelector maps "", "all" and "*" to AllVehicles
func ParseVehicleSelector(s string) VehicleSelector {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "all", "*":
		return AllVehicles
	}
	return VehicleSelector(s)
}

// IsAll reports whether the selector matches every vehicle
func (v VehicleSelector) IsAll() bool {
	return v == AllVehicles || v == ""
}

// Matches reports whether id passes the selector
func (v VehicleSelector) Matches(id string) bool {
	return v.IsAll() || string(v) == id
}

// DateRange is a closed calendar interval [Start, End]
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range from exactly two bounds
func NewDateRange(bounds ...time.Time) (DateRange, error) {
	if len(bounds) != 2 {
		return DateRange{}, &ValidationError{
			Field:  "date_range",
			Reason: fmt.Sprintf("expected exactly 2 bounds, got %d", len(bounds)),
		}
	}
	r := DateRange{Start: DateOf(bounds[0]), End: DateOf(bounds[1])}
	return r, r.Validate()
}

// ParseDateRange builds a range from exactly two textual bounds
func ParseDateRange(bounds []string) (DateRange, error) {
	if len(bounds) != 2 {
		return DateRange{}, &ValidationError{
			Field:  "date_range",
			Reason: fmt.Sprintf("expected exactly 2 bounds, got %d", len(bounds)),
		}
	}
	start, err := ParseDate(bounds[0])
	if err != nil {
		return DateRange{}, err
	}
	end, err := ParseDate(bounds[1])
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(start, end)
}

// Validate rejects missing or inverted bounds
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return &ValidationError{Field: "date_range", Reason: "both bounds are required"}
	}
	if r.Start.After(r.End) {
		return &ValidationError{
			Field:  "date_range",
			Value:  r.String(),
			Reason: "start is after end",
		}
	}
	return nil
}

// Contains is inclusive on both ends
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// MarshalJSON encodes the range as a two-element array
func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{r.Start.Format(DateLayout), r.End.Format(DateLayout)})
}

// UnmarshalJSON decodes a two-element array of dates
func (r *DateRange) UnmarshalJSON(data []byte) error {
	var bounds []string
	if err := json.Unmarshal(data, &bounds); err != nil {
		return &ValidationError{Field: "date_range", Reason: "expected an array of dates"}
	}
	parsed, err := ParseDateRange(bounds)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// FilterParams is the input of the filter stage
type FilterParams struct {
	Vehicle VehicleSelector `json:"vehicle"`
	Range   DateRange       `json:"range"`
}
