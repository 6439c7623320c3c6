package models

import (
	"encoding/json"
)

// RecordWire is the ingestion shape of an EventRecord. Pointer fields let
// decoders tell a missing field from a zero value.
type RecordWire struct {
	Date          *string  `json:"date" yaml:"date"`
	VehicleID     *string  `json:"vehicle_id" yaml:"vehicle_id"`
	DistanceKM    *float64 `json:"distance_km" yaml:"distance_km"`
	FuelConsumedL *float64 `json:"fuel_consumed_l" yaml:"fuel_consumed_l"`
	EventType     *string  `json:"event_type" yaml:"event_type"`
	Cost          *float64 `json:"cost" yaml:"cost"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Record converts the wire row into a validated EventRecord. Distance and
// fuel are required on Trip rows only.
func (w RecordWire) Record() (EventRecord, error) {
	var r EventRecord
	if w.Date == nil {
		return r, &ValidationError{Field: "date", Reason: "is required"}
	}
	if w.VehicleID == nil {
		return r, &ValidationError{Field: "vehicle_id", Reason: "is required"}
	}
	if w.EventType == nil {
		return r, &ValidationError{Field: "event_type", Reason: "is required"}
	}
	if w.Cost == nil {
		return r, &ValidationError{Field: "cost", Reason: "is required"}
	}

	date, err := ParseDate(*w.Date)
	if err != nil {
		return r, err
	}
	et, err := ParseEventType(*w.EventType)
	if err != nil {
		return r, err
	}
	if et == Trip {
		if w.DistanceKM == nil {
			return r, &ValidationError{Field: "distance_km", Reason: "is required for Trip events"}
		}
		if w.FuelConsumedL == nil {
			return r, &ValidationError{Field: "fuel_consumed_l", Reason: "is required for Trip events"}
		}
	}

	r = EventRecord{
		Date:        date,
		VehicleID:   *w.VehicleID,
		EventType:   et,
		Cost:        *w.Cost,
		Description: w.Description,
	}
	if w.DistanceKM != nil {
		r.DistanceKM = *w.DistanceKM
	}
	if w.FuelConsumedL != nil {
		r.FuelConsumedL = *w.FuelConsumedL
	}
	return r, r.Validate()
}

// Wire returns the ingestion shape of r
func (r EventRecord) Wire() RecordWire {
	date := r.Date.Format(DateLayout)
	vid := r.VehicleID
	km, fuel, cost := r.DistanceKM, r.FuelConsumedL, r.Cost
	et := string(r.EventType)
	return RecordWire{
		Date:          &date,
		VehicleID:     &vid,
		DistanceKM:    &km,
		FuelConsumedL: &fuel,
		EventType:     &et,
		Cost:          &cost,
		Description:   r.Description,
	}
}

// MarshalJSON encodes the record with a YYYY-MM-DD date
func (r EventRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Wire())
}

// UnmarshalJSON decodes and validates a record
func (r *EventRecord) UnmarshalJSON(data []byte) error {
	var w RecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	rec, err := w.Record()
	if err != nil {
		return err
	}
	*r = rec
	return nil
}
