// Package filter narrows a record batch to one vehicle and date range.
package filter

import (
	"sort"

	"fleet-ops-report/internal/models"
)

// Apply returns the records matching p, in input order. The range is
// validated before anything is filtered. The input slice is never modified
// and the result never aliases it.
func Apply(records []models.EventRecord, p models.FilterParams) ([]models.EventRecord, error) {
	if err := p.Range.Validate(); err != nil {
		return nil, err
	}

	out := make([]models.EventRecord, 0, len(records))
	for _, r := range records {
		if !p.Vehicle.Matches(r.VehicleID) {
			continue
		}
		if !p.Range.Contains(r.Date) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Vehicles returns the distinct vehicle ids in ascending order.
func Vehicles(records []models.EventRecord) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		set[r.VehicleID] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Span returns the range covering every record date. ok is false for an
// empty batch.
func Span(records []models.EventRecord) (r models.DateRange, ok bool) {
	if len(records) == 0 {
		return r, false
	}
	r.Start, r.End = records[0].Date, records[0].Date
	for _, rec := range records[1:] {
		if rec.Date.Before(r.Start) {
			r.Start = rec.Date
		}
		if rec.Date.After(r.End) {
			r.End = rec.Date
		}
	}
	return r, true
}
