package models

import (
	"encoding/json"
	"sort"
	"strconv"
)

// NotApplicable is the rendering of an undefined ratio
const NotApplicable = "N/A"

// Ratio is a derived metric that is undefined when its denominator is zero
type Ratio struct {
	Value float64
	Valid bool
}

// RatioOf returns num/den, or an invalid Ratio when den is zero
func RatioOf(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: num / den, Valid: true}
}

func (r Ratio) String() string {
	if !r.Valid {
		return NotApplicable
	}
	return strconv.FormatFloat(r.Value, 'f', 2, 64)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return json.Marshal(NotApplicable)
	}
	return json.Marshal(r.Value)
}

// ViewStatus tells a populated view from the explicit empty marker
type ViewStatus string

const (
	StatusOK     ViewStatus = "ok"
	StatusNoData ViewStatus = "no_data"
)

// EfficiencyRow aggregates Trip events of one vehicle
type EfficiencyRow struct {
	TotalKM    float64 `json:"total_km"`
	TotalFuelL float64 `json:"total_fuel_l"`
	TotalCost  float64 `json:"total_cost"`
	KMPerLiter Ratio   `json:"km_per_liter"`
	CostPerKM  Ratio   `json:"cost_per_km"`
}

// MaintenanceRow aggregates maintenance events of one type
type MaintenanceRow struct {
	AvgCost    float64 `json:"avg_cost"`
	EventCount int     `json:"event_count"`
}

// IncidentRow aggregates incidents of one vehicle
type IncidentRow struct {
	TotalCost     float64 `json:"total_cost"`
	IncidentCount int     `json:"incident_count"`
}

// View is a grouped table keyed by vehicle id or event type label
type View[R any] struct {
	Status ViewStatus   `json:"status"`
	Rows   map[string]R `json:"rows,omitempty"`
}

// NoData reports whether the view carries the empty marker
func (v View[R]) NoData() bool {
	return v.Status == StatusNoData
}

// Keys returns the group keys in ascending order
func (v View[R]) Keys() []string {
	keys := make([]string, 0, len(v.Rows))
	for k := range v.Rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Indicator is one flat KPI entry
type Indicator struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// KPISummary holds the flat indicators over the filtered set
type KPISummary struct {
	Status               ViewStatus `json:"status"`
	TotalFuelCost        float64    `json:"total_fuel_cost"`
	TotalMaintenanceCost float64    `json:"total_maintenance_cost"`
	TotalIncidentCost    float64    `json:"total_incident_cost"`
	TotalKM              float64    `json:"total_km"`
	AvgKMPerLiter        float64    `json:"avg_km_per_liter"`
	PreventiveCount      int        `json:"preventive_count"`
	CorrectiveCount      int        `json:"corrective_count"`
	IncidentCount        int        `json:"incident_count"`
}

// NoData reports whether the summary was computed over an empty set
func (k KPISummary) NoData() bool {
	return k.Status == StatusNoData
}

// Indicators returns the summary as an ordered name/value list
func (k KPISummary) Indicators() []Indicator {
	return []Indicator{
		{"total_fuel_cost", k.TotalFuelCost},
		{"total_maintenance_cost", k.TotalMaintenanceCost},
		{"total_incident_cost", k.TotalIncidentCost},
		{"total_km", k.TotalKM},
		{"avg_km_per_liter", k.AvgKMPerLiter},
		{"preventive_count", float64(k.PreventiveCount)},
		{"corrective_count", float64(k.CorrectiveCount)},
		{"incident_count", float64(k.IncidentCount)},
	}
}

// Report bundles the four views of one session
type Report struct {
	Filter      FilterParams         `json:"filter"`
	RecordCount int                  `json:"record_count"`
	Efficiency  View[EfficiencyRow]  `json:"efficiency"`
	Maintenance View[MaintenanceRow] `json:"maintenance"`
	Incidents   View[IncidentRow]    `json:"incidents"`
	KPI         KPISummary           `json:"kpi"`
}
