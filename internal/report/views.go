// Package report computes the aggregation views over a filtered record set
// and runs whole reporting sessions.
package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"fleet-ops-report/internal/models"
)

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundRatio(r models.Ratio) models.Ratio {
	if r.Valid {
		r.Value = round2(r.Value)
	}
	return r
}

// Efficiency groups Trip records by vehicle. Ratios with a zero
// denominator are reported as not applicable.
func Efficiency(records []models.EventRecord) models.View[models.EfficiencyRow] {
	sums := make(map[string]*models.EfficiencyRow)
	for _, r := range records {
		if r.EventType != models.Trip {
			continue
		}
		row, ok := sums[r.VehicleID]
		if !ok {
			row = &models.EfficiencyRow{}
			sums[r.VehicleID] = row
		}
		row.TotalKM += r.DistanceKM
		row.TotalFuelL += r.FuelConsumedL
		row.TotalCost += r.Cost
	}
	if len(sums) == 0 {
		return models.View[models.EfficiencyRow]{Status: models.StatusNoData}
	}

	rows := make(map[string]models.EfficiencyRow, len(sums))
	for id, s := range sums {
		rows[id] = models.EfficiencyRow{
			TotalKM:    round2(s.TotalKM),
			TotalFuelL: round2(s.TotalFuelL),
			TotalCost:  round2(s.TotalCost),
			KMPerLiter: roundRatio(models.RatioOf(s.TotalKM, s.TotalFuelL)),
			CostPerKM:  roundRatio(models.RatioOf(s.TotalCost, s.TotalKM)),
		}
	}
	return models.View[models.EfficiencyRow]{Status: models.StatusOK, Rows: rows}
}

// Maintenance groups preventive and corrective records by event type.
func Maintenance(records []models.EventRecord) models.View[models.MaintenanceRow] {
	costs := make(map[models.EventType][]float64)
	for _, r := range records {
		if r.EventType.IsMaintenance() {
			costs[r.EventType] = append(costs[r.EventType], r.Cost)
		}
	}
	if len(costs) == 0 {
		return models.View[models.MaintenanceRow]{Status: models.StatusNoData}
	}

	rows := make(map[string]models.MaintenanceRow, len(costs))
	for et, c := range costs {
		rows[string(et)] = models.MaintenanceRow{
			AvgCost:    round2(stat.Mean(c, nil)),
			EventCount: len(c),
		}
	}
	return models.View[models.MaintenanceRow]{Status: models.StatusOK, Rows: rows}
}

// Incidents groups Incident records by vehicle.
func Incidents(records []models.EventRecord) models.View[models.IncidentRow] {
	sums := make(map[string]*models.IncidentRow)
	for _, r := range records {
		if r.EventType != models.Incident {
			continue
		}
		row, ok := sums[r.VehicleID]
		if !ok {
			row = &models.IncidentRow{}
			sums[r.VehicleID] = row
		}
		row.TotalCost += r.Cost
		row.IncidentCount++
	}
	if len(sums) == 0 {
		return models.View[models.IncidentRow]{Status: models.StatusNoData}
	}

	rows := make(map[string]models.IncidentRow, len(sums))
	for id, s := range sums {
		rows[id] = models.IncidentRow{TotalCost: round2(s.TotalCost), IncidentCount: s.IncidentCount}
	}
	return models.View[models.IncidentRow]{Status: models.StatusOK, Rows: rows}
}

// KPIs computes the flat indicators. Unlike Efficiency it defaults the
// average km/l to zero when there is no Trip fuel. Status is no_data only
// when records itself is empty.
func KPIs(records []models.EventRecord) models.KPISummary {
	k := models.KPISummary{Status: models.StatusOK}
	if len(records) == 0 {
		k.Status = models.StatusNoData
		return k
	}

	var fuelL float64
	for _, r := range records {
		switch r.EventType {
		case models.Trip:
			k.TotalFuelCost += r.Cost
			k.TotalKM += r.DistanceKM
			fuelL += r.FuelConsumedL
		case models.PreventiveMaintenance:
			k.TotalMaintenanceCost += r.Cost
			k.PreventiveCount++
		case models.CorrectiveMaintenance:
			k.TotalMaintenanceCost += r.Cost
			k.CorrectiveCount++
		case models.Incident:
			k.TotalIncidentCost += r.Cost
			k.IncidentCount++
		}
	}
	if fuelL > 0 {
		k.AvgKMPerLiter = round2(k.TotalKM / fuelL)
	}
	k.TotalFuelCost = round2(k.TotalFuelCost)
	k.TotalMaintenanceCost = round2(k.TotalMaintenanceCost)
	k.TotalIncidentCost = round2(k.TotalIncidentCost)
	k.TotalKM = round2(k.TotalKM)
	return k
}

// Build computes all four views over an already filtered set.
func Build(records []models.EventRecord, p models.FilterParams) *models.Report {
	return &models.Report{
		Filter:      p,
		RecordCount: len(records),
		Efficiency:  Efficiency(records),
		Maintenance: Maintenance(records),
		Incidents:   Incidents(records),
		KPI:         KPIs(records),
	}
}
