package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-ops-report/internal/filter"
	"fleet-ops-report/internal/generator"
	"fleet-ops-report/internal/models"
)

func day(d int) models.EventRecord {
	return models.EventRecord{Date: models.Date(2025, 7, d)}
}

func trip(vehicle string, km, fuel float64) models.EventRecord {
	r := day(1)
	r.VehicleID, r.EventType = vehicle, models.Trip
	r.DistanceKM, r.FuelConsumedL = km, fuel
	r.Cost = math.Round(fuel*6.5*100) / 100
	return r
}

func event(vehicle string, t models.EventType, cost float64) models.EventRecord {
	r := day(2)
	r.VehicleID, r.EventType, r.Cost = vehicle, t, cost
	return r
}

func TestEfficiencyScenario(t *testing.T) {
	records := []models.EventRecord{
		trip("V001", 100, 10),
		trip("V001", 50, 5),
		trip("V001", 0, 0),
	}
	view := Efficiency(records)
	require.False(t, view.NoData())

	row := view.Rows["V001"]
	assert.Equal(t, 150.0, row.TotalKM)
	assert.Equal(t, 15.0, row.TotalFuelL)
	require.True(t, row.KMPerLiter.Valid)
	assert.Equal(t, 10.0, row.KMPerLiter.Value)
	require.True(t, row.CostPerKM.Valid)
	assert.InDelta(t, 0.65, row.CostPerKM.Value, 1e-9)
}

func TestEfficiencyNotApplicable(t *testing.T) {
	view := Efficiency([]models.EventRecord{trip("V002", 0, 0)})
	row := view.Rows["V002"]
	assert.False(t, row.KMPerLiter.Valid)
	assert.False(t, row.CostPerKM.Valid)
	assert.Equal(t, models.NotApplicable, row.KMPerLiter.String())
}

func TestEfficiencyIgnoresNonTrip(t *testing.T) {
	rec := event("V003", models.Incident, 5000)
	rec.DistanceKM, rec.FuelConsumedL = 140, 12
	view := Efficiency([]models.EventRecord{rec})
	assert.True(t, view.NoData())
	assert.Empty(t, view.Rows)
}

func TestMaintenanceScenario(t *testing.T) {
	view := Maintenance([]models.EventRecord{
		event("V001", models.PreventiveMaintenance, 400),
		event("V001", models.CorrectiveMaintenance, 1200),
		trip("V001", 10, 1),
	})
	require.False(t, view.NoData())
	assert.Equal(t, []string{"CorrectiveMaintenance", "PreventiveMaintenance"}, view.Keys())
	assert.Equal(t, models.MaintenanceRow{AvgCost: 400, EventCount: 1}, view.Rows["PreventiveMaintenance"])
	assert.Equal(t, models.MaintenanceRow{AvgCost: 1200, EventCount: 1}, view.Rows["CorrectiveMaintenance"])
}

func TestMaintenanceMean(t *testing.T) {
	view := Maintenance([]models.EventRecord{
		event("V001", models.PreventiveMaintenance, 300),
		event("V002", models.PreventiveMaintenance, 401),
		event("V003", models.PreventiveMaintenance, 500),
	})
	assert.Equal(t, models.MaintenanceRow{AvgCost: 400.33, EventCount: 3}, view.Rows["PreventiveMaintenance"])
}

func TestIncidentsAndKPIWithoutIncidents(t *testing.T) {
	records := []models.EventRecord{
		trip("V001", 100, 10),
		event("V002", models.PreventiveMaintenance, 350),
	}
	assert.True(t, Incidents(records).NoData())

	k := KPIs(records)
	assert.False(t, k.NoData())
	assert.Zero(t, k.TotalIncidentCost)
	assert.Zero(t, k.IncidentCount)
	assert.Equal(t, 1, k.PreventiveCount)
	assert.Equal(t, 350.0, k.TotalMaintenanceCost)
}

func TestIncidents(t *testing.T) {
	view := Incidents([]models.EventRecord{
		event("V001", models.Incident, 1000),
		event("V001", models.Incident, 2500.5),
		event("V004", models.Incident, 7000),
	})
	assert.Equal(t, models.IncidentRow{TotalCost: 3500.5, IncidentCount: 2}, view.Rows["V001"])
	assert.Equal(t, models.IncidentRow{TotalCost: 7000, IncidentCount: 1}, view.Rows["V004"])
}

func TestKPIs(t *testing.T) {
	k := KPIs([]models.EventRecord{
		trip("V001", 100, 10),
		trip("V002", 50, 4),
		event("V001", models.PreventiveMaintenance, 400),
		event("V001", models.CorrectiveMaintenance, 1200),
		event("V002", models.CorrectiveMaintenance, 800),
		event("V003", models.Incident, 3000),
	})
	assert.Equal(t, 91.0, k.TotalFuelCost)
	assert.Equal(t, 2400.0, k.TotalMaintenanceCost)
	assert.Equal(t, 3000.0, k.TotalIncidentCost)
	assert.Equal(t, 150.0, k.TotalKM)
	assert.Equal(t, 10.71, k.AvgKMPerLiter)
	assert.Equal(t, 1, k.PreventiveCount)
	assert.Equal(t, 2, k.CorrectiveCount)
	assert.Equal(t, 1, k.IncidentCount)

	names := make([]string, 0, 8)
	for _, ind := range k.Indicators() {
		names = append(names, ind.Name)
	}
	assert.Equal(t, []string{
		"total_fuel_cost", "total_maintenance_cost", "total_incident_cost", "total_km",
		"avg_km_per_liter", "preventive_count", "corrective_count", "incident_count",
	}, names)
}

func TestKPIZeroDefaultWithoutTrips(t *testing.T) {
	k := KPIs([]models.EventRecord{event("V001", models.Incident, 1000)})
	assert.Zero(t, k.AvgKMPerLiter)
	assert.Zero(t, k.TotalKM)
}

func TestEmptyInputAllViewsNoData(t *testing.T) {
	assert.NotPanics(t, func() {
		rep := Build([]models.EventRecord{}, models.FilterParams{})
		assert.True(t, rep.Efficiency.NoData())
		assert.True(t, rep.Maintenance.NoData())
		assert.True(t, rep.Incidents.NoData())
		assert.True(t, rep.KPI.NoData())
		assert.Zero(t, rep.KPI.AvgKMPerLiter)
	})
}

func TestGeneratedProperties(t *testing.T) {
	records, err := generator.Generate(generator.DefaultParams().Seeded(21))
	require.NoError(t, err)
	span, ok := filter.Span(records)
	require.True(t, ok)
	filtered, err := filter.Apply(records, models.FilterParams{Vehicle: models.AllVehicles, Range: span})
	require.NoError(t, err)

	first := Build(filtered, models.FilterParams{})
	second := Build(filtered, models.FilterParams{})
	assert.Equal(t, first, second)

	for id, row := range first.Efficiency.Rows {
		require.True(t, row.KMPerLiter.Valid, id)
		// both factors are rounded to two decimals
		assert.InDelta(t, row.TotalKM, row.KMPerLiter.Value*row.TotalFuelL, 0.005*row.TotalFuelL+0.1, id)
	}

	var trips int
	for _, r := range filtered {
		if r.EventType == models.Trip {
			trips++
		}
	}
	assert.Greater(t, trips, 0)
	assert.Equal(t, len(filtered), first.KPI.PreventiveCount+first.KPI.CorrectiveCount+first.KPI.IncidentCount+trips)
}
