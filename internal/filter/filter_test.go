package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-ops-report/internal/generator"
	"fleet-ops-report/internal/models"
)

func sample() []models.EventRecord {
	return []models.EventRecord{
		{Date: models.Date(2025, 7, 1), VehicleID: "V001", EventType: models.Trip, DistanceKM: 100, FuelConsumedL: 10, Cost: 65},
		{Date: models.Date(2025, 7, 5), VehicleID: "V002", EventType: models.Incident, Cost: 2000},
		{Date: models.Date(2025, 7, 10), VehicleID: "V001", EventType: models.PreventiveMaintenance, Cost: 400},
		{Date: models.Date(2025, 7, 20), VehicleID: "V003", EventType: models.Trip, DistanceKM: 50, FuelConsumedL: 5, Cost: 32.5},
	}
}

func fullRange(t *testing.T) models.DateRange {
	r, err := models.NewDateRange(models.Date(2025, 1, 1), models.Date(2025, 12, 31))
	require.NoError(t, err)
	return r
}

func TestApplyAllVehicles(t *testing.T) {
	in := sample()
	out, err := Apply(in, models.FilterParams{Vehicle: models.AllVehicles, Range: fullRange(t)})
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out[0].VehicleID = "changed"
	assert.Equal(t, "V001", in[0].VehicleID, "result must not alias input")
}

func TestApplyVehicle(t *testing.T) {
	out, err := Apply(sample(), models.FilterParams{Vehicle: "V001", Range: fullRange(t)})
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.Equal(t, "V001", r.VehicleID)
	}
	assert.True(t, out[0].Date.Before(out[1].Date))
}

func TestApplyDateRangeInclusive(t *testing.T) {
	r, err := models.NewDateRange(models.Date(2025, 7, 5), models.Date(2025, 7, 10))
	require.NoError(t, err)
	out, err := Apply(sample(), models.FilterParams{Vehicle: models.AllVehicles, Range: r})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "V002", out[0].VehicleID)
	assert.Equal(t, models.PreventiveMaintenance, out[1].EventType)
}

func TestApplyEmptyResult(t *testing.T) {
	out, err := Apply(sample(), models.FilterParams{Vehicle: "V999", Range: fullRange(t)})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestApplyRejectsBadRange(t *testing.T) {
	inverted := models.DateRange{Start: models.Date(2025, 8, 1), End: models.Date(2025, 7, 1)}
	_, err := Apply(sample(), models.FilterParams{Vehicle: models.AllVehicles, Range: inverted})
	assert.True(t, models.IsValidation(err))

	_, err = Apply(sample(), models.FilterParams{Vehicle: models.AllVehicles})
	assert.True(t, models.IsValidation(err))
}

func TestApplyGeneratedProperties(t *testing.T) {
	records, err := generator.Generate(generator.DefaultParams().Seeded(3))
	require.NoError(t, err)
	r, err := models.NewDateRange(models.Date(2025, 9, 1), models.Date(2025, 9, 30))
	require.NoError(t, err)

	out, err := Apply(records, models.FilterParams{Vehicle: "V004", Range: r})
	require.NoError(t, err)
	for _, rec := range out {
		assert.Equal(t, "V004", rec.VehicleID)
		assert.True(t, r.Contains(rec.Date))
	}
}

func TestVehiclesAndSpan(t *testing.T) {
	assert.Equal(t, []string{"V001", "V002", "V003"}, Vehicles(sample()))

	span, ok := Span(sample())
	require.True(t, ok)
	assert.Equal(t, "2025-07-01..2025-07-20", span.String())

	_, ok = Span(nil)
	assert.False(t, ok)
}
