package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-ops-report/internal/generator"
	"fleet-ops-report/internal/models"
)

func openTemp(t *testing.T) *Database {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "feed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestInsertAndQueryEvents(t *testing.T) {
	ctx := context.Background()
	database := openTemp(t)

	p := generator.DefaultParams().Seeded(5)
	p.Count = 120
	records, err := generator.Generate(p)
	require.NoError(t, err)

	n, err := database.InsertEvents(ctx, records)
	require.NoError(t, err)
	assert.EqualValues(t, 120, n)

	all, err := database.QueryEvents(ctx, EventQuery{})
	require.NoError(t, err)
	assert.Equal(t, records, all)

	count, err := database.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 120, count)
}

func TestQueryEventsPushdown(t *testing.T) {
	ctx := context.Background()
	database := openTemp(t)

	records := []models.EventRecord{
		{Date: models.Date(2025, 7, 1), VehicleID: "V001", EventType: models.Trip, DistanceKM: 100, FuelConsumedL: 10, Cost: 65},
		{Date: models.Date(2025, 7, 2), VehicleID: "V002", EventType: models.Incident, Cost: 1500},
		{Date: models.Date(2025, 7, 3), VehicleID: "V001", EventType: models.CorrectiveMaintenance, Cost: 900},
	}
	_, err := database.InsertEvents(ctx, records)
	require.NoError(t, err)

	got, err := database.QueryEvents(ctx, EventQuery{VehicleID: "V001", Start: models.Date(2025, 7, 2), End: models.Date(2025, 7, 3)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.CorrectiveMaintenance, got[0].EventType)

	ids, err := database.ListVehicles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"V001", "V002"}, ids)

	stats, err := database.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats["total_events"])
	assert.EqualValues(t, 2, stats["total_vehicles"])
}

func TestInsertEventsRejectsInvalidBatch(t *testing.T) {
	ctx := context.Background()
	database := openTemp(t)

	bad := []models.EventRecord{
		{Date: models.Date(2025, 7, 1), VehicleID: "V001", EventType: models.Trip, DistanceKM: 1, FuelConsumedL: 1, Cost: 6.5},
		{Date: models.Date(2025, 7, 1), VehicleID: "V001", EventType: models.Trip, DistanceKM: -1, FuelConsumedL: 1, Cost: 6.5},
	}
	_, err := database.InsertEvents(ctx, bad)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 2, ve.Row)

	count, err := database.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVersionChangesOnInsert(t *testing.T) {
	ctx := context.Background()
	database := openTemp(t)

	empty, err := database.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0:0", empty)

	rec := models.EventRecord{Date: models.Date(2025, 7, 1), VehicleID: "V001", EventType: models.Incident, Cost: 1000}
	_, err = database.InsertEvents(ctx, []models.EventRecord{rec})
	require.NoError(t, err)

	v1, err := database.Version(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, empty, v1)

	again, err := database.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, again)
}
