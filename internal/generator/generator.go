// Package generator synthesizes fleet event records for demos and tests.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"fleet-ops-report/internal/models"
)

const (
	DefaultCount     = 1500
	DefaultFleetSize = 20
	DefaultFuelPrice = 6.5

	// MaxFleetSize keeps vehicle ids within the V001..V999 format.
	MaxFleetSize = 999

	distanceMean   = 120.0
	distanceStdDev = 30.0
	minKMPerLiter  = 8.0
	maxKMPerLiter  = 12.0
)

// DefaultWindow is the campaign window used when Params leaves it unset.
var DefaultWindow = models.DateRange{
	Start: models.Date(2025, time.July, 1),
	End:   models.Date(2025, time.December, 31),
}

// eventWeights follows models.EventTypes order.
var eventWeights = []float64{0.75, 0.10, 0.10, 0.05}

type costRule struct {
	min, max    int
	description string
}

var costRules = map[models.EventType]costRule{
	models.PreventiveMaintenance: {300, 800, "Oil change / inspection"},
	models.CorrectiveMaintenance: {500, 3000, "Unplanned mechanical repair"},
	models.Incident:              {1000, 10000, "Collision / damage"},
}

const tripDescription = "Daily run"

// Params controls a generation run.
type Params struct {
	Count     int
	FleetSize int
	// Seed makes the output reproducible. Nil draws a random seed.
	Seed      *uint64
	Window    models.DateRange
	FuelPrice float64
}

// DefaultParams returns the standard campaign parameters with no seed.
func DefaultParams() Params {
	return Params{
		Count:     DefaultCount,
		FleetSize: DefaultFleetSize,
		Window:    DefaultWindow,
		FuelPrice: DefaultFuelPrice,
	}
}

// Seeded returns a copy of p pinned to seed.
func (p Params) Seeded(seed uint64) Params {
	p.Seed = &seed
	return p
}

// Validate checks the parameters without generating anything.
func (p Params) Validate() error {
	if p.Count < 0 {
		return &models.ValidationError{Field: "count", Value: fmt.Sprint(p.Count), Reason: "cannot be negative"}
	}
	if p.FleetSize < 1 || p.FleetSize > MaxFleetSize {
		return &models.ValidationError{
			Field:  "fleet_size",
			Value:  fmt.Sprint(p.FleetSize),
			Reason: fmt.Sprintf("must be between 1 and %d", MaxFleetSize),
		}
	}
	if p.FuelPrice < 0 || math.IsNaN(p.FuelPrice) {
		return &models.ValidationError{Field: "fuel_price", Reason: "cannot be negative"}
	}
	return p.Window.Validate()
}

// VehicleID formats the n-th fleet vehicle id.
func VehicleID(n int) string {
	return fmt.Sprintf("V%03d", n)
}

// Generate draws p.Count records and returns them sorted by date. Equal
// seeded Params always produce the same sequence.
func Generate(p Params) ([]models.EventRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var src rand.Source
	if p.Seed != nil {
		src = rand.NewPCG(*p.Seed, *p.Seed^0x9e3779b97f4a7c15)
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	rng := rand.New(src)
	distance := distuv.Normal{Mu: distanceMean, Sigma: distanceStdDev, Src: src}
	efficiency := distuv.Uniform{Min: minKMPerLiter, Max: maxKMPerLiter, Src: src}
	kinds := distuv.NewCategorical(eventWeights, src)
	types := models.EventTypes()

	days := int(p.Window.End.Sub(p.Window.Start).Hours() / 24)

	records := make([]models.EventRecord, 0, p.Count)
	for i := 0; i < p.Count; i++ {
		r := models.EventRecord{
			VehicleID: VehicleID(rng.IntN(p.FleetSize) + 1),
			Date:      p.Window.Start.AddDate(0, 0, rng.IntN(days+1)),
		}
		r.DistanceKM = math.Max(0, roundTo(distance.Rand(), 1))
		r.FuelConsumedL = roundTo(r.DistanceKM/efficiency.Rand(), 2)
		r.EventType = types[int(kinds.Rand())]

		if r.EventType == models.Trip {
			r.Cost = roundTo(r.FuelConsumedL*p.FuelPrice, 2)
			r.Description = tripDescription
		} else {
			rule := costRules[r.EventType]
			r.Cost = float64(rule.min + rng.IntN(rule.max-rule.min+1))
			r.Description = rule.description
		}
		records = append(records, r)
	}

	slices.SortStableFunc(records, func(a, b models.EventRecord) int {
		return a.Date.Compare(b.Date)
	})
	return records, nil
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
