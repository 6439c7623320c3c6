package parser

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-ops-report/internal/generator"
	"fleet-ops-report/internal/models"
)

const csvSample = `date,vehicle_id,distance_km,fuel_consumed_l,event_type,cost,description
2025-07-01,V001,100,10,Trip,65,Daily run
2025-07-02,V002,,,PreventiveMaintenance,400,Oil change
2025-07-03,V001,0,0,Incident,2500,
`

func TestParseCSV(t *testing.T) {
	records, err := NewParser("csv").Parse(strings.NewReader(csvSample))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.Date(2025, 7, 1), records[0].Date)
	assert.Equal(t, 100.0, records[0].DistanceKM)
	assert.Equal(t, models.PreventiveMaintenance, records[1].EventType)
	assert.Zero(t, records[1].DistanceKM)
	assert.Equal(t, 2500.0, records[2].Cost)
}

func TestParseCSVRejectsMalformedRows(t *testing.T) {
	cases := []struct {
		name  string
		row   string
		field string
	}{
		{"unknown type", "2025-07-01,V001,1,1,Refuel,5,", "event_type"},
		{"negative distance", "2025-07-01,V001,-4,1,Trip,5,", "distance_km"},
		{"missing vehicle", "2025-07-01,,1,1,Trip,5,", "vehicle_id"},
		{"bad number", "2025-07-01,V001,abc,1,Trip,5,", "distance_km"},
		{"bad date", "07/01/2025,V001,1,1,Trip,5,", "date"},
		{"trip without fuel", "2025-07-01,V001,10,,Trip,5,", "fuel_consumed_l"},
		{"missing cost", "2025-07-01,V001,10,1,Trip,,", "cost"},
	}
	header := strings.Join(Columns, ",") + "\n"
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewParser("csv").Parse(strings.NewReader(header + "2025-07-01,V009,1,1,Trip,6.5,\n" + tc.row + "\n"))
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.Equal(t, 2, ve.Row)
		})
	}
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := NewParser("csv").Parse(strings.NewReader("date,vehicle_id,event_type\n2025-07-01,V001,Trip\n"))
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cost", ve.Field)
}

func TestParseJSONArrayAndLines(t *testing.T) {
	array := `[{"date":"2025-07-01","vehicle_id":"V001","distance_km":10,"fuel_consumed_l":1,"event_type":"Trip","cost":6.5}]`
	records, err := NewParser("json").Parse(strings.NewReader(array))
	require.NoError(t, err)
	require.Len(t, records, 1)

	lines := `{"date":"2025-07-01","vehicle_id":"V001","event_type":"Incident","cost":1000}

{"date":"2025-07-02","vehicle_id":"V002","event_type":"corrective_maintenance","cost":900}
`
	records, err = NewParser("ndjson").Parse(strings.NewReader(lines))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.CorrectiveMaintenance, records[1].EventType)

	_, err = NewParser("json").Parse(strings.NewReader(`[{"date":"2025-07-01","vehicle_id":"V001","event_type":"Trip","cost":-1,"distance_km":1,"fuel_consumed_l":1}]`))
	assert.True(t, models.IsValidation(err))
}

func TestParseRejectsWrongTypedFields(t *testing.T) {
	cases := []struct {
		name   string
		format string
		input  string
		field  string
		row    int
	}{
		{
			name:   "json array",
			format: "json",
			input: `[{"date":"2025-07-01","vehicle_id":"V001","event_type":"Incident","cost":1000},
			{"date":"2025-07-02","vehicle_id":"V002","event_type":"Incident","cost":"abc"}]`,
			field: "cost",
			row:   2,
		},
		{
			name:   "ndjson",
			format: "ndjson",
			input:  `{"date":"2025-07-01","vehicle_id":7,"event_type":"Incident","cost":1000}`,
			field:  "vehicle_id",
			row:    1,
		},
		{
			name:   "yaml",
			format: "yaml",
			input: `- date: "2025-07-01"
  vehicle_id: V001
  event_type: Incident
  cost: 1000
- date: "2025-07-02"
  vehicle_id: V002
  event_type: Incident
  cost: abc
`,
			field: "cost",
			row:   2,
		},
		{
			name:   "csv quoting",
			format: "csv",
			input:  strings.Join(Columns, ",") + "\n2025-07-01,V001,1,1,Trip,6.5,\n2025-07-02,\"V0\"02,1,1,Trip,6.5,\n",
			field:  "csv",
			row:    2,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewParser(tc.format).Parse(strings.NewReader(tc.input))
			require.True(t, models.IsValidation(err), "%v", err)
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.Equal(t, tc.row, ve.Row)
		})
	}
}

func TestParseRejectsMalformedDocuments(t *testing.T) {
	for format, input := range map[string]string{
		"json": `[{"date":"2025-07-01",`,
		"yaml": "- date: [unclosed\n",
	} {
		_, err := NewParser(format).Parse(strings.NewReader(input))
		assert.True(t, models.IsValidation(err), "%s: %v", format, err)
	}

	_, err := NewParser("yaml").Parse(strings.NewReader("date: 2025-07-01\n"))
	assert.True(t, models.IsValidation(err))
}

func TestParseYAML(t *testing.T) {
	doc := `- date: 2025-07-01
  vehicle_id: V001
  distance_km: 120.5
  fuel_consumed_l: 12.05
  event_type: Trip
  cost: 78.33
- date: "2025-07-04"
  vehicle_id: V003
  event_type: PreventiveMaintenance
  cost: 350
`
	records, err := NewParser("yml").Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.Date(2025, 7, 1), records[0].Date)
	assert.Equal(t, 350.0, records[1].Cost)
}

func TestExportRoundTrip(t *testing.T) {
	p := generator.DefaultParams().Seeded(11)
	p.Count = 50
	records, err := generator.Generate(p)
	require.NoError(t, err)

	for _, format := range []string{FormatCSV, FormatJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Export(&buf, format, records))
			back, err := NewParser(format).Parse(&buf)
			require.NoError(t, err)
			assert.Equal(t, records, back)
		})
	}
}

func TestParseFileInfersNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvSample), 0o644))

	format, err := FormatFromPath(path)
	require.NoError(t, err)
	records, err := NewParser(format).ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	_, err = FormatFromPath("events.parquet")
	assert.Error(t, err)
	_, err = NewParser("xml").Parse(strings.NewReader(""))
	assert.Error(t, err)
}
