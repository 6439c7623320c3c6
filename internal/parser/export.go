package parser

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"fleet-ops-report/internal/models"
)

// Export writes records in one of the formats Parse reads
func Export(w io.Writer, format string, records []models.EventRecord) error {
	switch normalizeFormat(format) {
	case FormatCSV:
		return exportCSV(w, records)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		wires := make([]models.RecordWire, len(records))
		for i, r := range records {
			wires[i] = r.Wire()
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(wires); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func exportCSV(w io.Writer, records []models.EventRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		err := cw.Write([]string{
			r.Date.Format(models.DateLayout),
			r.VehicleID,
			strconv.FormatFloat(r.DistanceKM, 'f', -1, 64),
			strconv.FormatFloat(r.FuelConsumedL, 'f', -1, 64),
			string(r.EventType),
			strconv.FormatFloat(r.Cost, 'f', -1, 64),
			r.Description,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
