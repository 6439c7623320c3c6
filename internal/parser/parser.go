package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"fleet-ops-report/internal/models"
)

// Supported formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Columns is the CSV header written by Export and understood by Parse
var Columns = []string{"date", "vehicle_id", "distance_km", "fuel_consumed_l", "event_type", "cost", "description"}

var requiredColumns = []string{"date", "vehicle_id", "event_type", "cost"}

// Parser handles parsing of event record files. Malformed rows are rejected
// with a ValidationError naming the row and field; nothing is skipped.
type Parser struct {
	format string
}

// NewParser creates a new parser with the specified format
func NewParser(format string) *Parser {
	return &Parser{format: normalizeFormat(format)}
}

// FormatFromPath infers the format from a file extension
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json", ".ndjson", ".jsonl":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("cannot infer format from %q", path)
}

func normalizeFormat(f string) string {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case "yml":
		return FormatYAML
	case "ndjson", "jsonl":
		return FormatJSON
	}
	return strings.ToLower(strings.TrimSpace(f))
}

// ParseFile parses an event record file
func (p *Parser) ParseFile(filename string) ([]models.EventRecord, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := p.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return records, nil
}

// Parse reads every record from r
func (p *Parser) Parse(r io.Reader) ([]models.EventRecord, error) {
	switch p.format {
	case FormatCSV:
		return p.parseCSV(r)
	case FormatJSON:
		return p.parseJSON(r)
	case FormatYAML:
		return p.parseYAML(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s", p.format)
	}
}

// parseCSV parses header-mapped CSV rows
func (p *Parser) parseCSV(r io.Reader) ([]models.EventRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []models.EventRecord{}, nil
	}
	if err != nil {
		return nil, csvError(err, 0)
	}

	indices := make(map[string]int)
	for i, h := range header {
		indices[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := indices[col]; !ok {
			return nil, &models.ValidationError{Field: col, Reason: "missing CSV column"}
		}
	}

	results := []models.EventRecord{}
	row := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, csvError(err, row)
		}

		rec, err := csvRecord(fields, indices)
		if err != nil {
			return nil, models.AtRow(err, row)
		}
		results = append(results, rec)
	}
	return results, nil
}

// csvRecord converts one CSV row; empty cells count as missing
func csvRecord(fields []string, indices map[string]int) (models.EventRecord, error) {
	getValue := func(key string) *string {
		if idx, ok := indices[key]; ok && idx < len(fields) {
			if v := strings.TrimSpace(fields[idx]); v != "" {
				return &v
			}
		}
		return nil
	}
	getFloat := func(key string) (*float64, error) {
		v := getValue(key)
		if v == nil {
			return nil, nil
		}
		f, err := strconv.ParseFloat(*v, 64)
		if err != nil {
			return nil, &models.ValidationError{Field: key, Value: *v, Reason: "not a number"}
		}
		return &f, nil
	}

	w := models.RecordWire{
		Date:      getValue("date"),
		VehicleID: getValue("vehicle_id"),
		EventType: getValue("event_type"),
	}
	if d := getValue("description"); d != nil {
		w.Description = *d
	}
	var err error
	if w.DistanceKM, err = getFloat("distance_km"); err != nil {
		return models.EventRecord{}, err
	}
	if w.FuelConsumedL, err = getFloat("fuel_consumed_l"); err != nil {
		return models.EventRecord{}, err
	}
	if w.Cost, err = getFloat("cost"); err != nil {
		return models.EventRecord{}, err
	}
	return w.Record()
}

// csvError reports a CSV syntax error as a malformed row
func csvError(err error, row int) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &models.ValidationError{
			Field:  "csv",
			Reason: fmt.Sprintf("line %d, column %d: %v", pe.Line, pe.Column, pe.Err),
			Row:    row,
		}
	}
	return err
}

// parseJSON parses a JSON array or newline-delimited JSON
func (p *Parser) parseJSON(r io.Reader) ([]models.EventRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []models.EventRecord{}, nil
	}
	if trimmed[0] != '[' {
		return p.parseJSONLines(bytes.NewReader(trimmed))
	}

	// elements are decoded one by one so errors carry their row
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, jsonError(err, 0)
	}
	results := make([]models.EventRecord, 0, len(items))
	for i, item := range items {
		rec, err := jsonRecord(item, i+1)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, nil
}

// parseJSONLines parses newline-delimited JSON
func (p *Parser) parseJSONLines(r io.Reader) ([]models.EventRecord, error) {
	results := []models.EventRecord{}
	scanner := bufio.NewScanner(r)
	row := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		row++

		rec, err := jsonRecord([]byte(line), row)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, scanner.Err()
}

func jsonRecord(data []byte, row int) (models.EventRecord, error) {
	var w models.RecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return models.EventRecord{}, jsonError(err, row)
	}
	rec, err := w.Record()
	if err != nil {
		return models.EventRecord{}, models.AtRow(err, row)
	}
	return rec, nil
}

// jsonError names the offending field when the decoder reports one
func jsonError(err error, row int) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &models.ValidationError{
			Field:  typeErr.Field,
			Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			Row:    row,
		}
	}
	return &models.ValidationError{Field: "json", Reason: err.Error(), Row: row}
}

// parseYAML parses a YAML sequence of records
func (p *Parser) parseYAML(r io.Reader) ([]models.EventRecord, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return []models.EventRecord{}, nil
		}
		return nil, &models.ValidationError{Field: "yaml", Reason: err.Error()}
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return []models.EventRecord{}, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, &models.ValidationError{Field: "yaml", Reason: "expected a sequence of records"}
	}

	results := make([]models.EventRecord, 0, len(root.Content))
	for i, item := range root.Content {
		var w models.RecordWire
		if err := item.Decode(&w); err != nil {
			return nil, yamlError(item, err, i+1)
		}
		rec, err := w.Record()
		if err != nil {
			return nil, models.AtRow(err, i+1)
		}
		results = append(results, rec)
	}
	return results, nil
}

// yamlError finds the first mapping value that does not decode to its
// column type; yaml.v3 type errors carry only a line.
func yamlError(item *yaml.Node, err error, row int) error {
	field := "yaml"
	if item.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(item.Content); i += 2 {
			if key := item.Content[i].Value; !yamlValueFits(key, item.Content[i+1]) {
				field = key
				break
			}
		}
	}
	reason := err.Error()
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		reason = typeErr.Errors[0]
	}
	return &models.ValidationError{Field: field, Reason: reason, Row: row}
}

func yamlValueFits(key string, val *yaml.Node) bool {
	switch key {
	case "distance_km", "fuel_consumed_l", "cost":
		var f float64
		return val.Decode(&f) == nil
	case "date", "vehicle_id", "event_type", "description":
		var s string
		return val.Decode(&s) == nil
	}
	return true
}
