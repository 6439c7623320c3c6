// Package source provides the record sources of a reporting session and the
// keyed cache that shares their output across sessions.
package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"fleet-ops-report/internal/db"
	"fleet-ops-report/internal/generator"
	"fleet-ops-report/internal/models"
	"fleet-ops-report/internal/parser"
)

// Source produces a batch of event records. Key identifies the batch: two
// sources with the same key must produce the same records.
type Source interface {
	Key() string
	Kind() string
	Load(ctx context.Context) ([]models.EventRecord, error)
}

// GeneratorSource synthesizes records.
type GeneratorSource struct {
	params generator.Params
	key    string
}

// NewGeneratorSource validates p up front. An unseeded source gets a unique
// key, so its batch is stable for the life of the source but never shared.
func NewGeneratorSource(p generator.Params) (*GeneratorSource, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("generator:count=%d:fleet=%d:window=%s:price=%g",
		p.Count, p.FleetSize, p.Window, p.FuelPrice)
	if p.Seed != nil {
		key += fmt.Sprintf(":seed=%d", *p.Seed)
	} else {
		key += ":run=" + uuid.NewString()
	}
	return &GeneratorSource{params: p, key: key}, nil
}

func (s *GeneratorSource) Key() string  { return s.key }
func (s *GeneratorSource) Kind() string { return "generator" }

func (s *GeneratorSource) Load(ctx context.Context) ([]models.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return generator.Generate(s.params)
}

// FileSource ingests a CSV, JSON or YAML file.
type FileSource struct {
	path   string
	format string
}

// NewFileSource infers the format from the extension when format is empty.
func NewFileSource(path, format string) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if format == "" {
		if format, err = parser.FormatFromPath(abs); err != nil {
			return nil, err
		}
	}
	return &FileSource{path: abs, format: format}, nil
}

func (s *FileSource) Key() string  { return "file:" + s.path }
func (s *FileSource) Kind() string { return "file" }
func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Load(ctx context.Context) ([]models.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return parser.NewParser(s.format).ParseFile(s.path)
}

// DBSource reads the whole SQLite feed.
type DBSource struct {
	db   *db.Database
	name string
}

// NewDBSource wraps an open feed; name only distinguishes cache keys.
func NewDBSource(database *db.Database, name string) *DBSource {
	return &DBSource{db: database, name: name}
}

func (s *DBSource) Key() string  { return "db:" + s.name }
func (s *DBSource) Kind() string { return "db" }

// Version lets the cache notice rows ingested after the batch was loaded.
func (s *DBSource) Version(ctx context.Context) (string, error) {
	return s.db.Version(ctx)
}

func (s *DBSource) Load(ctx context.Context) ([]models.EventRecord, error) {
	return s.db.QueryEvents(ctx, db.EventQuery{})
}
