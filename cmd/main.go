package main

import (
	"fmt"
	"os"

	"fleet-ops-report/internal/config"
	"fleet-ops-report/internal/db"
	"fleet-ops-report/internal/generator"
	"fleet-ops-report/internal/logger"
	"fleet-ops-report/internal/metrics"
	"fleet-ops-report/internal/parser"
	"fleet-ops-report/internal/source"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	logLevel   string

	cfg *config.Config
	log logger.Logger = logger.NopLogger{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fleet-report",
		Short: "Fleet Operations Report - fuel, maintenance and incident reporting",
		Long: `A CLI tool for reporting on fleet operation events.
Loads Trip, maintenance and incident records from a generator, a data file
or a SQLite feed, narrows them by vehicle and date range, and renders the
efficiency, maintenance, incident and KPI views as tables, JSON or a REST API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite event feed")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// Add commands
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(vehiclesCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads the config file and environment, then applies flag overrides
func initConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		loaded.DB.Path = dbPath
	}
	if cmd.Flags().Changed("log-level") {
		loaded.Log.Level = logLevel
		if err := loaded.Log.Validate(); err != nil {
			return err
		}
	}
	cfg = loaded

	logger.SetLevel(cfg.Log.Level)
	log = logger.New("cli")
	log.Debugf("config loaded (file=%q db=%q)", configPath, cfg.DB.Path)
	return nil
}

// openFeed opens the configured SQLite feed
func openFeed() (*db.Database, error) {
	if cfg.DB.Path == "" {
		return nil, fmt.Errorf("no event feed configured: pass --db or set db.path")
	}
	database, err := db.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return database, nil
}

func newCache(m metrics.Recorder) *source.Cache {
	return source.NewCache(
		source.WithMaxEntries(cfg.Cache.MaxEntries),
		source.WithTTL(cfg.Cache.TTL()),
		source.WithMetrics(m),
		source.WithLogger(logger.New("cache")),
	)
}

// genFlags are the generator overrides shared by report, generate and vehicles
type genFlags struct {
	count int
	fleet int
	seed  uint64
}

func (g *genFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&g.count, "count", "c", generator.DefaultCount, "Number of records to generate")
	cmd.Flags().IntVarP(&g.fleet, "fleet", "n", generator.DefaultFleetSize, "Number of vehicles in the fleet")
	cmd.Flags().Uint64Var(&g.seed, "seed", 0, "Seed for reproducible generation")
}

// params merges the config file generator section with explicit flags
func (g *genFlags) params(cmd *cobra.Command) (generator.Params, error) {
	window, err := cfg.Generator.Window()
	if err != nil {
		return generator.Params{}, err
	}
	p := generator.Params{
		Count:     cfg.Generator.Count,
		FleetSize: cfg.Generator.FleetSize,
		Seed:      cfg.Generator.Seed,
		Window:    window,
		FuelPrice: cfg.Generator.FuelPrice,
	}
	if cmd.Flags().Changed("count") {
		p.Count = g.count
	}
	if cmd.Flags().Changed("fleet") {
		p.FleetSize = g.fleet
	}
	if cmd.Flags().Changed("seed") {
		p = p.Seeded(g.seed)
	}
	return p, p.Validate()
}

// srcFlags select where a command reads records from
type srcFlags struct {
	genFlags
	kind   string
	file   string
	format string
}

func (s *srcFlags) register(cmd *cobra.Command) {
	s.genFlags.register(cmd)
	cmd.Flags().StringVar(&s.kind, "source", "generate", "Record source (generate, file, db)")
	cmd.Flags().StringVar(&s.file, "file", "", "Data file for --source file")
	cmd.Flags().StringVarP(&s.format, "format", "f", "", "Data file format (csv, json, yaml); inferred from extension when empty")
}

// open builds the selected source. The returned close func releases the feed.
func (s *srcFlags) open(cmd *cobra.Command) (source.Source, func(), error) {
	noop := func() {}
	switch s.kind {
	case "generate", "generator":
		p, err := s.params(cmd)
		if err != nil {
			return nil, noop, err
		}
		src, err := source.NewGeneratorSource(p)
		return src, noop, err
	case "file":
		if s.file == "" {
			return nil, noop, fmt.Errorf("--source file requires --file")
		}
		src, err := source.NewFileSource(s.file, s.format)
		return src, noop, err
	case "db":
		database, err := openFeed()
		if err != nil {
			return nil, noop, err
		}
		return source.NewDBSource(database, cfg.DB.Path), func() { database.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown source %q (use generate, file or db)", s.kind)
	}
}

// checkFormat fails early on an export format the parser cannot read back
func checkFormat(format string) error {
	switch format {
	case parser.FormatCSV, parser.FormatJSON, parser.FormatYAML, "yml":
		return nil
	}
	return fmt.Errorf("unsupported format: %s", format)
}
