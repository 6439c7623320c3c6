package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"fleet-ops-report/internal/generator"
	"fleet-ops-report/internal/models"
	"fleet-ops-report/internal/parser"

	"github.com/spf13/cobra"
)

// generateCmd generates sample event records
func generateCmd() *cobra.Command {
	var gen genFlags
	var output string
	var format string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample fleet event records",
		Long: `Generate synthetic Trip, maintenance and incident records.
Records go to --output (csv, json or yaml), or into the --db feed when no
output file is given, or to stdout as JSON when neither is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := gen.params(cmd)
			if err != nil {
				return err
			}

			start := time.Now()
			records, err := generator.Generate(p)
			if err != nil {
				return err
			}
			log.Infow("generated records", map[string]any{
				"count":   len(records),
				"fleet":   p.FleetSize,
				"window":  p.Window.String(),
				"seeded":  p.Seed != nil,
				"took_ms": time.Since(start).Milliseconds(),
			})

			switch {
			case output == "-" || (output == "" && cfg.DB.Path == ""):
				if format == "" {
					format = parser.FormatJSON
				}
				return writeRecords(os.Stdout, format, records)

			case output != "":
				if format == "" {
					if format, err = parser.FormatFromPath(output); err != nil {
						return err
					}
				}
				if err := checkFormat(format); err != nil {
					return err
				}
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("error creating output file: %w", err)
				}
				if err := writeRecords(file, format, records); err != nil {
					file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return err
				}
				fmt.Printf("✓ Generated %d records to %s\n", len(records), output)
				return nil

			default:
				database, err := openFeed()
				if err != nil {
					return err
				}
				defer database.Close()

				ctx := cmd.Context()
				if ctx == nil {
					ctx = context.Background()
				}
				inserted, err := database.InsertEvents(ctx, records)
				if err != nil {
					return fmt.Errorf("insert error: %w", err)
				}
				elapsed := time.Since(start)
				fmt.Printf("✓ Generated %d records into %s in %v (%.0f records/sec)\n",
					inserted, cfg.DB.Path, elapsed, float64(inserted)/elapsed.Seconds())
				return nil
			}
		},
	}

	gen.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Export file ('-' for stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format (csv, json, yaml); inferred from extension when empty")
	return cmd
}

func writeRecords(w io.Writer, format string, records []models.EventRecord) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	return parser.Export(w, format, records)
}

// ingestCmd loads event files into the SQLite feed
func ingestCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Validate and load event files into the feed",
		Long: `Parse CSV, JSON or YAML event files and insert them into the --db feed.
A file with any malformed row is rejected as a whole.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openFeed()
			if err != nil {
				return err
			}
			defer database.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			totalRecords := 0
			totalErrors := 0

			for _, file := range args {
				fmt.Printf("Processing %s...\n", file)
				start := time.Now()

				f := format
				if f == "" {
					if f, err = parser.FormatFromPath(file); err != nil {
						fmt.Printf("  Error: %v\n", err)
						totalErrors++
						continue
					}
				}

				records, err := parser.NewParser(f).ParseFile(file)
				if err != nil {
					fmt.Printf("  Error: %v\n", err)
					totalErrors++
					continue
				}

				count, err := database.InsertEvents(ctx, records)
				if err != nil {
					fmt.Printf("  Database error: %v\n", err)
					totalErrors++
					continue
				}

				elapsed := time.Since(start)
				fmt.Printf("  ✓ Inserted %d records in %v (%.0f records/sec)\n",
					count, elapsed, float64(count)/elapsed.Seconds())
				totalRecords += int(count)
			}

			fmt.Printf("\nTotal: %d records ingested", totalRecords)
			if totalErrors > 0 {
				fmt.Printf(", %d files rejected\n", totalErrors)
				return fmt.Errorf("%d of %d files rejected", totalErrors, len(args))
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "File format (csv, json, yaml); inferred from extension when empty")
	return cmd
}
