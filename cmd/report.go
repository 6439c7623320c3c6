package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fleet-ops-report/internal/metrics"
	"fleet-ops-report/internal/models"
	"fleet-ops-report/internal/report"
	"fleet-ops-report/internal/source"

	"github.com/spf13/cobra"
)

// reportCmd runs one reporting session and prints the four views
func reportCmd() *cobra.Command {
	var src srcFlags
	var vehicle string
	var startDate string
	var endDate string
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the fleet operations report",
		Long: `Build the efficiency, maintenance, incident and KPI views for the
selected vehicle and date range. Without --start and --end the range spans
the loaded data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeSrc, err := src.open(cmd)
			if err != nil {
				return err
			}
			defer closeSrc()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			svc := report.NewService(newCache(metrics.NopRecorder{}), log, metrics.NopRecorder{})

			params, err := filterParams(ctx, svc, s, vehicle, startDate, endDate)
			if err != nil {
				return err
			}

			start := time.Now()
			rep, err := svc.Run(ctx, s, params)
			if err != nil {
				return err
			}
			log.Debugf("report built in %v", time.Since(start))

			switch outputFormat {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			case "table", "":
				printReport(os.Stdout, rep)
				return nil
			default:
				return fmt.Errorf("unknown output format %q (use table or json)", outputFormat)
			}
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&vehicle, "vehicle", "V", "all", "Vehicle ID or 'all'")
	cmd.Flags().StringVarP(&startDate, "start", "s", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&endDate, "end", "e", "", "Range end (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
	return cmd
}

// filterParams builds the session filter. A missing range spans the data;
// a half-open range is rejected.
func filterParams(ctx context.Context, svc *report.Service, src source.Source, vehicle, start, end string) (models.FilterParams, error) {
	sel := models.ParseVehicleSelector(vehicle)

	var bounds []string
	for _, b := range []string{start, end} {
		if b = strings.TrimSpace(b); b != "" {
			bounds = append(bounds, b)
		}
	}
	if len(bounds) == 0 {
		p, err := svc.DefaultParams(ctx, src)
		p.Vehicle = sel
		return p, err
	}
	rng, err := models.ParseDateRange(bounds)
	if err != nil {
		return models.FilterParams{}, err
	}
	return models.FilterParams{Vehicle: sel, Range: rng}, nil
}

const noData = "  No data for the selected filters."

func printReport(w io.Writer, rep *models.Report) {
	fmt.Fprintln(w, "🚚 Fleet Operations Report")
	fmt.Fprintln(w, "==========================")
	fmt.Fprintf(w, "  Vehicle:  %s\n", rep.Filter.Vehicle)
	fmt.Fprintf(w, "  Range:    %s\n", rep.Filter.Range)
	fmt.Fprintf(w, "  Records:  %d\n\n", rep.RecordCount)

	fmt.Fprintln(w, "📊 Fleet Efficiency")
	if rep.Efficiency.NoData() {
		fmt.Fprintln(w, noData)
	} else {
		fmt.Fprintf(w, "  %-10s %12s %12s %12s %10s %10s\n", "Vehicle", "Total km", "Fuel (L)", "Cost", "km/L", "Cost/km")
		for _, id := range rep.Efficiency.Keys() {
			r := rep.Efficiency.Rows[id]
			fmt.Fprintf(w, "  %-10s %12.2f %12.2f %12.2f %10s %10s\n",
				id, r.TotalKM, r.TotalFuelL, r.TotalCost, r.KMPerLiter, r.CostPerKM)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔧 Maintenance")
	if rep.Maintenance.NoData() {
		fmt.Fprintln(w, noData)
	} else {
		fmt.Fprintf(w, "  %-24s %12s %8s\n", "Type", "Avg cost", "Events")
		for _, t := range rep.Maintenance.Keys() {
			r := rep.Maintenance.Rows[t]
			fmt.Fprintf(w, "  %-24s %12.2f %8d\n", t, r.AvgCost, r.EventCount)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🚨 Incidents")
	if rep.Incidents.NoData() {
		fmt.Fprintln(w, noData)
	} else {
		fmt.Fprintf(w, "  %-10s %12s %8s\n", "Vehicle", "Total cost", "Count")
		for _, id := range rep.Incidents.Keys() {
			r := rep.Incidents.Rows[id]
			fmt.Fprintf(w, "  %-10s %12.2f %8d\n", id, r.TotalCost, r.IncidentCount)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📌 KPI Summary")
	if rep.KPI.NoData() {
		fmt.Fprintln(w, noData)
		return
	}
	for _, ind := range rep.KPI.Indicators() {
		fmt.Fprintf(w, "  %-24s %14.2f\n", ind.Name, ind.Value)
	}
}

// vehiclesCmd lists the distinct vehicle ids of a source
func vehiclesCmd() *cobra.Command {
	var src srcFlags

	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List vehicles present in a source",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeSrc, err := src.open(cmd)
			if err != nil {
				return err
			}
			defer closeSrc()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			svc := report.NewService(newCache(metrics.NopRecorder{}), log, metrics.NopRecorder{})
			ids, err := svc.Vehicles(ctx, s)
			if err != nil {
				return err
			}

			if len(ids) == 0 {
				fmt.Println("No vehicles found. Use 'fleet-report generate' to create sample data.")
				return nil
			}
			fmt.Printf("%d vehicles (%s source)\n", len(ids), s.Kind())
			for _, id := range ids {
				fmt.Println("  " + id)
			}
			return nil
		},
	}

	src.register(cmd)
	return cmd
}
