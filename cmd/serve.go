package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-ops-report/internal/api"
	"fleet-ops-report/internal/db"
	"fleet-ops-report/internal/logger"
	"fleet-ops-report/internal/metrics"
	"fleet-ops-report/internal/report"
	"fleet-ops-report/internal/source"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// serveCmd starts the REST API server
func serveCmd() *cobra.Command {
	var src srcFlags
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			srvLog := logger.New("api")

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			rec, err := metrics.NewPromRecorder(reg)
			if err != nil {
				return err
			}

			s, closeSrc, err := src.open(cmd)
			if err != nil {
				return err
			}
			defer closeSrc()

			cache := newCache(rec)
			opts := []api.Option{api.WithLogger(srvLog), api.WithGatherer(reg)}

			switch typed := s.(type) {
			case *source.FileSource:
				watcher, err := source.NewWatcher(cache, logger.New("watcher"))
				if err != nil {
					srvLog.Warnf("file watcher unavailable (reload disabled): %v", err)
					break
				}
				if err := watcher.Add(typed); err != nil {
					srvLog.Warnf("file watcher unavailable (reload disabled): %v", err)
					break
				}
				watcher.OnInvalidate(func(key string) {
					srvLog.Infof("source changed, cached batch dropped: %s", key)
				})
				defer watcher.Start()()
			case *source.DBSource:
				// separate handle for /api/v1/stats
				feed, err := db.New(cfg.DB.Path)
				if err != nil {
					return fmt.Errorf("database error: %w", err)
				}
				defer feed.Close()
				opts = append(opts, api.WithFeed(feed))
			}

			svc := report.NewService(cache, logger.New("report"), rec)
			server := api.NewServer(svc, s, opts...)

			httpSrv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      server.Router(),
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			fmt.Printf("🚚 Fleet Operations Report API Server\n")
			fmt.Printf("   Listening on http://localhost%s\n", cfg.Server.Addr)
			fmt.Printf("   Source: %s\n\n", s.Kind())
			fmt.Println("Available endpoints:")
			fmt.Println("  GET  /health")
			fmt.Println("  GET  /metrics")
			fmt.Println("  GET  /api/v1/vehicles")
			fmt.Println("  GET  /api/v1/stats")
			fmt.Println("  GET  /api/v1/report")
			fmt.Println("  POST /api/v1/report")
			fmt.Println("  GET  /api/v1/report/{efficiency|maintenance|incidents|kpi}")
			fmt.Println()

			errCh := make(chan error, 1)
			go func() {
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			case <-quit:
			}
			srvLog.Infof("shutting down")

			shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutCtx)
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
