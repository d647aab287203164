package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/roster/internal/dashboard"
	"github.com/dyluth/roster/internal/loader"
	"github.com/dyluth/roster/internal/logfields"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var exporterListen string

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Serve dashboard figures as Prometheus metrics",
	Long: `Keep the workspace loaded and serve its dashboard figures on /metrics.

Figures are computed at scrape time from records kept current by the
workspace's change feed. /healthz reports whether Redis is reachable.

Examples:
  # Serve on the configured address (default :9464)
  roster exporter

  # Serve on another port
  roster exporter --listen :9100`,
	Args: cobra.NoArgs,
	RunE: runExporter,
}

func init() {
	exporterCmd.Flags().StringVar(&exporterListen, "listen", "", "Listen address, overrides exporter.listen")
	rootCmd.AddCommand(exporterCmd)
}

// newExporterHandler serves the collector's registry on /metrics and the
// result of ping on /healthz.
func newExporterHandler(svc *dashboard.Service, workspace string, ping func(context.Context) error) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(dashboard.NewCollector(svc, workspace)); err != nil {
		return nil, fmt.Errorf("failed to register collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context()); err != nil {
			http.Error(w, "redis unreachable: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ok")
	})
	return mux, nil
}

func runExporter(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if exporterListen != "" {
		cfg.Exporter.Listen = exporterListen
	}
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	sub, err := client.SubscribeChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to changes: %w", err)
	}
	defer sub.Close()

	store, err := loadStore(ctx, client, logger)
	if err != nil {
		return err
	}
	svc, err := newService(store, cfg, "", logger)
	if err != nil {
		return err
	}

	go loader.Follow(ctx, sub, client, store, logger)

	handler, err := newExporterHandler(svc, cfg.Workspace, client.Ping)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Exporter.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("exporter shutdown failed", logfields.Error(err))
		}
	}()

	logger.Info("exporter listening", logfields.Listen(cfg.Exporter.Listen), logfields.Workspace(cfg.Workspace))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("exporter server failed: %w", err)
	}
	logger.Info("exporter stopped")
	return nil
}
