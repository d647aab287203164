package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/dyluth/roster/internal/config"
	"github.com/dyluth/roster/internal/dashboard"
	"github.com/dyluth/roster/internal/loader"
	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/internal/report"
	"github.com/dyluth/roster/internal/repository"
	"github.com/dyluth/roster/internal/timespec"
	"github.com/dyluth/roster/pkg/state"
	"github.com/jonboulle/clockwork"
)

const defaultConfigPath = "roster.yml"

var (
	configPath    string
	workspaceFlag string
	redisURLFlag  string
	logLevel      string
)

// loadConfig reads roster.yml and applies flag overrides. A missing default
// config file is not an error; a missing --config file is.
func loadConfig() (*config.RosterConfig, error) {
	path := configPath
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		if configPath == "" && errors.Is(err, fs.ErrNotExist) {
			cfg = config.Default()
		} else {
			return nil, printer.Error(
				"invalid configuration",
				err.Error(),
				[]string{fmt.Sprintf("Check %s, or run without --config to use defaults", path)},
			)
		}
	}

	if workspaceFlag != "" {
		cfg.Workspace = workspaceFlag
	}
	if redisURLFlag != "" {
		cfg.Redis.URL = redisURLFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, printer.Error("invalid configuration", err.Error(), nil)
	}

	return cfg, nil
}

// newLogger builds the command's structured logger, writing text to w.
func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
		return nil, printer.Error(
			"invalid log level",
			fmt.Sprintf("Unknown level: %s", logLevel),
			[]string{"Valid levels: debug, info, warn, error"},
		)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// connect opens the workspace repository and verifies Redis is reachable.
func connect(ctx context.Context, cfg *config.RosterConfig) (*repository.Client, error) {
	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}

	client, err := repository.NewClient(opts, cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"redis unreachable",
			fmt.Sprintf("Could not connect to Redis: %v", err),
			map[string]string{
				"Redis":     cfg.Redis.URL,
				"Workspace": cfg.Workspace,
			},
			[]string{
				"Start Redis locally:\n  docker run -p 6379:6379 redis:7-alpine",
				"Point roster at another server:\n  roster --redis-url redis://host:6379/0 ...",
			},
		)
	}

	return client, nil
}

// loadStore creates a state store filled with every persisted collection.
func loadStore(ctx context.Context, src loader.Source, logger *slog.Logger) (*state.Store, error) {
	store := state.New(state.WithLogger(logger))
	if err := loader.LoadAll(ctx, src, store); err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return store, nil
}

// newService creates the metrics service. A non-empty asOf pins "today".
func newService(store *state.Store, cfg *config.RosterConfig, asOf string, logger *slog.Logger) (*dashboard.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	opts := []dashboard.Option{
		dashboard.WithLocation(loc),
		dashboard.WithDeadlineWindow(cfg.DeadlineWindow()),
		dashboard.WithLogger(logger),
	}

	if asOf != "" {
		at, err := timespec.Parse(asOf, time.Now().In(loc))
		if err != nil {
			return nil, printer.Error(
				"invalid --as-of value",
				err.Error(),
				[]string{"Use a date like 2026-10-18, an RFC3339 timestamp, or a duration like 72h"},
			)
		}
		opts = append(opts, dashboard.WithClock(clockwork.NewFakeClockAt(at)))
	}

	return dashboard.NewService(store, opts...), nil
}

// render writes the current dashboard in the requested format.
func render(w io.Writer, svc *dashboard.Service, workspace, format string) error {
	d := report.Dashboard{
		Workspace: workspace,
		Metrics:   svc.AllMetrics(),
		Legend:    svc.ColorLegend(),
	}
	if format == "json" {
		return report.FormatJSON(w, d)
	}
	return report.FormatTable(w, d)
}

func validateFormat(format string) error {
	switch format {
	case "default", "json":
		return nil
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", format),
			[]string{"Valid formats: default, json"},
		)
	}
}
