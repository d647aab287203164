package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/roster/internal/dashboard"
	"github.com/dyluth/roster/internal/loader"
	"github.com/dyluth/roster/pkg/state"
	"github.com/spf13/cobra"
)

var watchOutputFormat string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render the dashboard as records change",
	Long: `Print the dashboard, then print it again every time a record in the
workspace changes. Runs until interrupted.

Output Formats:
  default - Human-readable tables, separated by an update marker
  json    - One JSON document per update

Examples:
  # Follow the default workspace
  roster watch

  # Stream updates for another tool
  roster watch -o json > dashboard.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format: default or json")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := validateFormat(watchOutputFormat); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
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

	// Subscribe before the initial load so no change falls in between
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

	dirty := make(chan struct{}, 1)
	for _, collection := range state.Collections {
		s := store.Subscribe(collection, func(_, _ any) error {
			select {
			case dirty <- struct{}{}:
			default:
			}
			return nil
		})
		defer s.Close()
	}

	go loader.Follow(ctx, sub, client, store, logger)

	out := cmd.OutOrStdout()
	if err := render(out, svc, cfg.Workspace, watchOutputFormat); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-dirty:
			if err := renderUpdate(out, svc, cfg.Workspace, watchOutputFormat); err != nil {
				return err
			}
		}
	}
}

// renderUpdate re-renders the dashboard to w. Table output is preceded by a
// timestamped marker so successive dashboards stay distinguishable.
func renderUpdate(w io.Writer, svc *dashboard.Service, workspace, format string) error {
	if format == "default" {
		fmt.Fprintf(w, "\n→ updated %s\n", svc.Now().Format("15:04:05"))
	}
	return render(w, svc, workspace, format)
}
