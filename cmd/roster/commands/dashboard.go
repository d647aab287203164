package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	dashboardOutputFormat string
	dashboardAsOf         string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the planning dashboard",
	Long: `Load every record of the workspace and print the dashboard figures.

Output Formats:
  default - Tables for the summary, deadlines and unpaid projects, plus the color legend
  json    - One JSON document, suitable for piping to jq

Examples:
  # Dashboard for the default workspace
  roster dashboard

  # As it looked on a given day
  roster dashboard --as-of 2026-09-30

  # Unpaid total for scripting
  roster dashboard -o json | jq '.metrics.unpaid.total_budget'`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVarP(&dashboardOutputFormat, "output", "o", "default", "Output format: default or json")
	dashboardCmd.Flags().StringVar(&dashboardAsOf, "as-of", "", "Evaluate as of a date (YYYY-MM-DD, RFC3339 or duration ago)")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := validateFormat(dashboardOutputFormat); err != nil {
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

	store, err := loadStore(ctx, client, logger)
	if err != nil {
		return err
	}

	svc, err := newService(store, cfg, dashboardAsOf, logger)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), svc, cfg.Workspace, dashboardOutputFormat)
}
