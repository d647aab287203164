package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/roster/internal/logfields"
	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/internal/repository"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Load records from a YAML seed file",
	Long: `Write the areas, clients, talents, projects and allocations listed in a
YAML seed file into the workspace.

IDs may be omitted and are generated. Reference fields (area_id, client_id,
talent_id, project_id) accept either an ID or the name of a record declared
in the same file.

Example seed file:
  areas:
    - name: Engineering
      color: "#0055ff"
  talents:
    - name: Ada
      area_id: Engineering
  projects:
    - name: Atlas
      status: in_progress
      end_date: "2026-11-01"
      budget: 12000
  allocations:
    - talent_id: Ada
      project_id: Atlas
      start_date: "2026-10-01"
      end_date: "2026-10-31"`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	seed, err := repository.LoadSeedFile(args[0])
	if err != nil {
		return printer.Error(
			"invalid seed file",
			err.Error(),
			[]string{"Fix the file and run the command again"},
		)
	}

	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	n, err := repository.ApplySeed(ctx, client, seed)
	if err != nil {
		return fmt.Errorf("seeding stopped after %d records: %w", n, err)
	}

	logger.Debug("seed applied", logfields.Workspace(cfg.Workspace), logfields.Path(args[0]), logfields.Count(n))
	printer.Success("Seeded %d records into workspace '%s'\n", n, cfg.Workspace)
	return nil
}
