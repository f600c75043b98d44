package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/depstatus/pkg/source/local"
)

// localCommand creates the local command.
func (c *CLI) localCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "local [dir]",
		Short: "Analyze the dependencies of a workspace on disk",
		Long: `Analyze every package in a local Cargo workspace, following workspace
members and path dependencies. Paths leaving the directory are rejected.`,
		Example: `  depstatus local
  depstatus local ~/src/myproject --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			retriever, err := local.Open(dir)
			if err != nil {
				return err
			}
			defer retriever.Close()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			eng := newEngine(ctx, cfg, logger)

			prog := newProgress(logger)
			spinner := newSpinnerWithContext(ctx, c.stderr, "Analyzing "+retriever.Dir())
			spinner.Start()
			outcome, err := eng.AnalyzeDirectoryDependencies(ctx, retriever, retriever.Dir())
			spinner.Stop()
			if err != nil {
				return err
			}
			prog.done("analyzed directory", "dir", retriever.Dir(), "packages", len(outcome.Packages))

			return c.printOutcome(outcome, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}
