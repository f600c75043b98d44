package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depstatus/internal/server"
	"github.com/matzehuels/depstatus/pkg/deps"
	"github.com/matzehuels/depstatus/pkg/engine"
)

// repoCommand creates the repo command.
func (c *CLI) repoCommand() *cobra.Command {
	var (
		subpath string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "repo <site>/<owner>/<name>",
		Short: "Analyze the dependencies of a hosted repository",
		Long: `Analyze every package in a hosted repository, following workspace
members and path dependencies.

Supported sites: github, gitlab, bitbucket, sourcehut, codeberg.`,
		Example: `  depstatus repo github/serde-rs/serde
  depstatus repo gitlab/owner/project --path crates/core`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := parseRepoArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			eng := newEngine(ctx, cfg, logger)

			prog := newProgress(logger)
			spinner := newSpinnerWithContext(ctx, c.stderr, "Analyzing "+repo.String())
			spinner.Start()
			outcome, err := eng.AnalyzeRepositoryDependencies(ctx, repo, subpath)
			spinner.Stop()
			if err != nil {
				return err
			}
			prog.done("analyzed repository", "repo", repo, "packages", len(outcome.Packages))

			return c.printOutcome(outcome, asJSON)
		},
	}

	cmd.Flags().StringVar(&subpath, "path", "", "directory inside the repository to start from")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

// crateCommand creates the crate command.
func (c *CLI) crateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "crate <name> [version]",
		Short: "Analyze the dependencies of a published crate",
		Long:  `Analyze the dependencies of a crates.io release. Without a version, the newest stable release is used.`,
		Example: `  depstatus crate serde
  depstatus crate tokio 1.0.0`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := deps.ParsePackageName(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			eng := newEngine(ctx, cfg, logger)

			var path deps.PackagePath
			if len(args) == 2 {
				if path, err = deps.ParsePackagePath(args[0], args[1]); err != nil {
					return err
				}
			} else {
				release, err := eng.FindLatestReleaseMatching(ctx, name, deps.AnyRequirement)
				if err != nil {
					return err
				}
				if release == nil {
					return fmt.Errorf("crate %s has no stable release", name)
				}
				path = deps.PackagePath{Name: name, Version: release.Version}
				logger.Debug("resolved latest release", "crate", path)
			}

			prog := newProgress(logger)
			spinner := newSpinnerWithContext(ctx, c.stderr, "Analyzing "+path.String())
			spinner.Start()
			outcome, err := eng.AnalyzePackageDependencies(ctx, path)
			spinner.Stop()
			if err != nil {
				return err
			}
			prog.done("analyzed crate", "crate", path)

			return c.printOutcome(outcome, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

func (c *CLI) printOutcome(o *engine.Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(server.NewStatusResponse(o))
	}
	printOutcome(c.stdout, o)
	return nil
}

// parseRepoArg splits "site/owner/name" into a repository path.
func parseRepoArg(s string) (deps.RepositoryPath, error) {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) != 3 {
		return deps.RepositoryPath{}, fmt.Errorf("repository must be <site>/<owner>/<name>, got %q", s)
	}
	return deps.ParseRepositoryPath(parts[0], parts[1], parts[2])
}
