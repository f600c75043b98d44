package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/depstatus/pkg/deps"
)

// popularCommand creates the popular command.
func (c *CLI) popularCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List popular Rust repositories and crates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			eng := newEngine(ctx, cfg, loggerFromContext(ctx))

			var (
				repos  []deps.Repository
				crates []deps.PackagePath
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				repos, err = eng.GetPopularRepositories(gctx)
				return err
			})
			g.Go(func() (err error) {
				crates, err = eng.GetPopularPackages(gctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			limit := max(limit, 0)
			w := c.stdout
			fmt.Fprintln(w, StyleTitle.Render("Repositories"))
			for _, r := range repos[:min(len(repos), limit)] {
				fmt.Fprintln(w, "  "+styleName.Render(r.Path.String())+" "+StyleLink.Render(r.Path.URL()))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, StyleTitle.Render("Crates"))
			for _, p := range crates[:min(len(crates), limit)] {
				fmt.Fprintln(w, "  "+styleName.Render(string(p.Name))+" "+StyleValue.Render(p.Version.String()))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 15, "maximum entries per list")
	return cmd
}
