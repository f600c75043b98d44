// Package cli implements the depstatus command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depstatus/internal/config"
	"github.com/matzehuels/depstatus/pkg/buildinfo"
)

// appName is the application name used for display.
const appName = "depstatus"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	stdout     io.Writer
	stderr     io.Writer
}

// New creates a new CLI instance. Results go to stdout; logs and progress
// go to stderr.
func New(stdout, stderr io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(stderr, level),
		stdout: stdout,
		stderr: stderr,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "depstatus reports outdated and insecure Rust dependencies",
		Long:         `depstatus checks the dependencies of Rust crates and hosted repositories against crates.io and the RustSec advisory database, as a one-off command or as an HTTP badge service.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to a YAML configuration file")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.repoCommand())
	root.AddCommand(c.crateCommand())
	root.AddCommand(c.localCommand())
	root.AddCommand(c.popularCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	applyLogging(c.Logger, cfg.Logging)
	return cfg, nil
}
