// Package cli implements the erdiagram command line.
package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/david-delgrosso/django-er-diagram/internal/config"
	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/logger"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Exit codes returned by ExitCode.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	v          *viper.Viper
	configFile string
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "erdiagram",
		Short: "Generate Mermaid ER diagrams from application model metadata",
		Long: color.CyanString(`erdiagram - entity-relationship diagrams for your models

erdiagram reads the model metadata your application publishes (a manifest
file or a catalog table) and writes one Mermaid erDiagram page per module,
as Markdown or HTML, plus an HTML index of every page.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default .erdiagram.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error, disabled")
	flags.String("log-format", "console", "log format: console or json")
	a.mustBind(rootCmd, "log.level", "log-level")
	a.mustBind(rootCmd, "log.format", "log-format")

	rootCmd.AddCommand(a.newGenerateCommand())
	rootCmd.AddCommand(a.newServeCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			titleColor := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()

			titleColor.Fprint(out, "erdiagram version: ")
			fmt.Fprintln(out, Version)
			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)
			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)
			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, runtime.Version())
		},
	}
}

// bind binds the config key to cmd's flag name, looking in the local
// flags first and then the persistent ones.
func (a *app) bind(cmd *cobra.Command, key, name string) error {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	if flag == nil {
		return errs.Newf(errs.ErrKindConfig, "command %s has no --%s flag for %s", cmd.Name(), name, key)
	}
	if err := a.v.BindPFlag(key, flag); err != nil {
		return errs.Wrap(errs.ErrKindConfig, "bind --"+name, err)
	}
	return nil
}

// mustBind is bind for command construction, where a missing flag is a bug.
func (a *app) mustBind(cmd *cobra.Command, key, name string) {
	if err := a.bind(cmd, key, name); err != nil {
		panic(err)
	}
}

// load reads and validates the configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	log := logger.New(lc)
	log.Debugf("configuration loaded: %s", cfg)
	return cfg, log, nil
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// ExitCode maps an Execute error onto a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errs.IsConfig(err):
		return ExitConfig
	default:
		return ExitFailed
	}
}
