// Package cli implements the bookmood command-line interface, a thin adapter
// over a types.BookStore: every command loads the whole collection, works on
// it in memory, and saves it back when it changed.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/bookmood/internal/paths"
	"github.com/mesh-intelligence/bookmood/pkg/bookmood"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for an error returned by a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// exitCode maps an error returned by Execute to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
	noColor   bool
}

// app is the state shared by the commands of one root command.
type app struct {
	flags     rootFlags
	configDir string
	cfg       *viper.Viper
	logger    *zap.Logger
}

// NewRootCmd creates the top-level "bookmood" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:     "bookmood",
		Short:   "Keep notes and moods for the books you read",
		Long:    "BookMood keeps a local collection of books, each with free-text notes\nand a mood tag, in a single file under your application data directory.",
		Version: bookmood.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform application data dir)")
	root.PersistentFlags().StringVar(&a.flags.backend, "backend", "", "storage backend: json or sqlite (default from config.yaml)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newAddCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newSetCmd(a))
	root.AddCommand(newDeleteCmd(a))

	return root
}

// setup resolves the config directory, loads config.yaml, and builds the
// logger. It runs before every subcommand.
func (a *app) setup(cmd *cobra.Command) error {
	if a.flags.noColor {
		color.NoColor = true
	}
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	if a.flags.backend != "" {
		cfg.Set(cfgKeyBackend, a.flags.backend)
	}

	logger, err := newLogger(cfg.GetString(cfgKeyLogLevel), cfg.GetString(cfgKeyLogFormat), cmd.ErrOrStderr())
	if err != nil {
		return userError(fmt.Errorf("config: %w", err))
	}

	a.configDir = configDir
	a.cfg = cfg
	a.logger = logger
	return nil
}

// Execute runs the root command and exits with the appropriate code.
// An interrupt cancels the running command's store operation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "bookmood:", err)
	}
	os.Exit(exitCode(err))
}
