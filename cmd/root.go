// Package cmd is the statickit command-line interface.
//
// Settings come from, highest priority first:
//  1. command-line flags (--out, --port, ...)
//  2. STATICKIT_<KEY> environment variables, e.g. STATICKIT_DEV_PORT
//  3. the config file: --config, else STATICKIT_CONFIG_FILE, else
//     .statickit.yml in the working directory
//  4. built-in defaults
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/statickit/internal/config"
	"github.com/conneroisu/statickit/internal/logging"
)

// app carries state shared by every subcommand of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	getenv  func(string) string
}

// NewRootCmd builds the statickit command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), getenv: os.Getenv}

	root := &cobra.Command{
		Use:   "statickit",
		Short: "Compile block templates and render static sites",
		Long: `statickit compiles Vue-style block templates to Go render functions and
renders pages by filling named regions of a base HTML template with blocks.

Quick start:
  statickit gen              Compile blocks/ into Go code
  statickit check            Validate templates and page configs
  statickit serve            Preview pages in dev mode
  statickit build            Render every page into dist/`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.Init(a.v, a.cfgFile, a.getenv)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is .statickit.yml, or STATICKIT_CONFIG_FILE)")
	pf.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))

	root.AddCommand(
		newGenCmd(a),
		newCheckCmd(a),
		newRenderCmd(a),
		newBuildCmd(a),
		newServeCmd(a),
		newAddressCmd(a),
		newVersionCmd(),
	)

	return root
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}

// bind maps config keys to the flags of the running command. Flags are
// bound at run time because several commands bind the same key.
func (a *app) bind(cmd *cobra.Command, flags map[string]string) error {
	return bindFlags(a.v, cmd.Flags(), flags)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, flags map[string]string) error {
	for key, name := range flags {
		flag := fs.Lookup(name)
		if flag == nil {
			return fmt.Errorf("no --%s flag to bind %s to", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}

	return nil
}

// load returns the project settings and a logger writing to the command's
// stderr.
func (a *app) load(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return nil, nil, err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	return cfg, logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	}), nil
}
