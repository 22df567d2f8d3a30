// Command kcore boots a kernel core instance, runs its monitor loop and
// reports the resulting system status.
package main

import (
	"fmt"
	"os"

	"github.com/gopheros/kcore/kernel"
	"github.com/gopheros/kcore/kernel/config"
	"github.com/gopheros/kcore/kernel/kfmt"
	"github.com/gopheros/kcore/kernel/kmain"
	"github.com/gopheros/kcore/kernel/status"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by all subcommands.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	dmesg  *kfmt.RingBuffer
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "kcore",
		Short:         "Boot and inspect a minimal kernel core",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML boot configuration")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newBootCmd(a),
		newCheckCmd(a),
		newConfigCmd(a),
	)

	return rootCmd
}

// init loads the configuration and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	var err error
	if a.configPath != "" {
		if a.cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	} else {
		a.cfg = config.Default()
	}

	level, err := kfmt.ParseLevel(a.cfg.Logging.Level)
	if err != nil {
		return err
	}
	if a.verbose {
		level = zapcore.DebugLevel
	}

	a.dmesg = new(kfmt.RingBuffer)
	a.logger = kfmt.NewLogger(level, a.dmesg, cmd.ErrOrStderr())
	return nil
}

// boot builds and boots a monitor from the loaded configuration.
func (a *app) boot() (*kmain.Monitor, error) {
	opts, err := kmain.OptionsFromConfig(a.cfg)
	if err != nil {
		return nil, err
	}

	opts.ViolationHook = func(st status.SystemStatus) {
		a.logger.Debug("violation hook", zap.Uint32("violations", st.SecurityViolations))
	}

	m := kmain.New(opts, a.logger)
	if err := m.Boot(); err != nil {
		return m, fmt.Errorf("boot failed: %w", err)
	}
	return m, nil
}

// asError converts a kernel error to an error without producing a non-nil
// interface holding a nil pointer.
func asError(err *kernel.Error) error {
	if err == nil {
		return nil
	}
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kcore:", err)
		os.Exit(1)
	}
}
