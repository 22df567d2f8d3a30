package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gopheros/kcore/kernel/kfmt"
	"github.com/spf13/cobra"
)

func newBootCmd(a *app) *cobra.Command {
	var (
		ticks     uint64
		interval  time.Duration
		showDmesg bool
	)

	cmd := &cobra.Command{
		Use:   "boot",
		Short: "Boot the kernel, run the monitor loop and print the system status",
		Long: `Boots a kernel instance from the configuration: initializes the frame pool and
the security context, creates the bootstrap processes and runs the monitor loop.

The loop stops after --ticks ticks (or monitor.max_ticks) or on SIGINT/SIGTERM.
A boot failure halts the kernel and exits with a non-zero status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("ticks") {
				ticks = a.cfg.Monitor.MaxTicks
			}
			if !cmd.Flags().Changed("interval") {
				var err error
				if interval, err = a.cfg.TickInterval(); err != nil {
					return err
				}
			}

			m, err := a.boot()
			if err != nil {
				if showDmesg {
					writeDmesg(cmd.OutOrStdout(), a.dmesg)
				}
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := asError(m.Run(ctx, interval, ticks)); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showDmesg {
				writeDmesg(out, a.dmesg)
			}
			renderStatus(out, m.Status(), m.Pool().Capacity(), m.Pool().FreeCount())
			renderProcesses(out, m.Processes())
			return nil
		},
	}

	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "number of monitor ticks to run (0 runs until interrupted)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "delay between monitor ticks")
	cmd.Flags().BoolVar(&showDmesg, "dmesg", false, "print the kernel boot log")

	return cmd
}

// writeDmesg replays the retained kernel log with a prefix on every line.
func writeDmesg(w io.Writer, dmesg *kfmt.RingBuffer) {
	pw := &kfmt.PrefixWriter{Sink: w, Prefix: []byte("[dmesg] ")}
	_, _ = io.Copy(pw, dmesg)
}
