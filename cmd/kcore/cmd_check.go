package main

import (
	"fmt"
	"strconv"

	"github.com/gopheros/kcore/kernel/proc"
	"github.com/gopheros/kcore/kernel/security/access"
	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		write   bool
		execute bool
		lock    bool
	)

	cmd := &cobra.Command{
		Use:   "check <pid> <address>",
		Short: "Boot the kernel and run an access check for a bootstrap process",
		Example: `  kcore check 2 0xbffff000
  kcore check 2 0xc0000000 --write
  kcore check 1 0xbffff000 --lock`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid pid %q", args[0])
			}

			addr, err := strconv.ParseUint(args[1], 0, 64)
			if err != nil {
				return fmt.Errorf("invalid address %q", args[1])
			}

			m, err := a.boot()
			if err != nil {
				return err
			}

			if lock {
				if err := asError(m.Lock(proc.PID(pid))); err != nil {
					return err
				}
			}

			at := access.Read
			if write {
				at |= access.Write
			}
			if execute {
				at |= access.Execute
			}

			d, kerr := m.Check(proc.PID(pid), uintptr(addr), at)
			if err := asError(kerr); err != nil {
				return err
			}

			if d.Allowed {
				fmt.Fprintf(cmd.OutOrStdout(), "pid %d %s %#x: allowed\n", pid, accessName(at), addr)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "pid %d %s %#x: denied (%s)\n", pid, accessName(at), addr, d.Reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "check a write access")
	cmd.Flags().BoolVar(&execute, "exec", false, "check an execute access")
	cmd.Flags().BoolVar(&lock, "lock", false, "lock the process before checking")

	return cmd
}

func accessName(at access.Type) string {
	switch {
	case at&access.Write != 0:
		return "write"
	case at&access.Execute != 0:
		return "exec"
	default:
		return "read"
	}
}
