package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gopheros/kcore/kernel/proc"
	"github.com/gopheros/kcore/kernel/status"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderStatus(w io.Writer, st status.SystemStatus, capacity, free uint32) {
	t := newTable("counter", "value").
		Row("boot id", st.BootID.String()).
		Row("state", st.State.String()).
		Row("uptime ticks", strconv.FormatUint(st.UptimeTicks, 10)).
		Row("processes created", strconv.FormatUint(uint64(st.TotalProcessesCreated), 10)).
		Row("active processes", strconv.FormatUint(uint64(st.ActiveProcesses), 10)).
		Row("frames used", fmt.Sprintf("%d/%d (%d free)", st.MemoryUsedFrames, capacity, free)).
		Row("security violations", strconv.FormatUint(uint64(st.SecurityViolations), 10)).
		Row("last error", st.LastErrorCode.String())

	fmt.Fprintln(w, titleStyle.Render("system status"))
	fmt.Fprintln(w, t.String())
}

func renderProcesses(w io.Writer, procs []proc.Process) {
	t := newTable("pid", "level", "privileged", "stack", "frame", "token", "locked")
	for _, p := range procs {
		t.Row(
			strconv.FormatUint(uint64(p.PID), 10),
			p.Level.String(),
			strconv.FormatBool(p.IsPrivileged()),
			fmt.Sprintf("%#x", p.StackBase),
			strconv.FormatUint(uint64(p.StackFrame), 10),
			fmt.Sprintf("%#08x", p.Token),
			strconv.FormatBool(p.Locked),
		)
	}

	fmt.Fprintln(w, titleStyle.Render("processes"))
	fmt.Fprintln(w, t.String())
}
