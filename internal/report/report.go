// Package report renders regression tables to stdout for -p/--print-output,
// using github.com/charmbracelet/lipgloss for aligned columns and
// color-coded deltas.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/ourovoros-io/dyno/internal/model"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	improvedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	regressedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	unchangedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	projectStyle   = lipgloss.NewStyle().Bold(true)
)

var metricOrder = []struct {
	label string
	pick  func(model.Stats) model.MetricDelta
}{
	{"cpu_usage", func(s model.Stats) model.MetricDelta { return s.CPUUsage }},
	{"memory_usage", func(s model.Stats) model.MetricDelta { return s.MemoryUsage }},
	{"virtual_memory_usage", func(s model.Stats) model.MetricDelta { return s.VirtualMemoryUsage }},
	{"disk_total_written", func(s model.Stats) model.MetricDelta { return s.DiskTotalWritten }},
	{"disk_written", func(s model.Stats) model.MetricDelta { return s.DiskWritten }},
	{"disk_total_read", func(s model.Stats) model.MetricDelta { return s.DiskTotalRead }},
	{"disk_read", func(s model.Stats) model.MetricDelta { return s.DiskRead }},
	{"bytecode_size", func(s model.Stats) model.MetricDelta { return s.BytecodeSize }},
	{"data_section_size", func(s model.Stats) model.MetricDelta { return s.DataSectionSize }},
	{"wall_time_ms", func(s model.Stats) model.MetricDelta { return s.WallTime }},
}

// PrintCollection writes a human-readable regression table for every
// project in col to w.
func PrintCollection(w io.Writer, col model.Collection) {
	if len(col.Entries) == 0 {
		fmt.Fprintln(w, unchangedStyle.Render("no previous run to compare against"))
		return
	}

	for _, entry := range col.Entries {
		fmt.Fprintln(w, projectStyle.Render(entry.ProjectPath))
		fmt.Fprintf(w, "  %-24s %18s %12s\n", headerStyle.Render("metric"), headerStyle.Render("delta"), headerStyle.Render("pct"))
		for _, m := range metricOrder {
			d := m.pick(entry.Stats)
			style := unchangedStyle
			switch {
			case d.AbsoluteDelta > 0:
				style = regressedStyle
			case d.AbsoluteDelta < 0:
				style = improvedStyle
			}
			fmt.Fprintf(w, "  %-24s %18s %12s\n",
				m.label,
				style.Render(fmt.Sprintf("%+.2f", d.AbsoluteDelta)),
				style.Render(fmt.Sprintf("%+.2f%%", d.PercentDelta)),
			)
		}
		fmt.Fprintln(w)
	}
}
