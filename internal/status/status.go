// Package status renders the agent's scheduler/dispatcher counters to
// a colored terminal table using github.com/fatih/color and
// github.com/rodaine/table, with a green/yellow/red health convention.
package status

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/dmagro/dms-agent/internal/registry"
	"github.com/dmagro/dms-agent/internal/stats"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Report holds everything Render needs to describe the agent's
// current state.
type Report struct {
	Timestamp time.Time
	Processor string
	Modules   []registry.Module
	Ready     uint64
	Overrun   uint64
	Gone      uint64
	Latency   stats.TailLatency
}

// Render prints Report to stdout: a header, a per-module probe
// listing, and a dispatch summary row (the Ready, Overrun and Gone
// counts as given in Report, plus batch latency) colored OK (no gone
// fires) or DEGRADED (at least one).
func Render(r Report) {
	fmt.Println()
	fmt.Println(cyan("╭──────────────────────────────────────────╮"))
	fmt.Println(cyan("│") + bold("         dms-agent status                ") + cyan("│"))
	fmt.Printf("%s  %-40s%s\n", cyan("│"), r.Timestamp.Format("2006-01-02 15:04:05 MST"), cyan("│"))
	fmt.Printf("%s  processor: %-29s%s\n", cyan("│"), r.Processor, cyan("│"))
	fmt.Println(cyan("╰──────────────────────────────────────────╯"))
	fmt.Println()

	fmt.Println(bold("Modules"))
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Module", "Probes")
	tbl.WithHeaderFormatter(headerFmt)
	for _, m := range r.Modules {
		var probeIDs []string
		for _, ps := range m.Schedules() {
			probeIDs = append(probeIDs, fmt.Sprintf("%s@%s", ps.Probe, ps.Every))
		}
		tbl.AddRow(string(m.ID()), joinProbes(probeIDs))
	}
	tbl.Print()
	fmt.Println()

	fmt.Println(bold("Dispatch"))
	dispatchTbl := table.New("Status", "Ready", "Overrun", "Gone", "p50", "p95", "p99", "Max")
	dispatchTbl.WithHeaderFormatter(headerFmt)
	dispatchTbl.AddRow(
		formatHealth(r.Gone),
		r.Ready,
		r.Overrun,
		r.Gone,
		formatDuration(r.Latency.P50),
		formatDuration(r.Latency.P95),
		formatDuration(r.Latency.P99),
		formatDuration(r.Latency.Max),
	)
	dispatchTbl.Print()
	fmt.Println()
}

func formatHealth(gone uint64) string {
	if gone == 0 {
		return green("OK")
	}
	return yellow("DEGRADED")
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "—"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func joinProbes(probes []string) string {
	out := ""
	for i, p := range probes {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	if out == "" {
		return "—"
	}
	return out
}
