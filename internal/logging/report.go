// Package logging renders the end-of-session artefacts: the plain-text
// session report, the headless console summary, and the prioritised tips
// shared by both.
package logging

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/linuxmatters/hushpuppy/internal/monitor"
)

// reportWidth is the wrap column for prose sections of the report.
const reportWidth = 78

// occupancyBarWidth is the width of the share bar in the occupancy section.
const occupancyBarWidth = 30

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains all the information needed to generate a session report
type ReportData struct {
	Source     string // what produced the readings, e.g. "rehearsal.wav" or "demo script"
	ConfigPath string // loaded config file, empty for built-in defaults
	SampleRate int
	Channels   int
	AudioLen   time.Duration // decoded length of the source material
	Snapshot   monitor.StatsSnapshot
}

// GenerateReport creates a session report and saves it at path.
//
// Report structure:
// 1. Header - source, config, session timings
// 2. Level Summary - First Half / Second Half / Session table
// 3. Band Occupancy - per-band share of the session with bars
// 4. Escalation - meltdown accounting
// 5. Session Tips - prioritised advice
// 6. Process Footprint - what the monitor itself cost
func GenerateReport(path string, data ReportData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	writeReportHeader(f, data)
	writeLevelSummary(f, data.Snapshot)
	writeBandOccupancy(f, data.Snapshot)
	writeEscalation(f, data.Snapshot)
	writeSessionTips(f, data.Snapshot)
	writeFootprint(f)

	return nil
}

// writeReportHeader outputs the report header with source info and timestamps.
func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Hushpuppy Session Report")
	fmt.Fprintln(w, "========================")
	fmt.Fprintf(w, "Source: %s\n", data.Source)
	config := data.ConfigPath
	if config == "" {
		config = "built-in defaults"
	}
	fmt.Fprintf(w, "Config: %s\n", config)
	if data.SampleRate > 0 {
		fmt.Fprintf(w, "Audio:  %d Hz %s, %s\n",
			data.SampleRate, channelName(data.Channels), formatDuration(data.AudioLen))
	}
	snap := data.Snapshot
	fmt.Fprintf(w, "Finished: %s\n", snap.End.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Monitored: %s (%d readings)\n", formatDuration(snap.Duration), snap.Readings)
	fmt.Fprintln(w, "")
}

// writeLevelSummary outputs the First Half / Second Half / Session table.
// All values are calibrated display units.
func writeLevelSummary(w io.Writer, snap monitor.StatsSnapshot) {
	writeSection(w, "Level Summary")

	if snap.Readings == 0 {
		fmt.Fprintln(w, "No readings arrived - nothing to summarise")
		fmt.Fprintln(w, "")
		return
	}

	drift := snap.SecondHalfMean - snap.FirstHalfMean

	table := NewMetricTable()
	table.AddMetricRow("Mean Level", snap.FirstHalfMean, snap.SecondHalfMean, snap.Mean, 1, "", interpretDrift(drift))
	table.AddRow("Lowest",
		[]string{MissingValue, MissingValue, formatMetric(snap.Min, 1)}, "", "")
	table.AddRow("Highest",
		[]string{MissingValue, MissingValue, formatMetric(snap.Max, 1)}, "", "")
	table.AddRow("Held Peak",
		[]string{MissingValue, MissingValue, formatMetric(snap.Peak, 1)}, "", interpretPeak(snap.Peak))

	clipNote := ""
	if snap.Clips > 0 {
		clipNote = "input ran too hot"
	}
	table.AddRow("Clipped Periods",
		[]string{MissingValue, MissingValue, formatCount(snap.Clips)}, "", clipNote)

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

// writeBandOccupancy outputs the share of attributed time each band held,
// plus the transition count that moved the level between them.
func writeBandOccupancy(w io.Writer, snap monitor.StatsSnapshot) {
	writeSection(w, "Band Occupancy")

	var total time.Duration
	nameWidth := 0
	for _, o := range snap.Occupancy {
		total += o.Time
		if len(o.Band) > nameWidth {
			nameWidth = len(o.Band)
		}
	}
	if total <= 0 {
		fmt.Fprintln(w, "No band time recorded")
		fmt.Fprintln(w, "")
		return
	}

	for _, o := range snap.Occupancy {
		frac := float64(o.Time) / float64(total)
		filled := int(math.Round(frac * occupancyBarWidth))
		bar := strings.Repeat("█", filled) + strings.Repeat("░", occupancyBarWidth-filled)
		fmt.Fprintf(w, "%-*s  %5.1f%%  %s  %s\n",
			nameWidth, o.Band, frac*100, bar, formatDuration(o.Time))
	}
	fmt.Fprintf(w, "Transitions played: %d\n", snap.Transitions)
	fmt.Fprintln(w, "")
}

// writeEscalation outputs the meltdown accounting.
func writeEscalation(w io.Writer, snap monitor.StatsSnapshot) {
	writeSection(w, "Escalation")

	if snap.Escalations == 0 {
		fmt.Fprintln(w, "✓ No meltdowns - the room never held the top band past the fuse")
		fmt.Fprintln(w, "")
		return
	}

	fmt.Fprintf(w, "⚠ Meltdowns:      %d\n", snap.Escalations)
	share := ""
	if snap.Duration > 0 {
		share = fmt.Sprintf(" (%.1f%% of the session)",
			float64(snap.MeltdownTime)/float64(snap.Duration)*100)
	}
	fmt.Fprintf(w, "Time in meltdown: %s%s\n", formatDuration(snap.MeltdownTime), share)
	if snap.MeltdownActive {
		fmt.Fprintln(w, "Still in meltdown when the session ended")
	}
	fmt.Fprintln(w, "")
}

// writeSessionTips outputs the prioritised advice list, wrapped for the
// report column width.
func writeSessionTips(w io.Writer, snap monitor.StatsSnapshot) {
	writeSection(w, "Session Tips")

	tips := SessionTips(snap)
	if len(tips) == 0 {
		fmt.Fprintln(w, "Nothing to suggest")
		fmt.Fprintln(w, "")
		return
	}

	for i, tip := range tips {
		lead := fmt.Sprintf("%d. ", i+1)
		indent := strings.Repeat(" ", len(lead))
		fmt.Fprintf(w, "%s%s\n", lead, wrapText(tip.Message, reportWidth-len(lead), indent))
	}
	fmt.Fprintln(w, "")
}

// writeFootprint appends what the monitor itself cost. The numbers are
// cosmetic, so lookup failures degrade to a note instead of an error.
func writeFootprint(w io.Writer) {
	writeSection(w, "Process Footprint")

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		fmt.Fprintf(w, "Unavailable: %v\n", err)
		return
	}
	if times, err := proc.Times(); err == nil {
		fmt.Fprintf(w, "CPU time: %.2fs user, %.2fs system\n", times.User, times.System)
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		fmt.Fprintf(w, "Memory:   %.1f MiB resident\n", float64(mem.RSS)/(1024*1024))
	}
}

// interpretDrift describes how the room moved between the session halves.
// The 2-unit margin absorbs normal metering wobble; beyond 6 units the
// change is worth flagging loudly.
func interpretDrift(delta float64) string {
	switch {
	case math.IsNaN(delta):
		return ""
	case delta < -6:
		return "settled right down"
	case delta < -2:
		return "eased off"
	case delta <= 2:
		return "held steady"
	case delta <= 6:
		return "crept up"
	default:
		return "got markedly louder"
	}
}

// interpretPeak places the held session peak against the default band
// layout (quiet < 75, lively < 85, loud < 95, rowdy above).
func interpretPeak(peak float64) string {
	switch {
	case math.IsNaN(peak):
		return ""
	case peak < 75:
		return "never left the quiet band"
	case peak < 85:
		return "peaked in the lively band"
	case peak < 95:
		return "reached the loud band"
	case peak < 105:
		return "hit the top band"
	default:
		return "pinned the meter"
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}
