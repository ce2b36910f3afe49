// Console summary for headless runs: the report's numbers without the file.

package logging

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// WriteSummary prints the end-of-session summary to the console.
// Used by --headless mode where no terminal UI ran during the session.
func WriteSummary(w io.Writer, data ReportData) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "SESSION: %s\n", data.Source)
	fmt.Fprintln(w, strings.Repeat("=", 70))

	snap := data.Snapshot
	fmt.Fprintf(w, "Monitored:   %s (%d readings)\n", formatDuration(snap.Duration), snap.Readings)
	if data.SampleRate > 0 {
		fmt.Fprintf(w, "Sample Rate: %d Hz\n", data.SampleRate)
		fmt.Fprintf(w, "Channels:    %s\n", channelName(data.Channels))
	}
	fmt.Fprintln(w)

	if snap.Readings == 0 {
		fmt.Fprintln(w, "No readings arrived")
		return
	}

	writeSummarySection(w, "LEVELS")
	drift := snap.SecondHalfMean - snap.FirstHalfMean
	fmt.Fprintf(w, "  Mean:       %.1f (%s)\n", snap.Mean, interpretDrift(drift))
	fmt.Fprintf(w, "  Halves:     %.1f → %.1f\n", snap.FirstHalfMean, snap.SecondHalfMean)
	fmt.Fprintf(w, "  Span:       %.1f to %.1f\n", snap.Min, snap.Max)
	fmt.Fprintf(w, "  Held Peak:  %.1f (%s)\n", snap.Peak, interpretPeak(snap.Peak))
	if snap.Clips > 0 {
		fmt.Fprintf(w, "  Clipped:    %d reading period(s)\n", snap.Clips)
	}
	fmt.Fprintln(w)

	writeSummarySection(w, "BANDS")
	var total time.Duration
	nameWidth := 0
	for _, o := range snap.Occupancy {
		total += o.Time
		if len(o.Band) > nameWidth {
			nameWidth = len(o.Band)
		}
	}
	if total > 0 {
		for _, o := range snap.Occupancy {
			frac := float64(o.Time) / float64(total)
			filled := int(math.Round(frac * occupancyBarWidth))
			bar := strings.Repeat("█", filled) + strings.Repeat("░", occupancyBarWidth-filled)
			fmt.Fprintf(w, "  %-*s %5.1f%%  %s\n", nameWidth+1, o.Band+":", frac*100, bar)
		}
	} else {
		fmt.Fprintln(w, "  No band time recorded")
	}
	fmt.Fprintf(w, "  Transitions: %d\n", snap.Transitions)
	fmt.Fprintln(w)

	writeSummarySection(w, "ESCALATION")
	if snap.Escalations == 0 {
		fmt.Fprintln(w, "  No meltdowns")
	} else {
		fmt.Fprintf(w, "  Meltdowns:  %d\n", snap.Escalations)
		fmt.Fprintf(w, "  Time held:  %s\n", formatDuration(snap.MeltdownTime))
		if snap.MeltdownActive {
			fmt.Fprintln(w, "  Still in meltdown at session end")
		}
	}
	fmt.Fprintln(w)

	tips := SessionTips(snap)
	if len(tips) > 0 {
		writeSummarySection(w, "TIPS")
		for _, tip := range tips {
			fmt.Fprintf(w, "  - %s\n", wrapText(tip.Message, 66, "    "))
		}
	}
}

// writeSummarySection writes a section header for console output.
func writeSummarySection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}
