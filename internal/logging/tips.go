package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/linuxmatters/hushpuppy/internal/monitor"
)

// Tip is a single piece of actionable advice derived from the session
// statistics.
type Tip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "input_clipping")
}

// MaxSessionTips is the maximum number of tips to return.
const MaxSessionTips = 5

// Display-unit reference points for the tip thresholds, aligned with the
// default band layout (quiet < 75, lively < 85, loud < 95, rowdy above).
const (
	// tipQuietMeanCeiling: a session mean below this counts as a calm room.
	tipQuietMeanCeiling = 72.0
	// tipCalibLowCeiling: a session max that never came within reach of the
	// lively band suggests the calibration offset is set too low.
	tipCalibLowCeiling = 65.0
	// tipCalibHighFloor: a session min that never left the top band
	// suggests the offset is set too high.
	tipCalibHighFloor = 95.0
	// tipTopBandShare: fraction of the session in the topmost band beyond
	// which the thresholds probably need raising.
	tipTopBandShare = 0.25
	// tipRisingDelta: first-half to second-half mean increase worth a
	// warning, in display units.
	tipRisingDelta = 8.0
	// tipChurnPerMinute: transitions per minute beyond which the level is
	// likely hovering on a band edge.
	tipChurnPerMinute = 6.0
)

// SessionTips analyses a finished session and returns prioritised advice
// about the room, the capture chain, and the band configuration. An empty
// session yields no tips.
func SessionTips(snap monitor.StatsSnapshot) []Tip {
	if snap.Readings == 0 {
		return nil
	}

	var tips []Tip
	fired := make(map[string]bool)

	rules := []func(monitor.StatsSnapshot) *Tip{
		tipMeltdowns,
		tipTopBandDominant,
		tipClipping,
		tipCalibrationLow,
		tipCalibrationHigh,
		tipLevelRising,
		tipBoundaryChurn,
		tipQuietRoom,
	}

	for _, rule := range rules {
		if tip := rule(snap); tip != nil {
			tips = append(tips, *tip)
			fired[tip.RuleID] = true
		}
	}

	// Apply mutual exclusion
	tips = applyExclusions(tips, fired)

	// Sort by priority (descending)
	sort.Slice(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	// Cap at maximum
	if len(tips) > MaxSessionTips {
		tips = tips[:MaxSessionTips]
	}

	return tips
}

// applyExclusions removes tips that are redundant when a more specific tip
// has already fired. For example, "quiet_room" is suppressed when
// "calibration_low" fires because the latter already explains why every
// reading sat at the bottom of the scale.
func applyExclusions(tips []Tip, fired map[string]bool) []Tip {
	var result []Tip
	for _, tip := range tips {
		switch tip.RuleID {
		case "quiet_room":
			if fired["calibration_low"] {
				continue
			}
		case "top_band_dominant":
			if fired["calibration_high"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipMeltdowns fires whenever the tracker escalated at least once: the room
// held the top band past the fuse, which is the one condition the monitor
// exists to catch.
func tipMeltdowns(snap monitor.StatsSnapshot) *Tip {
	if snap.Escalations == 0 {
		return nil
	}
	times := "once"
	if snap.Escalations > 1 {
		times = fmt.Sprintf("%d times", snap.Escalations)
	}
	return &Tip{
		Priority: 10,
		RuleID:   "meltdowns",
		Message: fmt.Sprintf("The room melted down %s, spending %s above the top threshold. Plan a break when the banner appears, or move the loudest activity further from the microphone.",
			times, formatDuration(snap.MeltdownTime)),
	}
}

// tipTopBandDominant fires when the topmost band holds more than
// tipTopBandShare of the attributed session time. Either the space really
// is that loud or the thresholds are set too low for it.
func tipTopBandDominant(snap monitor.StatsSnapshot) *Tip {
	var total, top time.Duration
	topPos := -1
	for _, o := range snap.Occupancy {
		total += o.Time
		if o.Pos > topPos {
			topPos = o.Pos
			top = o.Time
		}
	}
	if total <= 0 {
		return nil
	}
	share := float64(top) / float64(total)
	if share <= tipTopBandShare {
		return nil
	}
	return &Tip{
		Priority: 9,
		RuleID:   "top_band_dominant",
		Message: fmt.Sprintf("The loudest band accounted for %.0f%% of the session. If that is business as usual for this space, raise the band thresholds so the scale has somewhere left to go.",
			share*100),
	}
}

// tipClipping fires when any reading period contained full-scale samples.
// Clipped input is unmeasurable input, so this outranks every calibration
// tip except an actual meltdown.
func tipClipping(snap monitor.StatsSnapshot) *Tip {
	if snap.Clips == 0 {
		return nil
	}
	return &Tip{
		Priority: 8,
		RuleID:   "input_clipping",
		Message: fmt.Sprintf("The input clipped during %d reading period(s) - the capture chain is running too hot. Turn the microphone gain down so the loud moments stay measurable.",
			snap.Clips),
	}
}

// tipCalibrationLow fires when even the session maximum stayed well short
// of the lively band: either the room was dead silent throughout or the
// calibration offset is mapping everything to the bottom of the scale.
func tipCalibrationLow(snap monitor.StatsSnapshot) *Tip {
	if snap.Max >= tipCalibLowCeiling {
		return nil
	}
	return &Tip{
		Priority: 6,
		RuleID:   "calibration_low",
		Message: fmt.Sprintf("Readings never came within reach of the lively band (session max %.0f). If the room was not actually silent, raise calibration.offset or enable auto calibration.",
			snap.Max),
	}
}

// tipCalibrationHigh is the opposite failure: the quietest reading of the
// whole session still classified into the top band, so the bands cannot
// tell loud from quiet.
func tipCalibrationHigh(snap monitor.StatsSnapshot) *Tip {
	if snap.Min <= tipCalibHighFloor {
		return nil
	}
	return &Tip{
		Priority: 6,
		RuleID:   "calibration_high",
		Message: fmt.Sprintf("Even the quietest reading (%.0f) sat in the top band. Lower calibration.offset or enable auto calibration so the scale can spread out.",
			snap.Min),
	}
}

// tipLevelRising fires when the second half of the session ran markedly
// louder than the first. A quietening room needs no advice.
func tipLevelRising(snap monitor.StatsSnapshot) *Tip {
	delta := snap.SecondHalfMean - snap.FirstHalfMean
	if !(delta > tipRisingDelta) {
		return nil
	}
	return &Tip{
		Priority: 5,
		RuleID:   "level_rising",
		Message: fmt.Sprintf("The room got noticeably louder as the session went on (+%.0f between halves). Watch for creeping gain, or for a crowd warming up.",
			delta),
	}
}

// tipBoundaryChurn fires when the mascot changed state unusually often,
// which usually means the level is hovering right on a band edge. Short
// sessions are skipped because a per-minute rate means nothing there.
func tipBoundaryChurn(snap monitor.StatsSnapshot) *Tip {
	if snap.Duration < time.Minute {
		return nil
	}
	rate := float64(snap.Transitions) / snap.Duration.Minutes()
	if rate <= tipChurnPerMinute {
		return nil
	}
	return &Tip{
		Priority: 4,
		RuleID:   "boundary_churn",
		Message: fmt.Sprintf("The mascot changed state about %.0f times a minute - the level is hovering on a band edge. Widening that band would calm the animation down.",
			rate),
	}
}

// tipQuietRoom is the good-news tip: a calm session with no meltdowns and
// no clipping deserves saying so.
func tipQuietRoom(snap monitor.StatsSnapshot) *Tip {
	if snap.Mean >= tipQuietMeanCeiling || snap.Escalations > 0 || snap.Clips > 0 {
		return nil
	}
	return &Tip{
		Priority: 2,
		RuleID:   "quiet_room",
		Message: fmt.Sprintf("A calm session: mean level %.0f with no meltdowns and no clipping. Whatever you told the room, keep telling it.",
			snap.Mean),
	}
}
