package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	// meterFloor and meterCeil bound the visible meter range in display
	// units; levels outside pin to the ends.
	meterFloor = 40.0
	meterCeil  = 110.0
	meterWidth = 42

	mascotWidth = 26
)

// renderSessionView renders the live monitoring view.
func renderSessionView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderMascot(m))
	b.WriteString("\n")

	b.WriteString(renderMeter(m))
	b.WriteString("\n")

	if m.meltdown {
		b.WriteString("\n")
		b.WriteString(renderMeltdownBanner())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render("q to quit")
	b.WriteString(hint)

	return b.String()
}

// renderHeader renders the application header.
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#D78700")).
		Render("Hushpuppy 🐶 - Studio Loudness Monitor")

	status := "Waiting for audio..."
	if m.haveReading {
		status = fmt.Sprintf("Session %s", formatElapsed(m.elapsed))
	}
	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(status)

	return title + "\n" + subtitle
}

// renderMascot renders the dog in a box tinted with the ramp colour.
func renderMascot(m Model) string {
	tint := m.background
	if tint == "" {
		tint = "#888888"
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(tint)).
		Padding(0, 2).
		Width(mascotWidth)

	frame := ""
	if len(m.clip.Frames) > 0 {
		frame = m.clip.Frames[m.frame]
	}

	label := ""
	if m.clip.Name != "" {
		swatch := lipgloss.NewStyle().
			Foreground(lipgloss.Color(tint)).
			Render("██")
		state := lipgloss.NewStyle().Bold(true).Render(m.clip.Name)
		label = fmt.Sprintf(" %s %s", swatch, state)
		if m.bandName != "" {
			label += lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Render(" · " + m.bandName)
		}
	}

	return box.Render(frame) + "\n" + label
}

// renderMeter renders the level bar with its peak marker.
func renderMeter(m Model) string {
	if !m.haveReading {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444444")).
			Render(strings.Repeat("░", meterWidth))
	}

	bar := renderLevelBar(m.level, m.peak, meterWidth)
	line := fmt.Sprintf("%s %5.1f", bar, m.level)
	if m.clipped {
		clip := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#C62828")).
			Render(" CLIP")
		line += clip
	}
	return line
}

// renderLevelBar draws level as a filled bar across the visible range,
// with the held peak as a tick mark.
func renderLevelBar(level, peak float64, width int) string {
	pos := func(v float64) int {
		frac := (v - meterFloor) / (meterCeil - meterFloor)
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		return int(frac * float64(width-1))
	}

	bar := make([]rune, width)
	filled := pos(level)
	for i := range bar {
		if i <= filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	if p := pos(peak); p > filled {
		bar[p] = '┃'
	}
	return string(bar)
}

// renderMeltdownBanner renders the sustained-overload warning.
func renderMeltdownBanner() string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#C62828")).
		Padding(0, 1).
		Render("🔥 TOO LOUD FOR TOO LONG! Settle the room to calm the dog")
}

// renderGoodbye renders the end-of-session screen.
func renderGoodbye(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AA00")).
		Render("Session complete")
	if m.Err != nil {
		header = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#C62828")).
			Render(fmt.Sprintf("Session ended: %v", m.Err))
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	if m.haveReading {
		b.WriteString(fmt.Sprintf("Monitored %s of audio.\n", formatElapsed(m.elapsed)))
	}
	b.WriteString("Writing the session report...\n")

	return b.String()
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
