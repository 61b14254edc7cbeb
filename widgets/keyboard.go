package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tonebox/synth"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns e.g. "A4" for pitch 69
func NoteName(pitch uint8) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], int(pitch)/12-1)
}

// KeyStyle says how each key state is drawn
type KeyStyle struct {
	Idle, Held, Releasing             [3]uint8
	IdleRune, HeldRune, ReleasingRune rune
}

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8, r rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(string(r))
}

// RenderKeyboard draws octaves lo..hi (MIDI octave numbers, -1..9) as rows
// of twelve pads, highest octave on top.
func RenderKeyboard(held, sounding [2]uint64, lo, hi int, style KeyStyle) string {
	var lines []string
	for oct := hi; oct >= lo; oct-- {
		var line strings.Builder
		fmt.Fprintf(&line, "C%-2d ", oct)
		for n := 0; n < 12; n++ {
			p := (oct+1)*12 + n
			if p < 0 || p >= synth.NumPitches {
				line.WriteString("  ")
				continue
			}
			pitch := uint8(p)
			switch {
			case synth.Pressed(held, pitch):
				line.WriteString(RenderPad(style.Held, style.HeldRune))
			case synth.Pressed(sounding, pitch):
				line.WriteString(RenderPad(style.Releasing, style.ReleasingRune))
			default:
				line.WriteString(RenderPad(style.Idle, style.IdleRune))
			}
			line.WriteString(" ")
		}
		lines = append(lines, strings.TrimRight(line.String(), " "))
	}
	return strings.Join(lines, "\n")
}

// HeldNames lists the names of held pitches, lowest first
func HeldNames(held [2]uint64) []string {
	var names []string
	for p := 0; p < synth.NumPitches; p++ {
		if synth.Pressed(held, uint8(p)) {
			names = append(names, NoteName(uint8(p)))
		}
	}
	return names
}

// RenderMeter draws a horizontal level bar; level is clipped to [0, 1]
func RenderMeter(level float64, width int, full, empty rune, color [3]uint8) string {
	level = math.Max(0, math.Min(level, 1))
	n := int(math.Round(level * float64(width)))
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color))).Render(strings.Repeat(string(full), n))
	return bar + strings.Repeat(string(empty), width-n)
}

// KeyBinding is a single key and what it does
type KeyBinding struct {
	Key  string
	Desc string
}

// KeySection groups bindings that are drawn together
type KeySection []KeyBinding

// RenderKeyHelp renders bindings as one "key:desc" line, two spaces between
// bindings and a " | " between sections. keyColor styles the keys.
func RenderKeyHelp(sections []KeySection, keyColor [3]uint8) string {
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(keyColor)))
	var groups []string
	for _, sec := range sections {
		if len(sec) == 0 {
			continue
		}
		parts := make([]string, len(sec))
		for i, k := range sec {
			parts[i] = keyStyle.Render(k.Key) + ":" + k.Desc
		}
		groups = append(groups, strings.Join(parts, "  "))
	}
	return strings.Join(groups, " | ")
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
