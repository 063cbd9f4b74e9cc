// Package widgets renders Launchpad state in the terminal.
package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"padseq/midi"
)

var offColor = [3]uint8{48, 48, 48}

// LEDColor converts a 0x0GR button colour to RGB. Blinking colours show
// dark when blinkOn is false.
func LEDColor(color int, blinkOn bool) [3]uint8 {
	if color&midi.Blink != 0 && !blinkOn {
		return offColor
	}
	r, g := color&0x3, (color>>4)&0x3
	if r == 0 && g == 0 {
		return offColor
	}
	return [3]uint8{uint8(r * 85), uint8(g * 85), 0}
}

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(string(symbol))
}

// RenderLaunchpad draws the top buttons above the 8x8 grid with the
// scene buttons on the right, like the device.
func RenderLaunchpad(leds [midi.NumButtons]int, blinkOn bool, symbol rune) string {
	pad := func(b int) string { return RenderPad(LEDColor(leds[b], blinkOn), symbol) }

	var lines []string
	var top strings.Builder
	for i := range 8 {
		if i > 0 {
			top.WriteString(" ")
		}
		top.WriteString(pad(midi.ButtonUp + i))
	}
	lines = append(lines, top.String())

	for row := range 8 {
		var line strings.Builder
		for col := range 8 {
			line.WriteString(pad(row*8 + col))
			line.WriteString(" ")
		}
		line.WriteString(" ")
		line.WriteString(pad(midi.ButtonScene1 + row))
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
