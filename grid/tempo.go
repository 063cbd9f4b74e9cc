package grid

import (
	"padseq/codec"
	"padseq/engine"
	"padseq/midi"
	"padseq/project"
)

// latencyDial spreads -48..48 ms over the 16 pads of the bottom two rows.
const latencyDial = codec.Resolution(48)

// Tempo shows the tempo as digits on the top five rows, the swing dial
// on row 6 and the latency dial on rows 7-8.
//
//	Up/Down   tempo +1/-1     scene 1/2  tempo +10/-10
//	scene 3/4 swing +1/-1     scene 7/8  latency +1/-1
type Tempo struct {
	project *project.Project
}

func NewTempo(p *project.Project) *Tempo {
	return &Tempo{project: p}
}

const (
	swingRow   = 40
	latencyRow = 48
)

func (t *Tempo) Handle(ev midi.ButtonEvent) bool {
	if !ev.Pressed {
		return false
	}
	p := t.project
	b := ev.Button
	switch {
	case b == midi.ButtonUp:
		p.SetTempo(p.Tempo + 1)
	case b == midi.ButtonDown:
		p.SetTempo(p.Tempo - 1)
	case b == midi.ButtonScene1:
		p.SetTempo(p.Tempo + 10)
	case b == midi.ButtonScene1+1:
		p.SetTempo(p.Tempo - 10)
	case b == midi.ButtonScene1+2:
		p.SetSwing(p.Swing + 1)
	case b == midi.ButtonScene1+3:
		p.SetSwing(p.Swing - 1)
	case b == midi.ButtonScene1+6:
		p.SetLatency(p.Latency + 1)
	case b == midi.ButtonScene1+7:
		p.SetLatency(p.Latency - 1)
	case b >= swingRow && b < latencyRow:
		p.SetSwing(codec.Swing.Cycle(codec.Volume, p.Swing, b-swingRow))
	case b >= latencyRow && b < midi.ButtonScene1:
		p.SetLatency(codec.Latency.Cycle(latencyDial, p.Latency, b-latencyRow))
	default:
		return false
	}
	return true
}

func (t *Tempo) Render(leds LEDs, ui engine.UIState) {
	p := t.project
	drawDigit(leds, 0, digits2[p.Tempo/100%3], midi.ColorAmber)
	drawDigit(leds, 2, digits3[p.Tempo/10%10], midi.ColorGreen)
	drawDigit(leds, 5, digits3[p.Tempo%10], midi.ColorRed)

	c, l := codec.Swing.Encode(codec.Volume, p.Swing)
	fader(leds, swingRow, 8, c, l, midi.ColorYellow)
	c, l = codec.Latency.Encode(latencyDial, p.Latency)
	fader(leds, latencyRow, 16, c, l, midi.ColorGreen)

	leds.Set(midi.ButtonScene1, canColor(p.Tempo < project.MaxTempo))
	leds.Set(midi.ButtonScene1+1, canColor(p.Tempo > project.MinTempo))
	leds.Set(midi.ButtonScene1+2, canColor(p.Swing < codec.Swing.Max))
	leds.Set(midi.ButtonScene1+3, canColor(p.Swing > codec.Swing.Min))
	leds.Set(midi.ButtonScene1+4, midi.ColorOff)
	leds.Set(midi.ButtonScene1+5, midi.ColorOff)
	leds.Set(midi.ButtonScene1+6, canColor(p.Latency < codec.Latency.Max))
	leds.Set(midi.ButtonScene1+7, canColor(p.Latency > codec.Latency.Min))
	leds.Set(midi.ButtonUp, canColor(p.Tempo < project.MaxTempo))
	leds.Set(midi.ButtonDown, canColor(p.Tempo > project.MinTempo))
	leds.Set(midi.ButtonUser1, midi.ColorOff)
	leds.Set(midi.ButtonUser2, midi.ColorOff)
}

// drawDigit paints a glyph into the top five rows starting at column col.
func drawDigit(leds LEDs, col int, glyph []string, color int) {
	for r, line := range glyph {
		for c, ch := range line {
			led := midi.ColorOff
			if ch == '*' {
				led = color
			}
			leds.Set(r*8+col+c, led)
		}
	}
}

// Hundreds are 0-2 and two pads wide; a leading zero stays dark.
var digits2 = [3][]string{
	{"  ", "  ", "  ", "  ", "  "},
	{"* ", "* ", "* ", "* ", "* "},
	{"**", " *", "**", "* ", "**"},
}

var digits3 = [10][]string{
	{"***", "* *", "* *", "* *", "***"},
	{" * ", " * ", " * ", " * ", " * "},
	{"***", "  *", "***", "*  ", "***"},
	{"***", "  *", "***", "  *", "***"},
	{"* *", "* *", "***", "  *", "  *"},
	{"***", "*  ", "***", "  *", "***"},
	{"***", "*  ", "***", "* *", "***"},
	{"***", "  *", "  *", "  *", "  *"},
	{"***", "* *", "***", "* *", "***"},
	{"***", "* *", "***", "  *", "***"},
}
