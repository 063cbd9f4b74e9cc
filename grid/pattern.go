package grid

import (
	"padseq/codec"
	"padseq/debug"
	"padseq/engine"
	"padseq/midi"
	"padseq/project"
)

// Pattern editor views, selected with the scene buttons. Scene 3 is
// unused; scenes 4-8 edit controller lanes 0-4.
const (
	viewNotes    = 0
	viewChords   = 1
	viewControls = 3
)

const (
	// percussionTone is the pitch a percussion step is entered with.
	percussionTone = 61
	// offKey is the keyboard pad that enters a note-off.
	offKey = 31
)

// keyboard maps keyboard pads (two rows per octave) to semitones 1-13.
// Pads 0, 3 and 7 are the gaps between the black keys and enter silence.
var keyboard = [16]int{0, 2, 4, 0, 7, 9, 11, 0, 1, 3, 5, 6, 8, 10, 12, 13}

var octaveColors = [...]int{0x020, 0x030, 0x031, 0x032, 0x033, 0x023, 0x013, 0x002, 0x001}

// chordPresets are the chord pads 40-47 of the chord view: major, minor,
// diminished, augmented, dominant 7, minor 7, major 7, diminished 7.
var chordPresets = [8]project.Chord{
	{4, 7, project.NoChord},
	{3, 7, project.NoChord},
	{3, 6, project.NoChord},
	{4, 8, project.NoChord},
	{4, 7, 10},
	{3, 7, 10},
	{4, 7, 11},
	{3, 6, 9},
}

var noChord = project.Chord{project.NoChord, project.NoChord, project.NoChord}

const (
	chordRow   = 40
	triggerRow = 56
)

// Pattern edits one pattern. The top four rows are its 32 steps; holding
// a step and pressing a pad in the bottom four rows edits that step in
// the current view:
//
//	notes     a two octave keyboard for melodic tracks (button 63 is
//	          note off), a step toggle for percussion
//	chords    chord presets on row 6, triggers on buttons 56-58, other
//	          pads clear the chord; without a held step a chord auditions
//	controls  button 32 unsets the lane, 33-63 are a 31 column dial
//
// Up/Down change the keyboard octave, or transpose the pattern while
// User 1 is held. Right plays the pattern, recording once User 2 armed it.
type Pattern struct {
	project   *project.Project
	transport Transport
	track     int
	pattern   int

	view       int
	step       int // held step, -1 for none
	shift      bool
	record     bool
	previewing bool
}

func NewPattern(p *project.Project, t Transport, track, pattern int) *Pattern {
	return &Pattern{project: p, transport: t, track: track, pattern: pattern, step: -1}
}

func (pg *Pattern) data() (*project.Track, *project.Pattern) {
	t := pg.project.Tracks[pg.track]
	return t, t.Patterns[pg.pattern]
}

func (pg *Pattern) melodic() bool {
	t, _ := pg.data()
	return t.Kind == project.Melodic
}

func (pg *Pattern) Handle(ev midi.ButtonEvent) bool {
	b := ev.Button
	if !ev.Pressed {
		switch {
		case b == pg.step:
			pg.step = -1
			return true
		case b == midi.ButtonUser1 && pg.shift:
			pg.shift = false
			return true
		case b == midi.ButtonUser2 && pg.record:
			pg.record = false
			return true
		case pg.previewing && b >= chordRow && b < chordRow+8:
			pg.previewing = false
			pg.transport.ReleasePreview(pg.track)
			return true
		}
		return false
	}

	_, pat := pg.data()
	switch {
	case b < project.NumSteps:
		return pg.pressStep(b)
	case b < midi.ButtonScene1:
		return pg.pressEdit(b)
	case b < midi.ButtonUp:
		v := b - midi.ButtonScene1
		if v == 2 {
			return false
		}
		pg.view, pg.step = v, -1
		return true
	case b == midi.ButtonRight:
		pg.transport.StartOrStopPattern(pg.track, pg.pattern, pg.record)
		return true
	case b == midi.ButtonUser2 && !pg.transport.Playing():
		pg.record = true
		return true
	case b == midi.ButtonUser1 && pg.view == viewNotes && pg.melodic():
		pg.shift = true
		return true
	case (b == midi.ButtonUp || b == midi.ButtonDown) && pg.view == viewNotes && pg.melodic():
		d := 1
		if b == midi.ButtonDown {
			d = -1
		}
		if pg.shift {
			pat.Transpose(d)
			debug.Log("pattern", "transpose track %d pattern %d by %d", pg.track, pg.pattern, d)
		} else {
			pat.SetOctave(pat.Octave + d)
		}
		return true
	}
	return false
}

func (pg *Pattern) pressStep(s int) bool {
	_, pat := pg.data()
	n := &pat.Notes[s]
	switch {
	case pg.view == viewNotes && !pg.melodic():
		if n.Tone != project.Silence {
			n.Tone = project.Silence
		} else {
			n.Tone = percussionTone
		}
		return true
	case pg.step >= 0:
		return false
	case pg.view == viewChords && n.Tone <= 0:
		return false
	}
	pg.step = s
	return true
}

func (pg *Pattern) pressEdit(b int) bool {
	t, pat := pg.data()
	switch pg.view {
	case viewNotes:
		if !pg.melodic() || pg.step < 0 {
			return false
		}
		pat.Notes[pg.step].Tone = keyTone(b-project.NumSteps, pat.Octave)
		return true

	case viewChords:
		switch {
		case b >= chordRow && b < chordRow+8 && pg.step < 0:
			if t.Muted || pg.transport.Playing() {
				return false
			}
			pg.transport.Preview(pg.track, 1+pat.Octave*12, chordPresets[b-chordRow])
			pg.previewing = true
			return true
		case pg.step < 0:
			return false
		case b >= chordRow && b < chordRow+8:
			pat.Notes[pg.step].Chord = chordPresets[b-chordRow]
		case b >= triggerRow && b < triggerRow+3:
			pat.Notes[pg.step].SetTrigger(b - triggerRow)
		default:
			pat.Notes[pg.step].Chord = noChord
		}
		return true

	default:
		if pg.step < 0 {
			return false
		}
		lane := &pat.Notes[pg.step].Control[pg.view-viewControls]
		if b == project.NumSteps {
			*lane = project.NoControl
		} else {
			*lane = codec.Control.Cycle(*lane, b-project.NumSteps-1)
		}
		return true
	}
}

// keyTone is the tone of keyboard pad n (0-31) at an octave: silence for
// the gaps, a note-off for the last pad.
func keyTone(n, octave int) int {
	if n == offKey {
		return project.NoteOff
	}
	semi := keyboard[n%16]
	if semi == 0 {
		return project.Silence
	}
	t := semi + 12*(octave+n/16)
	if t > project.MaxTone {
		return project.Silence
	}
	return t
}

// playhead is the first step of the playing beat, or -1.
func (pg *Pattern) playhead(ui engine.UIState) int {
	if ui.Playing <= 0 || ui.Pattern[pg.track] != engine.Slot(pg.pattern) {
		return -1
	}
	tick := pg.transport.Tick() - 1
	if tick < 0 {
		return -1
	}
	return (tick / engine.TicksPerBeat % 8) * engine.TicksPerBeat
}

func (pg *Pattern) Render(leds LEDs, ui engine.UIState) {
	_, pat := pg.data()
	head := pg.playhead(ui)
	for s := range project.NumSteps {
		c := pg.stepColor(&pat.Notes[s])
		if s == pg.step {
			c = midi.ColorAmber
		}
		if s == head {
			c |= midi.Blink
		}
		leds.Set(s, c)
	}
	for i := project.NumSteps; i < midi.ButtonScene1; i++ {
		leds.Set(i, midi.ColorOff)
	}

	var held *project.Note
	if pg.step >= 0 {
		held = &pat.Notes[pg.step]
	}
	switch {
	case pg.view == viewNotes && pg.melodic():
		for n := range 32 {
			leds.Set(project.NumSteps+n, keyColor(n, pat.Octave, held))
		}
	case pg.view == viewChords:
		for i, chord := range chordPresets {
			c := midi.ColorGreen
			if held != nil && held.Chord == chord {
				c |= midi.Blink
			}
			leds.Set(chordRow+i, c)
		}
		for i := range 3 {
			c := midi.ColorDimGreen
			if held != nil && held.Trigger == i {
				c = midi.ColorGreen
			}
			leds.Set(triggerRow+i, c)
		}
	case pg.view >= viewControls && held != nil:
		v := held.Control[pg.view-viewControls]
		unset := midi.ColorRed
		if !project.IsSet(v) {
			unset |= midi.Blink
		}
		leds.Set(project.NumSteps, unset)
		c, l := codec.Control.Encode(v)
		fader(leds, project.NumSteps+1, codec.Control.Columns(), c, l, midi.ColorAmber)
	}

	for i := range 8 {
		c := midi.ColorGreen
		switch {
		case i == pg.view:
			c = midi.ColorAmber
		case i == 2:
			c = midi.ColorOff
		}
		leds.Set(midi.ButtonScene1+i, c)
	}

	notes := pg.view == viewNotes && pg.melodic()
	switch {
	case !notes:
		leds.Set(midi.ButtonUp, midi.ColorOff)
		leds.Set(midi.ButtonDown, midi.ColorOff)
		leds.Set(midi.ButtonUser1, midi.ColorOff)
	case pg.shift:
		leds.Set(midi.ButtonUp, midi.ColorAmber)
		leds.Set(midi.ButtonDown, midi.ColorAmber)
		leds.Set(midi.ButtonUser1, midi.ColorAmber)
	default:
		leds.Set(midi.ButtonUp, canColor(pat.Octave < project.MaxOctave))
		leds.Set(midi.ButtonDown, canColor(pat.Octave > 0))
		leds.Set(midi.ButtonUser1, midi.ColorGreen)
	}
	track, pattern, recording := pg.transport.Recording()
	recording = recording && track == pg.track && pattern == pg.pattern
	leds.Set(midi.ButtonUser2, recordColor(recording, pg.transport.Playing(), pg.record))
}

func (pg *Pattern) stepColor(n *project.Note) int {
	switch {
	case pg.view == viewNotes:
		switch {
		case n.Tone == project.NoteOff:
			return midi.ColorRed
		case n.Tone > 0:
			return midi.ColorGreen
		}
	case pg.view == viewChords:
		switch {
		case n.Tone <= 0:
		case n.Chord != noChord:
			return midi.ColorYellow
		case n.Trigger > 0:
			return midi.ColorOrange
		default:
			return midi.ColorDimRed
		}
	default:
		set := project.IsSet(n.Control[pg.view-viewControls])
		switch {
		case set && n.Tone > 0:
			return midi.ColorYellow
		case set:
			return midi.ColorGreen
		case n.Tone > 0:
			return midi.ColorDimRed
		}
	}
	return midi.ColorOff
}

// keyColor colours keyboard pad n by octave; the key of the held step
// blinks.
func keyColor(n, octave int, held *project.Note) int {
	tone := keyTone(n, octave)
	c := midi.ColorOff
	switch {
	case n == offKey:
		c = midi.ColorRed
	case tone != project.Silence:
		c = octaveColors[min(octave+n/16, len(octaveColors)-1)]
	}
	if held != nil && tone != project.Silence && held.Tone == tone {
		c |= midi.Blink
	}
	return c
}

func canColor(ok bool) int {
	if ok {
		return midi.ColorGreen
	}
	return midi.ColorOff
}
