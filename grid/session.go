// Package grid maps Launchpad buttons onto the transport and paints the
// session state back onto the LEDs.
package grid

import (
	"slices"

	"padseq/debug"
	"padseq/engine"
	"padseq/midi"
	"padseq/project"
)

// LEDs receives button colours.
type LEDs interface {
	Set(button, color int)
}

// Transport is the part of the engine the pages drive.
type Transport interface {
	StartOrStopPattern(track, pattern int, record bool)
	StartOrStopSession()
	Playing() bool
	Recording() (track, pattern int, ok bool)
	Tick() int
	Preview(track, tone int, chord project.Chord)
	ReleasePreview(track int)
}

// Session is the clip page: one row per track, one column per pattern.
// A pad plays its pattern (recording once User 2 armed it) or, while a
// modifier is held, acts on it instead:
//
//	User 1  add to or remove from the song sequence
//	Up      copy: first pad is the source, the next the destination;
//	        pressing the source again clears it
//	Down    open the pattern editor
//
// Scene buttons mute tracks and Right plays the song.
type Session struct {
	project   *project.Project
	transport Transport
	open      func(track, pattern int)

	record   bool
	sequence bool
	editing  bool
	copying  bool
	copyFrom int // pad of the copy source, -1 for none
}

func NewSession(p *project.Project, t Transport) *Session {
	return &Session{project: p, transport: t, copyFrom: -1}
}

// reset drops every held modifier, for when the page is shown again.
func (s *Session) reset() {
	s.record, s.sequence, s.editing, s.copying = false, false, false, false
	s.copyFrom = -1
}

// Handle applies a button event and reports whether anything changed.
func (s *Session) Handle(ev midi.ButtonEvent) bool {
	b := ev.Button
	if !ev.Pressed {
		switch {
		case b == midi.ButtonUser1 && s.sequence:
			s.sequence = false
			return true
		case b == midi.ButtonUser2 && s.record:
			s.record = false
			return true
		case b == midi.ButtonUp && s.copying:
			s.copying = false
			s.copyFrom = -1
			return true
		case b == midi.ButtonDown && s.editing:
			s.editing = false
			return true
		}
		return false
	}

	switch {
	case b < midi.ButtonScene1:
		track, pattern := b/8, b%8
		switch {
		case s.editing && s.open != nil:
			s.editing = false
			s.open(track, pattern)
		case s.copying:
			s.copyPad(b)
		case s.sequence:
			s.project.Tracks[track].ToggleSequence(pattern)
			debug.Log("session", "track %d sequence %v", track, s.project.Tracks[track].Sequence)
		default:
			s.transport.StartOrStopPattern(track, pattern, s.record)
		}
		return true
	case b < midi.ButtonUp:
		t := s.project.Tracks[b-midi.ButtonScene1]
		t.Muted = !t.Muted
		return true
	case b == midi.ButtonRight:
		s.transport.StartOrStopSession()
		return true
	case b == midi.ButtonUser1:
		s.reset()
		s.sequence = true
		return true
	case b == midi.ButtonUser2 && !s.transport.Playing():
		s.reset()
		s.record = true
		return true
	case b == midi.ButtonUp:
		s.reset()
		s.copying = true
		return true
	case b == midi.ButtonDown:
		s.reset()
		s.editing = true
		return true
	}
	return false
}

func (s *Session) copyPad(pad int) {
	track, pattern := pad/8, pad%8
	src := s.copyFrom
	if src < 0 {
		if !s.project.Tracks[track].Patterns[pattern].Empty() {
			s.copyFrom = pad
		}
		return
	}
	s.copyFrom = -1
	if src == pad {
		s.project.Tracks[track].Patterns[pattern].Clear()
		debug.Log("session", "cleared track %d pattern %d", track, pattern)
		return
	}
	if !s.project.CopyPattern(track, pattern, src/8, src%8) {
		debug.Log("session", "refused copy %d,%d -> %d,%d across kinds", src/8, src%8, track, pattern)
		return
	}
	debug.Log("session", "copied %d,%d -> %d,%d", src/8, src%8, track, pattern)
}

// Render paints the page. ui is the engine's published state.
func (s *Session) Render(leds LEDs, ui engine.UIState) {
	for r, t := range s.project.Tracks {
		for c, p := range t.Patterns {
			color := patternColor(t, c, p.Empty(), ui.Playing != 0 && ui.Pattern[r] == engine.Slot(c))
			if s.copying && s.copyFrom == r*8+c {
				color = midi.ColorAmber | midi.Blink
			}
			leds.Set(r*8+c, color)
		}
		scene := midi.ColorGreen
		if t.Muted {
			scene = midi.ColorDimRed
		}
		leds.Set(midi.ButtonScene1+r, scene)
	}

	switch {
	case s.copying && s.copyFrom >= 0:
		leds.Set(midi.ButtonUp, midi.ColorRed)
	case s.copying:
		leds.Set(midi.ButtonUp, midi.ColorAmber)
	default:
		leds.Set(midi.ButtonUp, midi.ColorGreen)
	}
	leds.Set(midi.ButtonDown, held(s.editing))
	leds.Set(midi.ButtonRight, playColor(ui.Playing))
	leds.Set(midi.ButtonSession, midi.ColorAmber)
	leds.Set(midi.ButtonUser1, held(s.sequence))
	_, _, recording := s.transport.Recording()
	leds.Set(midi.ButtonUser2, recordColor(recording, s.transport.Playing(), s.record))
}

func patternColor(t *project.Track, pattern int, empty, active bool) int {
	var c int
	inSequence := slices.Contains(t.Sequence, pattern)
	switch {
	case inSequence && empty:
		c = midi.ColorDimRed
	case inSequence:
		c = midi.ColorRed
	case empty:
		c = midi.ColorOff
	default:
		c = midi.ColorGreen
	}
	if active {
		c |= midi.Blink
	}
	return c
}
