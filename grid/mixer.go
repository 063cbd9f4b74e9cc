package grid

import (
	"padseq/codec"
	"padseq/debug"
	"padseq/engine"
	"padseq/midi"
	"padseq/project"
)

// Mixer shows one volume fader per track row. Pressing a pad jumps the
// volume to that column, pressing the lit column steps its level down.
// Scene buttons mute; with User 1 held they open the instrument picker.
type Mixer struct {
	project *project.Project
	choose  func(track int)
	shift   bool
}

func NewMixer(p *project.Project, choose func(track int)) *Mixer {
	return &Mixer{project: p, choose: choose}
}

func (m *Mixer) Handle(ev midi.ButtonEvent) bool {
	b := ev.Button
	if !ev.Pressed {
		if b == midi.ButtonUser1 && m.shift {
			m.shift = false
			return true
		}
		return false
	}
	switch {
	case b < midi.ButtonScene1:
		t := m.project.Tracks[b/8]
		t.SetVolume(codec.Volume.Cycle(t.Volume, b%8))
		debug.Log("mixer", "track %d volume %.3f", b/8, t.Volume)
		return true
	case b < midi.ButtonUp:
		track := b - midi.ButtonScene1
		if m.shift && m.choose != nil {
			m.shift = false
			m.choose(track)
			return true
		}
		t := m.project.Tracks[track]
		t.Muted = !t.Muted
		return true
	case b == midi.ButtonUser1:
		m.shift = true
		return true
	}
	return false
}

func (m *Mixer) Render(leds LEDs, ui engine.UIState) {
	for r, t := range m.project.Tracks {
		c, l := codec.Volume.Encode(t.Volume)
		fader(leds, r*8, 8, c, l, midi.ColorAmber)
		scene := midi.ColorGreen
		if t.Muted {
			scene = midi.ColorDimRed
		}
		leds.Set(midi.ButtonScene1+r, scene)
	}
	leds.Set(midi.ButtonUp, midi.ColorOff)
	leds.Set(midi.ButtonDown, midi.ColorOff)
	leds.Set(midi.ButtonUser1, held(m.shift))
	leds.Set(midi.ButtonUser2, midi.ColorOff)
}

// Instruments picks the instrument slot of a track, one pad per slot.
// Slots used by another track of the same kind are dark and refused.
// Scene buttons switch the track.
type Instruments struct {
	project *project.Project
	track   int
}

func NewInstruments(p *project.Project, track int) *Instruments {
	return &Instruments{project: p, track: track}
}

func (in *Instruments) inUse(slot int) bool {
	self := in.project.Tracks[in.track]
	for i, t := range in.project.Tracks {
		if i != in.track && t.Kind == self.Kind && t.Instrument == slot {
			return true
		}
	}
	return false
}

func (in *Instruments) Handle(ev midi.ButtonEvent) bool {
	if !ev.Pressed {
		return false
	}
	b := ev.Button
	switch {
	case b < midi.ButtonScene1:
		if b >= project.NumInstruments || in.inUse(b) {
			return false
		}
		in.project.Tracks[in.track].SetInstrument(b)
		debug.Log("mixer", "track %d instrument %d", in.track, b)
		return true
	case b < midi.ButtonUp:
		in.track = b - midi.ButtonScene1
		return true
	}
	return false
}

func (in *Instruments) Render(leds LEDs, ui engine.UIState) {
	current := in.project.Tracks[in.track].Instrument
	for i := range midi.ButtonScene1 {
		c := midi.ColorGreen
		switch {
		case i >= project.NumInstruments || in.inUse(i):
			c = midi.ColorOff
		case i == current:
			c = midi.ColorRed
		}
		leds.Set(i, c)
	}
	for r := range project.NumTracks {
		c := midi.ColorOff
		if r == in.track {
			c = midi.ColorAmber
		}
		leds.Set(midi.ButtonScene1+r, c)
	}
	leds.Set(midi.ButtonUp, midi.ColorOff)
	leds.Set(midi.ButtonDown, midi.ColorOff)
	leds.Set(midi.ButtonUser1, midi.ColorOff)
	leds.Set(midi.ButtonUser2, midi.ColorOff)
}
