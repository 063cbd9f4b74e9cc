package grid

import (
	"math"
	"testing"

	"padseq/midi"
	"padseq/project"
)

func TestMixerVolumeAndMute(t *testing.T) {
	p := project.New()
	m := NewMixer(p, nil)

	press(m, 2*8+3)
	if got := p.Tracks[2].Volume; math.Abs(got-12.0/24) > 1e-9 {
		t.Errorf("volume = %v, want 12/24", got)
	}
	press(m, 2*8+3)
	if got := p.Tracks[2].Volume; math.Abs(got-11.0/24) > 1e-9 {
		t.Errorf("volume = %v, want 11/24", got)
	}

	var f Frame
	m.Render(&f, stopped())
	want := []int{
		midi.ColorAmber, midi.ColorAmber, midi.ColorAmber, 0x022,
		midi.ColorOff, midi.ColorOff, midi.ColorOff, midi.ColorOff,
	}
	for i, c := range want {
		if f[2*8+i] != c {
			t.Errorf("fader pad %d = %#x, want %#x", i, f[2*8+i], c)
		}
	}

	press(m, midi.ButtonScene1+6)
	if !p.Tracks[6].Muted {
		t.Error("track 6 not muted")
	}
}

func TestInstrumentPicker(t *testing.T) {
	p := project.New()
	var chosen []int
	m := NewMixer(p, func(track int) { chosen = append(chosen, track) })

	press(m, midi.ButtonUser1)
	press(m, midi.ButtonScene1+1)
	if len(chosen) != 1 || chosen[0] != 1 || p.Tracks[1].Muted {
		t.Fatalf("chosen = %v, muted = %v", chosen, p.Tracks[1].Muted)
	}

	in := NewInstruments(p, 1)
	press(in, 0) // used by melodic track 0
	if p.Tracks[1].Instrument != 1 {
		t.Errorf("took a slot in use: %d", p.Tracks[1].Instrument)
	}
	press(in, 10)
	if p.Tracks[1].Instrument != 10 {
		t.Errorf("instrument = %d, want 10", p.Tracks[1].Instrument)
	}

	var f Frame
	in.Render(&f, stopped())
	if f[10] != midi.ColorRed || f[0] != midi.ColorOff || f[1] != midi.ColorGreen {
		t.Errorf("pads: current=%#x used=%#x free=%#x", f[10], f[0], f[1])
	}
	if f[midi.ButtonScene1+1] != midi.ColorAmber {
		t.Errorf("track scene = %#x", f[midi.ButtonScene1+1])
	}

	// percussion tracks have their own slots
	press(in, midi.ButtonScene1+4)
	press(in, 10)
	if p.Tracks[4].Instrument != 10 {
		t.Errorf("percussion instrument = %d, want 10", p.Tracks[4].Instrument)
	}
}
