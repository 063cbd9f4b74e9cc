package engine

import (
	"reflect"
	"testing"

	"padseq/project"
)

func only(track int, pattern Slot) [project.NumTracks]Slot {
	var active [project.NumTracks]Slot
	for i := range active {
		active[i] = None
	}
	active[track] = pattern
	return active
}

func onTrack(events []Event, track int) []Event {
	var out []Event
	for _, e := range events {
		if e.Subchannel/Voices == track {
			out = append(out, e)
		}
	}
	return out
}

func TestTranslateChord(t *testing.T) {
	p := project.New()
	n := &p.Tracks[0].Patterns[0].Notes[1]
	n.Tone = 60
	n.Chord = project.Chord{4, 7, project.NoChord}

	got := Translate(p, only(0, 0), 1, nil)
	want := []Event{
		{Subchannel: 0, Tone: 60, Velocity: 129, Module: 2},
		{Subchannel: 1, Tone: 64, Velocity: 129, Module: 2},
		{Subchannel: 2, Tone: 67, Velocity: 129, Module: 2},
		{Subchannel: 3, Tone: ToneOff, Module: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Translate() =\n%v\nwant\n%v", got, want)
	}
}

func TestTranslateTriggerAndRange(t *testing.T) {
	p := project.New()
	n := &p.Tracks[1].Patterns[2].Notes[3]
	n.Tone = 110
	n.Chord = project.Chord{5, 12, project.NoChord}
	n.SetTrigger(2)

	got := onTrack(Translate(p, only(1, 2), 3, nil), 1)
	tones := make([]int, len(got))
	for i, e := range got {
		tones[i] = e.Tone
	}
	if want := []int{110 + 512, 115 + 512, ToneOff, ToneOff}; !reflect.DeepEqual(tones, want) {
		t.Errorf("tones = %v, want %v", tones, want)
	}
	if got[0].Subchannel != 4 || got[3].Subchannel != 7 {
		t.Errorf("subchannels %d..%d, want 4..7", got[0].Subchannel, got[3].Subchannel)
	}
}

func TestTranslateMuted(t *testing.T) {
	p := project.New()
	for i := range p.Tracks[0].Patterns[0].Notes {
		n := &p.Tracks[0].Patterns[0].Notes[i]
		n.Tone = 48
		n.Control[1] = 0.5
	}
	p.Tracks[0].Muted = true
	defaults := map[int]Ctls{2: {0, 1, 2, 3, 4}}
	for tick := range 64 {
		if ev := onTrack(Translate(p, only(0, 0), tick, defaults), 0); len(ev) != 0 {
			t.Fatalf("tick %d: muted track emitted %v", tick, ev)
		}
	}
}

func TestTranslatePercussionControls(t *testing.T) {
	p := project.New()
	n := &p.Tracks[4].Patterns[0].Notes[9]
	n.Tone = 36
	n.Chord = project.Chord{4, 7, 12}
	n.Control = project.Control{project.NoControl, 0.5, project.NoControl, project.NoControl, 1}

	got := Translate(p, only(4, 0), 9, nil)
	want := []Event{
		{Subchannel: 16, Tone: 36, Velocity: 129, Module: 3, Ctl: ControllerCode(1), CtlValue: 0x4000},
		{Subchannel: 19, Module: 3, Ctl: ControllerCode(4), CtlValue: 0x8000},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Translate() =\n%v\nwant\n%v", got, want)
	}
}

func TestTranslateStepZeroDefaults(t *testing.T) {
	p := project.New()
	defaults := map[int]Ctls{2: {0, 10, 20, 30, 40}}
	p.Tracks[0].Patterns[1].Notes[0].Control[2] = 0.25

	got := onTrack(Translate(p, only(0, 1), 32, defaults), 0)
	want := []Event{
		{Subchannel: 0, Module: 2, Ctl: 0x100, CtlValue: 10},
		{Subchannel: 1, Module: 2, Ctl: 0x200, CtlValue: 0x2000},
		{Subchannel: 2, Module: 2, Ctl: 0x300, CtlValue: 30},
		{Subchannel: 3, Module: 2, Ctl: 0x400, CtlValue: 40},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("step 0 =\n%v\nwant\n%v", got, want)
	}

	if got := onTrack(Translate(p, only(0, 1), 33, defaults), 0); len(got) != 0 {
		t.Errorf("defaults resent after step 0: %v", got)
	}
}

func TestTranslateInactiveTrack(t *testing.T) {
	p := project.New()
	active := only(0, 0)

	got := Translate(p, active, 0, nil)
	for track := 1; track < project.NumTracks; track++ {
		ev := onTrack(got, track)
		want := Voices
		if p.Tracks[track].Kind == project.Percussion {
			want = 1
		}
		if len(ev) != want {
			t.Errorf("track %d: %d off events, want %d", track, len(ev), want)
		}
		for _, e := range ev {
			if e.Tone != ToneOff || e.Velocity != 0 {
				t.Errorf("track %d: event %+v is not a note off", track, e)
			}
		}
	}
	if ev := onTrack(got, 0); len(ev) != 0 {
		t.Errorf("empty step emitted %v", ev)
	}

	if got := Translate(p, active, 5, nil); len(got) != 0 {
		t.Errorf("tick 5 emitted %v", got)
	}
}

func TestTranslateExplicitOff(t *testing.T) {
	p := project.New()
	p.Tracks[2].Patterns[0].Notes[4] = project.OffNote()
	got := Translate(p, only(2, 0), 4, nil)
	if len(got) != Voices {
		t.Fatalf("events = %v", got)
	}
	for v, e := range got {
		if e.Subchannel != 8+v || e.Tone != ToneOff || e.Velocity != 0 {
			t.Errorf("voice %d: %+v", v, e)
		}
	}
}

func TestVelocity(t *testing.T) {
	for _, tc := range []struct {
		volume, ctl0 float64
		want         int
	}{
		{1, project.NoControl, 129},
		{0, project.NoControl, 1},
		{0.5, project.NoControl, 65},
		{0.5, 0.5, 33},
		{1, 0, 1},
	} {
		if got := Velocity(tc.volume, tc.ctl0); got != tc.want {
			t.Errorf("Velocity(%v, %v) = %d, want %d", tc.volume, tc.ctl0, got, tc.want)
		}
	}
}

func TestControllerCode(t *testing.T) {
	if ControllerCode(1) != 0x100 || ControllerCode(4) != 0x400 {
		t.Errorf("ControllerCode = %#x, %#x", ControllerCode(1), ControllerCode(4))
	}
	if CtlValue(0.5) != 0x4000 || CtlValue(1) != 0x8000 {
		t.Errorf("CtlValue = %#x, %#x", CtlValue(0.5), CtlValue(1))
	}
}
