package engine

import (
	"math"

	"padseq/project"
)

const (
	// Voices is the number of subchannels per track.
	Voices = 4
	// ToneOff releases whatever sounds on a subchannel.
	ToneOff = 128
	// TriggerOffset is added to a tone once per extra trigger.
	TriggerOffset = 256
	// CtlScale is the backend value of a control at 1.0.
	CtlScale = 0x8000
)

// ControllerCode addresses control slot n of a module.
func ControllerCode(slot int) int {
	return slot << 8
}

// CtlValue scales a control in [0,1] to backend units.
func CtlValue(c float64) int {
	return int(math.Round(c * CtlScale))
}

// Velocity is the backend velocity of a step on a track at volume. ctl0
// scales it when set.
func Velocity(volume, ctl0 float64) int {
	scale := 1.0
	if project.IsSet(ctl0) {
		scale = ctl0
	}
	return int(math.Round(volume*scale*128)) + 1
}

// Translate builds the event batch for a tick. active holds the pattern
// each track plays; defaults are the per-module controller values sent on
// the first step of every cycle when a note leaves a control unset.
func Translate(p *project.Project, active [project.NumTracks]Slot, tick int, defaults map[int]Ctls) []Event {
	step := tick % project.NumSteps
	var events []Event
	for i, t := range p.Tracks {
		if t == nil || t.Muted {
			continue
		}
		var n project.Note
		switch {
		case active[i] != None:
			n = t.Patterns[active[i]].Notes[step]
		case step == 0:
			n = project.OffNote()
		default:
			continue
		}
		events = appendTrack(events, i, t, &n, step == 0, defaults)
	}
	return events
}

func appendTrack(events []Event, track int, t *project.Track, n *project.Note, first bool, defaults map[int]Ctls) []Event {
	module := t.Module()
	def, hasDef := defaults[module]

	var ctl, val [Voices]int
	for v := range Voices {
		slot := v + 1
		switch c := n.Control[slot]; {
		case project.IsSet(c):
			ctl[v], val[v] = ControllerCode(slot), CtlValue(c)
		case first && hasDef:
			ctl[v], val[v] = ControllerCode(slot), def[slot]
		}
	}

	sounding := Voices
	if t.Kind == project.Percussion {
		sounding = 1
	}

	var tones [Voices]int
	velocity := 0
	switch {
	case n.Tone > 0:
		velocity = Velocity(t.Volume, n.Control[0])
		shift := n.Trigger * TriggerOffset
		tones[0] = n.Tone + shift
		for v := 1; v < sounding; v++ {
			tones[v] = ToneOff
			if c := n.Chord[v-1]; c != project.NoChord {
				if ct := chordTone(n.Tone, c); ct != ToneOff {
					tones[v] = ct + shift
				}
			}
		}
	case n.Tone == project.NoteOff:
		for v := range sounding {
			tones[v] = ToneOff
		}
	}

	for v := range Voices {
		if tones[v] == 0 && ctl[v] == 0 {
			continue
		}
		e := Event{
			Subchannel: track*Voices + v,
			Tone:       tones[v],
			Module:     module,
			Ctl:        ctl[v],
			CtlValue:   val[v],
		}
		if tones[v] != 0 && tones[v] != ToneOff {
			e.Velocity = velocity
		}
		events = append(events, e)
	}
	return events
}

// chordTone is the pitch of a chord voice, or ToneOff past the top of the
// range.
func chordTone(tone, offset int) int {
	if t := tone + offset; t >= 1 && t <= project.MaxTone {
		return t
	}
	return ToneOff
}
