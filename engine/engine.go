// Package engine is the sequencer transport. It turns the project's
// patterns into per-step event batches for the backend, follows the
// backend's clock, and mirrors playback state for the grid UI.
//
// The engine is single-threaded: the host calls Update once per frame and
// the transport operations from the same goroutine.
package engine

import (
	"maps"
	"math"
	"slices"

	"padseq/debug"
	"padseq/project"
)

// TicksPerBeat is the number of steps per beat.
const TicksPerBeat = 4

// Engine owns the transport state. It reads the project but never stores
// anything in it except a tempo override reported by the backend.
type Engine struct {
	project  *project.Project
	backend  Backend
	defaults map[int]Ctls // controller values at startup, per module

	playing    bool
	session    bool
	recording  bool
	recTrack   int
	recPattern int
	tick       int
	pattern    [project.NumTracks]Slot
	seqPos     [project.NumTracks]int

	// last values exchanged with the backend
	tempo        float64
	projectTempo int
	latency      int
	quantum      int
	swing        int

	ui *Mirror
}

// New creates a stopped engine, snapshots the backend's controller
// defaults and pushes the project settings to the backend.
func New(p *project.Project, b Backend) *Engine {
	e := &Engine{
		project:  p,
		backend:  b,
		defaults: b.Ctls(),
		ui:       newMirror(),
	}
	for i := range e.pattern {
		e.pattern[i] = None
	}
	e.syncSettings(true)
	return e
}

// StartOrStopPattern plays a single pattern of one track, optionally
// recording into it. While playing it stops the transport instead.
func (e *Engine) StartOrStopPattern(track, pattern int, record bool) {
	if e.playing {
		e.stop()
		return
	}
	if track < 0 || track >= project.NumTracks || pattern < 0 || pattern >= project.NumPatterns {
		return
	}
	e.tick = 0
	for i := range e.pattern {
		e.pattern[i] = None
	}
	e.pattern[track] = Slot(pattern)
	e.session = false
	e.recording = record
	if record {
		e.recTrack, e.recPattern = track, pattern
	}
	e.playing = true
	debug.Log("transport", "start pattern track=%d pattern=%d record=%v", track, pattern, record)
	e.backend.Start(record)
	e.translate()
}

// StartOrStopSession plays every track's song sequence from its first
// entry. While playing it stops the transport instead.
func (e *Engine) StartOrStopSession() {
	if e.playing {
		e.stop()
		return
	}
	e.tick = 0
	for i, t := range e.project.Tracks {
		e.seqPos[i] = 0
		e.pattern[i] = None
		if t != nil && len(t.Sequence) > 0 {
			e.pattern[i] = Slot(t.Sequence[0])
		}
	}
	e.session = true
	e.recording = false
	e.playing = true
	debug.Log("transport", "start session patterns=%v", e.pattern)
	e.backend.Start(false)
	e.translate()
}

func (e *Engine) stop() {
	e.playing = false
	e.recording = false
	debug.Log("transport", "stop at tick=%d", e.tick)
	e.backend.Stop()
	for _, module := range slices.Sorted(maps.Keys(e.defaults)) {
		e.backend.SetCtls(module, e.defaults[module])
	}
}

// Update advances the transport. Call it once per host frame.
func (e *Engine) Update() {
	e.syncSettings(false)
	tempo, beat := e.backend.State()
	if e.playing {
		e.followTempo(tempo)
		if t := tickAt(beat); t > e.tick {
			e.advance(t)
		}
	}
	e.publish(beat)
}

// tickAt maps a beat position to the step whose events are due next.
// Negative beats are count-in and map to 0.
func tickAt(beat float64) int {
	if beat < 0 || math.IsNaN(beat) {
		return 0
	}
	return int(math.Floor(beat*TicksPerBeat)) + 1
}

func (e *Engine) advance(t int) {
	e.tick = t
	if e.session && t%(e.quantumLen()*TicksPerBeat) == 0 {
		e.rotate()
	}
	e.translate()
}

// rotate moves every track to the next entry of its song sequence.
func (e *Engine) rotate() {
	for i, t := range e.project.Tracks {
		if t == nil || len(t.Sequence) == 0 {
			e.pattern[i] = None
			continue
		}
		e.seqPos[i] = (e.seqPos[i] + 1) % len(t.Sequence)
		e.pattern[i] = Slot(t.Sequence[e.seqPos[i]])
	}
	debug.Log("transport", "rotate tick=%d patterns=%v", e.tick, e.pattern)
}

// followTempo adopts a tempo change made on the backend side.
func (e *Engine) followTempo(tempo float64) {
	if tempo <= 0 || tempo == e.tempo {
		return
	}
	e.tempo = tempo
	e.project.SetTempoFloat(tempo)
	e.projectTempo = e.project.Tempo
	debug.Log("transport", "backend tempo %.2f", tempo)
	if tempo < project.MinTempo || tempo > project.MaxTempo {
		e.tempo = float64(e.project.Tempo)
		e.backend.SetTempo(e.tempo)
	}
}

// syncSettings pushes project settings that changed since the last push.
func (e *Engine) syncSettings(force bool) {
	p := e.project
	if force || p.Tempo != e.projectTempo {
		e.projectTempo = p.Tempo
		e.tempo = float64(p.Tempo)
		e.backend.SetTempo(e.tempo)
	}
	if force || p.Latency != e.latency {
		e.latency = p.Latency
		e.backend.SetLatency(p.Latency)
	}
	if force || p.Quantum != e.quantum {
		e.quantum = p.Quantum
		e.backend.SetQuantum(p.Quantum)
	}
	if force || p.Swing != e.swing {
		e.swing = p.Swing
		e.backend.SetSwing(p.Swing)
	}
}

func (e *Engine) publish(beat float64) {
	switch {
	case !e.playing:
		e.ui.setPlaying(0)
	case beat < 0:
		e.ui.setPlaying(-1)
	default:
		e.ui.setPlaying(1)
	}
	if !math.IsNaN(beat) {
		q := e.quantumLen()
		e.ui.setPhase(((int(math.Floor(beat)) % q) + q) % q)
	}
	for i, s := range e.pattern {
		e.ui.setPattern(i, s)
	}
}

// quantumLen is the bar length in beats, at least 1 for a hand-built
// project that never went through SetQuantum.
func (e *Engine) quantumLen() int {
	return max(e.project.Quantum, 1)
}

func (e *Engine) translate() {
	e.backend.SetEvents(Translate(e.project, e.pattern, e.tick, e.defaults))
}

// Preview auditions a note or chord on a track outside of playback.
func (e *Engine) Preview(track, tone int, chord project.Chord) {
	if e.playing || track < 0 || track >= project.NumTracks || tone <= 0 {
		return
	}
	t := e.project.Tracks[track]
	if t == nil || t.Muted {
		return
	}
	tones := [Voices]int{tone, ToneOff, ToneOff, ToneOff}
	if t.Kind == project.Melodic {
		for i, c := range chord {
			if c != project.NoChord {
				tones[i+1] = chordTone(tone, c)
			}
		}
	}
	e.backend.SendNotes(track, tones, Velocity(t.Volume, project.NoControl), t.Module())
}

// ReleasePreview stops a note started by Preview.
func (e *Engine) ReleasePreview(track int) {
	if track < 0 || track >= project.NumTracks || e.project.Tracks[track] == nil {
		return
	}
	e.backend.SendNoteOff(track, e.project.Tracks[track].Module())
}

// Playing reports whether the transport runs.
func (e *Engine) Playing() bool { return e.playing }

// Session reports whether the transport plays the song sequences.
func (e *Engine) Session() bool { return e.playing && e.session }

// Recording returns the pattern being recorded into, if any.
func (e *Engine) Recording() (track, pattern int, ok bool) {
	if !e.playing || !e.recording {
		return 0, 0, false
	}
	return e.recTrack, e.recPattern, true
}

// Tick returns the step counter since the last start.
func (e *Engine) Tick() int { return e.tick }

// ActivePattern returns the pattern a track is playing.
func (e *Engine) ActivePattern(track int) (int, bool) {
	s := e.pattern[track]
	return int(s), s != None
}

// UI returns the mirror the grid pages read.
func (e *Engine) UI() *Mirror { return e.ui }

// Project returns the project the engine plays.
func (e *Engine) Project() *project.Project { return e.project }
