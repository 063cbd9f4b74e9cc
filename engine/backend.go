package engine

import "padseq/project"

// Event is one voice update for the backend: a note, a note-off, a
// controller change, or a note and controller change together.
type Event struct {
	Subchannel int // track*4 + voice
	Tone       int // pitch + trigger*256, ToneOff, or 0 for none
	Velocity   int // 1-129, 0 for no change
	Module     int
	Ctl        int // ControllerCode(slot), 0 for none
	CtlValue   int // 0-0x8000
}

// Ctls is a per-module controller snapshot in backend units (0-0x8000),
// indexed like project.Control. Index 0 is unused.
type Ctls [project.NumControls]int

// Backend is the audio side of the sequencer. It owns the authoritative
// clock; the engine polls it once per frame and never blocks on it.
type Backend interface {
	Start(record bool)
	Stop()
	// State returns the current tempo and beat position. The beat is
	// negative during the count-in before the first downbeat.
	State() (tempo, beat float64)
	// SetEvents replaces the batch fired at the next step boundary.
	SetEvents(events []Event)
	SetTempo(bpm float64)
	SetLatency(ms int)
	SetQuantum(n int)
	SetSwing(n int)
	Ctls() map[int]Ctls
	SetCtls(module int, ctls Ctls)
	SendNotes(track int, tones [Voices]int, velocity, module int)
	SendNoteOff(track, module int)
}
