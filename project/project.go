// Package project holds the pattern data the sequencer plays: a project of
// 8 tracks, each with 8 patterns of 32 notes. The engine reads it on every
// translation pass; the grid pages edit it.
package project

import (
	"math"
	"slices"
)

const (
	NumTracks      = 8
	NumPatterns    = 8
	NumSteps       = 32
	NumChords      = 3
	NumControls    = 5
	NumInstruments = 64

	MinTempo   = 40
	MaxTempo   = 240
	MinQuantum = 1
	MaxQuantum = 8
	MaxOctave  = 8
	MaxTone    = 120
)

// Tone values with special meaning.
const (
	Silence = 0
	NoteOff = -1
)

// NoChord marks an unset chord slot. Offsets are semitones above the tone
// and always positive, so zero is free to mean unset.
const NoChord = 0

// NoControl marks an unset control slot.
const NoControl = -1.0

// Kind tells how a track's notes are interpreted.
type Kind int

const (
	Melodic Kind = iota
	Percussion
)

func (k Kind) String() string {
	if k == Percussion {
		return "percussion"
	}
	return "melodic"
}

// Chord holds up to 3 semitone offsets sounded with the base tone.
type Chord [NumChords]int

// Control holds per-step parameter values in [0,1], or NoControl.
// Index 0 scales the step velocity.
type Control [NumControls]float64

// Note is one step of a pattern.
type Note struct {
	Tone    int
	Chord   Chord
	Control Control
	Trigger int // 0 once, 1 twice, 2 three times within the step
}

// Project is the whole document.
type Project struct {
	Tempo   int
	Latency int
	Quantum int
	Swing   int
	Tracks  [NumTracks]*Track
}

// Track is one row of the session grid.
type Track struct {
	Muted      bool
	Volume     float64
	Kind       Kind
	Instrument int
	Sequence   []int
	Patterns   [NumPatterns]*Pattern
}

// Pattern is one 32 step bar.
type Pattern struct {
	Notes  [NumSteps]Note
	Octave int
}

// New returns a project with 4 melodic tracks followed by 4 percussion
// tracks, each using instrument slot 0-3 of its kind.
func New() *Project {
	p := &Project{
		Tempo:   125,
		Quantum: 4,
	}
	for i := 0; i < NumTracks; i++ {
		kind := Melodic
		if i >= NumTracks/2 {
			kind = Percussion
		}
		p.Tracks[i] = NewTrack(kind, i%(NumTracks/2))
	}
	return p
}

// NewTrack returns an unmuted full-volume track with empty patterns.
func NewTrack(kind Kind, instrument int) *Track {
	t := &Track{
		Volume:     1,
		Kind:       kind,
		Instrument: instrument,
	}
	for i := range t.Patterns {
		t.Patterns[i] = NewPattern()
	}
	return t
}

// NewPattern returns an empty pattern at octave 3.
func NewPattern() *Pattern {
	p := &Pattern{Octave: 3}
	for i := range p.Notes {
		p.Notes[i] = EmptyNote()
	}
	return p
}

// EmptyNote returns a note with every slot unset.
func EmptyNote() Note {
	n := Note{}
	for i := range n.Control {
		n.Control[i] = NoControl
	}
	return n
}

// OffNote returns an empty note with an explicit note-off.
func OffNote() Note {
	n := EmptyNote()
	n.Tone = NoteOff
	return n
}

func (p *Project) SetTempo(bpm int) {
	p.Tempo = clampInt(bpm, MinTempo, MaxTempo)
}

// SetTempoFloat rounds and clamps an externally reported tempo.
func (p *Project) SetTempoFloat(bpm float64) {
	if math.IsNaN(bpm) {
		return
	}
	p.SetTempo(int(math.Round(bpm)))
}

func (p *Project) SetLatency(ms int) {
	p.Latency = clampInt(ms, -48, 48)
}

func (p *Project) SetQuantum(n int) {
	p.Quantum = clampInt(n, MinQuantum, MaxQuantum)
}

func (p *Project) SetSwing(n int) {
	p.Swing = clampInt(n, 0, 24)
}

// CopyPattern copies pattern src onto dst. Copies between a melodic and a
// percussion track are refused and report false.
func (p *Project) CopyPattern(dstTrack, dstPattern, srcTrack, srcPattern int) bool {
	dt, st := p.Tracks[dstTrack], p.Tracks[srcTrack]
	if dt.Kind != st.Kind {
		return false
	}
	dt.Patterns[dstPattern].CopyFrom(st.Patterns[srcPattern])
	return true
}

// Module is the synthesizer module addressed by the track. Slots 0 and 1
// are reserved by the backend; melodic and percussion instruments
// interleave after them.
func (t *Track) Module() int {
	if t.Kind == Percussion {
		return t.Instrument*2 + 3
	}
	return t.Instrument*2 + 2
}

func (t *Track) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	t.Volume = math.Max(0, math.Min(1, v))
}

func (t *Track) SetInstrument(i int) {
	t.Instrument = clampInt(i, 0, NumInstruments-1)
}

// ToggleSequence appends pattern p to the song sequence, or removes it if
// it is already there.
func (t *Track) ToggleSequence(p int) {
	if p < 0 || p >= NumPatterns {
		return
	}
	if i := slices.Index(t.Sequence, p); i >= 0 {
		t.Sequence = slices.Delete(t.Sequence, i, i+1)
		return
	}
	t.Sequence = append(t.Sequence, p)
}

// Empty reports whether every note of the pattern is empty.
func (p *Pattern) Empty() bool {
	for i := range p.Notes {
		if !p.Notes[i].Empty() {
			return false
		}
	}
	return true
}

func (p *Pattern) SetOctave(o int) {
	p.Octave = clampInt(o, 0, MaxOctave)
}

// Transpose shifts every pitched note by n semitones.
func (p *Pattern) Transpose(n int) {
	for i := range p.Notes {
		if t := p.Notes[i].Tone; t > 0 {
			p.Notes[i].Tone = clampInt(t+n, 0, MaxTone)
		}
	}
}

// CopyFrom replaces the notes of p with those of src.
func (p *Pattern) CopyFrom(src *Pattern) {
	p.Notes = src.Notes
}

// Clear empties every note.
func (p *Pattern) Clear() {
	for i := range p.Notes {
		p.Notes[i] = EmptyNote()
	}
}

// Empty reports whether the note has nothing set.
func (n *Note) Empty() bool {
	if n.Tone != Silence || n.Trigger != 0 {
		return false
	}
	for _, c := range n.Chord {
		if c != NoChord {
			return false
		}
	}
	for _, c := range n.Control {
		if IsSet(c) {
			return false
		}
	}
	return true
}

func (n *Note) SetTrigger(t int) {
	n.Trigger = clampInt(t, 0, 2)
}

// IsSet reports whether a control value is set.
func IsSet(c float64) bool {
	return c >= 0
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
