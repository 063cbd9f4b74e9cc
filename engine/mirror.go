package engine

import "padseq/project"

// Slot is a track's active pattern, or None.
type Slot int

const None Slot = -1

// Field identifies mirror fields in a change set.
type Field uint

const (
	FieldPlaying Field = 1 << iota
	FieldPhase
	FieldPattern
)

// UIState is what the grid pages read. Playing is -1 during the count-in,
// 1 while playing and 0 when stopped; Phase is the beat within the quantum.
type UIState struct {
	Playing int
	Phase   int
	Pattern [project.NumTracks]Slot
}

// Mirror publishes UIState to the UI. Every setter compares before it
// assigns, so a field is only marked changed when its value differs.
type Mirror struct {
	state   UIState
	changed Field
}

func newMirror() *Mirror {
	m := &Mirror{}
	for i := range m.state.Pattern {
		m.state.Pattern[i] = None
	}
	return m
}

// Snapshot returns the current state.
func (m *Mirror) Snapshot() UIState {
	return m.state
}

// Take returns the current state and the fields changed since the last
// call, and clears the change set.
func (m *Mirror) Take() (UIState, Field) {
	changed := m.changed
	m.changed = 0
	return m.state, changed
}

// Dirty reports whether anything changed since the last Take.
func (m *Mirror) Dirty() bool {
	return m.changed != 0
}

func (m *Mirror) setPlaying(v int) {
	if m.state.Playing != v {
		m.state.Playing = v
		m.changed |= FieldPlaying
	}
}

func (m *Mirror) setPhase(v int) {
	if m.state.Phase != v {
		m.state.Phase = v
		m.changed |= FieldPhase
	}
}

func (m *Mirror) setPattern(track int, s Slot) {
	if m.state.Pattern[track] != s {
		m.state.Pattern[track] = s
		m.changed |= FieldPattern
	}
}
