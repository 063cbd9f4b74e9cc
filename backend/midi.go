// Package backend is the in-process audio side of the sequencer. It keeps
// the beat clock, fires the engine's event batches on step boundaries and
// renders them as MIDI on one channel per track.
package backend

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"padseq/debug"
	"padseq/engine"
	"padseq/project"

	gomidi "gitlab.com/gomidi/midi/v2"
)

const (
	stepsPerBeat = 4
	// noteOffset maps tone 1 to MIDI note 12 (C0).
	noteOffset = 11
	// clickChannel is the GM percussion channel.
	clickChannel = 9
	pollInterval = time.Millisecond
)

// Options configure the backend. Zero values fall back to the defaults of
// DefaultOptions.
type Options struct {
	LeadIn        float64                    // count-in beats before the downbeat
	CC            [project.NumControls]uint8 // CC number per controller slot, index 0 unused
	DefaultCtl    int                        // value every controller starts at, 0-0x8000
	Modules       int                        // number of instrument modules reported by Ctls
	ClickHigh     uint8
	ClickLow      uint8
	ClickVelocity uint8
	TakePath      string // SMF written after a recording, empty to discard
	Now           func() time.Time
}

// DefaultOptions returns a one bar count-in, CC 71-74 for the controller
// slots and GM claves for the metronome.
func DefaultOptions() Options {
	return Options{
		LeadIn:        4,
		CC:            [project.NumControls]uint8{0, 71, 72, 73, 74},
		DefaultCtl:    engine.CtlScale / 2,
		Modules:       project.NumInstruments * 2,
		ClickHigh:     76,
		ClickLow:      77,
		ClickVelocity: 100,
		Now:           time.Now,
	}
}

// MIDI implements engine.Backend on top of a MIDI sender.
type MIDI struct {
	mu   sync.Mutex
	opts Options
	send func(gomidi.Message) error
	now  func() time.Time

	tempo   float64
	latency time.Duration
	quantum int
	swing   int

	running bool
	origin  time.Time // wall time of beat 0
	next    int       // next step to fire
	batch   []engine.Event
	queue   queue

	ctls     map[int]engine.Ctls
	programs [project.NumTracks]int // module selected on each track channel
	sounding [project.NumTracks * engine.Voices]int

	clicks bool
	take   *take
}

var _ engine.Backend = (*MIDI)(nil)

// New creates a stopped backend sending through send.
func New(opts Options, send func(gomidi.Message) error) *MIDI {
	def := DefaultOptions()
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if opts.Modules <= 0 {
		opts.Modules = def.Modules
	}
	if opts.ClickVelocity == 0 {
		opts.ClickVelocity = def.ClickVelocity
	}
	m := &MIDI{
		opts:    opts,
		send:    send,
		now:     opts.Now,
		tempo:   120,
		quantum: 4,
		ctls:    make(map[int]engine.Ctls, opts.Modules),
	}
	for i := 0; i < opts.Modules; i++ {
		var c engine.Ctls
		for slot := 1; slot < project.NumControls; slot++ {
			c[slot] = opts.DefaultCtl
		}
		m.ctls[i+2] = c
	}
	for i := range m.programs {
		m.programs[i] = -1
	}
	for i := range m.sounding {
		m.sounding[i] = -1
	}
	return m
}

// Run dispatches due messages until ctx is done.
func (m *MIDI) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case <-ticker.C:
			m.Poll(m.now())
		}
	}
}

// Poll fires every step boundary crossed by now and sends the messages
// that are due.
func (m *MIDI) Poll(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		for !m.dueTime(m.next).After(now) {
			m.fire(m.next, m.stepTime(m.next))
			m.next++
		}
	}
	m.flush(now)
}

func (m *MIDI) stepDuration() time.Duration {
	return time.Duration(float64(time.Minute) / (m.tempo * stepsPerBeat))
}

// stepTime is when step s sounds: odd steps are delayed by the swing
// amount (swing/48 of a step).
func (m *MIDI) stepTime(s int) time.Time {
	d := m.stepDuration()
	at := m.origin.Add(time.Duration(s) * d)
	if s%2 == 1 {
		at = at.Add(d * time.Duration(m.swing) / 48)
	}
	return at.Add(m.latency)
}

// dueTime is when step s takes its batch. It is the unswung step time,
// moved earlier by a negative latency so stepTime never lies before it.
// State reports beats on this timeline, so the engine hands over the
// batch for step s only after step s-1 has taken its own.
func (m *MIDI) dueTime(s int) time.Time {
	return m.origin.Add(time.Duration(s)*m.stepDuration() + min(m.latency, 0))
}

func (m *MIDI) beatAt(t time.Time) float64 {
	return t.Sub(m.origin).Seconds() * m.tempo / 60
}

func (m *MIDI) fire(step int, at time.Time) {
	d := m.stepDuration()
	if m.clicks && step%stepsPerBeat == 0 {
		note := m.opts.ClickLow
		if (step/stepsPerBeat)%max(m.quantum, 1) == 0 {
			note = m.opts.ClickHigh
		}
		m.queue.push(at, gomidi.NoteOn(clickChannel, note, m.opts.ClickVelocity))
		m.queue.push(at.Add(d/2), gomidi.NoteOff(clickChannel, note))
	}
	if len(m.batch) > 0 {
		debug.Log("backend", "fire step=%d events=%d", step, len(m.batch))
	}
	for _, e := range m.batch {
		m.schedule(e, at, d)
	}
	m.batch = nil
}

// schedule renders one event. Tones above 255 carry a trigger count and
// refire the note evenly within the step.
func (m *MIDI) schedule(e engine.Event, at time.Time, d time.Duration) {
	track := e.Subchannel / engine.Voices
	if track < 0 || track >= project.NumTracks {
		return
	}
	ch := uint8(track)
	m.selectModule(at, track, e.Module)

	if e.Ctl != 0 {
		if cc, ok := m.controller(e.Ctl >> 8); ok {
			m.queue.push(at, gomidi.ControlChange(ch, cc, ccValue(e.CtlValue)))
		}
	}

	tone, triggers := e.Tone, 0
	if tone > engine.ToneOff {
		triggers, tone = tone/engine.TriggerOffset, tone%engine.TriggerOffset
	}
	switch {
	case tone == engine.ToneOff:
		m.release(at, e.Subchannel)
	case tone >= 1 && tone <= project.MaxTone:
		note := uint8(tone + noteOffset)
		vel := velocity(e.Velocity)
		m.release(at, e.Subchannel)
		m.queue.push(at, gomidi.NoteOn(ch, note, vel))
		for k := 1; k <= triggers; k++ {
			t := at.Add(d * time.Duration(k) / time.Duration(triggers+1))
			m.queue.push(t, gomidi.NoteOff(ch, note))
			m.queue.push(t, gomidi.NoteOn(ch, note, vel))
		}
		m.sounding[e.Subchannel] = int(note)
	}
}

func (m *MIDI) selectModule(at time.Time, track, module int) {
	if module < 2 || m.programs[track] == module {
		return
	}
	m.programs[track] = module
	m.queue.push(at, gomidi.ProgramChange(uint8(track), uint8((module-2)/2)))
}

func (m *MIDI) release(at time.Time, sub int) {
	if n := m.sounding[sub]; n >= 0 {
		m.queue.push(at, gomidi.NoteOff(uint8(sub/engine.Voices), uint8(n)))
		m.sounding[sub] = -1
	}
}

func (m *MIDI) controller(slot int) (uint8, bool) {
	if slot < 1 || slot >= project.NumControls || m.opts.CC[slot] == 0 {
		return 0, false
	}
	return m.opts.CC[slot], true
}

func (m *MIDI) emit(at time.Time, msg gomidi.Message) {
	if m.take != nil {
		m.take.add(m.beatAt(at.Add(-m.latency)), msg)
	}
	if m.send == nil {
		return
	}
	if err := m.send(msg); err != nil {
		debug.Warn("backend", "send %s: %v", msg, err)
	}
}

// Start places beat 0 one count-in after now. With record set the
// metronome clicks and every message is kept for the take file.
func (m *MIDI) Start(record bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.origin = now.Add(time.Duration(m.opts.LeadIn * float64(time.Minute) / m.tempo))
	m.next = 0
	m.running = true
	m.clicks = record
	m.take = nil
	if record {
		m.take = newTake(m.tempo)
	}
	debug.Log("backend", "start record=%v tempo=%.1f", record, m.tempo)
}

// Stop releases every sounding note, drops pending messages and writes
// the take of a recording.
func (m *MIDI) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	now := m.now()
	m.running = false
	m.batch = nil
	m.queue.clear()
	for sub := range m.sounding {
		if n := m.sounding[sub]; n >= 0 {
			m.emit(now, gomidi.NoteOff(uint8(sub/engine.Voices), uint8(n)))
			m.sounding[sub] = -1
		}
	}
	if m.clicks {
		m.emit(now, gomidi.NoteOff(clickChannel, m.opts.ClickHigh))
		m.emit(now, gomidi.NoteOff(clickChannel, m.opts.ClickLow))
	}
	m.clicks = false
	if m.take != nil && m.opts.TakePath != "" {
		if err := m.take.write(m.opts.TakePath); err != nil {
			debug.Warn("backend", "%v", err)
		} else {
			debug.Log("backend", "take written to %s", m.opts.TakePath)
		}
	}
	m.take = nil
}

// State returns the tempo and the beat position on the step timeline of
// dueTime. The beat is negative during the count-in and 0 when stopped.
func (m *MIDI) State() (tempo, beat float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return m.tempo, 0
	}
	return m.tempo, m.beatAt(m.now().Add(-min(m.latency, 0)))
}

// SetEvents replaces the batch taken by the next step. Swing and latency
// only delay the messages of a step, not the hand-over.
func (m *MIDI) SetEvents(events []engine.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batch = events
}

// SetTempo changes the tempo without moving the current beat.
func (m *MIDI) SetTempo(bpm float64) {
	if bpm <= 0 || math.IsNaN(bpm) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		now := m.now()
		beat := m.beatAt(now)
		m.origin = now.Add(-time.Duration(beat * 60 / bpm * float64(time.Second)))
	}
	m.tempo = bpm
	if m.take != nil {
		m.take.tempoChange(m.beatAt(m.now()), bpm)
	}
}

func (m *MIDI) SetLatency(ms int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = time.Duration(ms) * time.Millisecond
}

func (m *MIDI) SetQuantum(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quantum = n
}

func (m *MIDI) SetSwing(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swing = n
}

// Ctls returns the controller values of every module.
func (m *MIDI) Ctls() map[int]engine.Ctls {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]engine.Ctls, len(m.ctls))
	for k, v := range m.ctls {
		out[k] = v
	}
	return out
}

// SetCtls stores a module's controller values and sends them to every
// track playing that module.
func (m *MIDI) SetCtls(module int, ctls engine.Ctls) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctls[module] = ctls
	now := m.now()
	for track, p := range m.programs {
		if p != module {
			continue
		}
		for slot := 1; slot < project.NumControls; slot++ {
			if cc, ok := m.controller(slot); ok {
				m.emit(now, gomidi.ControlChange(uint8(track), cc, ccValue(ctls[slot])))
			}
		}
	}
}

// SendNotes sounds tones on a track right away. ToneOff voices are only
// released.
func (m *MIDI) SendNotes(track int, tones [engine.Voices]int, vel, module int) {
	if track < 0 || track >= project.NumTracks {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.selectModule(now, track, module)
	for v, tone := range tones {
		sub := track*engine.Voices + v
		m.release(now, sub)
		if tone >= 1 && tone <= project.MaxTone {
			note := uint8(tone + noteOffset)
			m.queue.push(now, gomidi.NoteOn(uint8(track), note, velocity(vel)))
			m.sounding[sub] = int(note)
		}
	}
	m.flush(now)
}

// SendNoteOff releases every voice of a track.
func (m *MIDI) SendNoteOff(track, module int) {
	if track < 0 || track >= project.NumTracks {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for v := range engine.Voices {
		m.release(now, track*engine.Voices+v)
	}
	m.flush(now)
}

func (m *MIDI) flush(now time.Time) {
	for {
		s, ok := m.queue.popDue(now)
		if !ok {
			return
		}
		m.emit(s.at, s.msg)
	}
}

// velocity maps the 1-129 event scale to MIDI.
func velocity(v int) uint8 {
	return uint8(max(1, min(127, v-1)))
}

// ccValue maps 0-0x8000 to 0-127.
func ccValue(v int) uint8 {
	return uint8(max(0, min(127, int(math.Round(float64(v)*127/engine.CtlScale)))))
}
