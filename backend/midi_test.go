package backend

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"padseq/engine"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type harness struct {
	t    *testing.T
	now  time.Time
	sent []gomidi.Message
	m    *MIDI
}

// newHarness returns a backend at 120 BPM (125ms steps) without count-in.
func newHarness(t *testing.T, opts Options) *harness {
	h := &harness{t: t, now: time.Unix(1000, 0)}
	opts.Now = func() time.Time { return h.now }
	h.m = New(opts, func(msg gomidi.Message) error {
		h.sent = append(h.sent, msg)
		return nil
	})
	h.m.SetTempo(120)
	return h
}

func (h *harness) at(d time.Duration) {
	h.m.Poll(h.now.Add(d))
}

func (h *harness) take() []gomidi.Message {
	out := h.sent
	h.sent = nil
	return out
}

func (h *harness) expect(want ...gomidi.Message) {
	h.t.Helper()
	got := h.take()
	if len(got) != len(want) {
		h.t.Fatalf("sent %v, want %v", got, want)
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			h.t.Errorf("message %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func note(sub, tone, vel int) engine.Event {
	return engine.Event{Subchannel: sub, Tone: tone, Velocity: vel, Module: 2}
}

func TestLeadIn(t *testing.T) {
	h := newHarness(t, Options{LeadIn: 4})
	if _, beat := h.m.State(); beat != 0 {
		t.Errorf("stopped beat = %v, want 0", beat)
	}
	h.m.Start(false)
	for _, tc := range []struct {
		after time.Duration
		beat  float64
	}{
		{0, -4},
		{time.Second, -2},
		{2 * time.Second, 0},
		{2250 * time.Millisecond, 0.5},
	} {
		h.now = time.Unix(1000, 0).Add(tc.after)
		tempo, beat := h.m.State()
		if tempo != 120 || math.Abs(beat-tc.beat) > 1e-9 {
			t.Errorf("after %v: State() = %v, %v, want 120, %v", tc.after, tempo, beat, tc.beat)
		}
	}
}

func TestFireBatchOnce(t *testing.T) {
	h := newHarness(t, Options{})
	h.m.Start(false)
	h.m.SetEvents([]engine.Event{note(1, 60, 101)})
	h.at(0)
	h.expect(gomidi.ProgramChange(0, 0), gomidi.NoteOn(0, 71, 100))

	h.at(125 * time.Millisecond)
	h.expect()

	h.m.SetEvents([]engine.Event{note(1, engine.ToneOff, 0), note(2, 48, 129)})
	h.at(200 * time.Millisecond)
	h.expect()
	h.at(250 * time.Millisecond)
	h.expect(gomidi.NoteOff(0, 71), gomidi.NoteOn(0, 59, 127))
}

func TestNewNoteReleasesPrevious(t *testing.T) {
	h := newHarness(t, Options{})
	h.m.Start(false)
	h.m.SetEvents([]engine.Event{{Subchannel: 5, Tone: 40, Velocity: 65, Module: 4}})
	h.at(0)
	h.expect(gomidi.ProgramChange(1, 1), gomidi.NoteOn(1, 51, 64))
	h.m.SetEvents([]engine.Event{{Subchannel: 5, Tone: 41, Velocity: 65, Module: 4}})
	h.at(125 * time.Millisecond)
	h.expect(gomidi.NoteOff(1, 51), gomidi.NoteOn(1, 52, 64))
}

func TestTriggers(t *testing.T) {
	h := newHarness(t, Options{})
	h.m.Start(false)
	h.m.SetEvents([]engine.Event{note(0, 60+2*engine.TriggerOffset, 101)})
	h.at(0)
	h.expect(gomidi.ProgramChange(0, 0), gomidi.NoteOn(0, 71, 100))
	h.at(41 * time.Millisecond)
	h.expect()
	h.at(42 * time.Millisecond)
	h.expect(gomidi.NoteOff(0, 71), gomidi.NoteOn(0, 71, 100))
	h.at(84 * time.Millisecond)
	h.expect(gomidi.NoteOff(0, 71), gomidi.NoteOn(0, 71, 100))
}

func TestSwing(t *testing.T) {
	h := newHarness(t, Options{})
	h.m.SetSwing(24)
	h.m.Start(false)
	h.at(0)
	h.m.SetEvents([]engine.Event{note(0, 60, 101)})
	h.at(150 * time.Millisecond)
	h.expect()
	h.at(188 * time.Millisecond)
	h.expect(gomidi.ProgramChange(0, 0), gomidi.NoteOn(0, 71, 100))
}

func TestControllers(t *testing.T) {
	opts := DefaultOptions()
	opts.LeadIn = 0
	h := newHarness(t, opts)
	h.m.Start(false)
	h.m.SetEvents([]engine.Event{
		{Subchannel: 3, Module: 2, Ctl: engine.ControllerCode(4), CtlValue: engine.CtlScale},
	})
	h.at(0)
	h.expect(gomidi.ProgramChange(0, 0), gomidi.ControlChange(0, 74, 127))

	ctls := h.m.Ctls()
	if len(ctls) != 128 {
		t.Errorf("modules = %d, want 128", len(ctls))
	}
	if c := ctls[2]; c[1] != engine.CtlScale/2 || c[0] != 0 {
		t.Errorf("module 2 defaults = %v", c)
	}

	h.m.SetCtls(2, engine.Ctls{0, 0, engine.CtlScale, 0, 0})
	h.expect(
		gomidi.ControlChange(0, 71, 0),
		gomidi.ControlChange(0, 72, 127),
		gomidi.ControlChange(0, 73, 0),
		gomidi.ControlChange(0, 74, 0),
	)
	h.m.SetCtls(5, engine.Ctls{})
	h.expect()
}

func TestStopReleases(t *testing.T) {
	h := newHarness(t, Options{})
	h.m.Start(false)
	h.m.SetEvents([]engine.Event{note(0, 60, 101), note(1, 64, 101), note(2, engine.ToneOff, 0)})
	h.at(0)
	h.take()
	h.m.SetEvents([]engine.Event{note(0, 62, 101)})
	h.m.Stop()
	h.expect(gomidi.NoteOff(0, 71), gomidi.NoteOff(0, 75))

	h.at(time.Second)
	h.expect()
	if _, beat := h.m.State(); beat != 0 {
		t.Errorf("beat after stop = %v", beat)
	}
}

func TestMetronomeAndTake(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.mid")
	opts := DefaultOptions()
	opts.LeadIn = 0
	opts.TakePath = path
	h := newHarness(t, opts)
	h.m.SetQuantum(2)
	h.m.Start(true)

	h.at(0)
	h.expect(gomidi.NoteOn(clickChannel, 76, 100))
	h.at(250 * time.Millisecond)
	h.expect(gomidi.NoteOff(clickChannel, 76))
	h.at(500 * time.Millisecond)
	h.expect(gomidi.NoteOn(clickChannel, 77, 100))
	h.at(time.Second)
	h.expect(gomidi.NoteOff(clickChannel, 77), gomidi.NoteOn(clickChannel, 76, 100))

	h.m.Stop()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("take not written: %v", err)
	}
	rd, err := smf.ReadFile(path)
	if err != nil {
		t.Fatalf("read take: %v", err)
	}
	if len(rd.Tracks) != 1 {
		t.Errorf("tracks = %d, want 1", len(rd.Tracks))
	}
}

func TestTempoChangeKeepsBeat(t *testing.T) {
	h := newHarness(t, Options{})
	h.m.Start(false)
	h.now = h.now.Add(time.Second)
	_, before := h.m.State()
	h.m.SetTempo(60)
	tempo, after := h.m.State()
	if tempo != 60 || math.Abs(before-after) > 1e-6 {
		t.Errorf("beat %v -> %v at tempo %v", before, after, tempo)
	}
	h.now = h.now.Add(time.Second)
	if _, beat := h.m.State(); math.Abs(beat-3) > 1e-6 {
		t.Errorf("beat = %v, want 3", beat)
	}
}

func TestSendNotes(t *testing.T) {
	h := newHarness(t, Options{})
	h.m.SendNotes(2, [engine.Voices]int{60, 64, engine.ToneOff, engine.ToneOff}, 101, 6)
	h.expect(gomidi.ProgramChange(2, 2), gomidi.NoteOn(2, 71, 100), gomidi.NoteOn(2, 75, 100))
	h.m.SendNoteOff(2, 6)
	h.expect(gomidi.NoteOff(2, 71), gomidi.NoteOff(2, 75))
}
