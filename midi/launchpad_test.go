package midi

import (
	"bytes"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type capture struct {
	msgs []gomidi.Message
}

func (c *capture) send(msg gomidi.Message) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func newTestLaunchpad() (*Launchpad, *capture) {
	c := &capture{}
	lp := newLaunchpad("test", c.send)
	c.msgs = nil
	return lp, c
}

func TestVelocity(t *testing.T) {
	for _, tc := range []struct {
		color int
		want  uint8
	}{
		{ColorOff, 0x04},
		{ColorGreen, 0x34},
		{ColorRed, 0x07},
		{ColorAmber, 0x37},
		{ColorRed | Blink, 0x0b},
		{Blink, 0x04},
	} {
		if got := velocity(tc.color); got != tc.want {
			t.Errorf("velocity(%#x) = %#x, want %#x", tc.color, got, tc.want)
		}
	}
}

func TestRefreshSendsChanges(t *testing.T) {
	lp, c := newTestLaunchpad()
	lp.Set(9, ColorGreen)
	lp.Set(ButtonScene1+2, ColorRed)
	lp.Set(ButtonRight, ColorAmber|Blink)

	n, err := lp.Refresh()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("sent %d, want 3", n)
	}
	want := []gomidi.Message{
		gomidi.NoteOn(0, 0x11, 0x34),
		gomidi.NoteOn(0, 0x28, 0x07),
		gomidi.ControlChange(0, 107, 0x3b),
	}
	if len(c.msgs) != len(want) {
		t.Fatalf("messages = %v", c.msgs)
	}
	for i := range want {
		if !bytes.Equal(c.msgs[i], want[i]) {
			t.Errorf("message %d = %v, want %v", i, c.msgs[i], want[i])
		}
	}

	c.msgs = nil
	lp.Set(9, ColorGreen)
	if n, _ := lp.Refresh(); n != 0 || len(c.msgs) != 0 {
		t.Errorf("unchanged refresh sent %d: %v", n, c.msgs)
	}
}

func TestRefreshClearsWhenCheaper(t *testing.T) {
	lp, c := newTestLaunchpad()
	for i := range 64 {
		lp.Set(i, ColorGreen)
	}
	lp.Refresh()

	c.msgs = nil
	for i := range 64 {
		lp.Set(i, ColorOff)
	}
	lp.Set(5, ColorRed)
	n, err := lp.Refresh()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
	want := []gomidi.Message{
		gomidi.ControlChange(0, 0, 0),
		gomidi.ControlChange(0, 0, 0x28),
		gomidi.NoteOn(0, 5, 0x07),
	}
	if len(c.msgs) != len(want) {
		t.Fatalf("messages = %v", c.msgs)
	}
	for i := range want {
		if !bytes.Equal(c.msgs[i], want[i]) {
			t.Errorf("message %d = %v, want %v", i, c.msgs[i], want[i])
		}
	}
}

func TestHandleButtons(t *testing.T) {
	lp, _ := newTestLaunchpad()
	lp.handle(gomidi.NoteOn(0, 0x23, 127))
	lp.handle(gomidi.NoteOn(0, 0x23, 0))
	lp.handle(gomidi.NoteOn(0, 0x78, 127))
	lp.handle(gomidi.ControlChange(0, 104, 127))
	lp.handle(gomidi.ControlChange(0, 111, 0))
	lp.handle(gomidi.ControlChange(0, 7, 127))
	lp.handle(gomidi.NoteOn(0, 0x0c, 127))

	want := []ButtonEvent{
		{Button: 19, Pressed: true},
		{Button: 19},
		{Button: ButtonScene1 + 7, Pressed: true},
		{Button: ButtonUp, Pressed: true},
		{Button: ButtonMixer},
	}
	for _, w := range want {
		select {
		case got := <-lp.Events():
			if got != w {
				t.Errorf("event = %+v, want %+v", got, w)
			}
		default:
			t.Fatalf("missing event %+v", w)
		}
	}
	select {
	case ev := <-lp.Events():
		t.Errorf("unexpected event %+v", ev)
	default:
	}
}

func TestMatches(t *testing.T) {
	if !Matches("Launchpad Mini MIDI 1", "launchpad") {
		t.Error("case-insensitive match failed")
	}
	if Matches("IAC Bus 1", "launchpad") || Matches("anything", "") {
		t.Error("unexpected match")
	}
}

func TestKeyboardNotes(t *testing.T) {
	kb, err := NewKeyboard("kb", nil)
	if err != nil {
		t.Fatal(err)
	}
	kb.handle(gomidi.NoteOn(1, 60, 90))
	kb.handle(gomidi.NoteOff(1, 60))
	kb.handle(gomidi.ControlChange(1, 1, 1))
	kb.Close()

	var got []NoteEvent
	for ev := range kb.NoteEvents() {
		got = append(got, ev)
	}
	want := []NoteEvent{{Note: 60, Velocity: 90, Channel: 1}, {Note: 60, Channel: 1}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("events = %+v, want %+v", got, want)
	}
}
