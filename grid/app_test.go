package grid

import (
	"testing"

	"padseq/engine"
	"padseq/midi"
	"padseq/project"
)

func stopped() engine.UIState {
	ui := engine.UIState{}
	for i := range ui.Pattern {
		ui.Pattern[i] = engine.None
	}
	return ui
}

func TestAppSwitchesPages(t *testing.T) {
	tr := &fakeTransport{}
	a := NewApp(project.New(), tr)
	if _, ok := a.Page().(*Session); !ok {
		t.Fatalf("first page = %T", a.Page())
	}

	press(a, midi.ButtonMixer)
	if _, ok := a.Page().(*Mixer); !ok {
		t.Fatalf("after Mixer page = %T", a.Page())
	}
	press(a, midi.ButtonLeft)
	if _, ok := a.Page().(*Tempo); !ok {
		t.Fatalf("after Left page = %T", a.Page())
	}
	press(a, midi.ButtonRight)
	if len(tr.calls) != 1 || !tr.calls[0].session {
		t.Errorf("Right on the tempo page: %+v", tr.calls)
	}

	press(a, midi.ButtonSession)
	press(a, midi.ButtonDown)
	press(a, 3*8+4)
	pg, ok := a.Page().(*Pattern)
	if !ok || pg.track != 3 || pg.pattern != 4 {
		t.Fatalf("Down+pad page = %T %+v", a.Page(), pg)
	}
	press(a, midi.ButtonRight)
	if got := tr.calls[len(tr.calls)-1]; got != (call{track: 3, pattern: 4}) {
		t.Errorf("Right in the editor = %+v", got)
	}

	press(a, midi.ButtonSession)
	if _, ok := a.Page().(*Session); !ok {
		t.Errorf("Session did not return: %T", a.Page())
	}
}

func TestAppRenderNav(t *testing.T) {
	a := NewApp(project.New(), &fakeTransport{})
	var f Frame

	a.Render(&f, stopped())
	if f[midi.ButtonSession] != midi.ColorAmber || f[midi.ButtonMixer] != midi.ColorGreen || f[midi.ButtonLeft] != midi.ColorGreen {
		t.Errorf("session nav: %#x %#x %#x", f[midi.ButtonSession], f[midi.ButtonMixer], f[midi.ButtonLeft])
	}

	press(a, midi.ButtonMixer)
	press(a, midi.ButtonUser1)
	press(a, midi.ButtonScene1+2)
	if _, ok := a.Page().(*Instruments); !ok {
		t.Fatalf("User1+scene page = %T", a.Page())
	}
	ui := stopped()
	ui.Playing = 1
	a.Render(&f, ui)
	if f[midi.ButtonMixer] != midi.ColorRed || f[midi.ButtonRight] != midi.ColorRed|midi.Blink {
		t.Errorf("instrument nav: mixer=%#x right=%#x", f[midi.ButtonMixer], f[midi.ButtonRight])
	}
}
