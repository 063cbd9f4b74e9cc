package grid

import (
	"padseq/engine"
	"padseq/midi"
	"padseq/project"
)

// Page is one screen of the grid.
type Page interface {
	Handle(ev midi.ButtonEvent) bool
	Render(leds LEDs, ui engine.UIState)
}

// App owns the pages. Session, Mixer and Left switch between the session,
// mixer and tempo pages; the session page opens the pattern editor and the
// mixer the instrument picker. Right plays the song everywhere except in
// the pattern editor, where it plays the edited pattern.
type App struct {
	project   *project.Project
	transport Transport
	session   *Session
	page      Page
}

func NewApp(p *project.Project, t Transport) *App {
	a := &App{project: p, transport: t}
	a.session = NewSession(p, t)
	a.session.open = a.openPattern
	a.page = a.session
	return a
}

// Page returns the page on display.
func (a *App) Page() Page { return a.page }

// Handle routes a button event and reports whether anything changed.
func (a *App) Handle(ev midi.ButtonEvent) bool {
	if ev.Pressed {
		switch ev.Button {
		case midi.ButtonSession:
			if a.page == a.session {
				return false
			}
			a.session.reset()
			a.page = a.session
			return true
		case midi.ButtonMixer:
			if _, ok := a.page.(*Mixer); ok {
				return false
			}
			a.page = NewMixer(a.project, a.openInstruments)
			return true
		case midi.ButtonLeft:
			if _, ok := a.page.(*Tempo); ok {
				return false
			}
			a.page = NewTempo(a.project)
			return true
		case midi.ButtonRight:
			switch a.page.(type) {
			case *Mixer, *Tempo, *Instruments:
				a.transport.StartOrStopSession()
				return true
			}
		}
	}
	return a.page.Handle(ev)
}

func (a *App) openPattern(track, pattern int) {
	a.page = NewPattern(a.project, a.transport, track, pattern)
}

func (a *App) openInstruments(track int) {
	a.page = NewInstruments(a.project, track)
}

// Render paints the current page and the page buttons.
func (a *App) Render(leds LEDs, ui engine.UIState) {
	a.page.Render(leds, ui)

	session, mixer, tempo := midi.ColorGreen, midi.ColorGreen, midi.ColorGreen
	switch a.page.(type) {
	case *Session:
		session = midi.ColorAmber
	case *Pattern:
		session = midi.ColorRed
	case *Mixer:
		mixer = midi.ColorAmber
	case *Instruments:
		mixer = midi.ColorRed
	case *Tempo:
		tempo = midi.ColorAmber
	}
	leds.Set(midi.ButtonSession, session)
	leds.Set(midi.ButtonMixer, mixer)
	leds.Set(midi.ButtonLeft, tempo)
	leds.Set(midi.ButtonRight, playColor(ui.Playing))
}

// playColor is the play button: green when stopped, blinking amber during
// the count-in and blinking red while playing.
func playColor(playing int) int {
	switch {
	case playing > 0:
		return midi.ColorRed | midi.Blink
	case playing < 0:
		return midi.ColorAmber | midi.Blink
	}
	return midi.ColorGreen
}

// recordColor is the User 2 button: blinking red while recording, dark
// while playing otherwise, amber when armed.
func recordColor(recording, playing, armed bool) int {
	switch {
	case recording:
		return midi.ColorRed | midi.Blink
	case playing:
		return midi.ColorOff
	case armed:
		return midi.ColorAmber
	}
	return midi.ColorGreen
}

// held is the colour of a modifier button.
func held(on bool) int {
	if on {
		return midi.ColorAmber
	}
	return midi.ColorGreen
}

// amberLevel is the fine position of a column + level dial.
func amberLevel(level int) int {
	return midi.ColorDimAmber * level
}

// fader paints a column + level dial over the buttons first, first+1, ...
func fader(leds LEDs, first, width, column, level, full int) {
	for i := range width {
		c := midi.ColorOff
		switch {
		case i < column:
			c = full
		case i == column:
			c = amberLevel(level)
		}
		leds.Set(first+i, c)
	}
}
