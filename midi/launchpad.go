package midi

import (
	"sync"

	"padseq/debug"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Button indices. The 8x8 grid is 0-63 row by row from the top left.
const (
	ButtonScene1  = 64
	ButtonUp      = 72
	ButtonDown    = 73
	ButtonLeft    = 74
	ButtonRight   = 75
	ButtonSession = 76
	ButtonUser1   = 77
	ButtonUser2   = 78
	ButtonMixer   = 79
	NumButtons    = 80
)

// Colors are 0x0GR: green in bits 4-5, red in bits 0-1, brightness 0-3.
// Blink may be or'ed into any lit color.
const (
	ColorOff       = 0x000
	ColorDimRed    = 0x001
	ColorRed       = 0x003
	ColorDimGreen  = 0x010
	ColorGreen     = 0x030
	ColorDimAmber  = 0x011
	ColorAmber     = 0x033
	ColorYellow    = 0x032
	ColorOrange    = 0x023
	Blink          = 0x100
	colorMask      = 0x033
	flagsStatic    = 0x04
	flagsBlink     = 0x08
	flashingOn     = 0x28
	blankVelocity  = flagsStatic
	resetCC        = 0x00
	topButtonCCOff = 32
)

// Launchpad drives a first generation (two colour) Launchpad. LED changes are
// collected with Set and sent by Refresh, which only transmits the
// buttons whose colour changed.
type Launchpad struct {
	id     string
	send   func(msg gomidi.Message) error
	stop   func()
	events chan ButtonEvent

	mu      sync.Mutex
	current [NumButtons]uint8
	work    [NumButtons]uint8
}

// NewLaunchpad opens the device ports. Either port may be nil.
func NewLaunchpad(id string, in drivers.In, out drivers.Out) (*Launchpad, error) {
	var send func(gomidi.Message) error
	if out != nil {
		s, err := gomidi.SendTo(out)
		if err != nil {
			return nil, errors.Wrapf(err, "open launchpad output %s", id)
		}
		send = s
	}
	lp := newLaunchpad(id, send)
	if in != nil {
		stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
			lp.handle(msg)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "open launchpad input %s", id)
		}
		lp.stop = stop
	}
	return lp, nil
}

func newLaunchpad(id string, send func(gomidi.Message) error) *Launchpad {
	lp := &Launchpad{
		id:     id,
		send:   send,
		events: make(chan ButtonEvent, 32),
	}
	for i := range lp.current {
		lp.current[i] = blankVelocity
		lp.work[i] = blankVelocity
	}
	lp.reset()
	return lp
}

func (lp *Launchpad) ID() string {
	return lp.id
}

func (lp *Launchpad) Type() ControllerType {
	return ControllerLaunchpad
}

// Events delivers button presses and releases.
func (lp *Launchpad) Events() <-chan ButtonEvent {
	return lp.events
}

// handle decodes one incoming message.
func (lp *Launchpad) handle(msg gomidi.Message) {
	var channel, key, velocity, cc, value uint8
	button := -1
	pressed := false
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		button, pressed = noteToButton(key), true
	case msg.GetNoteEnd(&channel, &key):
		button = noteToButton(key)
	case msg.GetControlChange(&channel, &cc, &value):
		if cc >= ButtonUp+topButtonCCOff && cc < NumButtons+topButtonCCOff {
			button, pressed = int(cc)-topButtonCCOff, value > 0
		}
	}
	if button < 0 {
		return
	}
	select {
	case lp.events <- ButtonEvent{Button: button, Pressed: pressed}:
	default:
		debug.Log("launchpad", "dropped button %d", button)
	}
}

// Set stages a colour for a button.
func (lp *Launchpad) Set(button, color int) {
	if button < 0 || button >= NumButtons {
		return
	}
	lp.mu.Lock()
	lp.work[button] = velocity(color)
	lp.mu.Unlock()
}

// Refresh sends the staged colours that differ from what the device
// shows and reports how many messages it sent. When most buttons change
// it clears the device first and only sends the lit ones.
func (lp *Launchpad) Refresh() (int, error) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	var changes, lit []int
	for i, v := range lp.work {
		if v != lp.current[i] {
			changes = append(changes, i)
		}
		if v != blankVelocity {
			lit = append(lit, i)
		}
	}
	if len(changes) == 0 {
		return 0, nil
	}
	n := len(changes)
	if n > len(lit)+2 {
		changes = lit
		n = len(lit) + 2
		if err := lp.reset(); err != nil {
			return 0, err
		}
	}
	for _, i := range changes {
		if err := lp.write(i, lp.work[i]); err != nil {
			return 0, errors.Wrapf(err, "set button %d", i)
		}
	}
	lp.current = lp.work
	debug.LogEvery(100, "launchpad", "refresh sent=%d", n)
	return n, nil
}

func (lp *Launchpad) write(button int, v uint8) error {
	if lp.send == nil {
		return nil
	}
	switch {
	case button < ButtonScene1:
		return lp.send(gomidi.NoteOn(0, uint8(button/8*16+button%8), v))
	case button < ButtonUp:
		return lp.send(gomidi.NoteOn(0, uint8((button-ButtonScene1)*16+8), v))
	default:
		return lp.send(gomidi.ControlChange(0, uint8(button+topButtonCCOff), v))
	}
}

// reset turns every LED off and enables flashing.
func (lp *Launchpad) reset() error {
	if lp.send == nil {
		return nil
	}
	if err := lp.send(gomidi.ControlChange(0, resetCC, 0)); err != nil {
		return errors.Wrap(err, "reset launchpad")
	}
	return errors.Wrap(lp.send(gomidi.ControlChange(0, resetCC, flashingOn)), "enable flashing")
}

func (lp *Launchpad) Close() error {
	var err error
	if lp.send != nil {
		err = lp.send(gomidi.ControlChange(0, resetCC, 0))
	}
	if lp.stop != nil {
		lp.stop()
	}
	close(lp.events)
	return errors.Wrap(err, "close launchpad")
}

// velocity converts a 0x0GR colour to the device's note velocity.
func velocity(color int) uint8 {
	if color&Blink != 0 && color != Blink {
		return uint8(flagsBlink | color&colorMask)
	}
	return uint8(flagsStatic | color&colorMask)
}

// noteToButton maps a pad note (row*16 + col) to a button index.
func noteToButton(note uint8) int {
	row, col := int(note/16), int(note%16)
	switch {
	case row > 7:
		return -1
	case col < 8:
		return row*8 + col
	case col == 8:
		return ButtonScene1 + row
	}
	return -1
}
