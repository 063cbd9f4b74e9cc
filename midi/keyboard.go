package midi

import (
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Keyboard forwards the notes of a MIDI keyboard, used to audition
// tones on the selected track.
type Keyboard struct {
	id       string
	stopFunc func()
	noteChan chan NoteEvent
}

// NewKeyboard listens on inPort.
func NewKeyboard(id string, inPort drivers.In) (*Keyboard, error) {
	kb := &Keyboard{
		id:       id,
		noteChan: make(chan NoteEvent, 32),
	}
	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			kb.handle(msg)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "open keyboard input %s", id)
		}
		kb.stopFunc = stop
	}
	return kb, nil
}

func (kb *Keyboard) handle(msg gomidi.Message) {
	var channel, note, velocity uint8
	var ev NoteEvent
	switch {
	case msg.GetNoteStart(&channel, &note, &velocity):
		ev = NoteEvent{Note: note, Velocity: velocity, Channel: channel}
	case msg.GetNoteEnd(&channel, &note):
		ev = NoteEvent{Note: note, Channel: channel}
	default:
		return
	}
	select {
	case kb.noteChan <- ev:
	default:
	}
}

func (kb *Keyboard) ID() string {
	return kb.id
}

func (kb *Keyboard) Type() ControllerType {
	return ControllerKeyboard
}

func (kb *Keyboard) NoteEvents() <-chan NoteEvent {
	return kb.noteChan
}

func (kb *Keyboard) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	close(kb.noteChan)
	return nil
}
