package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
	ControllerKeyboard
)

func (t ControllerType) String() string {
	switch t {
	case ControllerLaunchpad:
		return "launchpad"
	case ControllerKeyboard:
		return "keyboard"
	}
	return "unknown"
}

// ButtonEvent is sent when a grid button is pressed or released
type ButtonEvent struct {
	Button  int // 0-63 grid, 64-71 scene, 72-79 top
	Pressed bool
}

// NoteEvent is sent when a key is played on a keyboard
type NoteEvent struct {
	Note     uint8
	Velocity uint8 // 0 on release
	Channel  uint8
}

// Controller is a MIDI input device managed by DeviceManager
type Controller interface {
	ID() string
	Type() ControllerType
	Close() error
}
