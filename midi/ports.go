package midi

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ScanTimeout bounds a port scan. CoreMIDI can hang; the fix is
// `sudo killall coreaudiod midiserver`.
const ScanTimeout = 3 * time.Second

// ErrScanTimeout is returned when the driver does not answer in time.
var ErrScanTimeout = errors.New("midi port scan timed out")

// Ports lists the input and output ports.
func Ports() ([]drivers.In, []drivers.Out, error) {
	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()
	select {
	case r := <-ch:
		return r.ins, r.outs, nil
	case <-time.After(ScanTimeout):
		return nil, nil, errors.WithStack(ErrScanTimeout)
	}
}

// Matches reports whether a port name contains name, ignoring case.
func Matches(port, name string) bool {
	return name != "" && strings.Contains(strings.ToLower(port), strings.ToLower(name))
}

// FindOut returns the first output port whose name contains name.
func FindOut(name string) (drivers.Out, error) {
	_, outs, err := Ports()
	if err != nil {
		return nil, err
	}
	for _, p := range outs {
		if Matches(p.String(), name) {
			return p, nil
		}
	}
	return nil, errors.Errorf("no MIDI output matching %q", name)
}

// FindIn returns the first input port whose name contains name.
func FindIn(name string) (drivers.In, error) {
	ins, _, err := Ports()
	if err != nil {
		return nil, err
	}
	for _, p := range ins {
		if Matches(p.String(), name) {
			return p, nil
		}
	}
	return nil, errors.Errorf("no MIDI input matching %q", name)
}

// OpenSender opens the output port matching name.
func OpenSender(name string) (func(gomidi.Message) error, error) {
	out, err := FindOut(name)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", out.String())
	}
	return send, nil
}
