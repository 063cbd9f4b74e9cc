package midi

import (
	"context"
	"sync"
	"time"

	"padseq/debug"

	"gitlab.com/gomidi/midi/v2/drivers"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceManager handles hot-plug detection of the Launchpad and the
// audition keyboard, matched by port name.
type DeviceManager struct {
	launchpadName string
	keyboardName  string

	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
	ports       func() ([]drivers.In, []drivers.Out, error)
}

// NewDeviceManager creates a new device manager. An empty name disables
// that controller.
func NewDeviceManager(launchpadName, keyboardName string) *DeviceManager {
	return &DeviceManager{
		launchpadName: launchpadName,
		keyboardName:  keyboardName,
		controllers:   make(map[string]Controller),
		events:        make(chan DeviceEvent, 16),
		pollRate:      time.Second,
		ports:         Ports,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	inPorts, outPorts, err := dm.ports()
	if err != nil {
		// skip this scan, the driver may recover
		debug.Warn("devices", "%v", err)
		return
	}

	seen := make(map[string]bool)
	for _, in := range inPorts {
		id := in.String()
		var kind ControllerType
		switch {
		case Matches(id, dm.launchpadName):
			kind = ControllerLaunchpad
		case Matches(id, dm.keyboardName):
			kind = ControllerKeyboard
		default:
			continue
		}
		seen[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := dm.open(kind, id, in, outPorts)
		if err != nil {
			debug.Warn("devices", "%v", err)
			continue
		}
		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()
		debug.Log("devices", "connected %s %s", kind, id)
		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: c, ID: id}
	}

	dm.mu.Lock()
	var gone []string
	for id := range dm.controllers {
		if !seen[id] {
			gone = append(gone, id)
		}
	}
	for _, id := range gone {
		dm.controllers[id].Close()
		delete(dm.controllers, id)
		debug.Log("devices", "disconnected %s", id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
	dm.mu.Unlock()
}

func (dm *DeviceManager) open(kind ControllerType, id string, in drivers.In, outs []drivers.Out) (Controller, error) {
	if kind == ControllerKeyboard {
		return NewKeyboard(id, in)
	}
	var out drivers.Out
	for _, o := range outs {
		if o.String() == id {
			out = o
			break
		}
	}
	return NewLaunchpad(id, in, out)
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}
