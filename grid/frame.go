package grid

import "padseq/midi"

// Frame is an in-memory set of button colours. The host renders pages
// into a frame and copies it to the device and the terminal view.
type Frame [midi.NumButtons]int

func (f *Frame) Set(button, color int) {
	if button >= 0 && button < len(f) {
		f[button] = color
	}
}

// CopyTo stages every colour on leds.
func (f *Frame) CopyTo(leds LEDs) {
	for i, c := range f {
		leds.Set(i, c)
	}
}
