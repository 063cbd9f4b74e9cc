package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"padseq/backend"
	"padseq/engine"
	"padseq/midi"
	"padseq/project"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detect(arg(args, 0, "launchpad"))
	case "leds":
		testLEDs(arg(args, 0, "launchpad"))
	case "buttons":
		testButtons(arg(args, 0, "launchpad"))
	case "note":
		testNote(args)
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                       - List all MIDI ports")
	fmt.Println("  detect [name]              - Find ports matching name")
	fmt.Println("  leds [name]                - Test Launchpad LED colors")
	fmt.Println("  buttons [name]             - Print Launchpad button presses")
	fmt.Println("  note port module tone [..] - Sound a note or chord on a synth")
	fmt.Println("  poll                       - Poll for device changes")
}

func arg(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ins, outs, err := midi.Ports()
	if err != nil {
		fmt.Printf("\n%v\n", err)
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func detect(name string) {
	fmt.Printf("Looking for %q...\n", name)

	in, inErr := midi.FindIn(name)
	if inErr == nil {
		fmt.Printf("Found input: %s\n", in.String())
	}
	out, outErr := midi.FindOut(name)
	if outErr == nil {
		fmt.Printf("Found output: %s\n", out.String())
	}

	if inErr == nil && outErr == nil {
		fmt.Println("\nDevice detected!")
	} else {
		fmt.Println("\nDevice not found")
	}
}

func openLaunchpad(name string) (*midi.Launchpad, error) {
	in, err := midi.FindIn(name)
	if err != nil {
		return nil, err
	}
	out, err := midi.FindOut(name)
	if err != nil {
		return nil, err
	}
	return midi.NewLaunchpad(out.String(), in, out)
}

func testLEDs(name string) {
	fmt.Println("Testing LED control...")

	lp, err := openLaunchpad(name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer lp.Close()

	colors := []int{
		midi.ColorRed, midi.ColorDimRed, midi.ColorGreen, midi.ColorDimGreen,
		midi.ColorAmber, midi.ColorDimAmber, midi.ColorYellow, midi.ColorOrange,
	}

	fmt.Println("Lighting one color per row, flashing scene column...")
	for row, c := range colors {
		for col := 0; col < 8; col++ {
			lp.Set(row*8+col, c)
		}
		lp.Set(midi.ButtonScene1+row, c|midi.Blink)
		n, err := lp.Refresh()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("  row %d: %d messages\n", row, n)
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println("Press Enter to clear...")
	fmt.Scanln()

	for b := 0; b < midi.NumButtons; b++ {
		lp.Set(b, midi.ColorOff)
	}
	if _, err := lp.Refresh(); err != nil {
		fmt.Printf("Error: %v\n", err)
	}

	fmt.Println("Done!")
}

func testButtons(name string) {
	lp, err := openLaunchpad(name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer lp.Close()

	fmt.Println("Press buttons. Ctrl+C to exit.")
	for ev := range lp.Events() {
		state := "up"
		if ev.Pressed {
			state = "down"
			lp.Set(ev.Button, midi.ColorGreen)
		} else {
			lp.Set(ev.Button, midi.ColorOff)
		}
		lp.Refresh()
		fmt.Printf("  button %2d %s\n", ev.Button, state)
	}
}

// testNote sounds tones through the backend so the program change,
// note mapping and velocity match playback.
func testNote(args []string) {
	if len(args) < 3 {
		usage()
		return
	}
	send, err := midi.OpenSender(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	module, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Printf("Bad module %q\n", args[1])
		return
	}

	tones := [engine.Voices]int{engine.ToneOff, engine.ToneOff, engine.ToneOff, engine.ToneOff}
	var names []string
	for i, s := range args[2:] {
		if i >= engine.Voices {
			break
		}
		tone, err := strconv.Atoi(s)
		if err != nil {
			fmt.Printf("Bad tone %q\n", s)
			return
		}
		tones[i] = tone
		names = append(names, s)
	}

	b := backend.New(backend.DefaultOptions(), send)
	fmt.Printf("Module %d, tones %s\n", module, strings.Join(names, " "))
	b.SendNotes(0, tones, engine.Velocity(1, project.NoControl), module)
	time.Sleep(time.Second)
	b.SendNoteOff(0, module)
	fmt.Println("Done!")
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect devices to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		ins, outs, err := midi.Ports()
		if err != nil {
			fmt.Printf("  %v\n", err)
			time.Sleep(2 * time.Second)
			continue
		}

		var inNames, outNames []string
		for _, p := range ins {
			inNames = append(inNames, p.String())
		}
		for _, p := range outs {
			outNames = append(outNames, p.String())
		}

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)

			for _, name := range inNames {
				if midi.Matches(name, "launchpad") {
					fmt.Println("  -> Launchpad detected!")
				}
			}

			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}
