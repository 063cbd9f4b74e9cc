package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"padseq/codec"
	"padseq/debug"
	"padseq/engine"
	"padseq/grid"
	"padseq/midi"
	"padseq/project"
	"padseq/theme"
	"padseq/widgets"
)

// keyboardOffset maps MIDI note 12 (C0) to tone 1.
const keyboardOffset = 11

// Model hosts the engine: every frame it calls Engine.Update, repaints
// the grid when the published state changed and pushes the LEDs.
type Model struct {
	Engine      *engine.Engine
	Project     *project.Project
	DeviceMgr   *midi.DeviceManager
	Theme       *theme.Theme
	ProjectPath string
	FrameRate   int

	app       *grid.App
	frame     grid.Frame
	launchpad *midi.Launchpad
	keyboard  *midi.Keyboard
	dirty     bool
	frames    int

	track, pattern int
	message        string
	quitting       bool
}

type frameMsg time.Time

type buttonMsg struct {
	source *midi.Launchpad
	event  midi.ButtonEvent
}

type noteMsg struct {
	source *midi.Keyboard
	event  midi.NoteEvent
}

type DeviceEventMsg midi.DeviceEvent

func NewModel(e *engine.Engine, deviceMgr *midi.DeviceManager, th *theme.Theme, projectPath string, fps int) *Model {
	return &Model{
		Engine:      e,
		Project:     e.Project(),
		DeviceMgr:   deviceMgr,
		Theme:       th,
		ProjectPath: projectPath,
		FrameRate:   max(fps, 1),
		app:         grid.NewApp(e.Project(), e),
		dirty:       true,
	}
}

func (m *Model) nextFrame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.FrameRate), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func listenForButtons(lp *midi.Launchpad) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-lp.Events()
		if !ok {
			return nil
		}
		return buttonMsg{source: lp, event: ev}
	}
}

func listenForNotes(kb *midi.Keyboard) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-kb.NoteEvents()
		if !ok {
			return nil
		}
		return noteMsg{source: kb, event: ev}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.nextFrame(), ListenForDevices(m.DeviceMgr))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())

	case frameMsg:
		m.onFrame()
		return m, m.nextFrame()

	case buttonMsg:
		if msg.source != m.launchpad {
			return m, nil
		}
		if m.app.Handle(msg.event) {
			m.dirty = true
		}
		return m, listenForButtons(msg.source)

	case noteMsg:
		if msg.source != m.keyboard {
			return m, nil
		}
		m.audition(msg.event)
		return m, listenForNotes(msg.source)

	case DeviceEventMsg:
		m.deviceEvent(midi.DeviceEvent(msg))
		return m, tea.Batch(ListenForDevices(m.DeviceMgr), m.listenTo(midi.DeviceEvent(msg)))
	}
	return m, nil
}

// onFrame runs one engine frame and refreshes the grid.
func (m *Model) onFrame() {
	m.frames++
	m.Engine.Update()
	mirror := m.Engine.UI()
	if !mirror.Dirty() && !m.dirty {
		return
	}
	ui, _ := mirror.Take()
	m.dirty = false
	m.app.Render(&m.frame, ui)
	if m.launchpad != nil {
		m.frame.CopyTo(m.launchpad)
		if _, err := m.launchpad.Refresh(); err != nil {
			debug.Warn("tui", "launchpad refresh: %v", err)
		}
	}
	debug.LogEvery(m.FrameRate*10, "tui", "frame playing=%d phase=%d", ui.Playing, ui.Phase)
}

func (m *Model) deviceEvent(ev midi.DeviceEvent) {
	switch ev.Type {
	case midi.DeviceConnected:
		switch c := ev.Controller.(type) {
		case *midi.Launchpad:
			m.launchpad = c
			m.dirty = true
			m.message = "launchpad " + c.ID()
		case *midi.Keyboard:
			m.keyboard = c
			m.message = "keyboard " + c.ID()
		}
	case midi.DeviceDisconnected:
		if m.launchpad != nil && m.launchpad.ID() == ev.ID {
			m.launchpad = nil
		}
		if m.keyboard != nil && m.keyboard.ID() == ev.ID {
			m.keyboard = nil
		}
		m.message = "disconnected " + ev.ID
	}
}

func (m *Model) listenTo(ev midi.DeviceEvent) tea.Cmd {
	if ev.Type != midi.DeviceConnected {
		return nil
	}
	switch c := ev.Controller.(type) {
	case *midi.Launchpad:
		return listenForButtons(c)
	case *midi.Keyboard:
		return listenForNotes(c)
	}
	return nil
}

// audition plays keyboard notes on the selected track.
func (m *Model) audition(ev midi.NoteEvent) {
	if ev.Velocity == 0 {
		m.Engine.ReleasePreview(m.track)
		return
	}
	tone := int(ev.Note) - keyboardOffset
	if tone < 1 || tone > project.MaxTone {
		return
	}
	m.Engine.Preview(m.track, tone, project.Chord{})
}

func (m *Model) handleKey(key string) tea.Cmd {
	p := m.Project
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		if m.Engine.Playing() {
			m.Engine.StartOrStopSession()
		}
		m.save()
		return tea.Quit
	case " ":
		m.Engine.StartOrStopSession()
	case "enter":
		m.Engine.StartOrStopPattern(m.track, m.pattern, false)
	case "r":
		m.Engine.StartOrStopPattern(m.track, m.pattern, true)
	case "up", "k":
		m.track = (m.track + project.NumTracks - 1) % project.NumTracks
	case "down", "j":
		m.track = (m.track + 1) % project.NumTracks
	case "left", "h":
		m.pattern = (m.pattern + project.NumPatterns - 1) % project.NumPatterns
	case "right", "l":
		m.pattern = (m.pattern + 1) % project.NumPatterns
	case "m":
		t := p.Tracks[m.track]
		t.Muted = !t.Muted
	case "t":
		p.Tracks[m.track].ToggleSequence(m.pattern)
	case "1", "2", "3", "4", "5", "6", "7", "8":
		t := p.Tracks[m.track]
		t.SetVolume(codec.Volume.Cycle(t.Volume, int(key[0]-'1')))
	case "+", "=":
		p.SetTempo(p.Tempo + 1)
	case "-", "_":
		p.SetTempo(p.Tempo - 1)
	case "]":
		p.SetSwing(p.Swing + 1)
	case "[":
		p.SetSwing(p.Swing - 1)
	case ">", ".":
		p.SetQuantum(p.Quantum + 1)
	case "<", ",":
		p.SetQuantum(p.Quantum - 1)
	case "}":
		p.SetLatency(p.Latency + 1)
	case "{":
		p.SetLatency(p.Latency - 1)
	case "s":
		m.save()
	default:
		return nil
	}
	m.dirty = true
	return nil
}

func (m *Model) save() {
	if m.ProjectPath == "" {
		return
	}
	if err := m.Project.Save(m.ProjectPath); err != nil {
		m.message = err.Error()
		debug.Warn("tui", "%v", err)
		return
	}
	m.message = "saved " + m.ProjectPath
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	p := m.Project
	ui := m.Engine.UI().Snapshot()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	activeStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	state := string(m.Theme.Symbols.Stopped) + " STOP"
	switch {
	case ui.Playing < 0:
		state = string(m.Theme.Symbols.CountIn) + " COUNT"
	case ui.Playing > 0 && m.Engine.Session():
		state = string(m.Theme.Symbols.Playing) + " SONG"
	case ui.Playing > 0:
		state = string(m.Theme.Symbols.Playing) + " PLAY"
	}
	if _, _, rec := m.Engine.Recording(); rec {
		state += " REC"
	}

	devices := ""
	if m.launchpad != nil {
		devices += " LP"
	}
	if m.keyboard != nil {
		devices += " KB"
	}

	header := headerStyle.Render(fmt.Sprintf("padseq  %-8s %3dbpm  q%d  swing %2d  latency %+3dms  beat %d/%d%s",
		state, p.Tempo, p.Quantum, p.Swing, p.Latency, ui.Phase+1, p.Quantum, devices))

	var tracks strings.Builder
	for i, t := range p.Tracks {
		cursor := "  "
		if i == m.track {
			cursor = "> "
		}
		mute := " "
		if t.Muted {
			mute = string(m.Theme.Symbols.Muted)
		}
		var pats strings.Builder
		for j := range t.Patterns {
			c := "·"
			if !t.Patterns[j].Empty() {
				c = "o"
			}
			if ui.Playing != 0 && ui.Pattern[i] == engine.Slot(j) {
				c = activeStyle.Render(string(m.Theme.Symbols.Playing))
			}
			if i == m.track && j == m.pattern {
				c = "[" + c + "]"
			} else {
				c = " " + c + " "
			}
			pats.WriteString(c)
		}
		line := fmt.Sprintf("%s%d %s %-10s ins%2d vol %s %s  seq %v",
			cursor, i+1, mute, t.Kind, t.Instrument, volumeMeter(t.Volume), pats.String(), t.Sequence)
		tracks.WriteString(line)
		tracks.WriteString("\n")
	}

	blinkOn := (m.frames/max(m.FrameRate/4, 1))%2 == 0
	pad := widgets.RenderLaunchpad([midi.NumButtons]int(m.frame), blinkOn, m.Theme.Symbols.Pad)

	help := dimStyle.Render(widgets.RenderKeyHelp([]widgets.KeySection{{Keys: []widgets.KeyBinding{
		{Key: "space", Desc: "play/stop song"},
		{Key: "enter / r", Desc: "play / record pattern"},
		{Key: "hjkl", Desc: "select track and pattern"},
		{Key: "m / t", Desc: "mute / toggle in sequence"},
		{Key: "1-8", Desc: "volume"},
		{Key: "+- [] <> {}", Desc: "tempo swing quantum latency"},
		{Key: "s / q", Desc: "save / quit"},
	}}}))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(tracks.String())
	out.WriteString("\n")
	out.WriteString(pad)
	out.WriteString("\n\n")
	out.WriteString(help)
	if m.message != "" {
		out.WriteString("\n")
		out.WriteString(warnStyle.Render(m.message))
	}
	return out.String()
}

var meterLevels = []string{"·", "░", "▒", "▓"}

// volumeMeter draws a volume the way the grid shows it: full pads up to
// the lit column, which shows its level.
func volumeMeter(v float64) string {
	c, l := codec.Volume.Encode(v)
	var b strings.Builder
	for i := range codec.Volume.Columns() {
		switch {
		case i < c:
			b.WriteString("█")
		case i == c:
			b.WriteString(meterLevels[l])
		default:
			b.WriteString(meterLevels[0])
		}
	}
	return b.String()
}
