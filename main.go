package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"padseq/backend"
	"padseq/config"
	"padseq/debug"
	"padseq/engine"
	"padseq/midi"
	"padseq/project"
	"padseq/theme"
	"padseq/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/padseq/config.yaml)")
	projectPath := flag.String("project", "", "project file (overrides config)")
	flag.Parse()

	if err := run(*configPath, *projectPath); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, projectPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if cfg.Log.Enabled {
		if err := debug.Enable(cfg.LogPath(), cfg.Log.Level); err != nil {
			return err
		}
	}

	if projectPath == "" {
		projectPath = cfg.ProjectPath()
	}
	proj, err := project.Load(projectPath)
	if err != nil {
		return err
	}

	var palette *theme.Palette
	if cfg.UI.Palette != "" {
		if palette, err = theme.LoadGPL(cfg.Path(cfg.UI.Palette)); err != nil {
			debug.Warn("main", "palette: %v", err)
		}
	}
	th := theme.New(palette)

	// Without a synth the transport still runs, silently.
	send, err := midi.OpenSender(cfg.Synth.Port)
	if err != nil {
		debug.Warn("main", "synth %q: %v", cfg.Synth.Port, err)
		fmt.Printf("No synth port matching %q, running silent\n", cfg.Synth.Port)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := backend.New(cfg.BackendOptions(), send)
	go b.Run(ctx)

	e := engine.New(proj, b)

	deviceMgr := midi.NewDeviceManager(cfg.Controllers.Launchpad, cfg.Controllers.Keyboard)
	go deviceMgr.Run(ctx)

	fmt.Println("padseq")
	fmt.Println("Connect the Launchpad any time - it will be detected automatically")
	fmt.Println("")

	m := tui.NewModel(e, deviceMgr, th, projectPath, cfg.UI.FrameRate)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
