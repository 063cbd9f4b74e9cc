package config

import (
	"os"
	"path/filepath"
	"testing"

	"padseq/engine"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.FrameRate != 60 || cfg.Synth.LeadIn != 4 || cfg.Controllers.Launchpad != "Launchpad" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if got, want := cfg.ProjectPath(), filepath.Join(dir, "project.json"); got != want {
		t.Errorf("ProjectPath() = %q, want %q", got, want)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "synth:\n  port: FluidSynth\n  cc: [10, 11]\n  defaultCtl: 2\nui:\n  frameRate: -1\nfiles:\n  take: /tmp/x.mid\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Synth.Port != "FluidSynth" {
		t.Errorf("port = %q", cfg.Synth.Port)
	}
	if cfg.Synth.DefaultCtl != 1 || cfg.UI.FrameRate != 60 {
		t.Errorf("not normalized: ctl=%v fps=%d", cfg.Synth.DefaultCtl, cfg.UI.FrameRate)
	}
	if cfg.Synth.Metronome.High != 76 || cfg.Log.Level != "debug" {
		t.Errorf("defaults lost: %+v", cfg)
	}

	opts := cfg.BackendOptions()
	if opts.CC[1] != 10 || opts.CC[2] != 11 || opts.CC[3] != 0 || opts.CC[0] != 0 {
		t.Errorf("CC = %v", opts.CC)
	}
	if opts.DefaultCtl != engine.CtlScale || opts.TakePath != "/tmp/x.mid" || opts.Modules != 128 {
		t.Errorf("opts = %+v", opts)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("synth: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected an error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Synth.Port = "Out"
	cfg.Controllers.Keyboard = "Keystation"
	cfg.Log.Enabled = true
	if err := cfg.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Synth.Port != "Out" || got.Controllers.Keyboard != "Keystation" || !got.Log.Enabled {
		t.Errorf("round trip lost values: %+v", got)
	}
	if len(got.Synth.CC) != 4 {
		t.Errorf("cc = %v", got.Synth.CC)
	}
}
