package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// On-disk shapes. Unset chord and control slots are stored as null.

type projectFile struct {
	Tempo   int         `json:"tempo"`
	Latency int         `json:"latency"`
	Quantum int         `json:"quantum,omitempty"`
	Swing   int         `json:"swing"`
	Tracks  []trackFile `json:"tracks"`
}

type trackFile struct {
	Muted      bool          `json:"muted"`
	Volume     float64       `json:"volume"`
	Percussion bool          `json:"percussion"`
	Instrument int           `json:"instrument"`
	Sequence   []int         `json:"sequence"`
	Patterns   []patternFile `json:"patterns"`
}

type patternFile struct {
	Octave int        `json:"octave"`
	Notes  []noteFile `json:"notes"`
}

type noteFile struct {
	Tone    int        `json:"tone"`
	Chord   []*int     `json:"chord"`
	Control []*float64 `json:"control"`
	Trigger int        `json:"trigger"`
}

// Load reads a project from path. A missing file yields New().
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, errors.Wrapf(err, "read project %s", path)
	}
	p := New()
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, errors.Wrapf(err, "parse project %s", path)
	}
	return p, nil
}

// Save writes the project to path, creating the directory if needed.
func (p *Project) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "create project directory")
		}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode project")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "write project %s", path)
}

func (p *Project) MarshalJSON() ([]byte, error) {
	f := projectFile{
		Tempo:   p.Tempo,
		Latency: p.Latency,
		Quantum: p.Quantum,
		Swing:   p.Swing,
	}
	for _, t := range p.Tracks {
		tf := trackFile{
			Muted:      t.Muted,
			Volume:     t.Volume,
			Percussion: t.Kind == Percussion,
			Instrument: t.Instrument,
			Sequence:   append([]int{}, t.Sequence...),
		}
		for _, pat := range t.Patterns {
			pf := patternFile{Octave: pat.Octave}
			for i := range pat.Notes {
				pf.Notes = append(pf.Notes, encodeNote(&pat.Notes[i]))
			}
			tf.Patterns = append(tf.Patterns, pf)
		}
		f.Tracks = append(f.Tracks, tf)
	}
	return json.Marshal(f)
}

// UnmarshalJSON overlays the decoded document onto p. Missing tracks,
// patterns or notes keep their current value; out-of-range values are
// clamped.
func (p *Project) UnmarshalJSON(data []byte) error {
	var f projectFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	p.SetTempo(f.Tempo)
	p.SetLatency(f.Latency)
	if f.Quantum != 0 {
		p.SetQuantum(f.Quantum)
	}
	p.SetSwing(f.Swing)
	for i, tf := range f.Tracks {
		if i >= NumTracks {
			break
		}
		kind := Melodic
		if tf.Percussion {
			kind = Percussion
		}
		t := NewTrack(kind, 0)
		t.Muted = tf.Muted
		t.SetVolume(tf.Volume)
		t.SetInstrument(tf.Instrument)
		for _, s := range tf.Sequence {
			if s >= 0 && s < NumPatterns {
				t.Sequence = append(t.Sequence, s)
			}
		}
		for j, pf := range tf.Patterns {
			if j >= NumPatterns {
				break
			}
			pat := t.Patterns[j]
			pat.SetOctave(pf.Octave)
			for k, nf := range pf.Notes {
				if k >= NumSteps {
					break
				}
				pat.Notes[k] = decodeNote(nf)
			}
		}
		p.Tracks[i] = t
	}
	return nil
}

func encodeNote(n *Note) noteFile {
	nf := noteFile{
		Tone:    n.Tone,
		Chord:   make([]*int, NumChords),
		Control: make([]*float64, NumControls),
		Trigger: n.Trigger,
	}
	for i, c := range n.Chord {
		if c != NoChord {
			nf.Chord[i] = &c
		}
	}
	for i, c := range n.Control {
		if IsSet(c) {
			nf.Control[i] = &c
		}
	}
	return nf
}

func decodeNote(nf noteFile) Note {
	n := EmptyNote()
	n.Tone = clampInt(nf.Tone, NoteOff, MaxTone)
	n.SetTrigger(nf.Trigger)
	for i, c := range nf.Chord {
		if i < NumChords && c != nil {
			n.Chord[i] = *c
		}
	}
	for i, c := range nf.Control {
		if i < NumControls && c != nil {
			n.Control[i] = max(0, min(1, *c))
		}
	}
	return n
}
