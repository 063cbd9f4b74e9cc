package backend

import (
	"math"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// PPQ is the resolution of recorded takes.
const PPQ = 960

// take collects the messages of one recording into a single SMF track.
type take struct {
	tempo float64
	track smf.Track
	last  uint32 // absolute tick of the last message
}

func newTake(tempo float64) *take {
	t := &take{tempo: tempo}
	t.track.Add(0, smf.MetaMeter(4, 4))
	t.track.Add(0, smf.MetaTempo(tempo))
	return t
}

// add appends msg at beat. Messages before the downbeat or out of order
// are placed at the latest tick written so far.
func (t *take) add(beat float64, msg gomidi.Message) {
	abs := t.last
	if beat > 0 {
		abs = max(abs, uint32(math.Round(beat*PPQ)))
	}
	t.track.Add(abs-t.last, msg)
	t.last = abs
}

func (t *take) tempoChange(beat, bpm float64) {
	t.tempo = bpm
	t.add(beat, gomidi.Message(smf.MetaTempo(bpm)))
}

// write closes the track and saves it as a type 0 file.
func (t *take) write(path string) error {
	t.track.Close(0)
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(PPQ)
	if err := sm.Add(t.track); err != nil {
		return errors.Wrap(err, "add take track")
	}
	if err := sm.WriteFile(path); err != nil {
		return errors.Wrapf(err, "write take %s", path)
	}
	return nil
}
