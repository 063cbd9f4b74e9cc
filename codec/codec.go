// Package codec maps continuous parameters onto the coarse column + level
// encoding used by the grid: a row of pads where the lit column is the
// coarse position and its brightness (1-3) the fine position.
package codec

import "math"

// Resolution is the total number of distinct non-zero levels.
type Resolution int

const (
	Volume  Resolution = 24     // 8 pads x 3 levels
	Control Resolution = 3 * 31 // 31 pads x 3 levels
)

// Encode quantizes v (clamped to [0,1]) into a column and a level 0-3.
// Level 0 only ever comes with column 0 and means zero / unset, so a
// negative "unset" sentinel encodes as (0, 0) too.
func (r Resolution) Encode(v float64) (column, level int) {
	n := int(math.Round(clamp01(v) * float64(r)))
	if n == 0 {
		return 0, 0
	}
	n--
	return n / 3, n%3 + 1
}

// Decode is the inverse of Encode.
func (r Resolution) Decode(column, level int) float64 {
	return float64(column*3+level) / float64(r)
}

// MaxError is the worst-case distance between v and Decode(Encode(v)).
func (r Resolution) MaxError() float64 {
	return 1 / (2 * float64(r))
}

// Columns returns how many pads the resolution spans.
func (r Resolution) Columns() int {
	return (int(r) + 2) / 3
}

// Cycle applies a pad press on column pressed to the current value.
// Pressing another column jumps to its brightest level; pressing the lit
// column steps the level down 3, 2, 1, 0 and back to 3.
func (r Resolution) Cycle(current float64, pressed int) float64 {
	c, l := r.Encode(current)
	if pressed != c {
		return r.Decode(pressed, 3)
	}
	return r.Decode(pressed, (l+3)%4)
}

// Range maps a bounded integer parameter (latency, swing) onto [0,1].
type Range struct {
	Min, Max int
}

var (
	Latency = Range{Min: -48, Max: 48}
	Swing   = Range{Min: 0, Max: 24}
)

// Clamp limits n to the range.
func (g Range) Clamp(n int) int {
	return max(g.Min, min(g.Max, n))
}

// Normalize maps n to [0,1], clamping first.
func (g Range) Normalize(n int) float64 {
	if g.Max == g.Min {
		return 0
	}
	return float64(g.Clamp(n)-g.Min) / float64(g.Max-g.Min)
}

// Denormalize maps v in [0,1] back to the nearest integer in range.
func (g Range) Denormalize(v float64) int {
	return g.Min + int(math.Round(clamp01(v)*float64(g.Max-g.Min)))
}

// Encode is Normalize followed by r.Encode.
func (g Range) Encode(r Resolution, n int) (column, level int) {
	return r.Encode(g.Normalize(n))
}

// Decode is r.Decode followed by Denormalize.
func (g Range) Decode(r Resolution, column, level int) int {
	return g.Denormalize(r.Decode(column, level))
}

// Cycle applies a pad press to n the way Resolution.Cycle does.
func (g Range) Cycle(r Resolution, n, pressed int) int {
	c, l := g.Encode(r, n)
	if pressed != c {
		return g.Decode(r, pressed, 3)
	}
	return g.Decode(r, pressed, (l+3)%4)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
