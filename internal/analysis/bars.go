package analysis

import "math"

// Stats is the summary statistics block shared by several payloads.
type Stats struct {
	Min  float64
	Mean float64
	Std  float64
	Max  float64
}

// Degenerate reports a zero-width range, where no position is defined.
func (s Stats) Degenerate() bool {
	return s.Max == s.Min
}

// Position maps value onto the [min, max] range as a percentage. ok is false
// when the range is degenerate or the result falls outside [0, 100].
func Position(value float64, s Stats) (pos float64, ok bool) {
	if s.Degenerate() {
		return 0, false
	}
	pos = (value - s.Min) / (s.Max - s.Min) * 100
	if math.IsNaN(pos) || pos < 0 || pos > 100 {
		return pos, false
	}
	return pos, true
}

type ThresholdMode int

const (
	// SingleSided draws one marker at the threshold.
	SingleSided ThresholdMode = iota
	// Symmetric draws markers at -|t| and +|t|.
	Symmetric
)

type Threshold struct {
	Label string
	Value float64
	Mode  ThresholdMode
}

type Marker struct {
	Label    string
	Value    float64
	Position float64
}

// Bar is a horizontal min..max range with the mean, a mean±std band and
// threshold markers placed as percentages of the range.
type Bar struct {
	Label        string
	Unit         string
	Stats        Stats
	MeanPosition float64
	BandLow      float64
	BandHigh     float64
	Markers      []Marker
}

// NewBar positions the mean, band and in-range threshold markers. A
// degenerate range centres the mean and draws no markers.
func NewBar(label, unit string, s Stats, thresholds ...Threshold) Bar {
	b := Bar{Label: label, Unit: unit, Stats: s}
	if s.Degenerate() {
		b.MeanPosition, b.BandLow, b.BandHigh = 50, 50, 50
		return b
	}
	b.MeanPosition = clamp(rawPosition(s.Mean, s))
	b.BandLow = clamp(rawPosition(s.Mean-s.Std, s))
	b.BandHigh = clamp(rawPosition(s.Mean+s.Std, s))

	for _, t := range thresholds {
		values := []float64{t.Value}
		if t.Mode == Symmetric {
			v := math.Abs(t.Value)
			values = []float64{-v, v}
		}
		for _, v := range values {
			if pos, ok := Position(v, s); ok {
				b.Markers = append(b.Markers, Marker{Label: t.Label, Value: v, Position: pos})
			}
		}
	}
	return b
}

func rawPosition(v float64, s Stats) float64 {
	return (v - s.Min) / (s.Max - s.Min) * 100
}

func clamp(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
