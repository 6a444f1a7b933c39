package colour

import (
	"github.com/lucasb-eyer/go-colorful"
)

// GradientTable stores colour stops keyed by an input value, in ascending
// order of Value.
type GradientTable []struct {
	Value  float64
	Colour colorful.Color
}

// TemperatureGradient is the indicator ramp from cool cyan at 26 to red at 31.
func TemperatureGradient() GradientTable {
	return GradientTable{
		{26.0, colorful.Color{R: 0.01, G: 1.0, B: 1.0}},
		{31.0, colorful.Color{R: 1.0, G: 0.01, B: 0.01}},
	}
}

// GetColor blends linearly in RGB between the stops either side of v. The
// proportion between stops is passed through ease when it is not nil. Values
// outside the table clamp to the end stops.
func (g GradientTable) GetColor(v float64, ease func(float64) float64) colorful.Color {
	if len(g) == 0 {
		return colorful.Color{}
	}
	if v <= g[0].Value {
		return g[0].Colour
	}

	for i := 0; i < len(g)-1; i++ {
		c1 := g[i]
		c2 := g[i+1]
		if v == c2.Value {
			return c2.Colour
		}
		if c1.Value <= v && v < c2.Value {
			t := (v - c1.Value) / (c2.Value - c1.Value)
			if ease != nil {
				t = ease(t)
			}
			return c1.Colour.BlendRgb(c2.Colour, t)
		}
	}

	// Past the last keypoint.
	return g[len(g)-1].Colour
}
