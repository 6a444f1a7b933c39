// Package colour matches detected marker colours to the reference colours
// of known sensor nodes and maps readings onto indicator colours.
package colour

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HueWeight scales the hue term of Distance relative to saturation and
// lightness. Illumination shifts lightness and saturation far more than hue.
const HueWeight = 10.0

// HSL is a hue, saturation, lightness triple with every component in [0,1].
type HSL struct {
	H float64
	S float64
	L float64
}

// ToHSL converts c by way of hue/saturation/brightness, deriving lightness
// as (2-s)*v/2.
func ToHSL(c colorful.Color) HSL {
	h, s, v := c.Clamped().Hsv()
	h /= 360.0
	if h >= 1 {
		h -= 1
	}
	return HSL{H: h, S: s, L: (2 - s) * v / 2}
}

// A Metric measures how far apart two colours are.
type Metric func(a, b HSL) float64

func hueDelta(a, b HSL) float64 {
	dh := math.Abs(a.H - b.H)
	return math.Min(dh, 1-dh) * HueWeight
}

// Distance is the hue weighted Euclidean distance between a and b. The hue
// term wraps around the colour wheel.
func Distance(a, b HSL) float64 {
	dh := hueDelta(a, b)
	ds := math.Abs(a.S - b.S)
	dl := math.Abs(a.L - b.L)
	return math.Sqrt(dh*dh + ds*ds + dl*dl)
}

// LegacyDistance reproduces the matcher shipped with the first generation of
// the mobile client, whose lightness term always evaluated to zero. Matches
// then depend on hue and saturation only.
func LegacyDistance(a, b HSL) float64 {
	dh := hueDelta(a, b)
	ds := math.Abs(a.S - b.S)
	return math.Sqrt(dh*dh + ds*ds)
}
