package colour

import (
	"encoding/json"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgb(r, g, b float64) colorful.Color {
	return colorful.Color{R: r, G: g, B: b}
}

func palette() []Reference {
	return []Reference{
		{rgb(1, 0, 0), 23},
		{rgb(1, 0.67, 0), 22},
		{rgb(0.67, 1, 0), 21},
		{rgb(0, 1, 0), 20},
		{rgb(0, 1, 0.67), 28},
		{rgb(0, 0.67, 1), 27},
		{rgb(0, 0, 1), 26},
	}
}

func TestToHSL(t *testing.T) {
	tests := []struct {
		name string
		in   colorful.Color
		want HSL
	}{
		{"red", rgb(1, 0, 0), HSL{0, 1, 0.5}},
		{"green", rgb(0, 1, 0), HSL{1.0 / 3.0, 1, 0.5}},
		{"blue", rgb(0, 0, 1), HSL{2.0 / 3.0, 1, 0.5}},
		{"white", rgb(1, 1, 1), HSL{0, 0, 1}},
		{"black", rgb(0, 0, 0), HSL{0, 0, 0}},
		{"grey", rgb(0.5, 0.5, 0.5), HSL{0, 0, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToHSL(tt.in)
			assert.InDelta(t, tt.want.H, got.H, 1e-9)
			assert.InDelta(t, tt.want.S, got.S, 1e-9)
			assert.InDelta(t, tt.want.L, got.L, 1e-9)
		})
	}
}

func TestDistanceHueWraps(t *testing.T) {
	a := HSL{H: 0.02, S: 1, L: 0.5}
	b := HSL{H: 0.98, S: 1, L: 0.5}
	assert.InDelta(t, 0.4, Distance(a, b), 1e-9)
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-12)
}

func TestDistanceWeightsHue(t *testing.T) {
	base := HSL{H: 0.5, S: 0.5, L: 0.5}
	hue := HSL{H: 0.6, S: 0.5, L: 0.5}
	sat := HSL{H: 0.5, S: 0.6, L: 0.5}
	assert.InDelta(t, 1.0, Distance(base, hue), 1e-9)
	assert.InDelta(t, 0.1, Distance(base, sat), 1e-9)
}

func TestLegacyDistanceIgnoresLightness(t *testing.T) {
	a := HSL{H: 0.1, S: 0.4, L: 0.1}
	b := HSL{H: 0.1, S: 0.4, L: 0.9}
	assert.Zero(t, LegacyDistance(a, b))
	assert.InDelta(t, 0.8, Distance(a, b), 1e-9)
}

func TestAssignExactSubset(t *testing.T) {
	refs := palette()
	detected := []colorful.Color{refs[4].Colour, refs[0].Colour, refs[6].Colour}

	for name, metric := range map[string]Metric{"fixed": Distance, "legacy": LegacyDistance} {
		t.Run(name, func(t *testing.T) {
			a, err := Assign(detected, refs, metric)
			require.NoError(t, err)
			require.Len(t, a.Matches, 3)
			assert.Equal(t, 28, a.Matches[0].DeviceID)
			assert.Equal(t, 23, a.Matches[1].DeviceID)
			assert.Equal(t, 26, a.Matches[2].DeviceID)
			assert.Zero(t, a.Total)
		})
	}
}

func TestAssignInsufficientReferences(t *testing.T) {
	refs := palette()[:2]
	detected := []colorful.Color{rgb(1, 0, 0), rgb(0, 1, 0), rgb(0, 0, 1)}

	_, err := Assign(detected, refs, Distance)
	assert.ErrorIs(t, err, ErrInsufficientReferences)
}

func TestAssignNearestUnderIllumination(t *testing.T) {
	refs := []Reference{
		{rgb(1, 0, 0), 1},
		{rgb(1, 42.0/255.0, 0), 3},
	}
	// Dim, washed out versions of the markers, listed in swapped order.
	detected := []colorful.Color{rgb(0.55, 0.2, 0.12), rgb(0.6, 0.12, 0.12)}

	a, err := Assign(detected, refs, Distance)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Matches[0].DeviceID)
	assert.Equal(t, 1, a.Matches[1].DeviceID)
	assert.Greater(t, a.Total, 0.0)
}

func TestAssignGlobalOptimum(t *testing.T) {
	// A greedy pass would give the first detected colour its nearest
	// reference and force a poor match for the second.
	refs := []Reference{
		{colorful.Hsv(0, 1, 1), 1},
		{colorful.Hsv(36, 1, 1), 2},
	}
	detected := []colorful.Color{colorful.Hsv(18, 1, 1), colorful.Hsv(350, 1, 1)}

	a, err := Assign(detected, refs, Distance)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Matches[0].DeviceID)
	assert.Equal(t, 1, a.Matches[1].DeviceID)
}

func TestAssignTieKeepsFirstSelection(t *testing.T) {
	refs := []Reference{
		{rgb(0, 0, 1), 7},
		{rgb(0, 0, 1), 8},
	}
	detected := []colorful.Color{rgb(0, 0, 1)}

	a, err := Assign(detected, refs, Distance)
	require.NoError(t, err)
	assert.Equal(t, 7, a.Matches[0].DeviceID)
}

func TestAssignEmpty(t *testing.T) {
	a, err := Assign(nil, palette(), nil)
	require.NoError(t, err)
	assert.Empty(t, a.Matches)
	assert.Zero(t, a.Total)
}

func TestFilterBlobs(t *testing.T) {
	blobs := []DetectedBlob{
		{Area: 10, Index: 0},
		{Area: 50, Index: 1},
		{Area: 30, Index: 2},
		{Area: 5, Index: 3},
	}

	got := FilterBlobs(blobs, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, 2, got[1].Index)
	assert.Equal(t, 0, blobs[0].Index, "input reordered")

	assert.Len(t, FilterBlobs(blobs, 10), 4)
}

func TestPlace(t *testing.T) {
	refs := []Reference{{rgb(1, 0, 0), 1}, {rgb(0, 0, 1), 3}}
	blobs := []DetectedBlob{
		{Centroid: Point{100, 200}, Colour: rgb(0.1, 0.1, 0.9), Area: 400, Index: 0},
		{Centroid: Point{10, 10}, Colour: rgb(0.2, 0.9, 0.2), Area: 3, Index: 1},
		{Centroid: Point{300, 100}, Colour: rgb(0.9, 0.1, 0.1), Area: 900, Index: 2},
	}

	got, err := Place(blobs, refs, Size{400, 400}, Size{200, 100}, Distance)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].DeviceID)
	assert.Equal(t, 2, got[0].BlobIndex)
	assert.Equal(t, Point{150, 25}, got[0].Point)
	assert.Equal(t, 3, got[1].DeviceID)
	assert.Equal(t, Point{50, 50}, got[1].Point)
	assert.Equal(t, refs[1].Colour, got[1].Reference)
}

func TestParseReference(t *testing.T) {
	r, err := ParseReference(" 255, 42 ,0,3")
	require.NoError(t, err)
	assert.Equal(t, 3, r.DeviceID)
	assert.Equal(t, "#ff2a00", r.Colour.Hex())

	for _, bad := range []string{"", "1,2,3", "1,2,3,4,5", "256,0,0,1", "-1,0,0,1", "a,b,c,d"} {
		_, err := ParseReference(bad)
		assert.ErrorIs(t, err, ErrMalformedReference, bad)
	}
}

func TestReferenceJSON(t *testing.T) {
	in := Reference{Colour: rgb(1, 0, 0), DeviceID: 1}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"colour":"#ff0000","device":1}`, string(data))

	var out Reference
	require.NoError(t, json.Unmarshal([]byte(`{"colour":"#0000ff","device":9}`), &out))
	assert.Equal(t, 9, out.DeviceID)
	assert.Equal(t, rgb(0, 0, 1), out.Colour)

	assert.Error(t, json.Unmarshal([]byte(`{"colour":"blue","device":9}`), &out))
}

func TestTemperatureGradient(t *testing.T) {
	g := TemperatureGradient()

	assert.Equal(t, g[0].Colour, g.GetColor(26, nil))
	assert.Equal(t, g[1].Colour, g.GetColor(31, nil))
	assert.Equal(t, g[0].Colour, g.GetColor(20, nil))
	assert.Equal(t, g[1].Colour, g.GetColor(35, nil))

	mid := g.GetColor(28.5, nil)
	assert.InDelta(t, 0.505, mid.R, 1e-9)
	assert.InDelta(t, 0.505, mid.G, 1e-9)
	assert.InDelta(t, 0.505, mid.B, 1e-9)

	square := func(t float64) float64 { return t * t }
	eased := g.GetColor(28.5, square)
	assert.InDelta(t, 0.01+0.25*0.99, eased.R, 1e-9)
}

func TestGradientReturnsStopsExactly(t *testing.T) {
	g := GradientTable{
		{0, rgb(0.1, 0.2, 0.3)},
		{10, rgb(0.7, 0.01, 0.9)},
		{20, rgb(1, 0.01, 0.01)},
	}
	for _, stop := range g {
		assert.Equal(t, stop.Colour, g.GetColor(stop.Value, nil))
		assert.Equal(t, stop.Colour, g.GetColor(stop.Value, func(float64) float64 { return 0.5 }))
	}
}
