package colour

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrMalformedReference = errors.New("reference entry must be R,G,B,ID with channels in 0..255")

// Point is a position in image or view space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the extent of an image or view.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectedBlob is a segmented image region believed to be a colour marker.
type DetectedBlob struct {
	Centroid Point
	Colour   colorful.Color
	Area     float64
	// Index is the blob's position in the unsorted detector output.
	Index int
}

// Placement ties a sensor node to the screen position of its marker.
type Placement struct {
	DeviceID  int            `json:"device"`
	Point     Point          `json:"point"`
	Detected  colorful.Color `json:"-"`
	Reference colorful.Color `json:"-"`
	BlobIndex int            `json:"blob"`
}

// FilterBlobs orders blobs by descending area and keeps at most limit of
// them. The input slice is not modified.
func FilterBlobs(blobs []DetectedBlob, limit int) []DetectedBlob {
	out := make([]DetectedBlob, len(blobs))
	copy(out, blobs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Area > out[j].Area
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ScalePoint maps p from image coordinates to view coordinates.
func ScalePoint(p Point, image, view Size) Point {
	if image.Width == 0 || image.Height == 0 {
		return p
	}
	return Point{
		X: p.X * view.Width / image.Width,
		Y: p.Y * view.Height / image.Height,
	}
}

// Place filters blobs down to the reference count, assigns each surviving
// blob to a reference and returns their placements in view coordinates.
// Nothing is placed when the assignment fails.
func Place(blobs []DetectedBlob, refs []Reference, image, view Size, metric Metric) ([]Placement, error) {
	filtered := FilterBlobs(blobs, len(refs))

	detected := make([]colorful.Color, len(filtered))
	for i, b := range filtered {
		detected[i] = b.Colour
	}

	a, err := Assign(detected, refs, metric)
	if err != nil {
		return nil, err
	}

	placements := make([]Placement, len(filtered))
	for i, b := range filtered {
		placements[i] = Placement{
			DeviceID:  a.Matches[i].DeviceID,
			Point:     ScalePoint(b.Centroid, image, view),
			Detected:  b.Colour,
			Reference: a.Matches[i].Colour,
			BlobIndex: b.Index,
		}
	}
	return placements, nil
}

// ParseReference reads an operator entry of the form "R,G,B,ID" with 8 bit
// colour channels.
func ParseReference(entry string) (Reference, error) {
	parts := strings.Split(entry, ",")
	if len(parts) != 4 {
		return Reference{}, fmt.Errorf("%w: %q", ErrMalformedReference, entry)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Reference{}, fmt.Errorf("%w: %q", ErrMalformedReference, entry)
		}
		v[i] = n
	}
	for _, c := range v[:3] {
		if c < 0 || c > 255 {
			return Reference{}, fmt.Errorf("%w: %q", ErrMalformedReference, entry)
		}
	}

	return Reference{
		Colour:   colorful.Color{R: float64(v[0]) / 255.0, G: float64(v[1]) / 255.0, B: float64(v[2]) / 255.0},
		DeviceID: v[3],
	}, nil
}
