package colour

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrInsufficientReferences = errors.New("not enough reference colours for detected colours")

// Reference is a colour cue attached to a sensor node.
type Reference struct {
	Colour   colorful.Color
	DeviceID int
}

type referenceJSON struct {
	Colour   string `json:"colour"`
	DeviceID int    `json:"device"`
}

// MarshalJSON encodes the colour as a hex string.
func (r Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(referenceJSON{Colour: r.Colour.Clamped().Hex(), DeviceID: r.DeviceID})
}

// UnmarshalJSON decodes a {"colour": "#rrggbb", "device": N} object.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var raw referenceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c, err := colorful.Hex(raw.Colour)
	if err != nil {
		return fmt.Errorf("reference colour %q: %w", raw.Colour, err)
	}
	r.Colour = c
	r.DeviceID = raw.DeviceID
	return nil
}

// Assignment pairs each detected colour, by position, with a reference.
type Assignment struct {
	Matches []Reference
	Total   float64
}

// Assign finds the one-to-one pairing of detected colours to references that
// minimises the summed metric distance.
//
// The search is exhaustive over ordered selections of len(detected)
// references, visited in lexicographic order of reference index. The first
// selection reaching the minimum wins, which is the same pairing an
// exhaustive search over full permutations of the references would keep
// after truncation. Cost grows as M!/(M-N)! and is only tractable for the
// handful of nodes a sensor fleet carries; it is not a general matcher.
func Assign(detected []colorful.Color, refs []Reference, metric Metric) (Assignment, error) {
	if len(detected) > len(refs) {
		return Assignment{}, fmt.Errorf("%w: %d detected, %d references", ErrInsufficientReferences, len(detected), len(refs))
	}
	if metric == nil {
		metric = Distance
	}

	n := len(detected)
	cost := make([][]float64, n)
	for i, d := range detected {
		dh := ToHSL(d)
		cost[i] = make([]float64, len(refs))
		for j, r := range refs {
			cost[i][j] = metric(dh, ToHSL(r.Colour))
		}
	}

	s := search{
		cost: cost,
		used: make([]bool, len(refs)),
		cur:  make([]int, n),
		best: make([]int, n),
		min:  math.Inf(1),
	}
	s.visit(0, 0)

	a := Assignment{Matches: make([]Reference, n), Total: s.min}
	for i, j := range s.best {
		a.Matches[i] = refs[j]
	}
	return a, nil
}

type search struct {
	cost [][]float64
	used []bool
	cur  []int
	best []int
	min  float64
}

func (s *search) visit(i int, total float64) {
	// Distances are never negative, so a partial sum at or above the best
	// total cannot produce a strictly better selection.
	if total >= s.min {
		return
	}
	if i == len(s.cur) {
		s.min = total
		copy(s.best, s.cur)
		return
	}
	for j := range s.used {
		if s.used[j] {
			continue
		}
		s.used[j] = true
		s.cur[i] = j
		s.visit(i+1, total+s.cost[i][j])
		s.used[j] = false
	}
}
