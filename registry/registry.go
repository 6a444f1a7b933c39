// Package registry holds the per-device state driving the display.
//
// A Registry is not safe for concurrent use; it is owned by a single
// goroutine which serialises every mutation.
package registry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/matt-g-everett/sensorar/colour"
	"github.com/matt-g-everett/sensorar/telemetry"
)

const (
	// Epsilon is the tolerance used when comparing quantized values.
	Epsilon = 1e-5

	minDisplayTemperature = 20.0
	maxDisplayTemperature = 30.0
)

var ErrUnknownDevice = errors.New("unknown device")

// DeviceState is everything known about one sensor node.
type DeviceState struct {
	DeviceID int
	Latest   *telemetry.Measurement

	Temperature Series
	Humidity    Series
	Proximity   Series

	TicksSinceChartUpdate int
	// PastThreshold holds the proximity threshold state seen on the
	// previous measurement.
	PastThreshold bool
	BlobVisible   bool

	RoundedTemperature    float64
	HasRoundedTemperature bool

	Placement *colour.Placement
}

// Series returns the series of the given kind.
func (d *DeviceState) Series(kind SeriesKind) *Series {
	switch kind {
	case HumiditySeries:
		return &d.Humidity
	case ProximitySeries:
		return &d.Proximity
	default:
		return &d.Temperature
	}
}

// Registry maps device ids to their state.
type Registry struct {
	devices map[int]*DeviceState
}

// New creates an empty Registry.
func New() *Registry {
	r := new(Registry)
	r.devices = make(map[int]*DeviceState)
	return r
}

// Register creates state for id if none exists and returns it.
func (r *Registry) Register(id int) *DeviceState {
	d, ok := r.devices[id]
	if !ok {
		d = &DeviceState{DeviceID: id}
		r.devices[id] = d
	}
	return d
}

// Lookup returns the state for id.
func (r *Registry) Lookup(id int) (*DeviceState, error) {
	d, ok := r.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDevice, id)
	}
	return d, nil
}

// RecordMeasurement stores m as the latest sample of its device, registering
// the device first if it has never been seen.
func (r *Registry) RecordMeasurement(m telemetry.Measurement) *DeviceState {
	d := r.Register(m.DeviceID)
	d.Latest = &m
	return d
}

// IDs returns every registered device id in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// QuantizeTemperature clamps v to [20, 30] and rounds it to the nearest
// quarter so indicator colours do not flicker on sensor noise.
func QuantizeTemperature(v float64) float64 {
	if v < minDisplayTemperature {
		return minDisplayTemperature
	}
	if v > maxDisplayTemperature {
		return maxDisplayTemperature
	}
	return math.Round(v*4) / 4
}

// EqualWithinEpsilon reports whether a and b differ by less than epsilon.
func EqualWithinEpsilon(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}
