package router

import (
	"github.com/matt-g-everett/sensorar/colour"
)

// EventKind identifies what an Event asks the presentation layer to do.
type EventKind string

const (
	EventText       EventKind = "text"
	EventVisibility EventKind = "visibility"
	EventIndicator  EventKind = "indicator"
	EventSeries     EventKind = "series"
	EventPlacement  EventKind = "placement"
	EventMode       EventKind = "mode"
)

// Visibility is the set of artifacts shown for one device.
type Visibility struct {
	Text   bool   `json:"text"`
	Chart  bool   `json:"chart"`
	Series string `json:"series,omitempty"`
	Blob   bool   `json:"blob"`
}

// Event is a render instruction for a single device. Payload fields are set
// according to Kind.
type Event struct {
	DeviceID   int           `json:"device"`
	Kind       EventKind     `json:"kind"`
	Text       string        `json:"text,omitempty"`
	Visibility *Visibility   `json:"visibility,omitempty"`
	Colour     string        `json:"colour,omitempty"`
	Value      *float64      `json:"value,omitempty"`
	Series     string        `json:"series,omitempty"`
	Values     []float64     `json:"values,omitempty"`
	Point      *colour.Point `json:"point,omitempty"`
	Mode       *Mode         `json:"mode,omitempty"`
}

// A Sink receives render events. Publish is called from the goroutine that
// owns the Router and must not block.
type Sink interface {
	Publish(e Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(e Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) {
	f(e)
}

// MultiSink fans events out to every member in order.
type MultiSink []Sink

// Publish forwards e to each sink.
func (s MultiSink) Publish(e Event) {
	for _, sink := range s {
		sink.Publish(e)
	}
}
