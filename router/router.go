// Package router turns decoded measurements into per-device display state
// and render events.
package router

import (
	"log"

	"github.com/matt-g-everett/sensorar/colour"
	"github.com/matt-g-everett/sensorar/registry"
	"github.com/matt-g-everett/sensorar/telemetry"
)

// Config tunes the Router.
type Config struct {
	// PriorityDevice is charted until a measurement claims priority.
	PriorityDevice int
	// A measurement with proximity above PriorityThreshold makes its device
	// the priority device.
	PriorityThreshold float64
	// BlobThreshold is the proximity level whose rising edge toggles a
	// device's blob indicator.
	BlobThreshold float64
	// A series event is emitted once the tick counter exceeds this.
	ChartRefreshTicks int
	Options           []Option
	Gradient          colour.GradientTable
	Ease              func(float64) float64
}

// DefaultConfig returns the settings used by the deployed sensor fleet.
func DefaultConfig() Config {
	return Config{
		PriorityDevice:    1,
		PriorityThreshold: 40,
		BlobThreshold:     40,
		ChartRefreshTicks: 1,
		Gradient:          colour.TemperatureGradient(),
	}
}

// Router is the display state machine. It is not safe for concurrent use.
type Router struct {
	reg        *registry.Registry
	sink       Sink
	cfg        Config
	mode       Mode
	priority   int
	options    OptionSet
	references []colour.Reference
}

// New creates a Router in Numbers mode over reg.
func New(reg *registry.Registry, sink Sink, cfg Config, references []colour.Reference) *Router {
	r := new(Router)
	r.reg = reg
	r.sink = sink
	if r.sink == nil {
		r.sink = MultiSink(nil)
	}
	r.cfg = cfg
	r.mode = Numbers
	r.priority = cfg.PriorityDevice
	for _, o := range cfg.Options {
		r.options.Add(o)
	}
	r.references = append(r.references, references...)
	return r
}

// Mode returns the active mode.
func (r *Router) Mode() Mode {
	return r.mode
}

// Priority returns the device whose series are charted.
func (r *Router) Priority() int {
	return r.priority
}

// Registry returns the registry the Router mutates.
func (r *Router) Registry() *registry.Registry {
	return r.reg
}

// Advance moves to the next mode and recomputes visibility for every device.
// Entering BlobIndicators starts every indicator hidden.
func (r *Router) Advance() Mode {
	r.mode = r.mode.Next()
	log.Printf("switching to %s", r.mode)

	if r.mode == BlobIndicators {
		for _, id := range r.reg.IDs() {
			d, _ := r.reg.Lookup(id)
			d.BlobVisible = false
		}
	}

	mode := r.mode
	r.sink.Publish(Event{Kind: EventMode, Mode: &mode})
	r.publishAllVisibility()
	return r.mode
}

// SelectPriority makes id the priority device.
func (r *Router) SelectPriority(id int) {
	r.reg.Register(id)
	r.setPriority(id, true)
}

// ToggleOption adds or removes o from the display text and re-renders the
// text of every device that has reported.
func (r *Router) ToggleOption(o Option) {
	r.options.Toggle(o)
	for _, id := range r.reg.IDs() {
		d, _ := r.reg.Lookup(id)
		if d.Latest != nil {
			r.publishText(d)
		}
	}
}

// Options returns the selected display options.
func (r *Router) Options() []Option {
	return r.options.Selected()
}

// AddReference appends a reference colour.
func (r *Router) AddReference(ref colour.Reference) {
	r.references = append(r.references, ref)
	log.Printf("recorded reference colour %s for device %d", ref.Colour.Clamped().Hex(), ref.DeviceID)
}

// References returns a copy of the reference colours in insertion order.
func (r *Router) References() []colour.Reference {
	out := make([]colour.Reference, len(r.references))
	copy(out, r.references)
	return out
}

// Place registers each placed device at its screen position.
func (r *Router) Place(placements []colour.Placement) {
	for _, p := range placements {
		d := r.reg.Register(p.DeviceID)
		placement := p
		d.Placement = &placement
		d.PastThreshold = false

		point := p.Point
		r.sink.Publish(Event{
			DeviceID: p.DeviceID,
			Kind:     EventPlacement,
			Point:    &point,
			Colour:   p.Reference.Clamped().Hex(),
		})
		r.publishText(d)
		r.publishVisibility(d)
	}
}

// Handle routes one measurement. Unknown devices are registered on first
// sight.
func (r *Router) Handle(m telemetry.Measurement) {
	d := r.reg.RecordMeasurement(m)
	r.publishText(d)

	if m.Proximity > r.cfg.PriorityThreshold {
		r.setPriority(m.DeviceID, false)
	}

	if r.mode == BlobIndicators && r.updateIndicator(d, m) {
		return
	}

	if m.DeviceID == r.priority {
		r.updateSeries(d, m)
	}
}

func (r *Router) setPriority(id int, force bool) {
	changed := r.priority != id
	r.priority = id
	if _, ok := r.mode.Series(); ok && (changed || force) {
		r.publishAllVisibility()
	}
}

// updateIndicator applies the proximity hysteresis and reports whether the
// indicator was just shown, which ends processing of the measurement.
func (r *Router) updateIndicator(d *registry.DeviceState, m telemetry.Measurement) bool {
	past := m.Proximity > r.cfg.BlobThreshold
	if !d.PastThreshold && past {
		d.PastThreshold = true
		if d.BlobVisible {
			d.BlobVisible = false
			r.publishVisibility(d)
		} else {
			d.BlobVisible = true
			q := registry.QuantizeTemperature(m.Temperature)
			d.RoundedTemperature = q
			d.HasRoundedTemperature = true
			r.publishVisibility(d)
			r.publishIndicator(d)
			return true
		}
	} else {
		d.PastThreshold = past
	}

	q := registry.QuantizeTemperature(m.Temperature)
	if !d.HasRoundedTemperature || !registry.EqualWithinEpsilon(d.RoundedTemperature, q, registry.Epsilon) {
		d.RoundedTemperature = q
		d.HasRoundedTemperature = true
		r.publishIndicator(d)
	}
	return false
}

func (r *Router) updateSeries(d *registry.DeviceState, m telemetry.Measurement) {
	kind, ok := r.mode.Series()
	if !ok {
		return
	}

	var v float64
	switch kind {
	case registry.TemperatureSeries:
		if !m.Has(telemetry.FieldTemperature) {
			return
		}
		v = m.Temperature
	case registry.HumiditySeries:
		if !m.Has(telemetry.FieldHumidity) {
			return
		}
		v = m.Humidity
	case registry.ProximitySeries:
		if !m.Has(telemetry.FieldProximity) {
			return
		}
		v = m.Proximity
	}

	s := d.Series(kind)
	s.Append(v)
	d.TicksSinceChartUpdate++
	if d.TicksSinceChartUpdate > r.cfg.ChartRefreshTicks {
		d.TicksSinceChartUpdate = 0
		r.sink.Publish(Event{
			DeviceID: d.DeviceID,
			Kind:     EventSeries,
			Series:   kind.String(),
			Values:   s.Values(),
		})
	}
}

// Visibility computes what is shown for d in the current mode.
func (r *Router) Visibility(d *registry.DeviceState) Visibility {
	v := Visibility{
		Text: r.mode == Numbers,
		Blob: r.mode == BlobIndicators && d.BlobVisible,
	}
	if kind, ok := r.mode.Series(); ok && d.DeviceID == r.priority {
		v.Chart = true
		v.Series = kind.String()
	}
	return v
}

// IndicatorColour maps a quantized temperature onto the indicator ramp.
func (r *Router) IndicatorColour(v float64) string {
	return r.cfg.Gradient.GetColor(v, r.cfg.Ease).Clamped().Hex()
}

func (r *Router) publishText(d *registry.DeviceState) {
	r.sink.Publish(Event{
		DeviceID: d.DeviceID,
		Kind:     EventText,
		Text:     DisplayText(d.DeviceID, d.Latest, r.options.selected),
	})
}

func (r *Router) publishVisibility(d *registry.DeviceState) {
	v := r.Visibility(d)
	r.sink.Publish(Event{DeviceID: d.DeviceID, Kind: EventVisibility, Visibility: &v})
}

func (r *Router) publishAllVisibility() {
	for _, id := range r.reg.IDs() {
		d, _ := r.reg.Lookup(id)
		r.publishVisibility(d)
	}
}

func (r *Router) publishIndicator(d *registry.DeviceState) {
	v := d.RoundedTemperature
	r.sink.Publish(Event{
		DeviceID: d.DeviceID,
		Kind:     EventIndicator,
		Colour:   r.IndicatorColour(v),
		Value:    &v,
	})
}

// DeviceView is a copy of one device's state for the presentation layer.
type DeviceView struct {
	DeviceID           int                    `json:"device"`
	Latest             *telemetry.Measurement `json:"latest,omitempty"`
	Text               string                 `json:"text"`
	Visibility         Visibility             `json:"visibility"`
	Temperature        []float64              `json:"temperature"`
	Humidity           []float64              `json:"humidity"`
	Proximity          []float64              `json:"proximity"`
	PastThreshold      bool                   `json:"pastThreshold"`
	BlobVisible        bool                   `json:"blobVisible"`
	RoundedTemperature *float64               `json:"roundedTemperature,omitempty"`
	Indicator          string                 `json:"indicator,omitempty"`
	Placement          *colour.Placement      `json:"placement,omitempty"`
}

// Snapshot copies the state of every device, ordered by id.
func (r *Router) Snapshot() []DeviceView {
	views := make([]DeviceView, 0, r.reg.Len())
	for _, id := range r.reg.IDs() {
		d, _ := r.reg.Lookup(id)
		v := DeviceView{
			DeviceID:      id,
			Text:          DisplayText(id, d.Latest, r.options.selected),
			Visibility:    r.Visibility(d),
			Temperature:   d.Temperature.Values(),
			Humidity:      d.Humidity.Values(),
			Proximity:     d.Proximity.Values(),
			PastThreshold: d.PastThreshold,
			BlobVisible:   d.BlobVisible,
		}
		if d.Latest != nil {
			m := *d.Latest
			v.Latest = &m
		}
		if d.HasRoundedTemperature {
			q := d.RoundedTemperature
			v.RoundedTemperature = &q
			v.Indicator = r.IndicatorColour(q)
		}
		if d.Placement != nil {
			p := *d.Placement
			v.Placement = &p
		}
		views = append(views, v)
	}
	return views
}
