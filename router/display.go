package router

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matt-g-everett/sensorar/telemetry"
)

// Option is a reading that may be included in a device's display text.
type Option string

const (
	OptionTemperature  Option = "Temperature"
	OptionPressure     Option = "Pressure"
	OptionHumidity     Option = "Humidity"
	OptionProximity    Option = "Proximity"
	OptionAmbient      Option = "Ambient light"
	OptionRGB          Option = "RGB light"
	OptionQuaternion   Option = "Quaternion"
	OptionAcceleration Option = "Acceleration"
	OptionMagnet       Option = "Magnet"
)

// Options lists the display vocabulary in menu order.
var Options = []Option{
	OptionTemperature,
	OptionPressure,
	OptionHumidity,
	OptionProximity,
	OptionAmbient,
	OptionRGB,
	OptionQuaternion,
	OptionAcceleration,
	OptionMagnet,
}

// WaitingText is shown for a placed device before its first measurement.
const WaitingText = "waiting to receive data"

// ParseOption returns the Option named s.
func ParseOption(s string) (Option, error) {
	for _, o := range Options {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown display option %q", s)
}

// OptionSet is an ordered selection of display options.
type OptionSet struct {
	selected []Option
}

// Add appends o unless it is already selected.
func (s *OptionSet) Add(o Option) {
	for _, sel := range s.selected {
		if sel == o {
			return
		}
	}
	s.selected = append(s.selected, o)
}

// Toggle removes o if selected, otherwise appends it.
func (s *OptionSet) Toggle(o Option) {
	for i, sel := range s.selected {
		if sel == o {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return
		}
	}
	s.selected = append(s.selected, o)
}

// Selected returns the selected options in selection order.
func (s *OptionSet) Selected() []Option {
	out := make([]Option, len(s.selected))
	copy(out, s.selected)
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DisplayText renders the device id followed by one line per selected option
// whose readings are present in m.
func DisplayText(deviceID int, m *telemetry.Measurement, options []Option) string {
	if m == nil {
		return WaitingText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", deviceID)
	for _, o := range options {
		switch o {
		case OptionTemperature:
			if m.Has(telemetry.FieldTemperature) {
				fmt.Fprintf(&b, "temperature=%s\n", num(m.Temperature))
			}
		case OptionPressure:
			if m.Has(telemetry.FieldPressure) {
				fmt.Fprintf(&b, "pressure=%s\n", num(m.Pressure))
			}
		case OptionProximity:
			if m.Has(telemetry.FieldProximity) {
				fmt.Fprintf(&b, "proximity=%s\n", num(m.Proximity))
			}
		case OptionHumidity:
			if m.Has(telemetry.FieldHumidity) {
				fmt.Fprintf(&b, "humidity=%s\n", num(m.Humidity))
			}
		case OptionAmbient:
			if m.Has(telemetry.FieldAmbient) {
				fmt.Fprintf(&b, "ambient light=%s\n", num(m.Ambient))
			}
		case OptionRGB:
			if m.Has(telemetry.FieldRed | telemetry.FieldGreen | telemetry.FieldBlue) {
				fmt.Fprintf(&b, "RGB light: R=%s G=%s B=%s\n", num(m.Red), num(m.Green), num(m.Blue))
			}
		case OptionQuaternion:
			if m.Has(telemetry.FieldQuatW | telemetry.FieldQuatX | telemetry.FieldQuatY | telemetry.FieldQuatZ) {
				q := m.Orientation
				fmt.Fprintf(&b, "quaternion: w=%s x=%s y=%s z=%s\n", num(q.W), num(q.X), num(q.Y), num(q.Z))
			}
		case OptionAcceleration:
			if m.Has(telemetry.FieldAccelX | telemetry.FieldAccelY | telemetry.FieldAccelZ) {
				a := m.Acceleration
				fmt.Fprintf(&b, "acceleration: x=%s y=%s z=%s\n", num(a.X), num(a.Y), num(a.Z))
			}
		case OptionMagnet:
			if m.Has(telemetry.FieldMagnetX | telemetry.FieldMagnetY | telemetry.FieldMagnetZ) {
				v := m.Magnetic
				fmt.Fprintf(&b, "magnet: x=%s y=%s z=%s\n", num(v.X), num(v.Y), num(v.Z))
			}
		}
	}
	return b.String()
}
