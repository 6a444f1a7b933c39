package router

import (
	"fmt"

	"github.com/matt-g-everett/sensorar/registry"
)

// Mode selects what the display shows for every device.
type Mode int

const (
	Numbers Mode = iota
	TemperatureMap
	BlobIndicators
	TemperatureSeries
	HumiditySeries
	ProximitySeries
)

var modeNames = map[Mode]string{
	Numbers:           "numbers",
	TemperatureMap:    "temperatureMap",
	BlobIndicators:    "blobIndicators",
	TemperatureSeries: "temperatureSeries",
	HumiditySeries:    "humiditySeries",
	ProximitySeries:   "proximitySeries",
}

// Advance order; the cycle has no terminal mode.
var nextMode = map[Mode]Mode{
	BlobIndicators:    TemperatureMap,
	TemperatureMap:    Numbers,
	Numbers:           TemperatureSeries,
	TemperatureSeries: HumiditySeries,
	HumiditySeries:    ProximitySeries,
	ProximitySeries:   BlobIndicators,
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (m *Mode) UnmarshalText(b []byte) error {
	for mode, name := range modeNames {
		if name == string(b) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", b)
}

// Next returns the mode that follows m.
func (m Mode) Next() Mode {
	if n, ok := nextMode[m]; ok {
		return n
	}
	return Numbers
}

// Series returns the series charted in m, if any.
func (m Mode) Series() (registry.SeriesKind, bool) {
	switch m {
	case TemperatureSeries:
		return registry.TemperatureSeries, true
	case HumiditySeries:
		return registry.HumiditySeries, true
	case ProximitySeries:
		return registry.ProximitySeries, true
	}
	return 0, false
}
