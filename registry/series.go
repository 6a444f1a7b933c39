package registry

// MaxSeriesLen bounds every series; the oldest sample is evicted first.
const MaxSeriesLen = 100

// SeriesKind names one of the charted readings.
type SeriesKind int

const (
	TemperatureSeries SeriesKind = iota
	HumiditySeries
	ProximitySeries
)

var seriesNames = [...]string{"temperature", "humidity", "proximity"}

func (k SeriesKind) String() string {
	if k < 0 || int(k) >= len(seriesNames) {
		return "unknown"
	}
	return seriesNames[k]
}

// ParseSeriesKind is the inverse of SeriesKind.String.
func ParseSeriesKind(s string) (SeriesKind, bool) {
	for i, n := range seriesNames {
		if n == s {
			return SeriesKind(i), true
		}
	}
	return 0, false
}

// Series is a bounded FIFO of samples.
type Series struct {
	values []float64
}

// Append adds v, evicting the oldest sample once the series is full.
func (s *Series) Append(v float64) {
	if len(s.values) == MaxSeriesLen {
		copy(s.values, s.values[1:])
		s.values[len(s.values)-1] = v
		return
	}
	s.values = append(s.values, v)
}

// Len returns the number of samples held.
func (s *Series) Len() int {
	return len(s.values)
}

// Values returns a copy of the samples, oldest first.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}
