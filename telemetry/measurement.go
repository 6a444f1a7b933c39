package telemetry

// Field identifies one decoded value of a Measurement.
type Field uint32

// Fields carried by a telemetry frame.
const (
	FieldProximity Field = 1 << iota
	FieldAmbient
	FieldRed
	FieldGreen
	FieldBlue
	FieldTemperature
	FieldPressure
	FieldHumidity
	FieldQuatW
	FieldQuatX
	FieldQuatY
	FieldQuatZ
	FieldAccelX
	FieldAccelY
	FieldAccelZ
	FieldMagnetX
	FieldMagnetY
	FieldMagnetZ
)

// FieldSet is a bit set of the fields present in a Measurement.
type FieldSet uint32

// Has reports whether every field in f is present.
func (s FieldSet) Has(f Field) bool {
	return uint32(s)&uint32(f) == uint32(f)
}

func (s FieldSet) with(f Field) FieldSet {
	return FieldSet(uint32(s) | uint32(f))
}

// Quaternion is an orientation reading.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vector is a three axis reading.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Measurement is one decoded sample from a sensor node.
//
// Red, Green and Blue are raw light sensor channels, not a display colour.
// Only the fields recorded in Present carry decoded values; the rest are zero.
type Measurement struct {
	DeviceID     int        `json:"deviceId"`
	Proximity    float64    `json:"proximity"`
	Ambient      float64    `json:"ambient"`
	Red          float64    `json:"red"`
	Green        float64    `json:"green"`
	Blue         float64    `json:"blue"`
	Temperature  float64    `json:"temperature"`
	Pressure     float64    `json:"pressure"`
	Humidity     float64    `json:"humidity"`
	Orientation  Quaternion `json:"orientation"`
	Acceleration Vector     `json:"acceleration"`
	Magnetic     Vector     `json:"magnetic"`
	Present      FieldSet   `json:"present"`
}

// Has reports whether the field was decoded from the frame.
func (m Measurement) Has(f Field) bool {
	return m.Present.Has(f)
}

// Placeholder reports whether m is the degraded frame sent for a node with no
// real sensor attached.
func (m Measurement) Placeholder() bool {
	return m.DeviceID == PlaceholderDeviceID && m.Blue == placeholderBlue
}
