package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MinFrameLen is the shortest frame accepted by Decode.
	MinFrameLen = 56
	// HeaderLen is the node count header preceding the payload.
	HeaderLen = 2
	// MinPayloadLen is the shortest payload left after the header.
	MinPayloadLen = 54
	// FullPayloadLen is the payload length needed to carry every field.
	FullPayloadLen = 56

	// PlaceholderDeviceID marks a node reporting without a real sensor.
	PlaceholderDeviceID = 4
	placeholderBlue     = 5

	scale = 100.0
)

var (
	ErrTooShort            = errors.New("frame too short")
	ErrTooShortAfterHeader = errors.New("payload too short after header")
)

type span struct {
	field  Field
	offset int
	size   int
	scaled bool
	signed bool
}

// Payload layout, offsets relative to the byte after the header.
var layout = []span{
	{FieldProximity, 1, 1, false, false},
	{FieldAmbient, 2, 2, false, false},
	{FieldRed, 4, 2, false, false},
	{FieldGreen, 6, 2, false, false},
	{FieldBlue, 8, 2, false, false},
	{FieldTemperature, 10, 2, true, false},
	{FieldPressure, 12, 2, true, false},
	{FieldHumidity, 14, 2, true, false},
	{FieldQuatW, 16, 4, true, true},
	{FieldQuatX, 20, 4, true, true},
	{FieldQuatY, 24, 4, true, true},
	{FieldQuatZ, 28, 4, true, true},
	{FieldAccelX, 32, 4, true, true},
	{FieldAccelY, 36, 4, true, true},
	{FieldAccelZ, 40, 4, true, true},
	{FieldMagnetX, 44, 4, true, true},
	{FieldMagnetY, 48, 4, true, true},
	{FieldMagnetZ, 52, 4, true, true},
}

// Decode parses a raw frame into a Measurement.
//
// Fields whose byte range runs past the end of the payload are left out of
// Present rather than failing the frame. Decode is safe to call concurrently.
func Decode(frame []byte) (Measurement, error) {
	if len(frame) < MinFrameLen {
		return Measurement{}, fmt.Errorf("%w: %d bytes", ErrTooShort, len(frame))
	}

	payload := frame[HeaderLen:]
	if len(payload) < MinPayloadLen {
		return Measurement{}, fmt.Errorf("%w: %d bytes", ErrTooShortAfterHeader, len(payload))
	}

	deviceID := int(payload[0])
	if deviceID == PlaceholderDeviceID {
		return placeholder(), nil
	}

	m := Measurement{DeviceID: deviceID}
	for _, s := range layout {
		if s.offset+s.size > len(payload) {
			continue
		}
		m.set(s.field, s.read(payload))
	}

	return m, nil
}

func placeholder() Measurement {
	m := Measurement{DeviceID: PlaceholderDeviceID}
	for _, f := range []Field{FieldProximity, FieldAmbient, FieldRed, FieldGreen, FieldTemperature, FieldPressure} {
		m.set(f, 0)
	}
	m.set(FieldBlue, placeholderBlue)
	return m
}

func (s span) read(payload []byte) float64 {
	b := payload[s.offset : s.offset+s.size]
	var v float64
	switch {
	case s.size == 1:
		v = float64(b[0])
	case s.size == 2:
		v = float64(binary.LittleEndian.Uint16(b))
	case s.signed:
		v = float64(int32(binary.LittleEndian.Uint32(b)))
	default:
		v = float64(binary.LittleEndian.Uint32(b))
	}

	if s.scaled {
		v /= scale
	}
	return v
}

func (s span) write(payload []byte, v float64) {
	b := payload[s.offset : s.offset+s.size]
	if s.scaled {
		v *= scale
	}
	raw := roundHalfAway(v)
	switch s.size {
	case 1:
		b[0] = uint8(raw)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(raw))
	default:
		binary.LittleEndian.PutUint32(b, uint32(int32(raw)))
	}
}

func roundHalfAway(v float64) int64 {
	if v < 0 {
		return int64(v - 0.5)
	}
	return int64(v + 0.5)
}

func (m *Measurement) set(f Field, v float64) {
	switch f {
	case FieldProximity:
		m.Proximity = v
	case FieldAmbient:
		m.Ambient = v
	case FieldRed:
		m.Red = v
	case FieldGreen:
		m.Green = v
	case FieldBlue:
		m.Blue = v
	case FieldTemperature:
		m.Temperature = v
	case FieldPressure:
		m.Pressure = v
	case FieldHumidity:
		m.Humidity = v
	case FieldQuatW:
		m.Orientation.W = v
	case FieldQuatX:
		m.Orientation.X = v
	case FieldQuatY:
		m.Orientation.Y = v
	case FieldQuatZ:
		m.Orientation.Z = v
	case FieldAccelX:
		m.Acceleration.X = v
	case FieldAccelY:
		m.Acceleration.Y = v
	case FieldAccelZ:
		m.Acceleration.Z = v
	case FieldMagnetX:
		m.Magnetic.X = v
	case FieldMagnetY:
		m.Magnetic.Y = v
	case FieldMagnetZ:
		m.Magnetic.Z = v
	}
	m.Present = m.Present.with(f)
}

func (m Measurement) get(f Field) float64 {
	switch f {
	case FieldProximity:
		return m.Proximity
	case FieldAmbient:
		return m.Ambient
	case FieldRed:
		return m.Red
	case FieldGreen:
		return m.Green
	case FieldBlue:
		return m.Blue
	case FieldTemperature:
		return m.Temperature
	case FieldPressure:
		return m.Pressure
	case FieldHumidity:
		return m.Humidity
	case FieldQuatW:
		return m.Orientation.W
	case FieldQuatX:
		return m.Orientation.X
	case FieldQuatY:
		return m.Orientation.Y
	case FieldQuatZ:
		return m.Orientation.Z
	case FieldAccelX:
		return m.Acceleration.X
	case FieldAccelY:
		return m.Acceleration.Y
	case FieldAccelZ:
		return m.Acceleration.Z
	case FieldMagnetX:
		return m.Magnetic.X
	case FieldMagnetY:
		return m.Magnetic.Y
	case FieldMagnetZ:
		return m.Magnetic.Z
	}
	return 0
}

// Encode writes m as a full length frame with the given node count
// in the header. Every field is written regardless of Present.
func (m Measurement) Encode(nodes uint16) []byte {
	data := make([]byte, HeaderLen+FullPayloadLen)
	binary.LittleEndian.PutUint16(data, nodes)

	payload := data[HeaderLen:]
	payload[0] = uint8(m.DeviceID)
	for _, s := range layout {
		s.write(payload, m.get(s.field))
	}

	return data
}
