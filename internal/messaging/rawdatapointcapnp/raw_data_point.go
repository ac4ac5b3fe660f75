// Package rawdatapointcapnp is the hand-written equivalent of the code
// capnpc-go would generate for ../schema/raw_data_point.capnp. It is
// written by hand, in the same shape capnpc-go emits (one Go struct
// wrapping capnp.Struct per capnp struct, with New/accessor methods per
// field), because the build does not invoke capnpc.
package rawdatapointcapnp

import (
	"math"

	"capnproto.org/go/capnp/v3"
)

// Value union discriminants, in the schema's member order. The schema's
// layout puts the discriminant at byte 8 of the data section and every
// union member (integer, float, boolean bit 0) at byte 0.
const (
	valueTagInteger uint16 = iota
	valueTagFloat
	valueTagBoolean
	valueTagText
)

// Timestamp wraps a Timestamp struct: {unixTimestamp Int64, nanosecond UInt32}.
type Timestamp struct{ capnp.Struct }

var timestampSize = capnp.ObjectSize{DataSize: 16, PointerCount: 0}

// NewTimestamp allocates a new Timestamp struct in s.
func NewTimestamp(s *capnp.Segment) (Timestamp, error) {
	st, err := capnp.NewStruct(s, timestampSize)
	return Timestamp{st}, err
}

func (t Timestamp) UnixTimestamp() int64 {
	return int64(t.Struct.Uint64(capnp.DataOffset(0)))
}

func (t Timestamp) SetUnixTimestamp(v int64) {
	t.Struct.SetUint64(capnp.DataOffset(0), uint64(v))
}

func (t Timestamp) Nanosecond() uint32 {
	return t.Struct.Uint32(capnp.DataOffset(8))
}

func (t Timestamp) SetNanosecond(v uint32) {
	t.Struct.SetUint32(capnp.DataOffset(8), v)
}

// Value wraps the Value union struct.
type Value struct{ capnp.Struct }

var valueSize = capnp.ObjectSize{DataSize: 16, PointerCount: 1}

// NewValue allocates a new Value struct in s.
func NewValue(s *capnp.Segment) (Value, error) {
	st, err := capnp.NewStruct(s, valueSize)
	return Value{st}, err
}

func (v Value) tag() uint16 {
	return v.Struct.Uint16(capnp.DataOffset(8))
}

func (v Value) setTag(tag uint16) {
	v.Struct.SetUint16(capnp.DataOffset(8), tag)
}

func (v Value) Which() uint16 {
	return v.tag()
}

func (v Value) IsInteger() bool { return v.tag() == valueTagInteger }
func (v Value) IsFloat() bool   { return v.tag() == valueTagFloat }
func (v Value) IsBoolean() bool { return v.tag() == valueTagBoolean }
func (v Value) IsText() bool    { return v.tag() == valueTagText }

func (v Value) Integer() int64 {
	return int64(v.Struct.Uint64(capnp.DataOffset(0)))
}

func (v Value) SetInteger(x int64) {
	v.setTag(valueTagInteger)
	v.Struct.SetUint64(capnp.DataOffset(0), uint64(x))
}

func (v Value) Float() float64 {
	return math.Float64frombits(v.Struct.Uint64(capnp.DataOffset(0)))
}

func (v Value) SetFloat(x float64) {
	v.setTag(valueTagFloat)
	v.Struct.SetUint64(capnp.DataOffset(0), math.Float64bits(x))
}

func (v Value) Boolean() bool {
	return v.Struct.Bit(capnp.BitOffset(0))
}

func (v Value) SetBoolean(x bool) {
	v.setTag(valueTagBoolean)
	v.Struct.SetBit(capnp.BitOffset(0), x)
}

func (v Value) Text() (string, error) {
	return v.Struct.Text(0)
}

func (v Value) SetText(x string) error {
	v.setTag(valueTagText)
	return v.Struct.SetText(0, x)
}

// RawDataPoint wraps the top-level RawDataPoint struct.
type RawDataPoint struct{ capnp.Struct }

var rawDataPointSize = capnp.ObjectSize{DataSize: 0, PointerCount: 5}

// NewRootRawDataPoint allocates RawDataPoint as the message root.
func NewRootRawDataPoint(s *capnp.Segment) (RawDataPoint, error) {
	st, err := capnp.NewRootStruct(s, rawDataPointSize)
	return RawDataPoint{st}, err
}

// ReadRootRawDataPoint reads the message root as a RawDataPoint.
func ReadRootRawDataPoint(msg *capnp.Message) (RawDataPoint, error) {
	p, err := msg.Root()
	if err != nil {
		return RawDataPoint{}, err
	}
	return RawDataPoint{p.Struct()}, nil
}

func (r RawDataPoint) Location() (string, error) { return r.Struct.Text(0) }
func (r RawDataPoint) SetLocation(v string) error { return r.Struct.SetText(0, v) }

func (r RawDataPoint) Path() (string, error) { return r.Struct.Text(1) }
func (r RawDataPoint) SetPath(v string) error { return r.Struct.SetText(1, v) }

func (r RawDataPoint) Component() (string, error) { return r.Struct.Text(2) }
func (r RawDataPoint) SetComponent(v string) error { return r.Struct.SetText(2, v) }

func (r RawDataPoint) Timestamp() (Timestamp, error) {
	p, err := r.Struct.Ptr(3)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{p.Struct()}, nil
}

func (r RawDataPoint) NewTimestamp() (Timestamp, error) {
	ts, err := NewTimestamp(r.Struct.Segment())
	if err != nil {
		return Timestamp{}, err
	}
	if err := r.Struct.SetPtr(3, ts.Struct.ToPtr()); err != nil {
		return Timestamp{}, err
	}
	return ts, nil
}

func (r RawDataPoint) Value() (Value, error) {
	p, err := r.Struct.Ptr(4)
	if err != nil {
		return Value{}, err
	}
	return Value{p.Struct()}, nil
}

func (r RawDataPoint) NewValue() (Value, error) {
	v, err := NewValue(r.Struct.Segment())
	if err != nil {
		return Value{}, err
	}
	if err := r.Struct.SetPtr(4, v.Struct.ToPtr()); err != nil {
		return Value{}, err
	}
	return v, nil
}
