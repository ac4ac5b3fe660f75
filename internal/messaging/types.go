// Package messaging defines the wire-level data model: the tagged
// DataValue union, the RawDataPoint measurement, and the textual
// MessageHeader, plus their encode/decode functions.
package messaging

import "time"

// ValueKind discriminates the DataValue union.
type ValueKind int

const (
	ValueInteger ValueKind = iota
	ValueFloat
	ValueBool
	ValueText
)

// DataValue is an immutable tagged union over {integer, float, bool, text}.
// Only the field matching Kind is meaningful.
type DataValue struct {
	Kind    ValueKind
	Integer int64
	Float   float64
	Bool    bool
	Text    string
}

// Int returns an integer-valued DataValue.
func Int(v int64) DataValue { return DataValue{Kind: ValueInteger, Integer: v} }

// Flt returns a float-valued DataValue.
func Flt(v float64) DataValue { return DataValue{Kind: ValueFloat, Float: v} }

// Boolean returns a bool-valued DataValue.
func Boolean(v bool) DataValue { return DataValue{Kind: ValueBool, Bool: v} }

// Str returns a text-valued DataValue.
func Str(v string) DataValue { return DataValue{Kind: ValueText, Text: v} }

// RawDataPoint is a single tagged measurement emitted by a probe via a
// Collector. It travels through the collector channel and is consumed
// during encoding.
type RawDataPoint struct {
	Location  string
	Path      string
	Component string
	Timestamp time.Time
	Value     DataValue
}

// DataType identifies which kind of message a MessageHeader describes.
type DataType int

const (
	DataTypeRawDataPoint DataType = iota
	DataTypeMessageHeader
)

func (d DataType) String() string {
	switch d {
	case DataTypeRawDataPoint:
		return "RawDataPoint"
	case DataTypeMessageHeader:
		return "MessageHeader"
	default:
		return "Unknown"
	}
}

// ParseDataType parses the textual DataType used on the wire.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "RawDataPoint":
		return DataTypeRawDataPoint, nil
	case "MessageHeader":
		return DataTypeMessageHeader, nil
	default:
		return 0, &UnknownDataTypeError{Value: s}
	}
}

// Encoding identifies how a message body is serialized.
type Encoding int

const (
	EncodingCapnp Encoding = iota
	EncodingPlain
)

func (e Encoding) String() string {
	switch e {
	case EncodingCapnp:
		return "capnp"
	case EncodingPlain:
		return "plain"
	default:
		return "unknown"
	}
}

// ParseEncoding parses the textual Encoding used on the wire.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "capnp":
		return EncodingCapnp, nil
	case "plain":
		return EncodingPlain, nil
	default:
		return 0, &UnknownEncodingError{Value: s}
	}
}

func timestampFromWire(unixTimestamp int64, nanosecond uint32) time.Time {
	return time.Unix(unixTimestamp, int64(nanosecond)).UTC()
}

// MessageHeader precedes every framed message on the wire. It is
// constructed per-message at send time and never retained.
type MessageHeader struct {
	DataType DataType
	Topic    string
	Version  uint8
	Encoding Encoding
}
