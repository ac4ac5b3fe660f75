package messaging

import (
	"fmt"

	"capnproto.org/go/capnp/v3"

	"github.com/dmagro/dms-agent/internal/messaging/rawdatapointcapnp"
)

// IOError wraps a failure from the underlying capnp message machinery
// that isn't specific to any field.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("io error: %s", e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// EncodeBody serializes p as a packed Cap'n Proto message matching the
// RawDataPoint schema (internal/messaging/schema). Only Capnp encoding
// is implemented.
func EncodeBody(p RawDataPoint, encoding Encoding) ([]byte, error) {
	if encoding != EncodingCapnp {
		return nil, &UnimplementedEncodingError{Encoding: encoding}
	}

	msg, seg, err := capnp.NewMessage(capnp.SingleSegment(nil))
	if err != nil {
		return nil, &IOError{Err: err}
	}

	root, err := rawdatapointcapnp.NewRootRawDataPoint(seg)
	if err != nil {
		return nil, &IOError{Err: err}
	}
	if err := root.SetLocation(p.Location); err != nil {
		return nil, &IOError{Err: err}
	}
	if err := root.SetPath(p.Path); err != nil {
		return nil, &IOError{Err: err}
	}
	if err := root.SetComponent(p.Component); err != nil {
		return nil, &IOError{Err: err}
	}

	ts, err := root.NewTimestamp()
	if err != nil {
		return nil, &IOError{Err: err}
	}
	ts.SetUnixTimestamp(p.Timestamp.Unix())
	ts.SetNanosecond(uint32(p.Timestamp.Nanosecond()))

	val, err := root.NewValue()
	if err != nil {
		return nil, &IOError{Err: err}
	}
	switch p.Value.Kind {
	case ValueInteger:
		val.SetInteger(p.Value.Integer)
	case ValueFloat:
		val.SetFloat(p.Value.Float)
	case ValueBool:
		val.SetBoolean(p.Value.Bool)
	case ValueText:
		if err := val.SetText(p.Value.Text); err != nil {
			return nil, &IOError{Err: err}
		}
	}

	packed, err := msg.MarshalPacked()
	if err != nil {
		return nil, &IOError{Err: err}
	}
	return packed, nil
}

// DecodeBody parses a packed Cap'n Proto RawDataPoint message produced
// by EncodeBody.
func DecodeBody(data []byte, encoding Encoding) (RawDataPoint, error) {
	if encoding != EncodingCapnp {
		return RawDataPoint{}, &UnimplementedEncodingError{Encoding: encoding}
	}

	msg, err := capnp.UnmarshalPacked(data)
	if err != nil {
		return RawDataPoint{}, &IOError{Err: err}
	}

	root, err := rawdatapointcapnp.ReadRootRawDataPoint(msg)
	if err != nil {
		return RawDataPoint{}, &IOError{Err: err}
	}

	location, err := root.Location()
	if err != nil {
		return RawDataPoint{}, &IOError{Err: err}
	}
	path, err := root.Path()
	if err != nil {
		return RawDataPoint{}, &IOError{Err: err}
	}
	component, err := root.Component()
	if err != nil {
		return RawDataPoint{}, &IOError{Err: err}
	}
	ts, err := root.Timestamp()
	if err != nil {
		return RawDataPoint{}, &IOError{Err: err}
	}

	val, err := root.Value()
	if err != nil {
		return RawDataPoint{}, &IOError{Err: err}
	}

	var value DataValue
	switch val.Which() {
	case 0:
		value = Int(val.Integer())
	case 1:
		value = Flt(val.Float())
	case 2:
		value = Boolean(val.Boolean())
	case 3:
		text, err := val.Text()
		if err != nil {
			return RawDataPoint{}, &IOError{Err: err}
		}
		value = Str(text)
	}

	return RawDataPoint{
		Location:  location,
		Path:      path,
		Component: component,
		Timestamp: timestampFromWire(ts.UnixTimestamp(), ts.Nanosecond()),
		Value:     value,
	}, nil
}
