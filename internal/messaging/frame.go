package messaging

// FrameRawDataPoint builds the full on-wire framing for a single
// RawDataPoint message: a Plain-encoded MessageHeader followed by the
// Capnp-packed body, concatenated. A single socket write of the
// returned bytes conveys one full framed message.
func FrameRawDataPoint(p RawDataPoint, topic string, version uint8) ([]byte, error) {
	header := MessageHeader{
		DataType: DataTypeRawDataPoint,
		Topic:    topic,
		Version:  version,
		Encoding: EncodingCapnp,
	}

	headerBytes, err := EncodeHeader(header, EncodingPlain)
	if err != nil {
		return nil, err
	}

	bodyBytes, err := EncodeBody(p, EncodingCapnp)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, len(headerBytes)+len(bodyBytes))
	frame = append(frame, headerBytes...)
	frame = append(frame, bodyBytes...)
	return frame, nil
}
