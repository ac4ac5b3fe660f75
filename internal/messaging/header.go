package messaging

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// EncodeHeader serializes h as the line-oriented textual header:
//
//	<DataType>/<Topic>\n
//	<Version>\n
//	<Encoding>\n
//	\n
//
// Only Plain encoding is implemented.
func EncodeHeader(h MessageHeader, encoding Encoding) ([]byte, error) {
	if encoding != EncodingPlain {
		return nil, &UnimplementedEncodingError{Encoding: encoding}
	}
	return []byte(fmt.Sprintf("%s/%s\n%d\n%s\n\n", h.DataType, h.Topic, h.Version, h.Encoding)), nil
}

// DecodeHeader parses bytes produced by EncodeHeader (or any conforming
// writer). Extra sections found before the terminating empty line are
// tolerated and logged via log, not treated as an error.
func DecodeHeader(data []byte, encoding Encoding, log zerolog.Logger) (MessageHeader, error) {
	if encoding != EncodingPlain {
		return MessageHeader{}, &UnimplementedEncodingError{Encoding: encoding}
	}

	var parts [][]byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(line) == 0 {
			break
		}
		parts = append(parts, line)
	}

	if len(parts) < 1 {
		return MessageHeader{}, &MissingFieldError{Field: "data type/topic"}
	}

	dtTopic := parts[0]
	slash := bytes.IndexByte(dtTopic, '/')
	if slash < 0 {
		return MessageHeader{}, &MissingFieldError{Field: "topic"}
	}
	dtBytes, topicBytes := dtTopic[:slash], dtTopic[slash+1:]

	if !utf8.Valid(dtBytes) {
		return MessageHeader{}, &UTF8Error{Field: "data type"}
	}
	dataType, err := ParseDataType(string(dtBytes))
	if err != nil {
		return MessageHeader{}, err
	}

	if !utf8.Valid(topicBytes) {
		return MessageHeader{}, &UTF8Error{Field: "topic"}
	}
	topic := string(topicBytes)

	if len(parts) < 2 {
		return MessageHeader{}, &MissingFieldError{Field: "version"}
	}
	if !utf8.Valid(parts[1]) {
		return MessageHeader{}, &UTF8Error{Field: "version"}
	}
	versionInt, err := strconv.ParseUint(string(parts[1]), 10, 8)
	if err != nil {
		return MessageHeader{}, &InvalidVersionError{Err: err}
	}

	if len(parts) < 3 {
		return MessageHeader{}, &MissingFieldError{Field: "encoding"}
	}
	if !utf8.Valid(parts[2]) {
		return MessageHeader{}, &UTF8Error{Field: "encoding"}
	}
	enc, err := ParseEncoding(string(parts[2]))
	if err != nil {
		return MessageHeader{}, err
	}

	for _, extra := range parts[3:] {
		log.Warn().Bytes("extra", extra).Msg("found extra part in message header")
	}

	return MessageHeader{
		DataType: dataType,
		Topic:    topic,
		Version:  uint8(versionInt),
		Encoding: enc,
	}, nil
}
