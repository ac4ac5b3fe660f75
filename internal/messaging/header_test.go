package messaging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func TestEncodeHeader(t *testing.T) {
	h := MessageHeader{DataType: DataTypeRawDataPoint, Topic: "hello", Version: 42, Encoding: EncodingCapnp}
	got, err := EncodeHeader(h, EncodingPlain)
	if err != nil {
		t.Fatal(err)
	}
	want := "RawDataPoint/hello\n42\ncapnp\n\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := MessageHeader{DataType: DataTypeRawDataPoint, Topic: "hello", Version: 42, Encoding: EncodingCapnp}
	bytes, err := EncodeHeader(h, EncodingPlain)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeHeader(bytes, EncodingPlain, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestDecodeHeaderWithEmptyTopic(t *testing.T) {
	got, err := DecodeHeader([]byte("RawDataPoint/\n42\ncapnp\n\n"), EncodingPlain, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	want := MessageHeader{DataType: DataTypeRawDataPoint, Topic: "", Version: 42, Encoding: EncodingCapnp}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecodeHeaderTolerantOfExtraSections(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	got, err := DecodeHeader([]byte("RawDataPoint/\n42\ncapnp\nblah\n\n"), EncodingPlain, log)
	if err != nil {
		t.Fatal(err)
	}
	want := MessageHeader{DataType: DataTypeRawDataPoint, Topic: "", Version: 42, Encoding: EncodingCapnp}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if !bytes.Contains(buf.Bytes(), []byte("blah")) {
		t.Fatalf("expected extra section to be logged, got: %s", buf.String())
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		check func(t *testing.T, err error)
	}{
		{
			name:  "missing encoding",
			input: "RawDataPoint/hello\n42\n\n",
			check: func(t *testing.T, err error) {
				if _, ok := err.(*MissingFieldError); !ok {
					t.Fatalf("expected MissingFieldError, got %T: %v", err, err)
				}
			},
		},
		{
			name:  "negative version",
			input: "RawDataPoint/hello\n-1\ncapnp\n\n",
			check: func(t *testing.T, err error) {
				if _, ok := err.(*InvalidVersionError); !ok {
					t.Fatalf("expected InvalidVersionError, got %T: %v", err, err)
				}
			},
		},
		{
			name:  "version too large",
			input: "RawDataPoint/hello\n300\ncapnp\n\n",
			check: func(t *testing.T, err error) {
				if _, ok := err.(*InvalidVersionError); !ok {
					t.Fatalf("expected InvalidVersionError, got %T: %v", err, err)
				}
			},
		},
		{
			name:  "unknown encoding",
			input: "RawDataPoint/hello\n42\ncapn planet\n\n",
			check: func(t *testing.T, err error) {
				uerr, ok := err.(*UnknownEncodingError)
				if !ok {
					t.Fatalf("expected UnknownEncodingError, got %T: %v", err, err)
				}
				if uerr.Value != "capn planet" {
					t.Fatalf("unexpected value: %q", uerr.Value)
				}
			},
		},
		{
			name:  "missing version and topic present",
			input: "RawDataPoint/hello\n\n",
			check: func(t *testing.T, err error) {
				if _, ok := err.(*MissingFieldError); !ok {
					t.Fatalf("expected MissingFieldError, got %T: %v", err, err)
				}
			},
		},
		{
			name:  "missing topic separator",
			input: "RawDataPoint\n\n",
			check: func(t *testing.T, err error) {
				if _, ok := err.(*MissingFieldError); !ok {
					t.Fatalf("expected MissingFieldError, got %T: %v", err, err)
				}
			},
		},
		{
			name:  "empty message",
			input: "\n\n",
			check: func(t *testing.T, err error) {
				if _, ok := err.(*MissingFieldError); !ok {
					t.Fatalf("expected MissingFieldError, got %T: %v", err, err)
				}
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DecodeHeader([]byte(c.input), EncodingPlain, zerolog.Nop())
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			c.check(t, err)
		})
	}
}

func TestEncodeHeaderUnimplementedEncoding(t *testing.T) {
	_, err := EncodeHeader(MessageHeader{}, EncodingCapnp)
	if _, ok := err.(*UnimplementedEncodingError); !ok {
		t.Fatalf("expected UnimplementedEncodingError, got %T: %v", err, err)
	}
}
