package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewParsesKnownLevels(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"info":  zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
	}
	for spec, want := range cases {
		log, err := New(spec, "test")
		if err != nil {
			t.Fatalf("New(%q): %v", spec, err)
		}
		if log.GetLevel() != want {
			t.Fatalf("New(%q): level = %v, want %v", spec, log.GetLevel(), want)
		}
	}
}

func TestNewRejectsUnknownSpec(t *testing.T) {
	if _, err := New("not-a-level", "test"); err == nil {
		t.Fatal("expected an error for an unrecognized --log-spec value")
	}
}
