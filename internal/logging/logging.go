// Package logging builds the agent's zerolog.Logger from the
// --log-spec flag, grounded on the pack's only logging-adjacent
// dependency (joeycumines-go-utilpkg/logiface-zerolog), which itself
// wraps github.com/rs/zerolog. The core never reaches for a package
// level logger; every component that logs is handed one at
// construction time.
package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New parses spec (a level name such as "debug", "info", "warn",
// "error") and returns a console-formatted Logger writing to stderr,
// tagged with the given component name. An unrecognized spec is an
// error, never a silent fallback, so a typo in --log-spec is caught
// at startup rather than producing a quietly over- or under-verbose
// agent.
func New(spec, component string) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(spec)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("logging: invalid --log-spec %q: %w", spec, err)
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()

	return logger, nil
}
