// Package env loads process environment variables from a .env file
// before configuration is read, so a processor URL or module config
// can reference ${VAR} placeholders without the value living in
// source or in a committed YAML file.
package env

import (
	"os"
	"strings"
)

// Load reads .env from the current working directory and applies its
// key=value pairs via os.Setenv. It is called once, at the top of
// main, before config.Load so env expansion sees the file's values.
//
// Format: one KEY=VALUE per line; blank lines and lines starting with
// # are ignored; values may be wrapped in single or double quotes,
// which are stripped. A missing .env file is not an error — the agent
// runs fine on whatever the process environment already provides.
func Load() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		os.Setenv(key, value)
	}
}
