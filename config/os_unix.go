//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

// EnableColorOutput reports whether log lines written to stream could be
// colorized.
func EnableColorOutput(stream *os.File) bool {
	if !colorsWanted() {
		return false
	}
	return term.IsTerminal(int(stream.Fd()))
}
