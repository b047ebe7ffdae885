package config

import "os"

// colorsWanted reports whether environment allows escape sequences on the
// console, see https://no-color.org.
func colorsWanted() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
