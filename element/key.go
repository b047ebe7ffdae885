package element

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

const maxKeyLength = 255

// ValidKey normalizes element key. Slashes are never allowed since they
// separate path segments, document keys become part of the URL and are
// additionally slugified.
func ValidKey(key string, t Type) string {
	key = strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '-'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, key))

	if t == TypeDocument {
		key = slug.Make(key)
	}
	return truncate(key, maxKeyLength)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
