package config

import (
	"os"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestColorsWanted(t *testing.T) {
	tests := []struct {
		name    string
		noColor *string
		term    string
		want    bool
	}{
		{"default", nil, "xterm-256color", true},
		{"no color", strPtr(""), "xterm", false},
		{"no color set", strPtr("1"), "xterm", false},
		{"dumb terminal", nil, "dumb", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TERM", tt.term)
			if tt.noColor != nil {
				t.Setenv("NO_COLOR", *tt.noColor)
			} else {
				t.Setenv("NO_COLOR", "")
				os.Unsetenv("NO_COLOR")
			}
			if got := colorsWanted(); got != tt.want {
				t.Errorf("colorsWanted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnableColorOutputFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if EnableColorOutput(f) {
		t.Error("EnableColorOutput(regular file) = true, want false")
	}
}
