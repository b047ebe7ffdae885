package element

import (
	"strings"
	"testing"
)

func TestValidKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		t    Type
		want string
	}{
		{"document slug", "About Us", TypeDocument, "about-us"},
		{"asset keeps case", " Logo.PNG ", TypeAsset, "Logo.PNG"},
		{"no slashes", "a/b", TypeObject, "a-b"},
		{"control", "a\tb", TypeObject, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidKey(tt.key, tt.t); got != tt.want {
				t.Errorf("ValidKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}

	long := strings.Repeat("ж", 200)
	got := ValidKey(long, TypeObject)
	if len(got) > maxKeyLength || !strings.HasPrefix(long, got) {
		t.Errorf("ValidKey() did not truncate on rune boundary, len = %d", len(got))
	}
}
