package archive

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type entry struct {
	name    string
	content string
}

func writePackage(t *testing.T, entries ...entry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "package.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, e := range entries {
		if e.content == "" && e.name[len(e.name)-1] == '/' {
			h := &zip.FileHeader{Name: e.name}
			h.SetMode(os.ModeDir | 0755)
			if _, err := w.CreateHeader(h); err != nil {
				t.Fatalf("Failed to create directory %s: %v", e.name, err)
			}
			continue
		}
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return zipPath
}

func TestWalk(t *testing.T) {
	zipPath := writePackage(t,
		entry{"bundle.yaml", "elements: []"},
		entry{"assets/", ""},
		entry{"assets/logo.png", "png"},
		entry{"assets/docs/manual.pdf", "pdf"},
		entry{"Assets/upper.txt", "txt"},
	)

	tests := []struct {
		prefix string
		want   int
	}{
		{"", 4},
		{"assets/", 2},
		{"Assets/", 1},
		{"bundle", 1},
		{"missing/", 0},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			var visited int
			err := Walk(context.Background(), zipPath, tt.prefix, func(file *zip.File) error {
				if file.FileInfo().IsDir() {
					t.Errorf("Walk() visited directory %s", file.Name)
				}
				visited++
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if visited != tt.want {
				t.Errorf("Walk(%q) visited %d files, want %d", tt.prefix, visited, tt.want)
			}
		})
	}
}

func TestWalkErrors(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		if err := Walk(context.Background(), "/nonexistent/file.zip", "", func(*zip.File) error { return nil }); err == nil {
			t.Error("Walk() error = nil, want error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		invalid := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(invalid, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}
		if err := Walk(context.Background(), invalid, "", func(*zip.File) error { return nil }); err == nil {
			t.Error("Walk() error = nil, want error for invalid zip file")
		}
	})

	t.Run("unsafe path", func(t *testing.T) {
		zipPath := writePackage(t, entry{"../evil.yaml", "x"})
		if err := Walk(context.Background(), zipPath, "", func(*zip.File) error { return nil }); err == nil {
			t.Error("Walk() error = nil, want unsafe path error")
		}
	})

	t.Run("early termination", func(t *testing.T) {
		zipPath := writePackage(t, entry{"a", "1"}, entry{"b", "2"}, entry{"c", "3"})
		stop := errors.New("stop walking")
		var visited int
		err := Walk(context.Background(), zipPath, "", func(*zip.File) error {
			visited++
			if visited == 2 {
				return stop
			}
			return nil
		})
		if !errors.Is(err, stop) || visited != 2 {
			t.Errorf("Walk() = %v after %d files, want %v after 2", err, visited, stop)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		zipPath := writePackage(t, entry{"a", "1"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := Walk(ctx, zipPath, "", func(*zip.File) error { return nil }); !errors.Is(err, context.Canceled) {
			t.Errorf("Walk() error = %v, want %v", err, context.Canceled)
		}
	})
}

func TestReadAll(t *testing.T) {
	zipPath := writePackage(t,
		entry{"bundle.json", `{"elements":[]}`},
		entry{"assets/logo.png", "png data"},
	)
	files, err := ReadAll(context.Background(), zipPath, "")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("ReadAll() returned %d files, want 2", len(files))
	}
	if got := string(files["assets/logo.png"]); got != "png data" {
		t.Errorf("ReadAll()[assets/logo.png] = %q, want %q", got, "png data")
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"bundle.yaml", true},
		{"assets/logo.png", true},
		{"assets/..hidden", true},
		{"/etc/passwd", false},
		{`\windows`, false},
		{"assets/../../x", false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
