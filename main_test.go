package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"pathtracer"}, args...))
	return out.String(), err
}

func TestScenesCommand(t *testing.T) {
	out, err := runApp(t, "scenes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, id := range []string{"default", "cornell", "spheregrid"} {
		if !strings.Contains(out, id) {
			t.Errorf("Expected scene %q in listing:\n%s", id, out)
		}
	}
}

func TestStatsCommand(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{"default scene", []string{"stats"}, false},
		{"cornell scene", []string{"stats", "cornell"}, false},
		{"unknown scene", []string{"stats", "nonexistent"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runApp(t, tt.args...)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %v, but got none", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !strings.Contains(out, "Triangles") {
				t.Errorf("Expected a stats table, got:\n%s", out)
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "render.png")
	depth := filepath.Join(dir, "depth.png")

	_, err := runApp(t, "render",
		"--scene", "cornell",
		"--width", "16", "--height", "12",
		"--scale", "0.5",
		"--frames", "2",
		"--workers", "2",
		"--out", out,
		"--depth", depth,
	)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, filename := range []string{out, depth} {
		f, err := os.Open(filename)
		if err != nil {
			t.Fatalf("Expected output %s: %v", filename, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("Failed to decode %s: %v", filename, err)
		}
		if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 12 {
			t.Errorf("%s: expected display size 16x12, got %v", filename, b)
		}
	}
}

func TestRenderCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero width", []string{"--width", "0"}},
		{"scale above one", []string{"--scale", "2"}},
		{"no bounces", []string{"--bounces", "0"}},
		{"unknown scene", []string{"--scene", "nonexistent"}},
		{"missing environment", []string{"--environment", "nonexistent.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "--out", filepath.Join(t.TempDir(), "x.png")}, tt.args...)
			if _, err := runApp(t, args...); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}

func TestLogLevelFlag(t *testing.T) {
	if _, err := runApp(t, "--log-level", "loud", "scenes"); err == nil {
		t.Error("Expected error for an unknown log level")
	}
	if _, err := runApp(t, "--log-level", "warning", "scenes"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
