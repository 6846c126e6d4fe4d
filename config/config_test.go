package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "animation-lang.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[strip]
length = 144
fps = 60

[server]
listen = "0.0.0.0:9000"

[limits]
max-instructions = 500000
max-per-frame = 25000

[store]
path = "/var/lib/animations.db"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Strip.Length != 144 || c.Strip.FPS != 60 {
		t.Errorf("strip = %+v", c.Strip)
	}
	if c.Server.Listen != "0.0.0.0:9000" {
		t.Errorf("listen = %q", c.Server.Listen)
	}
	if c.Limits.MaxInstructions != 500000 || c.Limits.MaxPerFrame != 25000 {
		t.Errorf("limits = %+v", c.Limits)
	}
	if c.Store.Path != "/var/lib/animations.db" {
		t.Errorf("store path = %q", c.Store.Path)
	}
	if c.Path != path {
		t.Errorf("Path = %q, want %q", c.Path, path)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
[strip]
length = 12
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if c.Strip.Length != 12 {
		t.Errorf("length = %d, want 12", c.Strip.Length)
	}
	if c.Strip.FPS != def.Strip.FPS {
		t.Errorf("fps = %d, want default %d", c.Strip.FPS, def.Strip.FPS)
	}
	if c.Server.Listen != def.Server.Listen {
		t.Errorf("listen = %q, want default %q", c.Server.Listen, def.Server.Listen)
	}
	if c.Limits.MaxPerFrame != def.Limits.MaxPerFrame {
		t.Errorf("max-per-frame = %d, want default %d", c.Limits.MaxPerFrame, def.Limits.MaxPerFrame)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero length", "[strip]\nlength = 0\n", "strip.length"},
		{"zero fps", "[strip]\nlength = 10\nfps = 0\n", "strip.fps"},
		{"bad toml", "strip = [\n", "parse error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Load error = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}
