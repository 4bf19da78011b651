package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecodeManifestDefaults(t *testing.T) {
	doc := `
sequences:
  - name: intro
    dir: assets/intro
  - name: idle
    dir: assets/idle
    fps: 12
    looping: false
    max_resident: 8
    prefetch: 2
    autoplay: true
`
	m, err := DecodeManifest(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if m.Listen != DefaultListenAddr || m.TickRate != DefaultTickRate {
		t.Errorf("got listen %q tick rate %v", m.Listen, m.TickRate)
	}
	if len(m.Sequences) != 2 {
		t.Fatalf("got %d sequences, want 2", len(m.Sequences))
	}

	intro := m.Sequences[0]
	if intro.Ext != DefaultExtension || intro.FPS != DefaultFrameRate ||
		intro.MaxResident != DefaultMaxResidentFrames || intro.IsLooping() != DefaultLooping {
		t.Errorf("intro defaults %+v", intro)
	}

	idle := m.Sequences[1]
	if idle.IsLooping() || idle.FPS != 12 || idle.MaxResident != 8 || idle.Prefetch != 2 || !idle.Autoplay {
		t.Errorf("idle %+v", idle)
	}
}

func TestDecodeManifestErrors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		want string
	}{
		{name: "bad yaml", doc: "sequences: [", want: "cannot decode manifest"},
		{name: "missing name", doc: "sequences:\n  - dir: a\n", want: "name is required"},
		{name: "duplicate", doc: "sequences:\n  - {name: a, dir: a}\n  - {name: a, dir: b}\n", want: "duplicate name"},
		{name: "missing dir", doc: "sequences:\n  - name: a\n", want: "dir is required"},
		{name: "negative fps", doc: "sequences:\n  - {name: a, dir: a, fps: -1}\n", want: "fps must be positive"},
		{name: "negative budget", doc: "sequences:\n  - {name: a, dir: a, max_resident: -2}\n", want: "max_resident"},
		{name: "negative prefetch", doc: "sequences:\n  - {name: a, dir: a, prefetch: -1}\n", want: "prefetch"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeManifest(strings.NewReader(tc.doc))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestReadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reel.yaml")
	doc := "listen: \"127.0.0.1:8080\"\ntick_rate: 30\nsequences:\n  - {name: a, dir: a}\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ReadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Listen != "127.0.0.1:8080" || m.TickRate != 30 {
		t.Errorf("got %+v", m)
	}

	if _, err := ReadManifest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
