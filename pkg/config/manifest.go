package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Sequence describes one named frame sequence in a manifest file.
type Sequence struct {
	Name        string  `yaml:"name"`
	Dir         string  `yaml:"dir"`
	Ext         string  `yaml:"ext"`
	FPS         float64 `yaml:"fps"`
	Looping     *bool   `yaml:"looping"`
	MaxResident int     `yaml:"max_resident"`
	Prefetch    int     `yaml:"prefetch"`
	Autoplay    bool    `yaml:"autoplay"`
}

// Manifest is the YAML document read by the serve command.
//
//	listen: ":9099"
//	tick_rate: 60
//	sequences:
//	  - name: intro
//	    dir: assets/intro
//	    fps: 30
//	    looping: true
//	    max_resident: 60
type Manifest struct {
	Listen    string     `yaml:"listen"`
	TickRate  float64    `yaml:"tick_rate"`
	Sequences []Sequence `yaml:"sequences"`
}

func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open manifest: %w", err)
	}
	defer f.Close()
	return DecodeManifest(f)
}

func DecodeManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("cannot decode manifest: %w", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Listen == "" {
		m.Listen = DefaultListenAddr
	}
	if m.TickRate <= 0 {
		m.TickRate = DefaultTickRate
	}
	for i := range m.Sequences {
		s := &m.Sequences[i]
		if s.Ext == "" {
			s.Ext = DefaultExtension
		}
		if s.FPS == 0 {
			s.FPS = DefaultFrameRate
		}
		if s.MaxResident == 0 {
			s.MaxResident = DefaultMaxResidentFrames
		}
		if s.Looping == nil {
			looping := DefaultLooping
			s.Looping = &looping
		}
	}
}

func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Sequences))
	for i, s := range m.Sequences {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("sequence #%d: name is required", i+1)
		}
		if seen[name] {
			return fmt.Errorf("sequence %q: duplicate name", name)
		}
		seen[name] = true
		if s.Dir == "" {
			return fmt.Errorf("sequence %q: dir is required", name)
		}
		if s.FPS < 0 {
			return fmt.Errorf("sequence %q: fps must be positive, got %v", name, s.FPS)
		}
		if s.MaxResident < 0 {
			return fmt.Errorf("sequence %q: max_resident must be positive, got %d", name, s.MaxResident)
		}
		if s.Prefetch < 0 {
			return fmt.Errorf("sequence %q: prefetch cannot be negative", name)
		}
	}
	return nil
}

// IsLooping reports the looping flag, falling back to the default when unset.
func (s Sequence) IsLooping() bool {
	if s.Looping == nil {
		return DefaultLooping
	}
	return *s.Looping
}
