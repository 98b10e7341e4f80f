package config

import (
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Preset is a named, reusable redaction configuration.
type Preset struct {
	DetectionMode string `yaml:"detection_mode"`
	TargetText    string `yaml:"target_text,omitempty"`
	Effect        string `yaml:"effect"`
	BlurStrength  int    `yaml:"blur_strength"`
	PixelSize     int    `yaml:"pixel_size"`
	TileSize      int    `yaml:"tile_size"`
	Opacity       int    `yaml:"opacity"`
	Workers       int    `yaml:"workers,omitempty"`
}

// ErrPresetNotFound indicates a lookup for a preset name that does not exist.
var ErrPresetNotFound = errors.New("preset not found")

// PresetStore persists named presets to a single YAML file. Safe for
// concurrent use within one process; the file itself is rewritten whole on
// every change.
type PresetStore struct {
	mu      sync.Mutex
	path    string
	presets map[string]Preset
}

// NewPresetStore opens the preset file at path, creating an empty store if
// the file does not exist yet.
func NewPresetStore(path string) (*PresetStore, error) {
	s := &PresetStore{path: path, presets: map[string]Preset{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading preset file")
	}
	if err := yaml.Unmarshal(data, &s.presets); err != nil {
		return nil, errors.Wrapf(err, "parsing preset file %s", path)
	}
	if s.presets == nil {
		s.presets = map[string]Preset{}
	}
	return s, nil
}

// Get returns the preset with the given name.
func (s *PresetStore) Get(name string) (Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.presets[name]
	if !ok {
		return Preset{}, errors.Wrap(ErrPresetNotFound, name)
	}
	return p, nil
}

// Names returns all preset names in sorted order.
func (s *PresetStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.presets))
	for name := range s.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save adds or replaces a preset and writes the store to disk.
func (s *PresetStore) Save(name string, p Preset) error {
	if name == "" {
		return errors.New("preset name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets[name] = p
	return s.flush()
}

// Delete removes a preset and writes the store to disk.
func (s *PresetStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.presets[name]; !ok {
		return errors.Wrap(ErrPresetNotFound, name)
	}
	delete(s.presets, name)
	return s.flush()
}

func (s *PresetStore) flush() error {
	data, err := yaml.Marshal(s.presets)
	if err != nil {
		return errors.Wrap(err, "encoding presets")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing preset file")
	}
	return nil
}
