// Package config defines the parameter ranges, defaults, and filesystem
// locations shared by the CLI and the processing packages, plus YAML-backed
// persistence for named effect presets.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Range describes a bounded integer parameter with its default and the
// step used by interactive hosts.
type Range struct {
	Min     int
	Max     int
	Default int
	Step    int
}

// Clamp returns v forced into the range.
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Parameter ranges. Blur steps by two so the kernel stays odd.
var (
	BlurRange    = Range{Min: 15, Max: 199, Default: 51, Step: 2}
	PixelRange   = Range{Min: 5, Max: 50, Default: 15, Step: 1}
	OpacityRange = Range{Min: 0, Max: 100, Default: 100, Step: 1}
	TileRange    = Range{Min: 2, Max: 64, Default: 10, Step: 1}
)

// MaxHistory caps the undo stack depth.
const MaxHistory = 20

// cascadeDirEnv overrides the cascade classifier directory.
const cascadeDirEnv = "REDACT_CASCADE_DIR"

// CascadeDir returns the directory holding the Haar cascade XML files,
// honoring the REDACT_CASCADE_DIR override. Without the override it points
// at the conventional OpenCV data locations per platform.
func CascadeDir() string {
	if dir := os.Getenv(cascadeDirEnv); dir != "" {
		return dir
	}
	switch runtime.GOOS {
	case "darwin":
		return "/opt/homebrew/share/opencv4/haarcascades"
	case "windows":
		return filepath.Join(os.Getenv("ProgramFiles"), "opencv", "etc", "haarcascades")
	default:
		return "/usr/share/opencv4/haarcascades"
	}
}

// AppDataDir returns the per-user directory for presets and other state,
// creating it if needed.
func AppDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "dotscramble")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
