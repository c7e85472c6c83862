// Package backlight reads sysfs backlight devices.
//
// Each device under /sys/class/backlight is a directory containing a
// "brightness" file (current raw value) and a "max_brightness" file, both
// integer text. The package exposes device discovery and the normalized
// current/max fraction.
package backlight

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultClassDir is the sysfs directory listing one subdirectory per
// backlight device.
const DefaultClassDir = "/sys/class/backlight"

// maxBrightnessFile is the sibling of every brightness file.
const maxBrightnessFile = "max_brightness"

// Discover lists the backlight class directory and returns the brightness
// file path of every device found. An unreadable class directory (typically:
// the host has no backlight support) is an error; callers treat it as fatal
// at startup.
func Discover(classDir string) ([]string, error) {
	if strings.TrimSpace(classDir) == "" {
		classDir = DefaultClassDir
	}

	entries, err := os.ReadDir(classDir)
	if err != nil {
		return nil, fmt.Errorf("reading backlight class dir %s: %w", classDir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, filepath.Join(classDir, entry.Name(), "brightness"))
	}
	return paths, nil
}

// ReadFraction reads a device's current and maximum brightness and returns
// current/max. The max_brightness path is derived from the brightness path
// (same directory, fixed name). The fraction is not clamped: a device
// reporting current > max yields a fraction above 1.
func ReadFraction(brightnessPath string) (float64, error) {
	current, err := readValue(brightnessPath)
	if err != nil {
		return 0, err
	}

	max, err := readValue(filepath.Join(filepath.Dir(brightnessPath), maxBrightnessFile))
	if err != nil {
		return 0, err
	}
	if max == 0 {
		return 0, fmt.Errorf("device %s reports max_brightness 0", filepath.Dir(brightnessPath))
	}

	return current / max, nil
}

func readValue(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return v, nil
}
