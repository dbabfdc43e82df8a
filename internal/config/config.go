// Package config loads the optional filetest.toml run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up from the working directory
// towards the filesystem root.
const FileName = "filetest.toml"

// Config mirrors filetest.toml. Command-line flags override its values.
type Config struct {
	Run    RunConfig    `toml:"run"`
	Report ReportConfig `toml:"report"`
	Trace  TraceConfig  `toml:"trace"`
	Log    LogConfig    `toml:"log"`

	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `toml:"-"`
}

type RunConfig struct {
	Workers    uint     `toml:"workers"`
	Heartbeat  Duration `toml:"heartbeat"`
	StallTicks uint     `toml:"stall_ticks"`
	Paths      []string `toml:"paths"`
}

type ReportConfig struct {
	Timings    bool   `toml:"timings"`
	TimingsOut string `toml:"timings_out"`
}

type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	RingSize uint   `toml:"ring_size"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a Go duration string ("1s", "250ms").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Run: RunConfig{
			Heartbeat:  Duration{time.Second},
			StallTicks: 0,
		},
		Trace: TraceConfig{Level: "off", Mode: "stream"},
		Log:   LogConfig{Level: "warn"},
	}
}

// Find walks from startDir up to the root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path on top of Default. Unknown keys are rejected so typos do
// not silently fall back to defaults. Relative run paths are resolved against
// the directory of the file.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	base := filepath.Dir(path)
	for i, p := range cfg.Run.Paths {
		if !filepath.IsAbs(p) {
			cfg.Run.Paths[i] = filepath.Join(base, p)
		}
	}
	cfg.Path = path
	return cfg, nil
}

// Discover loads the nearest filetest.toml above startDir, or Default.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// WorkerCount returns Run.Workers as an int; zero means "one per CPU".
func (c Config) WorkerCount() (int, error) {
	n, err := safecast.Conv[int](c.Run.Workers)
	if err != nil {
		return 0, fmt.Errorf("workers: %w", err)
	}
	return n, nil
}

// StallTicks returns Run.StallTicks as an int; zero disables stall detection.
func (c Config) StallTicks() (int, error) {
	n, err := safecast.Conv[int](c.Run.StallTicks)
	if err != nil {
		return 0, fmt.Errorf("stall_ticks: %w", err)
	}
	return n, nil
}
