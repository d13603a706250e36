// Package config reads and writes the persistent user configuration, a TOML
// file with environment variable fallbacks.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config keys.
const (
	KeyOutputDir        = "output-dir"
	KeyChunkDuration    = "chunk-duration"
	KeySilenceThreshold = "silence-threshold"
	KeySilenceDuration  = "silence-duration"
	KeyLogLevel         = "log-level"
	KeyProbeCache       = "probe-cache"
)

// Environment variable fallbacks.
const (
	EnvOutputDir        = "MEDIAKIT_OUTPUT_DIR"
	EnvChunkDuration    = "MEDIAKIT_CHUNK_DURATION"
	EnvSilenceThreshold = "MEDIAKIT_SILENCE_THRESHOLD"
	EnvSilenceDuration  = "MEDIAKIT_SILENCE_DURATION"
	EnvLogLevel         = "MEDIAKIT_LOG_LEVEL"
	EnvProbeCache       = "MEDIAKIT_PROBE_CACHE"
)

const (
	appDir   = "go-mediakit"
	fileName = "config.toml"
)

// Config holds user configuration loaded from
// ~/.config/go-mediakit/config.toml. Zero values mean "not set"; callers
// apply their own defaults.
type Config struct {
	OutputDir        string  `toml:"output-dir,omitempty"`
	ChunkDuration    float64 `toml:"chunk-duration,omitempty"`
	SilenceThreshold float64 `toml:"silence-threshold,omitempty"`
	SilenceDuration  float64 `toml:"silence-duration,omitempty"`
	LogLevel         string  `toml:"log-level,omitempty"`
	ProbeCache       string  `toml:"probe-cache,omitempty"`
}

// envVars maps each key to its environment variable, in display order.
var envVars = []struct{ key, env string }{
	{KeyOutputDir, EnvOutputDir},
	{KeyChunkDuration, EnvChunkDuration},
	{KeySilenceThreshold, EnvSilenceThreshold},
	{KeySilenceDuration, EnvSilenceDuration},
	{KeyLogLevel, EnvLogLevel},
	{KeyProbeCache, EnvProbeCache},
}

// Keys returns every configuration key in display order.
func Keys() []string {
	keys := make([]string, len(envVars))
	for i, e := range envVars {
		keys[i] = e.key
	}
	return keys
}

// EnvVar returns the environment variable backing key, or "" for an unknown
// key.
func EnvVar(key string) string {
	for _, e := range envVars {
		if e.key == key {
			return e.env
		}
	}
	return ""
}

func unknownKey(key string) error {
	return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
}

// Value returns the value of key formatted as it would be written by Set.
// Unset keys return "".
func (c Config) Value(key string) (string, error) {
	switch key {
	case KeyOutputDir:
		return c.OutputDir, nil
	case KeyChunkDuration:
		return formatFloat(c.ChunkDuration), nil
	case KeySilenceThreshold:
		return formatFloat(c.SilenceThreshold), nil
	case KeySilenceDuration:
		return formatFloat(c.SilenceDuration), nil
	case KeyLogLevel:
		return c.LogLevel, nil
	case KeyProbeCache:
		return c.ProbeCache, nil
	}
	return "", unknownKey(key)
}

// Set parses value and assigns it to key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case KeyOutputDir:
		c.OutputDir = value
	case KeyChunkDuration:
		return parseFloat(key, value, &c.ChunkDuration, func(f float64) bool { return f > 0 })
	case KeySilenceThreshold:
		return parseFloat(key, value, &c.SilenceThreshold, func(f float64) bool { return f < 0 })
	case KeySilenceDuration:
		return parseFloat(key, value, &c.SilenceDuration, func(f float64) bool { return f > 0 })
	case KeyLogLevel:
		switch lvl := strings.ToLower(value); lvl {
		case "debug", "info", "warn", "error":
			c.LogLevel = lvl
		default:
			return fmt.Errorf("%w: %s=%q (want debug, info, warn or error)", ErrInvalidValue, key, value)
		}
	case KeyProbeCache:
		c.ProbeCache = value
	default:
		return unknownKey(key)
	}
	return nil
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(key, value string, dst *float64, valid func(float64) bool) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || !valid(f) {
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
	}
	*dst = f
	return nil
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-mediakit.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDir), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, fileName), nil
}

// readFile decodes the config file. A missing file yields an empty Config.
func readFile(p string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", p, err)
	}
	return cfg, nil
}

// writeFile encodes cfg to p, creating the directory if needed.
func writeFile(p string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// #nosec G306 -- config file with standard permissions
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// A missing file is not an error.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	cfg, err := readFile(p)
	if err != nil {
		return cfg, err
	}

	for _, e := range envVars {
		if cur, _ := cfg.Value(e.key); cur != "" {
			continue
		}
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := cfg.Set(e.key, v); err != nil {
			return cfg, fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return cfg, nil
}

// Save validates value for key and writes it to the config file, keeping
// every other key.
func Save(key, value string) error {
	p, err := Path()
	if err != nil {
		return err
	}
	cfg, err := readFile(p)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return writeFile(p, cfg)
}

// Get reads a single value from the config file.
// Returns an empty string if the key is not set.
func Get(key string) (string, error) {
	p, err := Path()
	if err != nil {
		return "", err
	}
	cfg, err := readFile(p)
	if err != nil {
		return "", err
	}
	return cfg.Value(key)
}

// List returns every key set in the config file.
func List() (map[string]string, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := readFile(p)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, key := range Keys() {
		if v, _ := cfg.Value(key); v != "" {
			values[key] = v
		}
	}
	return values, nil
}

// ResolveOutputPath resolves the final output path using the following precedence:
//  1. If output is absolute, use it as-is
//  2. If output is relative and outputDir is set, join them
//  3. If output is empty, use defaultName in outputDir (or cwd if no outputDir)
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}
	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}
	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// EnsureOutputDir checks that d is usable as an output directory, creating
// it when missing.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("%w: output-dir cannot be empty", ErrInvalidValue)
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot access directory: %w", err)
		}
		if err := os.MkdirAll(d, 0o750); err != nil { // #nosec G301 -- user output dir
			return fmt.Errorf("%w: %w", ErrNotWritable, err)
		}
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, d)
	}

	f, err := os.CreateTemp(d, ".go-mediakit-write-test-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotWritable, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
