package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
)

// Prober inspects media files with ffprobe.
type Prober struct {
	binary string
	logger *slog.Logger
	cache  Cache

	// Injectable dependencies (defaults to OS implementations).
	cmd     commandRunner
	statter fileStatter
}

// Option configures a Prober.
type Option func(*Prober)

// WithCommandRunner sets the runner used to execute ffprobe.
func WithCommandRunner(r commandRunner) Option {
	return func(p *Prober) { p.cmd = r }
}

// WithFileStatter sets the statter used to build cache keys.
func WithFileStatter(s fileStatter) Option {
	return func(p *Prober) { p.statter = s }
}

// WithCache enables metadata caching.
func WithCache(c Cache) Option {
	return func(p *Prober) { p.cache = c }
}

// WithLogger sets the logger for debug output and cache warnings.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProber returns a Prober running the ffprobe binary at ffprobePath.
func NewProber(ffprobePath string, opts ...Option) *Prober {
	p := &Prober{
		binary:  ffprobePath,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		cmd:     osCommandRunner{},
		statter: osFileStatter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// probeArgs returns the ffprobe arguments for a JSON format + streams dump.
func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
}

// Probe returns the metadata of path.
// Cache failures are logged and never fail the probe.
func (p *Prober) Probe(ctx context.Context, path string) (Metadata, error) {
	key, keyed := p.cacheKey(path)
	if keyed {
		raw, ok, err := p.cache.Get(ctx, key)
		switch {
		case err != nil:
			p.logger.Warn("probe cache read failed", "path", key.Path, "error", err)
		case ok:
			if md, err := decode(raw); err == nil {
				p.logger.Debug("probe cache hit", "path", key.Path)
				return md, nil
			}
		}
	}

	args := probeArgs(path)
	p.logger.Debug("running ffprobe", "binary", p.binary, "args", args)
	raw, err := p.cmd.Output(ctx, p.binary, args)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %w", ErrProbeFailed, path, err)
	}

	md, err := decode(raw)
	if err != nil {
		return Metadata{}, fmt.Errorf("%s: %w", path, err)
	}

	if keyed {
		if err := p.cache.Put(ctx, key, raw); err != nil {
			p.logger.Warn("probe cache write failed", "path", key.Path, "error", err)
		}
	}
	return md, nil
}

// Duration returns the container duration of path in seconds, or 0 when the
// container does not report one.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	md, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return md.DurationSeconds(), nil
}

// VideoDimensions returns the width and height of the first video stream.
func (p *Prober) VideoDimensions(ctx context.Context, path string) (width, height int, err error) {
	md, err := p.Probe(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	v, ok := md.FirstVideo()
	if !ok || v.Width <= 0 || v.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrNoDimensions, path)
	}
	return v.Width, v.Height, nil
}

func (p *Prober) cacheKey(path string) (Key, bool) {
	if p.cache == nil {
		return Key{}, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, false
	}
	info, err := p.statter.Stat(abs)
	if err != nil || info.IsDir() {
		return Key{}, false
	}
	return Key{Path: abs, Size: info.Size(), ModTime: info.ModTime()}, true
}

func decode(raw []byte) (Metadata, error) {
	var md Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrProbeDecode, err)
	}
	return md, nil
}
