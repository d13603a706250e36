package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Tool names a binary the toolkit drives.
type Tool string

const (
	FFmpeg  Tool = "ffmpeg"
	FFprobe Tool = "ffprobe"
)

// Environment overrides for binary locations.
const (
	EnvFFmpegPath  = "FFMPEG_PATH"
	EnvFFprobePath = "FFPROBE_PATH"
)

func (t Tool) envVar() string {
	if t == FFprobe {
		return EnvFFprobePath
	}
	return EnvFFmpegPath
}

// Origin records which resolution step produced a binary.
type Origin string

const (
	OriginEnv        Origin = "env"
	OriginInstalled  Origin = "installed"
	OriginSibling    Origin = "sibling"
	OriginPath       Origin = "path"
	OriginDownloaded Origin = "downloaded"
)

// Location is a resolved binary.
type Location struct {
	Tool   Tool
	Path   string
	Origin Origin
}

// installHome is created under the user's home directory.
var installHome = filepath.Join(".go-mediakit", "bin")

var defaultHTTPClient = &http.Client{
	Timeout: downloadTimeout,
	Transport: &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	},
}

// ---------------------------------------------------------------------------
// Resolver - finds ffmpeg and ffprobe, installing ffmpeg as a last resort
// ---------------------------------------------------------------------------

// Resolver locates the ffmpeg and ffprobe binaries.
//
// ffmpeg: FFMPEG_PATH, then the install dir, then PATH, then a download of
// the pinned static build. ffprobe: FFPROBE_PATH, then next to ffmpeg, then
// PATH. ffprobe is never downloaded.
type Resolver struct {
	host    hostEnv
	fs      installFS
	http    httpDoer
	lock    lockFactory
	release release
	stderr  io.Writer
	logger  *slog.Logger
	goos    string
	goarch  string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHost replaces environment, PATH and stat lookups.
func WithHost(h hostEnv) ResolverOption {
	return func(r *Resolver) { r.host = h }
}

// WithInstallFS replaces the filesystem used by installs.
func WithInstallFS(fs installFS) ResolverOption {
	return func(r *Resolver) { r.fs = fs }
}

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c httpDoer) ResolverOption {
	return func(r *Resolver) { r.http = c }
}

// WithLockFactory sets how the install directory lock is opened.
func WithLockFactory(f lockFactory) ResolverOption {
	return func(r *Resolver) { r.lock = f }
}

// WithStderr sets the writer for user-facing status messages.
func WithStderr(w io.Writer) ResolverOption {
	return func(r *Resolver) { r.stderr = w }
}

// WithResolverLogger sets the logger that records where binaries came from.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPlatform sets the target platform.
func WithPlatform(goos, goarch string) ResolverOption {
	return func(r *Resolver) {
		r.goos = goos
		r.goarch = goarch
	}
}

// WithRelease replaces the pinned download.
func WithRelease(rel release) ResolverOption {
	return func(r *Resolver) { r.release = rel }
}

// NewResolver creates a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		host:    osHost{},
		fs:      osInstallFS{},
		http:    defaultHTTPClient,
		lock:    newFileLock,
		release: pinnedRelease,
		stderr:  os.Stderr,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		goos:    runtime.GOOS,
		goarch:  runtime.GOARCH,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// step is one stage of a resolution chain. ok=false moves on to the next.
type step struct {
	origin Origin
	find   func() (path string, ok bool, err error)
}

func (r *Resolver) firstOf(tool Tool, steps ...step) (Location, bool, error) {
	for _, s := range steps {
		path, ok, err := s.find()
		if err != nil {
			return Location{}, false, err
		}
		if ok {
			r.logger.Debug("binary resolved", "tool", tool, "path", path, "origin", s.origin)
			return Location{Tool: tool, Path: path, Origin: s.origin}, true, nil
		}
	}
	return Location{}, false, nil
}

// LocateFFmpeg resolves ffmpeg, downloading it when no other step finds it.
func (r *Resolver) LocateFFmpeg(ctx context.Context) (Location, error) {
	loc, ok, err := r.firstOf(FFmpeg,
		step{OriginEnv, r.fromEnv(FFmpeg)},
		step{OriginInstalled, r.fromInstallDir},
		step{OriginPath, r.fromPATH(FFmpeg)},
	)
	if err != nil || ok {
		return loc, err
	}

	fmt.Fprintf(r.stderr, "ffmpeg not found, downloading static build %s...\n", r.release.version)
	path, err := r.install(ctx)
	if err != nil {
		return Location{}, fmt.Errorf("%w: auto-download failed: %v\n\n%s", ErrNotFound, err, installHint(r.goos))
	}
	r.logger.Debug("binary resolved", "tool", FFmpeg, "path", path, "origin", OriginDownloaded)
	return Location{Tool: FFmpeg, Path: path, Origin: OriginDownloaded}, nil
}

// LocateProbe resolves ffprobe. ffmpegPath may be empty.
func (r *Resolver) LocateProbe(ffmpegPath string) (Location, error) {
	loc, ok, err := r.firstOf(FFprobe,
		step{OriginEnv, r.fromEnv(FFprobe)},
		step{OriginSibling, r.nextTo(ffmpegPath)},
		step{OriginPath, r.fromPATH(FFprobe)},
	)
	if err != nil {
		return Location{}, err
	}
	if !ok {
		return Location{}, fmt.Errorf("%w: ffprobe is not installed (set %s or install your distribution's ffmpeg package)",
			ErrNotFound, EnvFFprobePath)
	}
	return loc, nil
}

// Resolve returns the path of ffmpeg.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	loc, err := r.LocateFFmpeg(ctx)
	return loc.Path, err
}

// ResolveProbe returns the path of ffprobe.
func (r *Resolver) ResolveProbe(ffmpegPath string) (string, error) {
	loc, err := r.LocateProbe(ffmpegPath)
	return loc.Path, err
}

// fromEnv treats a set but dangling override as an error rather than
// silently falling through.
func (r *Resolver) fromEnv(tool Tool) func() (string, bool, error) {
	return func() (string, bool, error) {
		key := tool.envVar()
		p := r.host.Getenv(key)
		if p == "" {
			return "", false, nil
		}
		if _, err := r.host.Stat(p); err != nil {
			hint := ""
			if tool == FFmpeg {
				hint = " (unset it to allow auto-download)"
			}
			return "", false, fmt.Errorf("%w: %s is set to %q but no binary exists there%s", ErrNotFound, key, p, hint)
		}
		return p, true, nil
	}
}

func (r *Resolver) fromInstallDir() (string, bool, error) {
	dir, err := r.installDir()
	if err != nil {
		return "", false, err
	}
	if !r.installed(dir) {
		return "", false, nil
	}
	return filepath.Join(dir, r.binaryName(FFmpeg)), true, nil
}

func (r *Resolver) fromPATH(tool Tool) func() (string, bool, error) {
	return func() (string, bool, error) {
		p, err := r.host.LookPath(string(tool))
		return p, err == nil, nil
	}
}

func (r *Resolver) nextTo(ffmpegPath string) func() (string, bool, error) {
	return func() (string, bool, error) {
		if ffmpegPath == "" {
			return "", false, nil
		}
		p := filepath.Join(filepath.Dir(ffmpegPath), r.binaryName(FFprobe))
		_, err := r.host.Stat(p)
		return p, err == nil, nil
	}
}

func (r *Resolver) installDir() (string, error) {
	home, err := r.host.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, installHome), nil
}

func (r *Resolver) binaryName(tool Tool) string {
	if r.goos == "windows" {
		return string(tool) + ".exe"
	}
	return string(tool)
}

// installHint tells the user how to get ffmpeg onto goos without us.
func installHint(goos string) string {
	var b strings.Builder
	b.WriteString("Install FFmpeg with your package manager:\n")
	switch goos {
	case "darwin":
		b.WriteString("  brew install ffmpeg\n")
	case "linux":
		b.WriteString("  apt install ffmpeg   (Debian, Ubuntu)\n")
		b.WriteString("  dnf install ffmpeg   (Fedora)\n")
		b.WriteString("  pacman -S ffmpeg     (Arch)\n")
	case "windows":
		b.WriteString("  winget install ffmpeg\n")
	default:
		b.WriteString("  see https://ffmpeg.org/download.html\n")
	}
	fmt.Fprintf(&b, "or point %s and %s at existing binaries.", EnvFFmpegPath, EnvFFprobePath)
	return b.String()
}

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

func sharedResolver() *Resolver {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver
}

// Resolve finds ffmpeg using the default resolver.
func Resolve(ctx context.Context) (string, error) {
	return sharedResolver().Resolve(ctx)
}

// ResolveProbe finds ffprobe using the default resolver.
func ResolveProbe(ffmpegPath string) (string, error) {
	return sharedResolver().ResolveProbe(ffmpegPath)
}
