package ffmpeg

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	// downloadTimeout bounds the whole transfer of a 20-30MB gzipped binary.
	downloadTimeout = 10 * time.Minute

	markerFileName = ".version"
	lockFileName   = ".install.lock"
	lockRetryDelay = 250 * time.Millisecond

	// maxUnpackedSize caps extraction; the binary is about 80MB unpacked.
	maxUnpackedSize = 200 << 20

	installDirPerm = 0o750
)

// asset is one downloadable build.
type asset struct {
	URL    string
	SHA256 string // of the gzipped file
}

// release pins the static ffmpeg build installed when none is found.
type release struct {
	version string
	assets  map[string]asset // keyed by "goos/goarch"
}

const staticBuildBase = "https://github.com/eugeneware/ffmpeg-static/releases/download/b6.1.1"

var pinnedRelease = release{
	version: "6.1.1",
	assets: map[string]asset{
		"darwin/arm64": {
			URL:    staticBuildBase + "/ffmpeg-darwin-arm64.gz",
			SHA256: "8923876afa8db5585022d7860ec7e589af192f441c56793971276d450ed3bbfa",
		},
		"darwin/amd64": {
			URL:    staticBuildBase + "/ffmpeg-darwin-x64.gz",
			SHA256: "5d8fb6f280c428d0e82cd5ee68215f0734d64f88e37dcc9e082f818c9e5025f0",
		},
		"linux/amd64": {
			URL:    staticBuildBase + "/ffmpeg-linux-x64.gz",
			SHA256: "bfe8a8fc511530457b528c48d77b5737527b504a3797a9bc4866aeca69c2dffa",
		},
		"windows/amd64": {
			URL:    staticBuildBase + "/ffmpeg-win32-x64.gz",
			SHA256: "8883a3dffbd0a16cf4ef95206ea05283f78908dbfb118f73c83f4951dcc06d77",
		},
	},
}

func (rel release) assetFor(goos, goarch string) (asset, error) {
	a, ok := rel.assets[goos+"/"+goarch]
	if !ok {
		supported := slices.Sorted(maps.Keys(rel.assets))
		return asset{}, fmt.Errorf("%w: %s/%s (supported: %s)",
			ErrUnsupportedPlatform, goos, goarch, strings.Join(supported, ", "))
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Install - download, verify and unpack under the install directory lock
// ---------------------------------------------------------------------------

// installed reports whether dir holds the pinned build. A marker for another
// version counts as missing so the binary gets replaced.
func (r *Resolver) installed(dir string) bool {
	if _, err := r.host.Stat(filepath.Join(dir, r.binaryName(FFmpeg))); err != nil {
		return false
	}
	data, err := r.fs.ReadFile(filepath.Join(dir, markerFileName))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == r.release.version
}

// install places the pinned build in the install dir and returns its path.
func (r *Resolver) install(ctx context.Context) (string, error) {
	a, err := r.release.assetFor(r.goos, r.goarch)
	if err != nil {
		return "", err
	}
	dir, err := r.installDir()
	if err != nil {
		return "", err
	}
	if err := r.fs.MkdirAll(dir, installDirPerm); err != nil {
		return "", fmt.Errorf("create install directory %s: %w", dir, err)
	}

	lock := r.lock(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("lock install directory: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("lock install directory: %s is busy", dir)
	}
	defer func() { _ = lock.Unlock() }()

	bin := filepath.Join(dir, r.binaryName(FFmpeg))
	// A concurrent process may have finished while we waited for the lock.
	if r.installed(dir) {
		return bin, nil
	}

	if err := r.fetch(ctx, a, bin); err != nil {
		_ = r.fs.Remove(bin)
		return "", fmt.Errorf("install ffmpeg %s: %w", r.release.version, err)
	}
	if err := r.fs.WriteFile(filepath.Join(dir, markerFileName), []byte(r.release.version+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write version marker: %w", err)
	}
	return bin, nil
}

// fetch downloads a into a temp file next to bin, checks its digest and
// unpacks it into bin.
func (r *Resolver) fetch(ctx context.Context, a asset, bin string) error {
	tmp, err := r.fs.CreateTemp(filepath.Dir(bin), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = r.fs.Remove(tmpPath) }()

	sum, err := r.download(ctx, a.URL, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close temp file: %w", cerr)
	}
	if err != nil {
		return err
	}
	if sum != a.SHA256 {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, a.SHA256, sum)
	}

	if err := r.unpack(tmpPath, bin); err != nil {
		return err
	}
	if r.goos != "windows" {
		if err := r.fs.Chmod(bin, 0o755); err != nil {
			return fmt.Errorf("make binary executable: %w", err)
		}
	}
	return nil
}

// download streams url into w and returns the hex SHA-256 of the body.
func (r *Resolver) download(ctx context.Context, url string, w io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d from %s", ErrDownloadFailed, resp.StatusCode, url)
	}

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(w, h), resp.Body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// unpack gunzips src into dst. The output goes through a temp file renamed
// into place so dst is never left half written.
func (r *Resolver) unpack(src, dst string) error {
	in, err := r.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open download: %w", err)
	}
	defer func() { _ = in.Close() }()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("invalid gzip file: %w", err)
	}
	defer func() { _ = zr.Close() }()

	out, err := r.fs.CreateTemp(filepath.Dir(dst), ".unpack-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	outPath := out.Name()
	renamed := false
	defer func() {
		_ = out.Close()
		if !renamed {
			_ = r.fs.Remove(outPath)
		}
	}()

	n, err := io.Copy(out, io.LimitReader(zr, maxUnpackedSize))
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	if n >= maxUnpackedSize {
		return fmt.Errorf("decompress: binary exceeds %d bytes", maxUnpackedSize)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := r.fs.Rename(outPath, dst); err != nil {
		return fmt.Errorf("install binary: %w", err)
	}
	renamed = true
	return nil
}
