package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// minMajorVersion is the oldest release whose silencedetect, loudnorm and
// afftdn behave the way the pipelines expect.
const minMajorVersion = 4

// requiredFilters are the filters the audio, frame and format pipelines
// build graphs from.
var requiredFilters = []string{
	"afftdn", "apad", "asendcmd", "compand", "concat", "crop", "eq",
	"format", "fps", "highpass", "loudnorm", "lowpass", "silencedetect",
}

// Build describes an installed ffmpeg.
type Build struct {
	// Version as printed in the banner, e.g. "6.1.1" or "N-113000-g1234".
	Version string
	// Major is 0 for development snapshots.
	Major int
	// Snapshot is set for git builds, which are assumed to be recent.
	Snapshot bool
	// Missing lists required filters the build does not provide.
	Missing []string
}

// ---------------------------------------------------------------------------
// VersionChecker - warns about builds the pipelines cannot rely on
// ---------------------------------------------------------------------------

// VersionChecker inspects an ffmpeg build.
type VersionChecker struct {
	output outputFn
	stderr io.Writer
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithOutputFunc replaces how informational commands are run.
func WithOutputFunc(fn outputFn) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.output = fn }
}

// WithVersionStderr sets the writer for warnings.
func WithVersionStderr(w io.Writer) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.stderr = w }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		output: combinedOutput,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Inspect reads the version banner and the filter list of ffmpegPath.
// A failing filter listing leaves Missing empty.
func (vc *VersionChecker) Inspect(ctx context.Context, ffmpegPath string) (Build, error) {
	out, err := vc.output(ctx, ffmpegPath, "-hide_banner", "-version")
	if err != nil && len(out) == 0 {
		return Build{}, fmt.Errorf("run %s -version: %w", ffmpegPath, err)
	}
	first, _, _ := strings.Cut(string(out), "\n")
	b, ok := parseBanner(first)
	if !ok {
		return Build{}, fmt.Errorf("unrecognized ffmpeg banner %q", first)
	}

	if listing, err := vc.output(ctx, ffmpegPath, "-hide_banner", "-filters"); err == nil || len(listing) > 0 {
		b.Missing = missingFilters(string(listing))
	}
	return b, nil
}

// Check warns on stderr about old builds and missing filters.
// It returns false when the build could not be inspected.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) bool {
	b, err := vc.Inspect(ctx, ffmpegPath)
	if err != nil {
		return false
	}
	if !b.Snapshot && b.Major < minMajorVersion {
		fmt.Fprintf(vc.stderr, "Warning: ffmpeg %s detected, version %d+ recommended\n", b.Version, minMajorVersion)
	}
	if len(b.Missing) > 0 {
		fmt.Fprintf(vc.stderr, "Warning: ffmpeg build lacks filter(s): %s\n", strings.Join(b.Missing, ", "))
	}
	return true
}

// CheckVersion inspects ffmpegPath with the default checker.
func CheckVersion(ctx context.Context, ffmpegPath string) {
	NewVersionChecker().Check(ctx, ffmpegPath)
}

// parseBanner reads "ffmpeg version 6.1.1-static ...", "ffmpeg version
// n6.1.1" or "ffmpeg version N-113000-g...".
func parseBanner(line string) (Build, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "ffmpeg" || fields[1] != "version" {
		return Build{}, false
	}
	v := fields[2]
	if strings.HasPrefix(v, "N-") {
		return Build{Version: v, Snapshot: true}, true
	}

	digits := strings.TrimPrefix(v, "n")
	end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' })
	if end == 0 {
		return Build{}, false
	}
	if end > 0 {
		digits = digits[:end]
	}
	major, err := strconv.Atoi(digits)
	if err != nil {
		return Build{}, false
	}
	return Build{Version: v, Major: major}, true
}

// missingFilters returns the required filters absent from a -filters listing.
// Listing rows look like " TSC silencedetect      A->A       Detect silence.".
func missingFilters(listing string) []string {
	have := make(map[string]bool)
	sc := bufio.NewScanner(strings.NewReader(listing))
	for sc.Scan() {
		if f := strings.Fields(sc.Text()); len(f) >= 2 {
			have[f[1]] = true
		}
	}
	var missing []string
	for _, name := range requiredFilters {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
