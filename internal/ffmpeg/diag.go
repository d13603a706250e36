package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"
)

// Patterns matched against single diagnostic lines.
var (
	durationRe = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2}\.\d{2})`)
	frameRe    = regexp.MustCompile(`frame=\s*(\d+)`)
	fpsRe      = regexp.MustCompile(`fps=\s*([\d.]+)`)
	timeRe     = regexp.MustCompile(`time=(\S+)`)
	sizeRe     = regexp.MustCompile(`size=\s*(\S+)`)
	bitrateRe  = regexp.MustCompile(`bitrate=\s*(\S+)`)
	speedRe    = regexp.MustCompile(`speed=\s*(\S+)`)
)

// Progress is a snapshot of one progress line.
// Nil and empty fields were absent from the line.
type Progress struct {
	Frames   *int64
	FPS      *float64
	Timemark string
	Size     string
	Bitrate  string
	Speed    string
	Percent  *float64
}

// ParseDuration extracts the total duration announced by a
// "Duration: HH:MM:SS.ff" line, in seconds.
func ParseDuration(line string) (float64, bool) {
	m := durationRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	s, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(h)*3600 + float64(mins)*60 + s, true
}

// ParseProgress extracts a progress snapshot. A line qualifies only when it
// carries a time= or frame= token.
// Percent is left nil; the supervisor fills it once a duration is known.
func ParseProgress(line string) (Progress, bool) {
	if !strings.Contains(line, "time=") && !strings.Contains(line, "frame=") {
		return Progress{}, false
	}

	var p Progress
	if m := frameRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			p.Frames = &n
		}
	}
	if m := fpsRe.FindStringSubmatch(line); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.FPS = &f
		}
	}
	if m := timeRe.FindStringSubmatch(line); m != nil {
		p.Timemark = m[1]
	}
	if m := sizeRe.FindStringSubmatch(line); m != nil {
		p.Size = m[1]
	}
	if m := bitrateRe.FindStringSubmatch(line); m != nil {
		p.Bitrate = m[1]
	}
	if m := speedRe.FindStringSubmatch(line); m != nil {
		p.Speed = m[1]
	}
	return p, true
}

// TimecodeSeconds converts "[-]H:MM:SS[.fff]" to seconds. A leading minus
// applies to the whole timecode. Any other shape yields 0: the input is
// untrusted tool output.
func TimecodeSeconds(tc string) float64 {
	sign := 1.0
	if rest, ok := strings.CutPrefix(tc, "-"); ok {
		sign, tc = -1, rest
	}
	parts := strings.Split(tc, ":")
	if len(parts) != 3 {
		return 0
	}
	var total float64
	for i, part := range parts {
		if strings.HasPrefix(part, "-") || strings.HasPrefix(part, "+") {
			return 0
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0
		}
		switch i {
		case 0:
			total += v * 3600
		case 1:
			total += v * 60
		default:
			total += v
		}
	}
	return sign * total
}

// percentOf returns elapsed/duration*100 clamped to [0, 100].
func percentOf(timemark string, duration float64) float64 {
	return max(0, min(100, TimecodeSeconds(timemark)/duration*100))
}

// ErrorMessage returns the last non-blank diagnostic line, which is where
// ffmpeg reports the reason for a failure.
func ErrorMessage(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}
