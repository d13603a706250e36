// Package format renders durations, timecodes and sizes for terminal output.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Duration formats a duration as HH:MM:SS or MM:SS.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Seconds converts fractional seconds to a time.Duration, rounded to the
// millisecond. Non-finite and negative values become 0.
func Seconds(secs float64) time.Duration {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		return 0
	}
	return time.Duration(math.Round(secs*1000)) * time.Millisecond
}

// Timecode formats seconds as HH:MM:SS, truncating fractions.
// Used for transcript markers, which always carry hours.
func Timecode(secs float64) string {
	d := Seconds(secs)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Clock formats seconds as HH:MM:SS.mmm, the form ffmpeg accepts for -ss.
func Clock(secs float64) string {
	d := Seconds(secs)
	ms := d.Milliseconds() % 1000
	return Timecode(secs) + fmt.Sprintf(".%03d", ms)
}

// Size formats a size in bytes for human display, with one decimal above
// a kilobyte: "512 bytes", "1.5 KB", "12.0 MB", "2.3 GB".
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	}
	return strconv.FormatInt(bytes, 10) + " bytes"
}

// Bitrate formats bits per second: "128 kb/s", "4.5 Mb/s".
func Bitrate(bps int64) string {
	switch {
	case bps >= 1_000_000:
		return strconv.FormatFloat(float64(bps)/1_000_000, 'f', 1, 64) + " Mb/s"
	case bps >= 1000:
		return strconv.FormatInt(bps/1000, 10) + " kb/s"
	}
	return strconv.FormatInt(bps, 10) + " b/s"
}
