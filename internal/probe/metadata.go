package probe

import (
	"math"
	"strconv"
	"strings"
)

// Kind classifies a stream.
type Kind string

// Stream kinds reported by ffprobe's codec_type.
const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
	KindOther Kind = "other"
)

// Metadata is the decoded output of one ffprobe inspection.
type Metadata struct {
	Format  Format   `json:"format"`
	Streams []Stream `json:"streams"`
}

// Format captures container-level metadata. ffprobe reports numbers as
// strings; use the accessor methods for parsed values.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// Stream describes a single stream in the container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	SampleRate string `json:"sample_rate,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// Kind returns the stream kind.
func (s Stream) Kind() Kind {
	switch strings.ToLower(s.CodecType) {
	case "audio":
		return KindAudio
	case "video":
		return KindVideo
	default:
		return KindOther
	}
}

// DurationSeconds returns the stream duration, or 0 when unavailable.
func (s Stream) DurationSeconds() float64 {
	return parseSeconds(s.Duration)
}

// DurationSeconds returns the container duration, or 0 when unavailable.
func (m Metadata) DurationSeconds() float64 {
	return parseSeconds(m.Format.Duration)
}

// SizeBytes returns the container size, or 0 when unavailable.
func (m Metadata) SizeBytes() int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(m.Format.Size), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// FirstVideo returns the first video stream.
func (m Metadata) FirstVideo() (Stream, bool) {
	for _, s := range m.Streams {
		if s.Kind() == KindVideo {
			return s, true
		}
	}
	return Stream{}, false
}

// StreamCount returns the number of streams of the given kind.
func (m Metadata) StreamCount(k Kind) int {
	n := 0
	for _, s := range m.Streams {
		if s.Kind() == k {
			n++
		}
	}
	return n
}

func parseSeconds(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
