package segment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Range is a time range in seconds.
// Ranges produced by this package always satisfy End > Start >= 0.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start in seconds.
func (r Range) Duration() float64 {
	return r.End - r.Start
}

// Contains reports whether other lies entirely within r.
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// StartTime returns Start as a time.Duration.
func (r Range) StartTime() time.Duration {
	return seconds(r.Start)
}

// EndTime returns End as a time.Duration.
func (r Range) EndTime() time.Duration {
	return seconds(r.End)
}

// String returns a human-readable representation for logging.
func (r Range) String() string {
	return fmt.Sprintf("%s-%s",
		strconv.FormatFloat(r.Start, 'f', -1, 64),
		strconv.FormatFloat(r.End, 'f', -1, 64))
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// ---------------------------------------------------------------------------
// Timecode ranges ("1:30-2:00")
// ---------------------------------------------------------------------------

// ParseTimecode converts a colon-separated timecode to seconds.
// Parts accumulate in base 60 from the right, so "90", "1:30" and
// "0:01:30" all yield 90. Fractional seconds are allowed in any part.
func ParseTimecode(tc string) (float64, error) {
	tc = strings.TrimSpace(tc)
	if tc == "" {
		return 0, fmt.Errorf("%w: empty timecode", ErrInvalidRanges)
	}

	parts := strings.Split(tc, ":")
	total, multiplier := 0.0, 1.0
	for i := len(parts) - 1; i >= 0; i-- {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: timecode %q", ErrInvalidRanges, tc)
		}
		total += v * multiplier
		multiplier *= 60
	}
	return total, nil
}

// ParseTimecodeRange parses "start-end". A missing end ("1:30-" or "1:30")
// is returned as End 0 and resolved later by Resolve.
func ParseTimecodeRange(s string) (Range, error) {
	startText, endText, _ := strings.Cut(s, "-")

	start, err := ParseTimecode(startText)
	if err != nil {
		return Range{}, err
	}
	if strings.TrimSpace(endText) == "" {
		return Range{Start: start}, nil
	}
	end, err := ParseTimecode(endText)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// ParseTimecodeRanges parses a list of "start-end" timecode ranges.
func ParseTimecodeRanges(specs []string) ([]Range, error) {
	ranges := make([]Range, 0, len(specs))
	for _, s := range specs {
		r, err := ParseTimecodeRange(s)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// Resolve validates caller-supplied ranges. Only the last range may omit its
// end (End == 0); it is extended to total. Every resulting range must have
// End > Start. The input slice is not modified.
func Resolve(ranges []Range, total float64) ([]Range, error) {
	if len(ranges) == 0 {
		return nil, ErrEmptyRanges
	}

	out := make([]Range, len(ranges))
	copy(out, ranges)

	last := &out[len(out)-1]
	if last.End == 0 {
		last.End = total
	}

	for i, r := range out {
		if r.End == 0 {
			return nil, fmt.Errorf("%w: range %d has no end (only the last range may omit it)", ErrInvalidRanges, i+1)
		}
		if r.Start < 0 || r.End <= r.Start {
			return nil, fmt.Errorf("%w: range %d (%s) must satisfy 0 <= start < end", ErrInvalidRanges, i+1, r)
		}
	}
	return out, nil
}

// NeedsDuration reports whether Resolve would need the media duration.
func NeedsDuration(ranges []Range) bool {
	return len(ranges) > 0 && ranges[len(ranges)-1].End == 0
}
