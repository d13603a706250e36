package segment

import (
	"fmt"
	"math"
)

// Segment splits [0, total) into chronologically ordered, non-overlapping
// ranges of at most budget seconds, preferring to cut at the start of a
// silence interval.
//
// Each step looks at the window (cursor, cursor+budget] and cuts at the
// latest silence start inside it. When none falls in the window, the cut is
// forced at the window end. A candidate that lies entirely inside a silence
// is dropped and the cursor jumps to that silence's end, so long silences
// collapse instead of producing silent chunks.
//
// silences need not be sorted. Segment returns ErrInvalidBudget when budget
// is not positive, and no ranges when total is not positive.
func Segment(silences []Range, budget, total float64) ([]Range, error) {
	if !(budget > 0) || math.IsInf(budget, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidBudget, budget)
	}
	if !(total > 0) {
		return nil, nil
	}
	if budget >= total {
		return []Range{{Start: 0, End: total}}, nil
	}

	var out []Range
	cursor := 0.0
	for cursor < total {
		windowEnd := math.Min(cursor+budget, total)

		candidate := Range{Start: cursor, End: windowEnd}
		landed := false
		if cut, ok := latestStart(silences, cursor, windowEnd); ok {
			candidate.End = cut
			landed = true
		}
		if candidate.End <= candidate.Start {
			// Budget too small to advance the cursor at this magnitude.
			break
		}
		cursor = candidate.End

		if s, ok := swallowedBy(silences, candidate, landed); ok {
			cursor = math.Max(cursor, s.End)
			continue
		}
		out = append(out, candidate)
	}
	return out, nil
}

// latestStart returns the greatest silence start in (after, upTo].
func latestStart(silences []Range, after, upTo float64) (float64, bool) {
	best, found := 0.0, false
	for _, s := range silences {
		if s.Start > after && s.Start <= upTo && (!found || s.Start > best) {
			best, found = s.Start, true
		}
	}
	return best, found
}

// swallowedBy returns the silence that makes candidate a silent-only range.
// A candidate cut at a silence start that ends exactly where the containing
// silence ends is speech-bounded on the right and is kept.
func swallowedBy(silences []Range, candidate Range, landed bool) (Range, bool) {
	for _, s := range silences {
		if !s.Contains(candidate) {
			continue
		}
		if !landed || s.End > candidate.End {
			return s, true
		}
	}
	return Range{}, false
}

// FilterShorter drops ranges whose duration is not greater than minDuration.
func FilterShorter(ranges []Range, minDuration float64) []Range {
	out := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Duration() > minDuration {
			out = append(out, r)
		}
	}
	return out
}
