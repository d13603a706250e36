// Package filter builds ffmpeg filter strings for cropping, noise reduction
// and frame preprocessing. All functions are pure.
package filter

import "strconv"

// num formats v the way ffmpeg expects in filter arguments: no exponent,
// no trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Float returns a pointer to v, for optional filter parameters.
func Float(v float64) *float64 {
	return &v
}
