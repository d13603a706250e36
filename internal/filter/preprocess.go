package filter

import (
	"fmt"
	"strings"
)

// FramePreset names a frame preprocessing profile.
type FramePreset string

// Frame preprocessing presets.
const (
	DarkTextOnLightBackground FramePreset = "DarkTextOnLightBackground"
	LightTextOnDarkBackground FramePreset = "LightTextOnDarkBackground"
)

var framePresets = map[FramePreset]Preprocessing{
	DarkTextOnLightBackground: {Grayscale: true},
	LightTextOnDarkBackground: {Grayscale: true},
}

// Preprocessing prepares extracted frames for text recognition.
type Preprocessing struct {
	// Preset, when set, replaces every other field.
	Preset FramePreset

	Grayscale  bool
	Contrast   *float64 // eq contrast, 1 is unchanged
	Brightness *float64 // eq brightness, 0 is unchanged
	Threshold  *float64 // luma cut-off, 0-255; pixels above become white
}

// Filter returns the preprocessing filter chain, or "" when nothing applies.
func (p Preprocessing) Filter() (string, error) {
	if p.Preset != "" {
		preset, ok := framePresets[p.Preset]
		if !ok {
			return "", fmt.Errorf("%w: preprocessing %q", ErrUnknownPreset, p.Preset)
		}
		p = preset
	}

	var filters []string
	if p.Grayscale {
		filters = append(filters, "format=gray")
	}

	var eq []string
	if p.Contrast != nil {
		eq = append(eq, "contrast="+num(*p.Contrast))
	}
	if p.Brightness != nil {
		eq = append(eq, "brightness="+num(*p.Brightness))
	}
	if len(eq) > 0 {
		filters = append(filters, "eq="+strings.Join(eq, ":"))
	}

	if p.Threshold != nil {
		filters = append(filters, fmt.Sprintf("lutyuv=y='if(gt(val,%s),255,0)'", num(*p.Threshold)))
	}
	return strings.Join(filters, ","), nil
}
