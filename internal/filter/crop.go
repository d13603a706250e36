package filter

import (
	"fmt"
	"slices"
)

// CropPreset names a crop tuned for a common text layout.
type CropPreset string

// Crop presets.
const (
	VerticallyCenteredText   CropPreset = "VerticallyCenteredText"
	HorizontallyCenteredText CropPreset = "HorizontallyCenteredText"
	BottomText               CropPreset = "BottomText"
	TopText                  CropPreset = "TopText"
)

var cropPresets = map[CropPreset]Crop{
	VerticallyCenteredText:   {Top: 20, Bottom: 20},
	HorizontallyCenteredText: {Left: 10, Right: 10},
	BottomText:               {Top: 75},
	TopText:                  {Bottom: 75},
}

// CropPresets returns the preset names in a stable order.
func CropPresets() []CropPreset {
	names := make([]CropPreset, 0, len(cropPresets))
	for name := range cropPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Crop removes a percentage of the frame from each side.
// Percentages are clamped to [0, 100].
type Crop struct {
	Top    float64 `json:"top,omitempty"`
	Bottom float64 `json:"bottom,omitempty"`
	Left   float64 `json:"left,omitempty"`
	Right  float64 `json:"right,omitempty"`
}

// PresetCrop returns the crop for a preset name.
func PresetCrop(name CropPreset) (Crop, error) {
	c, ok := cropPresets[name]
	if !ok {
		return Crop{}, fmt.Errorf("%w: crop %q", ErrUnknownPreset, name)
	}
	return c, nil
}

// Rect is a crop rectangle in pixels.
type Rect struct {
	Width, Height float64
	X, Y          float64
}

// Rect converts the percentages to a pixel rectangle within a width x height frame.
func (c Crop) Rect(width, height int) (Rect, error) {
	w, h := float64(width), float64(height)

	cropTop := clampPercent(c.Top) / 100 * h
	cropBottom := clampPercent(c.Bottom) / 100 * h
	cropLeft := clampPercent(c.Left) / 100 * w
	cropRight := clampPercent(c.Right) / 100 * w

	r := Rect{
		Width:  w - cropLeft - cropRight,
		Height: h - cropTop - cropBottom,
		X:      cropLeft,
		Y:      cropTop,
	}
	if r.Width <= 0 || r.Height <= 0 {
		return Rect{}, fmt.Errorf("%w: %gx%g from %dx%d", ErrInvalidCrop, r.Width, r.Height, width, height)
	}
	return r, nil
}

// String returns the crop filter, e.g. "crop=1920:648:0:216".
func (r Rect) String() string {
	return "crop=" + num(r.Width) + ":" + num(r.Height) + ":" + num(r.X) + ":" + num(r.Y)
}

// CropFilter returns the crop filter for c applied to a width x height frame.
func CropFilter(width, height int, c Crop) (string, error) {
	r, err := c.Rect(width, height)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

func clampPercent(v float64) float64 {
	return min(max(v, 0), 100)
}
