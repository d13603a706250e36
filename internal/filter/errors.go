package filter

import "errors"

// ErrInvalidCrop indicates crop percentages that leave no visible area.
var ErrInvalidCrop = errors.New("invalid crop dimensions, adjust the crop options")

// ErrUnknownPreset indicates an unrecognized crop or preprocessing preset name.
var ErrUnknownPreset = errors.New("unknown preset")
