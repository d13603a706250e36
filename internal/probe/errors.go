package probe

import "errors"

// ErrProbeFailed indicates ffprobe could not be run or exited with an error.
var ErrProbeFailed = errors.New("probe failed")

// ErrProbeDecode indicates ffprobe ran but its output was not valid metadata JSON.
var ErrProbeDecode = errors.New("probe output could not be decoded")

// ErrNoDimensions indicates the media has no video stream with a known size.
var ErrNoDimensions = errors.New("could not determine video dimensions")
