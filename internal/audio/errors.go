package audio

import "errors"

// ErrSplitFailed indicates ffmpeg failed while cutting a chunk.
var ErrSplitFailed = errors.New("audio split failed")

// ErrFileNotFound indicates the specified input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrNoDuration indicates the input reports no usable duration to split.
var ErrNoDuration = errors.New("input has no duration")
