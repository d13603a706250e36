package edit

import "errors"

// ErrNoInputs indicates an operation was given no input files.
var ErrNoInputs = errors.New("no input files")

// ErrOutputExists indicates the output file exists and overwriting is disabled.
var ErrOutputExists = errors.New("output file already exists")

// ErrInvalidFrequency indicates a non-positive frame extraction interval.
var ErrInvalidFrequency = errors.New("frame frequency must be positive")

// ErrInvalidDelay indicates a delay that is not a finite number of seconds.
var ErrInvalidDelay = errors.New("delay must be a finite number of seconds")
