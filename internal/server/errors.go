package server

import "errors"

// ErrBadRequest indicates a request with missing or malformed parameters.
var ErrBadRequest = errors.New("bad request")

// ErrJobNotFound indicates an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// ErrUnsupportedFormat indicates a /format extension with no known container.
var ErrUnsupportedFormat = errors.New("unsupported output format")
