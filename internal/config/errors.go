package config

import "errors"

// ErrUnknownKey indicates a key that is not a configuration setting.
var ErrUnknownKey = errors.New("unknown config key")

// ErrInvalidValue indicates a value that does not parse for its key.
var ErrInvalidValue = errors.New("invalid config value")

// ErrNotDirectory indicates an output-dir that exists but is not a directory.
var ErrNotDirectory = errors.New("path is not a directory")

// ErrNotWritable indicates an output-dir that cannot be written to.
var ErrNotWritable = errors.New("directory is not writable")
