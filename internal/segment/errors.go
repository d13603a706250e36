package segment

import "errors"

// ErrInvalidBudget indicates a chunk budget that is not a positive number of seconds.
var ErrInvalidBudget = errors.New("chunk budget must be positive")

// ErrEmptyRanges indicates that no time ranges were requested.
var ErrEmptyRanges = errors.New("ranges cannot be empty")

// ErrInvalidRanges indicates a range that cannot be resolved to a start and a later end.
var ErrInvalidRanges = errors.New("invalid ranges")
