package sink

import "errors"

// ErrEmptyOutputDir is returned when a JSONWriter is created without a directory.
var ErrEmptyOutputDir = errors.New("output directory is empty")
