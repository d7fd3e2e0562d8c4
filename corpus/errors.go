package corpus

import "errors"

var (
	// ErrUnsupported is returned for sources that cannot be turned into text.
	ErrUnsupported = errors.New("unsupported source")

	// ErrPageRange is returned when a requested PDF page range is invalid.
	ErrPageRange = errors.New("invalid page range")
)
