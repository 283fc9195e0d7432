package labeled

import "errors"

// Every message carries the "labeled:" prefix. Operations wrap these with
// the offending axis name; callers match with errors.Is.
var (
	// ErrAxisNotFound is returned when a named axis is not part of the array.
	ErrAxisNotFound = errors.New("labeled: axis not found")

	// ErrDuplicateAxis is returned when an axis name would occur twice.
	ErrDuplicateAxis = errors.New("labeled: duplicate axis name")

	// ErrShape is returned when coordinate lengths, data length or a
	// requested axis order do not agree with the array's shape.
	ErrShape = errors.New("labeled: shape mismatch")

	// ErrIndex is returned for positions outside an axis' extent.
	ErrIndex = errors.New("labeled: index out of range")

	// ErrVarNotFound is returned by Dataset lookups of unknown variables.
	ErrVarNotFound = errors.New("labeled: variable not found")
)
