package solar

import "errors"

var (
	// ErrMissingField is returned when a required identifying field (the
	// timestamp) is absent from an input row.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidInput is returned for non-finite or physically impossible
	// timestamps and site parameters.
	ErrInvalidInput = errors.New("invalid input")
)
