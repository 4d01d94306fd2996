package lirc

import "errors"

var (
	// ErrMissingRemoteName is returned when "end remote" closes a block that
	// never set a name.
	ErrMissingRemoteName = errors.New("lirc: remote block has no name")
	// ErrInvalidValue is returned when a numeric field does not parse.
	ErrInvalidValue = errors.New("lirc: invalid field value")
	// ErrFetch is returned when a definition file cannot be retrieved.
	ErrFetch = errors.New("lirc: fetch failed")
)
