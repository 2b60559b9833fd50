package discovery

import "errors"

var (
	// ErrProjectNotFound is returned when the start or root directory does not exist.
	ErrProjectNotFound = errors.New("project directory does not exist")

	// ErrInvalidPath is returned when a start or root path is not a usable directory.
	ErrInvalidPath = errors.New("not a project directory")
)
