package session

import "errors"

// Common errors returned by the session manager.
var (
	// ErrSessionNotFound is returned when a session has no alias.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidUUID is returned when a session ID is not a UUID.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrNameConflict is returned when a session name is already taken.
	ErrNameConflict = errors.New("session name already exists")

	// ErrEmptyName is returned when a session name is empty.
	ErrEmptyName = errors.New("session name cannot be empty")

	// ErrAliasExists is returned when a session already has an alias.
	ErrAliasExists = errors.New("session already has an alias")

	// ErrInvalidAlias is returned when an alias is nil.
	ErrInvalidAlias = errors.New("invalid alias")
)
