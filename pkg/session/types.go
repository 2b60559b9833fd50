// Package session provides persistent session aliases.
//
// Session IDs in the event log are UUIDs. The manager maps them to
// user-friendly names so a calculation can be restricted to one session by
// alias instead of by ID.
//
// Example usage:
//
//	mgr, err := session.New(session.Config{
//	    DBPath: "~/.config/token-calculator/sessions.db",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	if err := mgr.SetName("a1b2c3d4-e5f6-7890-abcd-ef1234567890", "api-work"); err != nil {
//	    log.Fatal(err)
//	}
//	id, err := mgr.Resolve("api-work")
package session

import "time"

// Alias represents a named session stored in the database.
type Alias struct {
	// SessionID is the session identifier (36 chars, 8-4-4-4-12 format).
	SessionID string `json:"session_id"`

	// Name is the user-friendly session name (must be unique).
	Name string `json:"name"`

	// ProjectPath is the project whose log the session was recorded in.
	ProjectPath string `json:"project_path,omitempty"`

	// CreatedAt is the alias creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last update timestamp.
	UpdatedAt time.Time `json:"updated_at"`

	// Description is an optional note.
	Description string `json:"description,omitempty"`
}

// Manager provides session alias CRUD operations.
type Manager interface {
	// Create stores a new alias.
	//
	// Returns error if:
	//   - SessionID is not a UUID
	//   - Name is empty or already taken
	//   - SessionID already has an alias
	//   - Database operation fails
	Create(alias *Alias) error

	// GetByID retrieves the alias of a session.
	//
	// Returns ErrSessionNotFound if the session has no alias.
	GetByID(sessionID string) (*Alias, error)

	// GetByName retrieves an alias by name.
	//
	// Returns ErrSessionNotFound if no alias has that name.
	GetByName(name string) (*Alias, error)

	// Update replaces the alias of sessionID.
	//
	// Returns error if:
	//   - Session not found
	//   - Name conflicts with another session
	//   - Database operation fails
	Update(sessionID string, alias *Alias) error

	// Delete removes the alias of sessionID.
	//
	// Does not error if the session has no alias.
	Delete(sessionID string) error

	// List returns all aliases (empty if none exist).
	List() ([]*Alias, error)

	// SetName assigns or renames the alias of sessionID.
	//
	// Returns error if:
	//   - SessionID is not a UUID
	//   - Name is already taken by another session
	//   - Database operation fails
	SetName(sessionID, name string) error

	// Resolve turns a session reference into a session ID. A known alias
	// resolves to its session; anything else is returned unchanged.
	Resolve(ref string) (string, error)

	// Close closes the database connection and releases resources.
	Close() error
}

// Config contains session manager configuration.
type Config struct {
	// DBPath is the BoltDB file path.
	DBPath string

	// Timeout is the database lock timeout (default: 1 second).
	Timeout time.Duration
}
