package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/token-calculator/pkg/discovery"
	"github.com/0xmhha/token-calculator/pkg/logger"
)

// Bucket names.
var (
	bucketSessions = []byte("sessions") // SessionID -> Alias
	bucketNames    = []byte("names")    // Name -> SessionID (index)
)

// manager implements the Manager interface using BoltDB.
type manager struct {
	db     *bolt.DB
	logger logger.Logger
	config Config
}

// New creates a new session manager, creating the database if needed.
func New(cfg Config, log logger.Logger) (Manager, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	dbPath := discovery.ExpandHome(cfg.DBPath)

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, createErr := tx.CreateBucketIfNotExists(bucketSessions); createErr != nil {
			return fmt.Errorf("failed to create sessions bucket: %w", createErr)
		}
		if _, createErr := tx.CreateBucketIfNotExists(bucketNames); createErr != nil {
			return fmt.Errorf("failed to create names bucket: %w", createErr)
		}
		return nil
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization error",
				"error", closeErr)
		}
		return nil, err
	}

	log.Debug("session manager initialized", "db_path", dbPath)

	return &manager{
		db:     db,
		logger: log,
		config: cfg,
	}, nil
}

// Create implements Manager.Create.
func (m *manager) Create(alias *Alias) error {
	if alias == nil {
		return ErrInvalidAlias
	}
	if !isValidUUID(alias.SessionID) {
		return ErrInvalidUUID
	}
	if alias.Name == "" {
		return ErrEmptyName
	}

	now := time.Now()
	alias.CreatedAt = now
	alias.UpdatedAt = now

	return m.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)
		names := tx.Bucket(bucketNames)

		if sessions.Get([]byte(alias.SessionID)) != nil {
			return fmt.Errorf("%w: %s", ErrAliasExists, alias.SessionID)
		}
		if names.Get([]byte(alias.Name)) != nil {
			return ErrNameConflict
		}

		if err := put(sessions, names, alias); err != nil {
			return err
		}

		m.logger.Info("session alias created",
			"session_id", alias.SessionID,
			"name", alias.Name)
		return nil
	})
}

// GetByID implements Manager.GetByID.
func (m *manager) GetByID(sessionID string) (*Alias, error) {
	if !isValidUUID(sessionID) {
		return nil, ErrInvalidUUID
	}

	var alias *Alias
	err := m.db.View(func(tx *bolt.Tx) error {
		var getErr error
		alias, getErr = get(tx.Bucket(bucketSessions), sessionID)
		return getErr
	})
	if err != nil {
		return nil, err
	}

	return alias, nil
}

// GetByName implements Manager.GetByName.
func (m *manager) GetByName(name string) (*Alias, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	var alias *Alias
	err := m.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketNames).Get([]byte(name))
		if id == nil {
			return ErrSessionNotFound
		}

		var getErr error
		alias, getErr = get(tx.Bucket(bucketSessions), string(id))
		return getErr
	})
	if err != nil {
		return nil, err
	}

	return alias, nil
}

// Update implements Manager.Update.
func (m *manager) Update(sessionID string, alias *Alias) error {
	if alias == nil {
		return ErrInvalidAlias
	}
	if !isValidUUID(sessionID) {
		return ErrInvalidUUID
	}
	if alias.Name == "" {
		return ErrEmptyName
	}

	return m.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)
		names := tx.Bucket(bucketNames)

		existing, err := get(sessions, sessionID)
		if err != nil {
			return err
		}

		if existing.Name != alias.Name {
			if names.Get([]byte(alias.Name)) != nil {
				return ErrNameConflict
			}
			if err := names.Delete([]byte(existing.Name)); err != nil {
				return fmt.Errorf("failed to delete old name index: %w", err)
			}
		}

		// Preserve creation time, update modification time.
		alias.SessionID = sessionID
		alias.CreatedAt = existing.CreatedAt
		alias.UpdatedAt = time.Now()

		if err := put(sessions, names, alias); err != nil {
			return err
		}

		m.logger.Info("session alias updated",
			"session_id", sessionID,
			"name", alias.Name)
		return nil
	})
}

// Delete implements Manager.Delete.
func (m *manager) Delete(sessionID string) error {
	if !isValidUUID(sessionID) {
		return ErrInvalidUUID
	}

	return m.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)
		names := tx.Bucket(bucketNames)

		existing, err := get(sessions, sessionID)
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := sessions.Delete([]byte(sessionID)); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		if err := names.Delete([]byte(existing.Name)); err != nil {
			return fmt.Errorf("failed to delete name index: %w", err)
		}

		m.logger.Info("session alias deleted",
			"session_id", sessionID,
			"name", existing.Name)
		return nil
	})
}

// List implements Manager.List.
func (m *manager) List() ([]*Alias, error) {
	aliases := make([]*Alias, 0, 10)

	err := m.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(k, v []byte) error {
			var alias Alias
			if unmarshalErr := json.Unmarshal(v, &alias); unmarshalErr != nil {
				m.logger.Warn("failed to unmarshal session alias",
					"session_id", string(k),
					"error", unmarshalErr)
				return nil // Skip invalid entries.
			}

			aliases = append(aliases, &alias)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return aliases, nil
}

// SetName implements Manager.SetName.
func (m *manager) SetName(sessionID, name string) error {
	if !isValidUUID(sessionID) {
		return ErrInvalidUUID
	}
	if name == "" {
		return ErrEmptyName
	}

	existing, err := m.GetByID(sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(&Alias{SessionID: sessionID, Name: name})
	}
	if err != nil {
		return err
	}

	existing.Name = name
	return m.Update(sessionID, existing)
}

// Resolve implements Manager.Resolve.
func (m *manager) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", nil
	}

	alias, err := m.GetByName(ref)
	if errors.Is(err, ErrSessionNotFound) {
		return ref, nil
	}
	if err != nil {
		return "", err
	}

	m.logger.Debug("resolved session alias", "name", ref, "session_id", alias.SessionID)
	return alias.SessionID, nil
}

// Close implements Manager.Close.
func (m *manager) Close() error {
	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	m.logger.Debug("session manager closed")
	return nil
}

// get loads the alias stored under sessionID.
func get(sessions *bolt.Bucket, sessionID string) (*Alias, error) {
	data := sessions.Get([]byte(sessionID))
	if data == nil {
		return nil, ErrSessionNotFound
	}

	var alias Alias
	if err := json.Unmarshal(data, &alias); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alias: %w", err)
	}
	return &alias, nil
}

// put stores alias and its name index entry.
func put(sessions, names *bolt.Bucket, alias *Alias) error {
	data, err := json.Marshal(alias)
	if err != nil {
		return fmt.Errorf("failed to marshal alias: %w", err)
	}

	if err := sessions.Put([]byte(alias.SessionID), data); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if err := names.Put([]byte(alias.Name), []byte(alias.SessionID)); err != nil {
		return fmt.Errorf("failed to store name index: %w", err)
	}
	return nil
}

// isValidUUID reports whether id is a UUID in its 36-character
// 8-4-4-4-12 form. Braced and URN forms are rejected.
func isValidUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	return uuid.Validate(id) == nil
}
