package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/0xmhha/token-calculator/pkg/logger"
)

const (
	testID      = "a1b2c3d4-e5f6-7890-abcd-ef1234567890"
	otherTestID = "b2c3d4e5-f6a7-8901-bcde-f12345678901"
)

func TestNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	mgr, err := New(Config{DBPath: dbPath}, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if closeErr := mgr.Close(); closeErr != nil {
		t.Errorf("Close() error = %v", closeErr)
	}

	// Verify database file was created.
	if _, statErr := os.Stat(dbPath); statErr != nil {
		t.Errorf("Database file not created: %v", statErr)
	}
}

func TestCreate(t *testing.T) {
	mgr := setupTestManager(t)

	alias := &Alias{
		SessionID:   testID,
		Name:        "api-work",
		ProjectPath: "/path/to/project",
		Description: "Test session",
	}

	if err := mgr.Create(alias); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	retrieved, err := mgr.GetByID(testID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if retrieved.Name != "api-work" {
		t.Errorf("Name = %s, want api-work", retrieved.Name)
	}
	if retrieved.ProjectPath != "/path/to/project" {
		t.Errorf("ProjectPath = %s, want /path/to/project", retrieved.ProjectPath)
	}
	if retrieved.CreatedAt.IsZero() || retrieved.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestCreateErrors(t *testing.T) {
	mgr := setupTestManager(t)

	if err := mgr.Create(&Alias{SessionID: testID, Name: "taken"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name    string
		alias   *Alias
		wantErr error
	}{
		{"nil alias", nil, ErrInvalidAlias},
		{"invalid id", &Alias{SessionID: "not-a-uuid", Name: "x"}, ErrInvalidUUID},
		{"empty name", &Alias{SessionID: otherTestID}, ErrEmptyName},
		{"duplicate name", &Alias{SessionID: otherTestID, Name: "taken"}, ErrNameConflict},
		{"second alias for session", &Alias{SessionID: testID, Name: "another"}, ErrAliasExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := mgr.Create(tt.alias); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetByName(t *testing.T) {
	mgr := setupTestManager(t)

	if err := mgr.Create(&Alias{SessionID: testID, Name: "api-work"}); err != nil {
		t.Fatal(err)
	}

	alias, err := mgr.GetByName("api-work")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if alias.SessionID != testID {
		t.Errorf("SessionID = %s, want %s", alias.SessionID, testID)
	}

	if _, err := mgr.GetByName("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetByName() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := mgr.GetByName(""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("GetByName() error = %v, want ErrEmptyName", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	mgr := setupTestManager(t)

	if _, err := mgr.GetByID(testID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetByID() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := mgr.GetByID("nope"); !errors.Is(err, ErrInvalidUUID) {
		t.Errorf("GetByID() error = %v, want ErrInvalidUUID", err)
	}
}

func TestUpdateName(t *testing.T) {
	mgr := setupTestManager(t)

	if err := mgr.Create(&Alias{SessionID: testID, Name: "old"}); err != nil {
		t.Fatal(err)
	}
	created, _ := mgr.GetByID(testID)

	if err := mgr.Update(testID, &Alias{Name: "new", Description: "renamed"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, err := mgr.GetByName("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("old name still indexed: %v", err)
	}

	updated, err := mgr.GetByName("new")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if updated.SessionID != testID || updated.Description != "renamed" {
		t.Errorf("updated = %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt changed on update")
	}
}

func TestUpdateNameConflict(t *testing.T) {
	mgr := setupTestManager(t)

	for id, name := range map[string]string{testID: "one", otherTestID: "two"} {
		if err := mgr.Create(&Alias{SessionID: id, Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	if err := mgr.Update(testID, &Alias{Name: "two"}); !errors.Is(err, ErrNameConflict) {
		t.Errorf("Update() error = %v, want ErrNameConflict", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	mgr := setupTestManager(t)

	if err := mgr.Update(testID, &Alias{Name: "x"}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Update() error = %v, want ErrSessionNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	mgr := setupTestManager(t)

	if err := mgr.Create(&Alias{SessionID: testID, Name: "api-work"}); err != nil {
		t.Fatal(err)
	}

	if err := mgr.Delete(testID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := mgr.GetByID(testID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetByID() after delete error = %v", err)
	}
	if _, err := mgr.GetByName("api-work"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("name index not cleared: %v", err)
	}

	// Deleting again is not an error.
	if err := mgr.Delete(testID); err != nil {
		t.Errorf("Delete() of missing alias error = %v", err)
	}
}

func TestList(t *testing.T) {
	mgr := setupTestManager(t)

	aliases, err := mgr.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(aliases) != 0 {
		t.Errorf("List() on empty db = %d entries", len(aliases))
	}

	for id, name := range map[string]string{testID: "one", otherTestID: "two"} {
		if err := mgr.Create(&Alias{SessionID: id, Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	aliases, err = mgr.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(aliases) != 2 {
		t.Errorf("List() = %d entries, want 2", len(aliases))
	}
}

func TestSetName(t *testing.T) {
	mgr := setupTestManager(t)

	// Creates the alias when none exists.
	if err := mgr.SetName(testID, "first"); err != nil {
		t.Fatalf("SetName() error = %v", err)
	}
	// Renames it afterwards.
	if err := mgr.SetName(testID, "second"); err != nil {
		t.Fatalf("SetName() rename error = %v", err)
	}

	alias, err := mgr.GetByID(testID)
	if err != nil {
		t.Fatal(err)
	}
	if alias.Name != "second" {
		t.Errorf("Name = %s, want second", alias.Name)
	}

	if err := mgr.SetName("bad", "x"); !errors.Is(err, ErrInvalidUUID) {
		t.Errorf("SetName() error = %v, want ErrInvalidUUID", err)
	}
	if err := mgr.SetName(otherTestID, "second"); !errors.Is(err, ErrNameConflict) {
		t.Errorf("SetName() error = %v, want ErrNameConflict", err)
	}
}

func TestResolve(t *testing.T) {
	mgr := setupTestManager(t)

	if err := mgr.SetName(testID, "api-work"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ref  string
		want string
	}{
		{"api-work", testID},
		{otherTestID, otherTestID},
		{"unknown-alias", "unknown-alias"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := mgr.Resolve(tt.ref)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestIsValidUUID(t *testing.T) {
	tests := []struct {
		name string
		uuid string
		want bool
	}{
		{"valid UUID v4", "a1b2c3d4-e5f6-7890-abcd-ef1234567890", true},
		{"valid UUID with uppercase", "A1B2C3D4-E5F6-7890-ABCD-EF1234567890", true},
		{"too short", "a1b2c3d4-e5f6-7890-abcd-ef123456789", false},
		{"too long", "a1b2c3d4-e5f6-7890-abcd-ef12345678901", false},
		{"missing dashes", "a1b2c3d4e5f6789 0abcdef1234567890", false},
		{"non-hex characters", "g1b2c3d4-e5f6-7890-abcd-ef1234567890", false},
		{"braced form", "{a1b2c3d4-e5f6-7890-abcd-ef1234567890}", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidUUID(tt.uuid); got != tt.want {
				t.Errorf("isValidUUID(%q) = %v, want %v", tt.uuid, got, tt.want)
			}
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	mgr := setupTestManager(t)

	if err := mgr.SetName(testID, "api-work"); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := mgr.Resolve("api-work"); err != nil {
				t.Errorf("Resolve() error = %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestDataPersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	mgr1, err := New(Config{DBPath: dbPath}, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if createErr := mgr1.SetName(testID, "api-work"); createErr != nil {
		t.Fatalf("SetName() error = %v", createErr)
	}
	if closeErr := mgr1.Close(); closeErr != nil {
		t.Fatalf("Close() error = %v", closeErr)
	}

	mgr2, err := New(Config{DBPath: dbPath}, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		if closeErr := mgr2.Close(); closeErr != nil {
			t.Errorf("Close() error = %v", closeErr)
		}
	}()

	id, err := mgr2.Resolve("api-work")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id != testID {
		t.Errorf("Resolve() = %s, want %s", id, testID)
	}
}

// setupTestManager creates a test manager with temp database.
func setupTestManager(t *testing.T) Manager {
	t.Helper()

	mgr, err := New(Config{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
	}, logger.Noop())
	if err != nil {
		t.Fatalf("Failed to create test manager: %v", err)
	}

	t.Cleanup(func() {
		if closeErr := mgr.Close(); closeErr != nil {
			t.Errorf("Cleanup Close() error = %v", closeErr)
		}
	})

	return mgr
}
