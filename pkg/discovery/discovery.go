// Package discovery locates the project a calculation runs against.
//
// A project is a directory holding the session event log (by default
// logs/events.jsonl) and, optionally, the initial-context document
// (claude.md). Starting from a directory, the locator walks towards the
// filesystem root and picks the first directory whose log exists.
//
// Example usage:
//
//	l := discovery.New(discovery.Config{LogFile: "logs/events.jsonl"}, logger.Default())
//	project, err := l.Locate(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Log: %s\n", project.LogFile)
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Logger defines the logging interface used by the discovery package.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Project is a located project directory.
type Project struct {
	// Root is the absolute project directory.
	Root string

	// LogFile is the absolute path of the session event log.
	LogFile string

	// InitialContext is the absolute path of the initial-context document,
	// or "" when none is configured.
	InitialContext string

	// Found reports whether LogFile existed when the project was located.
	Found bool
}

// Config names the project files relative to the project root.
type Config struct {
	LogFile        string
	InitialContext string
}

// Locator provides methods for locating projects.
type Locator interface {
	// Locate walks up from start to the first directory containing the log.
	//
	// When no ancestor holds a log, the project rooted at start is returned
	// with Found false. Returns ErrProjectNotFound if start does not exist.
	Locate(start string) (Project, error)

	// At returns the project rooted exactly at root, without walking.
	At(root string) (Project, error)
}

// locator implements the Locator interface.
type locator struct {
	config Config
	logger Logger
}

// New creates a new Locator instance.
func New(cfg Config, logger Logger) Locator {
	return &locator{
		config: cfg,
		logger: logger,
	}
}

// Locate implements Locator.Locate.
func (l *locator) Locate(start string) (Project, error) {
	root, err := l.absDir(start)
	if err != nil {
		return Project{}, err
	}

	for dir := root; ; {
		project := l.project(dir)
		if project.Found {
			l.logger.Debug("located project", "root", dir)
			return project, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	l.logger.Debug("no event log above start directory", "start", root)
	return l.project(root), nil
}

// At implements Locator.At.
func (l *locator) At(root string) (Project, error) {
	dir, err := l.absDir(root)
	if err != nil {
		return Project{}, err
	}
	return l.project(dir), nil
}

func (l *locator) absDir(path string) (string, error) {
	abs, err := filepath.Abs(ExpandHome(path))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrProjectNotFound, abs)
		}
		return "", fmt.Errorf("failed to stat directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, abs)
	}

	return abs, nil
}

func (l *locator) project(root string) Project {
	p := Project{
		Root:    root,
		LogFile: join(root, l.config.LogFile),
	}
	if l.config.InitialContext != "" {
		p.InitialContext = join(root, l.config.InitialContext)
	}

	if info, err := os.Stat(p.LogFile); err == nil && !info.IsDir() {
		p.Found = true
	}
	return p
}

func join(root, path string) string {
	path = ExpandHome(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// ExpandHome expands ~ in file paths to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
