package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/0xmhha/token-calculator/pkg/parser"
	"github.com/0xmhha/token-calculator/pkg/session"
)

// sessionCommand handles session alias subcommands.
type sessionCommand struct {
	opts globalOptions
	out  io.Writer
	in   io.Reader
}

// Execute runs the session command.
func (c *sessionCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "name":
		return c.runName(subargs)
	case "list":
		return c.runList(subargs)
	case "show":
		return c.runShow(subargs)
	case "delete":
		return c.runDelete(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown session subcommand: %s", subcommand)
	}
}

// flagSet returns a flag set carrying the common flags.
func (c *sessionCommand) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	c.opts.register(fs)
	return fs
}

// open loads the environment and opens the alias store.
func (c *sessionCommand) open() (*environment, session.Manager, error) {
	env, err := loadEnvironment(c.opts)
	if err != nil {
		return nil, nil, err
	}

	mgr, err := session.New(session.Config{
		DBPath: env.cfg.Storage.DBPath,
	}, env.log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	return env, mgr, nil
}

// closeManager closes mgr, logging failures.
func closeManager(env *environment, mgr session.Manager) {
	if err := mgr.Close(); err != nil {
		env.log.Error("failed to close session manager", "error", err)
	}
}

// runName assigns an alias to a session.
func (c *sessionCommand) runName(args []string) error {
	fs := c.flagSet("session name")
	description := fs.String("description", "", "free-form note stored with the alias")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: token-calculator session name <session-id> <alias>")
	}

	sessionID := fs.Arg(0)
	name := strings.TrimSpace(fs.Arg(1))
	if name == "" {
		return fmt.Errorf("alias cannot be empty")
	}

	env, mgr, err := c.open()
	if err != nil {
		return err
	}
	defer closeManager(env, mgr)

	existing, err := mgr.GetByID(sessionID)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		err = mgr.Create(&session.Alias{
			SessionID:   sessionID,
			Name:        name,
			ProjectPath: env.root,
			Description: *description,
		})
		if err == nil {
			fmt.Fprintf(c.out, "Named session '%s' as '%s'\n", shortID(sessionID), name)
		}
	case err != nil:
		return describeAliasError(err, sessionID, name)
	default:
		oldName := existing.Name
		existing.Name = name
		if *description != "" {
			existing.Description = *description
		}
		err = mgr.Update(sessionID, existing)
		if err == nil {
			c.printNameUpdateResult(sessionID, oldName, name)
		}
	}

	return describeAliasError(err, sessionID, name)
}

// describeAliasError turns store errors into user-facing messages.
func describeAliasError(err error, sessionID, name string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrInvalidUUID):
		return fmt.Errorf("invalid session id %q: must be a UUID", sessionID)
	case errors.Is(err, session.ErrNameConflict):
		return fmt.Errorf("alias '%s' is already used by another session", name)
	default:
		return fmt.Errorf("failed to name session: %w", err)
	}
}

// printNameUpdateResult outputs the appropriate message for renames.
func (c *sessionCommand) printNameUpdateResult(sessionID, oldName, newName string) {
	short := shortID(sessionID)
	if oldName == newName {
		fmt.Fprintf(c.out, "Session '%s' already has alias '%s'\n", short, newName)
		return
	}
	fmt.Fprintf(c.out, "Renamed session '%s' from '%s' to '%s'\n", short, oldName, newName)
}

// displaySession represents a session for display purposes.
type displaySession struct {
	SessionID   string
	Name        string
	ProjectPath string
	StartedAt   string
	UpdatedAt   time.Time
}

// runList lists aliases with their start time in the event log. With -all,
// unnamed sessions from the log are listed too.
func (c *sessionCommand) runList(args []string) error {
	fs := c.flagSet("session list")
	sortBy := fs.String("sort", "name", "sort by: name, date, id")
	showAll := fs.Bool("all", false, "include unnamed sessions from the project's event log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, mgr, err := c.open()
	if err != nil {
		return err
	}
	defer closeManager(env, mgr)

	aliases, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	logged, err := sessionStarts(env)
	if err != nil {
		return err
	}

	sessions := combineSessionsForDisplay(aliases, logged, *showAll)
	if len(sessions) == 0 {
		if *showAll {
			fmt.Fprintln(c.out, "No sessions found")
		} else {
			fmt.Fprintln(c.out, "No named sessions found. Use -all to include the event log.")
		}
		return nil
	}

	sortSessions(sessions, *sortBy)
	return c.displaySessionList(sessions)
}

// sessionStarts returns the SessionStart events of the project's log, or
// nothing if the log does not exist.
func sessionStarts(env *environment) ([]parser.Event, error) {
	var starts []parser.Event
	_, err := parser.New(env.log).Stream(context.Background(), env.cfg.LogPath(env.root), func(ev parser.Event) error {
		if ev.Kind == parser.KindSessionStart && ev.SessionID != "" {
			starts = append(starts, ev)
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event log: %w", err)
	}
	return starts, nil
}

// combineSessionsForDisplay merges aliases with sessions from the log.
// Aliased sessions are always listed; unnamed ones only when showAll.
func combineSessionsForDisplay(aliases []*session.Alias, starts []parser.Event, showAll bool) []displaySession {
	byID := make(map[string]*displaySession, len(aliases))
	sessions := make([]*displaySession, 0, len(aliases))

	for _, a := range aliases {
		d := &displaySession{
			SessionID:   a.SessionID,
			Name:        a.Name,
			ProjectPath: a.ProjectPath,
			UpdatedAt:   a.UpdatedAt,
		}
		byID[a.SessionID] = d
		sessions = append(sessions, d)
	}

	for _, ev := range starts {
		if d, ok := byID[ev.SessionID]; ok {
			if d.StartedAt == "" {
				d.StartedAt = ev.Timestamp
			}
			continue
		}
		if !showAll {
			continue
		}
		d := &displaySession{
			SessionID: ev.SessionID,
			Name:      "(unnamed)",
			StartedAt: ev.Timestamp,
		}
		byID[ev.SessionID] = d
		sessions = append(sessions, d)
	}

	result := make([]displaySession, len(sessions))
	for i, d := range sessions {
		result[i] = *d
	}
	return result
}

// sortSessions sorts the session list by the specified criteria.
func sortSessions(sessions []displaySession, sortBy string) {
	switch sortBy {
	case "name":
		sort.SliceStable(sessions, func(i, j int) bool {
			return sessions[i].Name < sessions[j].Name
		})
	case "date":
		sort.SliceStable(sessions, func(i, j int) bool {
			return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
		})
	case "id":
		sort.SliceStable(sessions, func(i, j int) bool {
			return sessions[i].SessionID < sessions[j].SessionID
		})
	}
}

// displaySessionList renders the session list as a table.
func (c *sessionCommand) displaySessionList(sessions []displaySession) error {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(w, "NAME\tSESSION\tSTARTED\tLAST UPDATED"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "----\t-------\t-------\t------------"); err != nil {
		return fmt.Errorf("failed to write header separator: %w", err)
	}

	for _, s := range sessions {
		started := s.StartedAt
		if started == "" {
			started = "-"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, shortID(s.SessionID)+"...", started, formatUpdateTime(s.UpdatedAt)); err != nil {
			return fmt.Errorf("failed to write session: %w", err)
		}
	}

	return w.Flush()
}

// shortID returns the first 8 characters of a session id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatUpdateTime formats the update time for display.
func formatUpdateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// lookup finds an alias by name, then by session id.
func lookup(mgr session.Manager, identifier string) (*session.Alias, error) {
	alias, err := mgr.GetByName(identifier)
	if err == nil {
		return alias, nil
	}
	if !errors.Is(err, session.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	alias, err = mgr.GetByID(identifier)
	if err != nil {
		return nil, fmt.Errorf("session not found: %s", identifier)
	}
	return alias, nil
}

// runShow displays one alias.
func (c *sessionCommand) runShow(args []string) error {
	fs := c.flagSet("session show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: token-calculator session show <alias|session-id>")
	}

	env, mgr, err := c.open()
	if err != nil {
		return err
	}
	defer closeManager(env, mgr)

	alias, err := lookup(mgr, fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Session Details")
	fmt.Fprintln(c.out, strings.Repeat("─", 40))
	fmt.Fprintf(c.out, "Session:     %s\n", alias.SessionID)
	fmt.Fprintf(c.out, "Alias:       %s\n", alias.Name)
	if alias.ProjectPath != "" {
		fmt.Fprintf(c.out, "Project:     %s\n", alias.ProjectPath)
	}
	fmt.Fprintf(c.out, "Created:     %s\n", alias.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(c.out, "Updated:     %s\n", alias.UpdatedAt.Format("2006-01-02 15:04:05"))
	if alias.Description != "" {
		fmt.Fprintf(c.out, "Description: %s\n", alias.Description)
	}

	return nil
}

// runDelete removes an alias.
func (c *sessionCommand) runDelete(args []string) error {
	fs := c.flagSet("session delete")
	force := fs.Bool("force", false, "skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: token-calculator session delete <alias|session-id>")
	}

	env, mgr, err := c.open()
	if err != nil {
		return err
	}
	defer closeManager(env, mgr)

	alias, err := lookup(mgr, fs.Arg(0))
	if err != nil {
		return err
	}

	if !*force {
		question := fmt.Sprintf("Delete alias '%s' (%s)?", alias.Name, shortID(alias.SessionID))
		if !confirm(c.in, c.out, question) {
			fmt.Fprintln(c.out, "Cancelled")
			return nil
		}
	}

	if err := mgr.Delete(alias.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Fprintf(c.out, "Deleted alias '%s' (%s)\n", alias.Name, shortID(alias.SessionID))
	fmt.Fprintln(c.out, "Note: the event log is not modified.")

	return nil
}

// showHelp displays session command help.
func (c *sessionCommand) showHelp() error {
	help := `Session Alias Commands

Usage:
  token-calculator session <subcommand> [flags]

Subcommands:
  name <session-id> <alias>   Assign an alias to a session
  list [flags]                List aliases
  show <alias|session-id>     Display alias details
  delete <alias|session-id>   Remove an alias (the event log is untouched)
  help                        Show this help message

Name Flags:
  -description  Note stored with the alias

List Flags:
  -sort    Sort by: name, date, id (default: name)
  -all     Include unnamed sessions from the project's event log

Delete Flags:
  -force   Skip confirmation prompt

Examples:
  # Name a session
  token-calculator session name a1b2c3d4-e5f6-7890-abcd-ef1234567890 refactor

  # Count only that session
  token-calculator stats -session refactor

  # List every session in the log
  token-calculator session list -all
`
	fmt.Fprint(c.out, help)
	return nil
}
