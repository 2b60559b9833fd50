// Package main provides the token-calculator CLI application.
//
// Token Calculator estimates how much of the model's context window a coding
// session has used, by replaying the project's event log (user prompts, file
// reads and writes, web lookups) and the initial-context document.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
//
// Without a command, or when the first argument is a flag, the stats
// command runs.
func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return runStatsCommand(nil, out)
	}

	command := args[0]
	if command == "-version" || command == "--version" {
		fmt.Fprintf(out, "token-calculator %s\n", version)
		return nil
	}
	if strings.HasPrefix(command, "-") && command != "-h" && command != "--help" {
		return runStatsCommand(args, out)
	}

	switch command {
	case "stats":
		return runStatsCommand(args[1:], out)
	case "watch":
		return runWatchCommand(args[1:], out)
	case "session":
		return runSessionCommand(args[1:], out)
	case "config":
		return runConfigCommand(args[1:], out)
	case "help", "-h", "--help":
		return showUsage(out)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// globalOptions are accepted by every command.
type globalOptions struct {
	configPath string
	root       string
}

// register adds the shared flags to fs.
func (o *globalOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "path to configuration file")
	fs.StringVar(&o.root, "root", "", "project root (default: nearest directory with the event log)")
}

// runStatsCommand runs the stats command.
func runStatsCommand(args []string, out io.Writer) error {
	cmd := &statsCommand{out: out}

	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(out)
	cmd.opts.register(fs)
	fs.BoolVar(&cmd.verbose, "verbose", false, "show detailed breakdown")
	fs.BoolVar(&cmd.verbose, "v", false, "show detailed breakdown (shorthand)")
	fs.StringVar(&cmd.format, "format", "text", "output format (text, json, simple)")
	fs.StringVar(&cmd.session, "session", "", "count only this session (id or alias)")
	fs.StringVar(&cmd.lang, "lang", "", "report language (en, ja)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	return cmd.Execute()
}

// runWatchCommand runs the watch command.
func runWatchCommand(args []string, out io.Writer) error {
	cmd := &watchCommand{out: out}

	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(out)
	cmd.opts.register(fs)
	fs.StringVar(&cmd.format, "format", "simple", "output format (text, simple)")
	fs.StringVar(&cmd.session, "session", "", "count only this session (id or alias)")
	fs.DurationVar(&cmd.refresh, "refresh", 0, "also recalculate on this interval (e.g. 5s; 0 disables)")
	history := fs.Bool("history", false, "keep history of updates (append mode)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.history = *history

	return cmd.Execute()
}

// runSessionCommand runs the session command.
func runSessionCommand(args []string, out io.Writer) error {
	cmd := &sessionCommand{out: out, in: os.Stdin}
	return cmd.Execute(args)
}

// runConfigCommand runs the config command.
func runConfigCommand(args []string, out io.Writer) error {
	cmd := &configCommand{out: out, in: os.Stdin}
	return cmd.Execute(args)
}

// showUsage displays usage information.
func showUsage(out io.Writer) error {
	usage := `Token Calculator - context window usage for coding sessions

Usage:
  token-calculator [command] [flags]

Commands:
  stats       Calculate token usage (default)
  watch       Recalculate whenever the event log changes
  session     Session alias management (name, list, show, delete)
  config      Configuration management (show, path, reset)
  help        Show this help message

Common Flags:
  -config     Path to configuration file
  -root       Project root (default: nearest directory with the event log)

Stats Flags:
  -verbose, -v  Show detailed breakdown
  -format       Output format (text, json, simple)
  -session      Count only this session (id or alias)
  -lang         Report language (en, ja)

Watch Flags:
  -format     Output format (text, simple) (default: simple)
  -session    Count only this session (id or alias)
  -refresh    Also recalculate on this interval (default: off)
  -history    Keep history of updates (append mode)

Examples:
  # Summary for the current project
  token-calculator

  # Detailed breakdown
  token-calculator -verbose

  # Machine-readable state
  token-calculator stats -format json

  # One session only, by alias
  token-calculator stats -session refactor

  # Live view
  token-calculator watch

Version: %s
`

	fmt.Fprintf(out, usage, version)
	return nil
}
