package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/0xmhha/token-calculator/pkg/config"
)

// configCommand handles configuration management subcommands.
type configCommand struct {
	opts globalOptions
	out  io.Writer
	in   io.Reader
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "show":
		return c.runShow(subargs)
	case "path":
		return c.runPath(subargs)
	case "reset":
		return c.runReset(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown config subcommand: %s", subcommand)
	}
}

// flagSet returns a flag set carrying the common flags.
func (c *configCommand) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	c.opts.register(fs)
	return fs
}

// runShow displays the current configuration.
func (c *configCommand) runShow(args []string) error {
	fs := c.flagSet("config show")
	format := fs.String("format", "yaml", "output format (yaml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := loadEnvironment(c.opts)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		data, err := config.MarshalJSON(env.cfg)
		if err != nil {
			return err
		}
		_, err = c.out.Write(data)
		return err
	case "yaml":
		data, err := config.MarshalYAML(env.cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, "# Current Configuration")
		fmt.Fprintln(c.out, "# Source:", sourceName(env.source))
		fmt.Fprintln(c.out, "# Project:", env.root)
		fmt.Fprintln(c.out)
		_, err = c.out.Write(data)
		return err
	default:
		return fmt.Errorf("unknown config format: %s", *format)
	}
}

// runPath shows the configuration file search paths.
func (c *configCommand) runPath(args []string) error {
	fs := c.flagSet("config path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := loadEnvironment(c.opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Configuration file search paths (in order of precedence):")
	fmt.Fprintln(c.out)

	paths := config.CandidatePaths(env.root)
	if c.opts.configPath != "" {
		paths = []string{c.opts.configPath}
	}
	for i, p := range paths {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Fprintf(c.out, "  %d. %s [%s]\n", i+1, p, exists)
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Active configuration:", sourceName(env.source))
	return nil
}

// runReset writes the default configuration.
func (c *configCommand) runReset(args []string) error {
	fs := c.flagSet("config reset")
	force := fs.Bool("force", false, "skip confirmation prompt")
	output := fs.String("output", "", "output path for config file (default: ~/.config/token-calculator/config.yaml)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = config.DefaultConfigPath()
	}

	if _, err := os.Stat(outputPath); err == nil && !*force {
		fmt.Fprintf(c.out, "Configuration file already exists at: %s\n", outputPath)
		if !confirm(c.in, c.out, "Overwrite?") {
			fmt.Fprintln(c.out, "Reset cancelled.")
			return nil
		}
	}

	if err := config.Save(config.Default(), outputPath); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Configuration reset to defaults at: %s\n", outputPath)
	return nil
}

// sourceName describes where the active configuration came from.
func sourceName(source string) string {
	if source == "" {
		return "defaults (no config file found)"
	}
	return source
}

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		fmt.Fprintln(out)
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// showHelp displays help for config command.
func (c *configCommand) showHelp() error {
	help := `Config - Configuration management

Usage:
  token-calculator config <subcommand> [flags]

Subcommands:
  show      Display current configuration
  path      Show configuration file paths
  reset     Reset configuration to defaults

Show Flags:
  -format   Output format (yaml, json) (default: yaml)

Reset Flags:
  -force    Skip confirmation prompt
  -output   Output path for config file (.json writes the project layout)

Examples:
  # Show current configuration
  token-calculator config show

  # Show configuration in the project JSON layout
  token-calculator config show -format json

  # Show configuration file paths
  token-calculator config path

  # Write a project config file
  token-calculator config reset -output config/token-calculator.json
`
	fmt.Fprint(c.out, help)
	return nil
}
