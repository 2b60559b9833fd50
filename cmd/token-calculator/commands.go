package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/0xmhha/token-calculator/pkg/calculator"
	"github.com/0xmhha/token-calculator/pkg/config"
	"github.com/0xmhha/token-calculator/pkg/discovery"
	"github.com/0xmhha/token-calculator/pkg/logger"
	"github.com/0xmhha/token-calculator/pkg/monitor"
	"github.com/0xmhha/token-calculator/pkg/report"
	"github.com/0xmhha/token-calculator/pkg/session"
	"github.com/0xmhha/token-calculator/pkg/watcher"
)

// environment is the resolved project, configuration and logger shared by
// the commands.
type environment struct {
	cfg    *config.Config
	root   string
	source string
	log    logger.Logger
}

// loadEnvironment resolves the project root and loads its configuration.
//
// The root is taken from -root, then TOKEN_CALCULATOR_ROOT, then
// paths.project_root in the configuration, and finally the nearest
// directory above the working directory that holds the event log.
func loadEnvironment(opts globalOptions) (*environment, error) {
	bootLog := logger.Default()

	root := opts.root
	if root == "" {
		root = os.Getenv(config.EnvProjectRoot)
	}

	located := false
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		defaults := config.Default()
		project, err := discovery.New(discovery.Config{
			LogFile:        defaults.Paths.LogFile,
			InitialContext: defaults.Paths.InitialContext,
		}, bootLog).Locate(cwd)
		if err != nil {
			return nil, fmt.Errorf("failed to locate project: %w", err)
		}
		root = project.Root
		located = true
	}

	loader := config.NewLoader(opts.configPath, root, bootLog)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if located && cfg.Paths.ProjectRoot != "" {
		root = cfg.Paths.ProjectRoot
	}

	root, err = filepath.Abs(discovery.ExpandHome(root))
	if err != nil {
		return nil, fmt.Errorf("invalid project root: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Debug("environment loaded", "root", root, "config", loader.Source())

	return &environment{
		cfg:    cfg,
		root:   root,
		source: loader.Source(),
		log:    log,
	}, nil
}

// resolveSession turns a session id or alias into a session id.
func (e *environment) resolveSession(ref string) (string, error) {
	if ref == "" {
		return "", nil
	}

	mgr, err := session.New(session.Config{
		DBPath: e.cfg.Storage.DBPath,
	}, e.log)
	if err != nil {
		return "", fmt.Errorf("failed to initialize session manager: %w", err)
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			e.log.Error("failed to close session manager", "error", closeErr)
		}
	}()

	id, err := mgr.Resolve(ref)
	if err != nil {
		return "", fmt.Errorf("failed to resolve session %q: %w", ref, err)
	}
	if id != ref {
		e.log.Debug("resolved session alias", "alias", ref, "session", id)
	}
	return id, nil
}

// newCalculator builds a calculator for the environment's project.
func (e *environment) newCalculator(sessionRef string) (*calculator.Calculator, error) {
	sessionID, err := e.resolveSession(sessionRef)
	if err != nil {
		return nil, err
	}

	calc, err := calculator.New(calculator.FromConfig(e.cfg, e.root, sessionID), e.log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize calculator: %w", err)
	}
	return calc, nil
}

// statsCommand prints one token usage report.
type statsCommand struct {
	opts    globalOptions
	verbose bool
	format  string
	session string
	lang    string
	out     io.Writer
}

// Execute runs the stats command.
func (c *statsCommand) Execute() error {
	format, err := report.ParseFormat(c.format)
	if err != nil {
		return fmt.Errorf("%w: %s", err, c.format)
	}

	env, err := loadEnvironment(c.opts)
	if err != nil {
		return err
	}

	if c.lang != "" {
		env.cfg.OutputLanguage = strings.ToLower(c.lang)
		if err := env.cfg.Validate(); err != nil {
			return err
		}
	}

	calc, err := env.newCalculator(c.session)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := calc.Run(ctx)
	if err != nil {
		return err
	}

	formatter := report.New(report.Config{
		Format:   format,
		Language: env.cfg.OutputLanguage,
		Verbose:  c.verbose,
	})
	return formatter.Format(c.out, result)
}

// watchCommand recalculates whenever the event log changes.
type watchCommand struct {
	opts    globalOptions
	format  string
	session string
	refresh time.Duration
	history bool
	out     io.Writer
}

// Execute runs the watch command.
func (c *watchCommand) Execute() error {
	format, err := report.ParseFormat(c.format)
	if err != nil || format == report.FormatJSON {
		return fmt.Errorf("%w: %s", report.ErrUnknownFormat, c.format)
	}

	env, err := loadEnvironment(c.opts)
	if err != nil {
		return err
	}

	calc, err := env.newCalculator(c.session)
	if err != nil {
		return err
	}

	w, err := watcher.New(watcher.Config{}, env.log)
	if err != nil {
		return fmt.Errorf("failed to initialize watcher: %w", err)
	}

	files := []string{env.cfg.LogPath(env.root)}
	if ctxPath := env.cfg.InitialContextPath(env.root); ctxPath != "" {
		files = append(files, ctxPath)
	}

	mon, err := monitor.New(monitor.Config{
		Files:           files,
		RefreshInterval: c.refresh,
	}, w, calc, env.log)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	defer func() {
		if closeErr := mon.Close(); closeErr != nil {
			env.log.Error("failed to close monitor", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mon.Start(ctx); err != nil {
		return err
	}

	formatter := report.New(report.Config{
		Format:   format,
		Language: env.cfg.OutputLanguage,
	})

	clearScreen := !c.history && isTerminal(c.out)

	fmt.Fprintf(c.out, "Watching %s - Press Ctrl+C to stop\n", files[0])
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, "\nStopping monitor...")
			return nil

		case update, ok := <-mon.Updates():
			if !ok {
				return nil
			}
			c.displayUpdate(formatter, update, clearScreen)
		}
	}
}

// displayUpdate renders one monitor update.
func (c *watchCommand) displayUpdate(formatter report.Formatter, update monitor.Update, clearScreen bool) {
	if clearScreen {
		// Move cursor home and clear the screen
		fmt.Fprint(c.out, "\033[H\033[2J")
	}

	stamp := update.Timestamp.Format("15:04:05")
	if update.Err != nil {
		fmt.Fprintf(c.out, "[%s] %v\n", stamp, update.Err)
		return
	}

	if update.Delta.TotalTokens != 0 {
		fmt.Fprintf(c.out, "[%s] %+d tokens\n", stamp, update.Delta.TotalTokens)
	} else {
		fmt.Fprintf(c.out, "[%s]\n", stamp)
	}

	if err := formatter.Format(c.out, update.Result); err != nil {
		fmt.Fprintf(c.out, "failed to format report: %v\n", err)
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
