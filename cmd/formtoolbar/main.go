// Package main is the entry point for the formtoolbar demo.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/formtoolbar/internal/app"
	"github.com/dshills/formtoolbar/internal/shell"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	app.Options
	script  string
	logFile string
	tui     bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: opening log file: %v\n", err)
			return 1
		}
		defer f.Close()
		opts.LogOutput = f
	} else if opts.tui {
		// Log records would corrupt the terminal screen.
		opts.LogOutput = io.Discard
	}

	application, err := app.New(opts.Options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.script != "":
		err = runScript(application, opts.script)
	case opts.tui:
		err = runShell(ctx, application)
	default:
		fmt.Println(app.FormatState(application.Toolbar().State()))
	}
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runScript(application *app.Application, path string) error {
	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return application.RunScript(in, os.Stdout)
}

func runShell(ctx context.Context, application *app.Application) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer screen.Fini()

	sh := shell.New(screen, application.Session(), application.Toolbar(),
		shell.WithLogger(application.Logger()))
	return sh.Run(ctx)
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.DocPath, "doc", "", "TipTap JSON document to open")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.LogFormat, "log-format", "", "Log format (text, json)")
	flag.StringVar(&opts.logFile, "log-file", "", "Write logs to this file")
	flag.BoolVar(&opts.Development, "dev", false, "Enable development checks")
	flag.BoolVar(&opts.ReadOnly, "readonly", false, "Refuse every toolbar command")
	flag.BoolVar(&opts.ReadOnly, "R", false, "Refuse every toolbar command (shorthand)")
	flag.BoolVar(&opts.Watch, "watch", true, "Reload the configuration file when it changes")
	flag.StringVar(&opts.script, "script", "", "Run a directive script (- for stdin)")
	flag.BoolVar(&opts.tui, "tui", false, "Start the interactive terminal shell")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "formtoolbar - rich-text formatting toolbar\n\n")
		fmt.Fprintf(os.Stderr, "Usage: formtoolbar [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  formtoolbar -doc note.json -tui          Edit a document interactively\n")
		fmt.Fprintf(os.Stderr, "  formtoolbar -doc note.json -script run.txt  Replay directives\n")
		fmt.Fprintf(os.Stderr, "  echo 'dispatch bold' | formtoolbar -script -\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("formtoolbar %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	if opts.script != "" && opts.tui {
		fmt.Fprintf(os.Stderr, "Error: -script and -tui are mutually exclusive\n")
		os.Exit(1)
	}

	return opts
}
