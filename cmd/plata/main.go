// Plata is a rule-driven financial conversation assistant.
//
// It analyzes free-text messages, routes each one to a specialized
// response handler, and keeps a per-conversation profile of the user.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	plata chat               Start an interactive conversation
//	plata ask <message>      Process a single message (for testing)
//	plata stats              Show classifier feedback statistics
//	plata init [dir]         Initialize a working directory with defaults
//	plata version            Print version and build information
//	plata -o json version    Output version information as JSON
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql

	"github.com/lucasreyna/plata-advisor/internal/advisor"
	"github.com/lucasreyna/plata-advisor/internal/buildinfo"
	"github.com/lucasreyna/plata-advisor/internal/classifier"
	"github.com/lucasreyna/plata-advisor/internal/config"
	"github.com/lucasreyna/plata-advisor/internal/events"
	"github.com/lucasreyna/plata-advisor/internal/session"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the plata command. All OS-level
// dependencies are injected as parameters. Arguments are parsed by
// hand rather than with the flag package: flag relies on package-level
// globals, which makes it impossible to call run() concurrently from
// tests, and our argument surface is small.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	// .env is optional and only supplies environment overrides.
	_ = godotenv.Load()

	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "chat":
		return runChat(ctx, stdin, stdout, stderr, configPath)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: plata ask <message>")
		}
		return runAsk(ctx, stdout, stderr, configPath, outputFmt, strings.Join(cmdArgs, " "))
	case "stats":
		return runStats(ctx, stdout, stderr, configPath, outputFmt)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// loadConfig resolves and loads the configuration, applying defaults
// when no config file exists anywhere (chat should work out of the
// box).
func loadConfig(explicit string) (*config.Config, string, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, "", err
		}
		cfg := &config.Config{}
		cfg.ApplyDefaults()
		return cfg, "(defaults)", nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newLogger builds the process logger writing to w at the configured
// level.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// setup builds the full engine from configuration: SQLite-backed
// classifier and session snapshots, event bus, and logger. The returned
// cleanup closes the database.
func setup(ctx context.Context, stderr io.Writer, cfg *config.Config) (*advisor.Engine, func(), error) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(stderr, level)

	db, err := sql.Open("sqlite3", cfg.DatabasePath()+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	bus := events.New()

	feedbackStore, err := classifier.NewStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	clf, err := classifier.New(ctx, classifier.Options{
		K:            cfg.Classifier.Neighbors,
		RetrainEvery: cfg.Classifier.RetrainEvery,
		MinBootstrap: cfg.Classifier.MinBootstrap,
	}, feedbackStore, bus, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	var backend session.Backend
	if cfg.Sessions.Snapshot {
		backend, err = session.NewSQLiteBackend(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	sessions := session.NewStore(backend, bus, logger)
	if err := sessions.Restore(ctx); err != nil {
		logger.Warn("session restore failed", "error", err)
	}

	engine := advisor.New(advisor.Deps{
		Sessions:   sessions,
		Classifier: clf,
		Bus:        bus,
		Logger:     logger,
	})

	cleanup := func() {
		if err := sessions.Snapshot(context.Background()); err != nil {
			logger.Warn("session snapshot failed", "error", err)
		}
		db.Close()
	}
	return engine, cleanup, nil
}

// runAsk processes a single message through the pipeline and prints the
// response.
func runAsk(ctx context.Context, stdout, stderr io.Writer, configPath, outputFmt, message string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	engine, cleanup, err := setup(ctx, stderr, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result := engine.Process(ctx, advisor.Request{
		UserID:  "cli",
		Message: message,
	})

	if outputFmt == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(stdout, result.Response.Message)
	if result.Response.Disclaimer != "" {
		fmt.Fprintf(stdout, "\n— %s\n", result.Response.Disclaimer)
	}
	for _, q := range result.Response.FollowUpQuestions {
		fmt.Fprintf(stdout, "  · %s\n", q)
	}
	return nil
}

// runStats prints the classifier feedback statistics.
func runStats(ctx context.Context, stdout, stderr io.Writer, configPath, outputFmt string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	engine, cleanup, err := setup(ctx, stderr, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	stats := engine.Statistics()
	if outputFmt == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(stdout, "feedback events:   %d\n", stats.TotalConversations)
	fmt.Fprintf(stdout, "helpfulness rate:  %.0f%%\n", stats.HelpfulnessRate*100)
	fmt.Fprintf(stdout, "model trained:     %v\n", stats.ModelTrained)
	fmt.Fprintf(stdout, "retrains:          %d\n", stats.Retrains)
	return nil
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Plata - Financial Conversation Assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: plata [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  chat         Start an interactive conversation")
	fmt.Fprintln(w, "  ask          Process a single message (for testing)")
	fmt.Fprintln(w, "  stats        Show classifier feedback statistics")
	fmt.Fprintln(w, "  init [dir]   Initialize working directory with defaults (default: .)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	return nil
}
