package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/config"
	"github.com/skridlevsky/pagetree/httpapi"
	"github.com/skridlevsky/pagetree/reconcile"
	"github.com/skridlevsky/pagetree/session"
	"github.com/skridlevsky/pagetree/store"
	"github.com/skridlevsky/pagetree/vault"
)

var version = "dev"

// app is everything a command needs, wired from the configuration.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	backend  backend.Backend
	sessions *session.Manager
	close    func() error
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	dbPath := flag.String("db", "", "SQLite database path (default data/workspace.db)")
	httpAddr := flag.String("http", "", "Also serve the JSON API on this address (e.g. :8080)")
	readOnly := flag.Bool("read-only", false, "Disable all write operations")
	memory := flag.Bool("memory", false, "Keep the workspace in memory instead of SQLite")
	fixture := flag.String("fixture", "", "YAML workspace file loaded in -memory mode and reloaded when it changes")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagetree: %v\n", err)
		os.Exit(1)
	}
	// Flags win over file and environment, but only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DB = *dbPath
		case "http":
			cfg.HTTPAddr = *httpAddr
		case "read-only":
			cfg.ReadOnly = *readOnly
		case "memory":
			cfg.Memory = *memory
		case "fixture":
			cfg.Fixture = *fixture
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "pagetree: %v\n", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagetree: %v\n", err)
		os.Exit(1)
	}

	code := run(ctx, a, flag.Args())
	if err := a.shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "pagetree: %v\n", err)
		code = 1
	}
	stop()
	os.Exit(code)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: pagetree [flags]                 MCP server on stdio\n")
	fmt.Fprintf(os.Stderr, "       pagetree [flags] serve           JSON API only (needs -http)\n")
	fmt.Fprintf(os.Stderr, "       pagetree [flags] tree PAGE_ID\n")
	fmt.Fprintf(os.Stderr, "       pagetree [flags] backlinks PAGE_ID\n")
	fmt.Fprintf(os.Stderr, "       pagetree [flags] new-page TITLE\n\n")
	flag.PrintDefaults()
}

// run dispatches to a subcommand and returns the exit code.
func run(ctx context.Context, a *app, args []string) int {
	if len(args) == 0 {
		return runMCP(ctx, a)
	}
	switch args[0] {
	case "serve":
		return runServe(ctx, a)
	case "tree":
		return runTree(ctx, a, args[1:])
	case "backlinks":
		return runBacklinks(ctx, a, args[1:])
	case "new-page":
		return runNewPage(ctx, a, args[1:])
	}
	fmt.Fprintf(os.Stderr, "pagetree: unknown command %q\n\n", args[0])
	usage()
	return 2
}

// runMCP serves MCP on stdio, plus the JSON API when an address is set.
func runMCP(ctx context.Context, a *app) int {
	srv := newServer(a.backend, a.sessions, a.cfg.ReadOnly)

	if a.cfg.HTTPAddr != "" {
		go func() {
			if err := serveHTTP(ctx, a.cfg.HTTPAddr, a.router(), a.logger); err != nil {
				a.logger.Error("http server stopped", "error", err)
			}
		}()
	}

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "pagetree: %v\n", err)
		return 1
	}
	return 0
}

func runServe(ctx context.Context, a *app) int {
	if a.cfg.HTTPAddr == "" {
		fmt.Fprintf(os.Stderr, "pagetree serve: -http (or http_addr) is required\n")
		return 1
	}
	if err := serveHTTP(ctx, a.cfg.HTTPAddr, a.router(), a.logger); err != nil {
		fmt.Fprintf(os.Stderr, "pagetree serve: %v\n", err)
		return 1
	}
	return 0
}

// newApp opens the configured backend and the session layer on top of it.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, close: func() error { return nil }}

	if cfg.Memory {
		var opts []vault.Option
		if cfg.ReadOnly {
			opts = append(opts, vault.WithReadOnly())
		}
		v := vault.New(opts...)
		if cfg.Fixture != "" {
			if err := v.Load(cfg.Fixture); err != nil {
				return nil, err
			}
		}
		a.backend = v
	} else {
		opts := []store.Option{store.WithMkdirAll(), store.WithLogger(logger)}
		if cfg.ReadOnly {
			opts = append(opts, store.WithReadOnly())
		}
		s, err := store.Open(cfg.DB, opts...)
		if err != nil {
			return nil, err
		}
		a.backend = s
		a.close = s.Close
	}

	debouncer := reconcile.New(a.backend,
		reconcile.WithDelay(cfg.Debounce),
		reconcile.WithLogger(logger),
	)
	a.sessions = session.NewManager(a.backend, debouncer, session.WithLogger(logger))

	if v, ok := a.backend.(*vault.Client); ok && cfg.Fixture != "" {
		err := v.Watch(ctx, cfg.Fixture, func(pageIDs []string, err error) {
			if err != nil {
				logger.Error("fixture reload failed", "path", cfg.Fixture, "error", err)
				return
			}
			for _, id := range pageIDs {
				a.sessions.Drop(id)
			}
			logger.Info("fixture reloaded", "path", cfg.Fixture, "pages", len(pageIDs))
		})
		if err != nil {
			logger.Warn("fixture not watched", "path", cfg.Fixture, "error", err)
		}
	}

	logger.Debug("backend ready", "memory", cfg.Memory, "db", cfg.DB, "read_only", cfg.ReadOnly, "debounce", cfg.Debounce)
	return a, nil
}

func (a *app) router() http.Handler {
	return httpapi.New(a.backend, a.sessions,
		httpapi.WithLogger(a.logger),
		httpapi.WithVersion(version),
	).Router()
}

// shutdown saves pending edits and closes the backend.
func (a *app) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	flushErr := a.sessions.Close(ctx)
	if flushErr != nil {
		a.logger.Error("pending edits not saved", "error", flushErr)
	}
	if err := a.close(); err != nil {
		return fmt.Errorf("close backend: %w", err)
	}
	return flushErr
}
