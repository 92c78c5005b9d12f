package commands

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/livefir/rsxhot/internal/config"
	"github.com/livefir/rsxhot/internal/devserver"
	"github.com/livefir/rsxhot/internal/document"
	"github.com/livefir/rsxhot/internal/filemap"
	"github.com/livefir/rsxhot/internal/logging"
	"github.com/livefir/rsxhot/internal/metrics"
	"github.com/livefir/rsxhot/internal/store"
)

// Serve watches the configured root and pushes hot-reloaded templates to
// connected clients until interrupted.
func Serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default rsxhot.yaml)")
	addr := fs.String("addr", "", "listen address, overrides the config")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		*configPath = config.Path(".")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return serve(ctx, cfg, logger)
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	files, err := filemap.New(ctx, cfg.Root, filemap.ParserFunc(document.Parse),
		filemap.WithStore(st),
		filemap.WithLogger(logger),
		filemap.WithContext(cfg.Mappings),
		filemap.WithExtensions(cfg.Extensions...),
	)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", cfg.Root, err)
	}
	logger.Info("watching templates", "root", files.Root(), "files", len(files.Files()))

	srv := devserver.New(files, st, devserver.Options{
		Addr:     cfg.Addr,
		Debounce: cfg.Debounce,
		Logger:   logger,
		Metrics:  metrics.NewCollector(),
	})
	return srv.Run(ctx)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var inner store.Store
	switch cfg.Store {
	case "sqlite":
		db, err := store.OpenSQLite(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		inner = db
	default:
		inner = store.NewMemory()
	}
	if cfg.CacheSize == 0 {
		return inner, nil
	}
	cached, err := store.NewCached(inner, cfg.CacheSize)
	if err != nil {
		inner.Close()
		return nil, err
	}
	return cached, nil
}
