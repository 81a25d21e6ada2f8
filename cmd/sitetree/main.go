package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitetree/internal/collector"
	"git.home.luguber.info/inful/sitetree/internal/config"
	"git.home.luguber.info/inful/sitetree/internal/plugin/dataloader"
	"git.home.luguber.info/inful/sitetree/internal/plugin/imagemeta"
	"git.home.luguber.info/inful/sitetree/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"sitetree.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Collect struct {
		Root   string `short:"r" help:"Content root (overrides config)"`
		Output string `short:"o" help:"Output file for collected JSON (overrides config)"`
		Pretty bool   `help:"Indent the JSON output"`
	} `cmd:"" help:"Collect the content tree and write it as JSON"`

	Watch struct {
		Root   string `short:"r" help:"Content root (overrides config)"`
		Output string `short:"o" help:"Output file for collected JSON (overrides config)"`
		Pretty bool   `help:"Indent the JSON output"`
	} `cmd:"" help:"Re-collect whenever the content root changes"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg := loadConfig(logger)

	var err error
	switch ctx.Command() {
	case "collect":
		applyOverrides(cfg, CLI.Collect.Root, CLI.Collect.Output)
		err = runCollect(cfg, logger, CLI.Collect.Pretty)
	case "watch":
		applyOverrides(cfg, CLI.Watch.Root, CLI.Watch.Output)
		err = runWatch(cfg, logger, CLI.Watch.Pretty)
	}
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig falls back to defaults when the config file is absent, so the
// CLI works in a bare content directory.
func loadConfig(logger *slog.Logger) *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no config file, using defaults", "path", CLI.Config)
			return config.Default()
		}
		logger.Error("failed to load configuration", "path", CLI.Config, "error", err)
		os.Exit(1)
	}
	return cfg
}

func applyOverrides(cfg *config.Config, root, output string) {
	if root != "" {
		cfg.ContentRoot = root
	}
	if output != "" {
		cfg.Output = output
	}
}

func newCollector(cfg *config.Config, logger *slog.Logger) *collector.Collector {
	return collector.New(collector.Options{
		RequireNumericPrefix: cfg.RequireNumericPrefix,
		Environment:          cfg.Environment,
		DataLoader: dataloader.Options{
			DefaultRevalidate: cfg.Loader.Revalidate(),
			FetchTimeout:      cfg.Loader.FetchTimeout(),
			PersistPath:       cfg.Loader.PersistPath,
		},
		DisableDataLoader: cfg.Loader.Disabled,
		ImageMeta: imagemeta.Options{
			SidecarExt: cfg.ImageMeta.SidecarExt,
			PublicDir:  cfg.ImageMeta.PublicDir,
			DisableSVG: cfg.ImageMeta.DisableSVG,
		},
		DisableImageMeta: cfg.ImageMeta.Disabled,
		Logger:           logger,
	})
}

func runCollect(cfg *config.Config, logger *slog.Logger, pretty bool) error {
	c := newCollector(cfg, logger)
	return collectOnce(context.Background(), c, cfg, logger, pretty)
}

func runWatch(cfg *config.Config, logger *slog.Logger, pretty bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := newCollector(cfg, logger)

	// Initial collection before watching; a broken tree should be visible
	// immediately rather than after the first edit.
	if err := collectOnce(ctx, c, cfg, logger, pretty); err != nil {
		logger.Error("initial collection failed", "error", err)
	}

	w, err := watch.New(cfg.ContentRoot, cfg.Watch.Debounce(), logger, func(ctx context.Context) {
		if err := collectOnce(ctx, c, cfg, logger, pretty); err != nil {
			logger.Error("re-collection failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func collectOnce(ctx context.Context, c *collector.Collector, cfg *config.Config, logger *slog.Logger, pretty bool) error {
	site, err := c.Collect(ctx, cfg.ContentRoot)
	if err != nil {
		return err
	}

	var out []byte
	if pretty {
		out, err = json.MarshalIndent(site, "", "  ")
	} else {
		out, err = json.Marshal(site)
	}
	if err != nil {
		return fmt.Errorf("encode site content: %w", err)
	}

	if cfg.Output == "-" {
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	}
	if err := os.WriteFile(cfg.Output, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("content written", "path", cfg.Output, "bytes", len(out))
	return nil
}
