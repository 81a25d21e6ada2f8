// Package collector walks a content root, builds the page/section
// hierarchy, runs the plugin pipeline over every section, and assembles the
// final site content with a non-fatal error log.
//
// Failure handling follows three tiers: recoverable conditions (missing
// optional files, loader declines) are silent; unit failures (one section,
// one page, one subpage) are recorded and the unit is omitted; run-fatal
// failures (lifecycle hooks, unresolvable plugin graph, unreadable root)
// abort Collect with an error.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/plugin"
	"git.home.luguber.info/inful/sitetree/internal/plugin/dataloader"
	"git.home.luguber.info/inful/sitetree/internal/plugin/imagemeta"
)

// EnvProduction suppresses the errors array in the output. Any other
// environment value surfaces it for inspection.
const EnvProduction = "production"

// Options configures a Collector.
type Options struct {
	// RequireNumericPrefix skips Markdown files without an ordering prefix
	// instead of treating their title as the section id.
	RequireNumericPrefix bool

	// Environment selects error surfacing; defaults to "development".
	Environment string

	// DataLoader tunes the built-in data loader; DisableDataLoader removes
	// it entirely.
	DataLoader        dataloader.Options
	DisableDataLoader bool

	// ImageMeta tunes the built-in image metadata processor;
	// DisableImageMeta removes it entirely.
	ImageMeta        imagemeta.Options
	DisableImageMeta bool

	// Plugins are additional plugins registered after the built-ins, in
	// slice order and without dependencies. Use Collector.Use to declare
	// dependencies.
	Plugins []plugin.Plugin

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Metrics defaults to the no-op recorder.
	Metrics metrics.Recorder
}

// Collector orchestrates collection runs. One Collector may serve many
// sequential or concurrent Collect calls; each call gets a fresh context.
type Collector struct {
	opts     Options
	registry *plugin.Registry
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// New creates a Collector and registers the built-in plugins followed by
// opts.Plugins.
func New(opts Options) *Collector {
	if opts.Environment == "" {
		opts.Environment = "development"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}

	c := &Collector{
		opts:     opts,
		registry: plugin.NewRegistry(),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}

	if !opts.DisableDataLoader {
		loaderOpts := opts.DataLoader
		if loaderOpts.Metrics == nil {
			loaderOpts.Metrics = opts.Metrics
		}
		c.registry.Register(dataloader.New(loaderOpts))
	}
	if !opts.DisableImageMeta {
		c.registry.Register(imagemeta.New(opts.ImageMeta))
	}
	for _, p := range opts.Plugins {
		c.registry.Register(p)
	}
	return c
}

// Use registers an additional plugin with optional dependencies on other
// plugin names. Re-using a name replaces the earlier registration.
func (c *Collector) Use(p plugin.Plugin, deps ...string) {
	c.registry.Register(p, deps...)
}

// Collect walks root and assembles the site content. Unit-scoped failures
// are aggregated into the result; run-fatal failures are also recorded and
// then returned as an error, with no partial result.
func (c *Collector) Collect(ctx context.Context, root string) (*SiteContent, error) {
	start := time.Now()

	pctx := plugin.NewContext(nil, c.opts.Environment, c.logger)
	pctx.ResourcePath = root

	c.logger.Info("collection started", logfields.RunID(pctx.RunID), logfields.Path(root))

	out, err := c.collect(ctx, root, pctx)

	duration := time.Since(start)
	c.metrics.ObserveCollectDuration(duration)

	if err != nil {
		c.logger.Error("collection failed",
			logfields.RunID(pctx.RunID),
			logfields.Error(err),
			logfields.DurationMS(float64(duration.Milliseconds())))
		return nil, err
	}

	c.logger.Info("collection finished",
		logfields.RunID(pctx.RunID),
		slog.Int("pages", len(out.Pages)),
		slog.Int("errors", len(pctx.Errors())),
		logfields.DurationMS(float64(duration.Milliseconds())))
	return out, nil
}

func (c *Collector) collect(ctx context.Context, root string, pctx *plugin.Context) (*SiteContent, error) {
	plugins, err := c.registry.Ordered()
	if err != nil {
		pctx.AppendError(plugin.ErrorRecord{Phase: "resolve-plugins", Message: err.Error()})
		return nil, err
	}

	if err := c.runLifecycle(plugins, pctx, "beforeCollect"); err != nil {
		return nil, err
	}

	siteConfig, err := ReadYAMLFile(filepath.Join(root, "site.yml"))
	if err != nil {
		pctx.AppendError(plugin.ErrorRecord{Phase: "read-site-config", Message: err.Error()})
		return nil, err
	}
	theme, err := ReadYAMLFile(filepath.Join(root, "theme.yml"))
	if err != nil {
		pctx.AppendError(plugin.ErrorRecord{Phase: "read-theme-config", Message: err.Error()})
		return nil, err
	}
	pctx.Config = siteConfig

	pages, err := c.collectPages(ctx, filepath.Join(root, "pages"), pctx, plugins)
	if err != nil {
		pctx.AppendError(plugin.ErrorRecord{Phase: "collect-pages", Message: err.Error()})
		return nil, err
	}

	if err := c.runLifecycle(plugins, pctx, "afterCollect"); err != nil {
		return nil, err
	}

	out := &SiteContent{Pages: pages, Config: siteConfig, Theme: theme}
	if c.opts.Environment != EnvProduction {
		out.Errors = pctx.Errors()
	}
	return out, nil
}

// runLifecycle invokes one lifecycle hook on every plugin that implements
// it, in dependency order. An error or panic here is run-fatal.
func (c *Collector) runLifecycle(plugins []plugin.Plugin, pctx *plugin.Context, hook string) (err error) {
	for _, p := range plugins {
		lc, ok := p.(plugin.Lifecycle)
		if !ok {
			continue
		}

		if hookErr := safeLifecycle(lc, pctx, hook); hookErr != nil {
			pctx.AppendError(plugin.ErrorRecord{
				Plugin:  p.Name(),
				Message: fmt.Sprintf("%s: %v", hook, hookErr),
			})
			return fmt.Errorf("plugin %s %s: %w", p.Name(), hook, hookErr)
		}
	}
	return nil
}

func safeLifecycle(lc plugin.Lifecycle, pctx *plugin.Context, hook string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if hook == "beforeCollect" {
		return lc.BeforeCollect(pctx)
	}
	return lc.AfterCollect(pctx)
}

// recoverToError converts a panic into an error carrying the stack, so unit
// boundaries can aggregate it like any other failure.
func recoverToError(err *error, stack *string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
		*stack = string(debug.Stack())
	}
}
