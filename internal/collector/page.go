package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitetree/internal/frontmatter"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/markdown"
	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/ordering"
	"git.home.luguber.info/inful/sitetree/internal/plugin"
)

// homeDir is the page directory that maps to the root route and is always
// emitted first.
const homeDir = "home"

// collectPages builds every page directory under pagesPath concurrently.
// One broken page never aborts the others: its failure is recorded and the
// page is omitted.
func (c *Collector) collectPages(ctx context.Context, pagesPath string, pctx *plugin.Context, plugins []plugin.Plugin) ([]*Page, error) {
	entries, err := os.ReadDir(pagesPath)
	if err != nil {
		return nil, fmt.Errorf("read pages directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}

	built := runOrdered(dirs, len(dirs), func(dirName string) (*Page, error) {
		return c.buildPageIsolated(ctx, filepath.Join(pagesPath, dirName), dirName, pctx, plugins)
	})

	pages := make([]*Page, 0, len(built))
	for i, res := range built {
		if res.Err != nil {
			c.metrics.IncPageResult(metrics.ResultFailed)
			c.logger.Warn("page build failed", logfields.RunID(pctx.RunID), logfields.Page(dirs[i]), logfields.Error(res.Err))
			continue
		}
		c.metrics.IncPageResult(metrics.ResultSuccess)
		pages = append(pages, res.Value)
	}

	// The home page leads the output; other pages carry no ordering
	// guarantee but keeping listing order makes runs reproducible.
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Route == "/" && pages[j].Route != "/"
	})
	return pages, nil
}

// buildPageIsolated wraps buildPage with the per-page error boundary:
// errors and panics become an error record keyed by the directory name.
func (c *Collector) buildPageIsolated(ctx context.Context, pagePath, dirName string, pctx *plugin.Context, plugins []plugin.Plugin) (page *Page, err error) {
	var stack string
	defer func() {
		if err != nil {
			pctx.AppendError(plugin.ErrorRecord{Page: dirName, Message: err.Error(), Stack: stack})
			page = nil
		}
	}()
	defer recoverToError(&err, &stack)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return c.buildPage(ctx, pagePath, dirName, pctx, plugins)
}

// buildPage assembles one page: metadata and directory listing are loaded
// concurrently, section files are built concurrently and assembled into the
// hierarchy, and subdirectories recurse as subpages with their own error
// isolation.
func (c *Collector) buildPage(ctx context.Context, pagePath, dirName string, pctx *plugin.Context, plugins []plugin.Plugin) (*Page, error) {
	var (
		wg      sync.WaitGroup
		meta    map[string]any
		metaErr error
		entries []os.DirEntry
		listErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		meta, metaErr = ReadYAMLFile(filepath.Join(pagePath, "page.yml"))
	}()
	go func() {
		defer wg.Done()
		entries, listErr = os.ReadDir(pagePath)
	}()
	wg.Wait()

	if metaErr != nil {
		return nil, metaErr
	}
	if listErr != nil {
		return nil, fmt.Errorf("read page directory: %w", listErr)
	}

	var sectionFiles []string
	var subDirs []string
	for _, entry := range entries {
		switch {
		case entry.IsDir():
			subDirs = append(subDirs, entry.Name())
		case strings.EqualFold(filepath.Ext(entry.Name()), ".md"):
			sectionFiles = append(sectionFiles, entry.Name())
		}
	}
	sort.Slice(sectionFiles, func(i, j int) bool {
		return ordering.Compare(sectionFiles[i], sectionFiles[j]) < 0
	})

	built := runOrdered(sectionFiles, len(sectionFiles), func(fileName string) (*Section, error) {
		return c.buildSectionIsolated(filepath.Join(pagePath, fileName), pctx, plugins)
	})

	sections := make([]*Section, 0, len(built))
	for i, res := range built {
		if res.Err != nil {
			// Section failures stay unit-scoped: recorded against the page,
			// siblings unaffected.
			c.metrics.IncSectionResult(metrics.ResultFailed)
			pctx.AppendError(plugin.ErrorRecord{Page: dirName, Message: res.Err.Error()})
			c.logger.Warn("section build failed",
				logfields.RunID(pctx.RunID), logfields.Page(dirName),
				logfields.Path(sectionFiles[i]), logfields.Error(res.Err))
			continue
		}
		if res.Value == nil {
			c.metrics.IncSectionResult(metrics.ResultSkipped)
			continue
		}
		c.metrics.IncSectionResult(metrics.ResultSuccess)
		sections = append(sections, res.Value)
	}

	tree, err := buildHierarchy(sections)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Route:    routeFor(dirName),
		Meta:     pageMeta(meta, dirName),
		Sections: tree,
	}

	builtSubs := runOrdered(subDirs, len(subDirs), func(subDir string) (*Page, error) {
		return c.buildPageIsolated(ctx, filepath.Join(pagePath, subDir), subDir, pctx, plugins)
	})
	for _, res := range builtSubs {
		if res.Err != nil {
			c.metrics.IncPageResult(metrics.ResultFailed)
			continue
		}
		c.metrics.IncPageResult(metrics.ResultSuccess)
		page.Subpages = append(page.Subpages, res.Value)
	}

	return page, nil
}

func routeFor(dirName string) string {
	if dirName == homeDir {
		return "/"
	}
	return "/" + dirName
}

// pageMeta defaults a missing title to the title-cased directory name.
func pageMeta(meta map[string]any, dirName string) map[string]any {
	if meta == nil {
		meta = map[string]any{}
	}
	if _, ok := meta["title"]; !ok {
		meta["title"] = ordering.Title(dirName)
	}
	return meta
}

// buildSectionIsolated adds panic confinement around buildSection so a
// misbehaving plugin takes down one section, not the page.
func (c *Collector) buildSectionIsolated(filePath string, pctx *plugin.Context, plugins []plugin.Plugin) (section *Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			err = fmt.Errorf("section %s: %w", filepath.Base(filePath), err)
		}
	}()
	return c.buildSection(filePath, pctx, plugins)
}

// buildSection turns one Markdown file into a Section: ordering prefix,
// front matter, document tree, processor pipeline, then loader resolution
// for a declared input.
func (c *Collector) buildSection(filePath string, pctx *plugin.Context, plugins []plugin.Plugin) (*Section, error) {
	base := filepath.Base(filePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	prefix, title, hasPrefix := ordering.ParsePrefix(name)
	if !hasPrefix {
		if c.opts.RequireNumericPrefix {
			// Skipped, not an error.
			return nil, nil
		}
		title = name
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	fmRaw, body, _ := frontmatter.Split(raw)
	meta, err := frontmatter.Parse(fmRaw)
	if err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}

	tree, err := markdown.ToDocumentTree(body)
	if err != nil {
		return nil, fmt.Errorf("parse markdown: %w", err)
	}

	sctx := pctx.WithSection(filePath)

	for _, p := range plugins {
		proc, ok := p.(plugin.Processor)
		if !ok {
			continue
		}
		tree, err = proc.ProcessContent(tree, sctx)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
	}

	if meta.Input != nil {
		for _, p := range plugins {
			loader, ok := p.(plugin.Loader)
			if !ok {
				continue
			}
			data, err := loader.LoadData(meta.Input, sctx)
			if err != nil {
				return nil, fmt.Errorf("load input via %s: %w", p.Name(), err)
			}
			if data != nil {
				meta.Props["input"] = data
				break
			}
		}
	}

	id := title
	if hasPrefix {
		id = prefix
	}

	var component *string
	if meta.Component != "" {
		component = &meta.Component
	}

	return &Section{
		ID:          id,
		Title:       title,
		Component:   component,
		Config:      meta.Config,
		Props:       meta.Props,
		Content:     tree,
		Subsections: []*Section{},
	}, nil
}
