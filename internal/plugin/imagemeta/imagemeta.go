// Package imagemeta implements the built-in Processor plugin that enriches
// image nodes with sidecar metadata. For every image node a sibling file
// `<src><ext>` (default `.yml`) is consulted; its fields backfill the image
// attributes and the full mapping is attached under attrs.metadata. SVG
// sources additionally get their markup inlined under attrs.svg.
package imagemeta

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitetree/internal/docnode"
	"git.home.luguber.info/inful/sitetree/internal/plugin"
)

// Options configures the processor. The zero value uses the defaults below.
type Options struct {
	// SidecarExt is appended to the image source to locate its metadata
	// file. Default ".yml".
	SidecarExt string

	// PublicDir is the directory root-relative image sources (leading "/")
	// resolve under. Relative to the collection root unless absolute.
	// Default "public".
	PublicDir string

	// DisableSVG turns off inlining of .svg sources. Inlining is on by
	// default.
	DisableSVG bool
}

// Processor is the built-in image metadata plugin.
type Processor struct {
	plugin.Base

	opts Options
}

// New creates the processor with the given options.
func New(opts Options) *Processor {
	if opts.SidecarExt == "" {
		opts.SidecarExt = ".yml"
	}
	if opts.PublicDir == "" {
		opts.PublicDir = "public"
	}
	return &Processor{opts: opts}
}

// Name implements plugin.Plugin.
func (p *Processor) Name() string { return "image-meta" }

// ProcessContent implements plugin.Processor. The walk never fails as a
// whole: per-image problems are reported to the error log and the
// remaining images are still enriched.
func (p *Processor) ProcessContent(tree *docnode.Node, ctx *plugin.Context) (*docnode.Node, error) {
	docnode.Walk(tree, func(n *docnode.Node) bool {
		if n.Type == docnode.TypeImage && n.AttrString("src") != "" {
			p.enrich(n, ctx)
		}
		return true
	})
	return tree, nil
}

func (p *Processor) enrich(n *docnode.Node, ctx *plugin.Context) {
	src := n.AttrString("src")
	imagePath, err := p.resolve(src, ctx)
	if err != nil {
		p.ReportError(ctx, p.Name(), fmt.Errorf("image %s: %w", src, err))
		return
	}

	p.applySidecar(n, imagePath, src, ctx)

	if !p.opts.DisableSVG && strings.EqualFold(filepath.Ext(src), ".svg") {
		p.inlineSVG(n, imagePath, src, ctx)
	}

	pruneNilAttrs(n)
}

// applySidecar loads `<image><ext>` and backfills title/caption/alt without
// overwriting values the author already set. A missing sidecar is not an
// error.
func (p *Processor) applySidecar(n *docnode.Node, imagePath, src string, ctx *plugin.Context) {
	raw, err := os.ReadFile(imagePath + p.opts.SidecarExt)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		p.ReportError(ctx, p.Name(), fmt.Errorf("sidecar for %s: %w", src, err))
		return
	}

	var meta map[string]any
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		p.ReportError(ctx, p.Name(), fmt.Errorf("sidecar for %s: %w", src, err))
		return
	}
	if meta == nil {
		return
	}

	for _, key := range []string{"title", "caption", "alt"} {
		if v, ok := meta[key]; ok && n.Attr(key) == nil {
			n.SetAttr(key, v)
		}
	}
	n.SetAttr("metadata", meta)
}

func (p *Processor) inlineSVG(n *docnode.Node, imagePath, src string, ctx *plugin.Context) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		p.ReportError(ctx, p.Name(), fmt.Errorf("inline svg %s: %w", src, err))
		return
	}
	if !containsSVGElement(raw) {
		p.ReportError(ctx, p.Name(), fmt.Errorf("inline svg %s: no <svg> element found", src))
		return
	}
	n.SetAttr("svg", string(raw))
}

// resolve maps an image source to a filesystem path: root-relative sources
// live under the public directory, relative sources next to the section
// file currently being processed.
func (p *Processor) resolve(src string, ctx *plugin.Context) (string, error) {
	if strings.Contains(src, "://") {
		return "", fmt.Errorf("remote sources are not resolvable")
	}

	if strings.HasPrefix(src, "/") {
		publicDir := p.opts.PublicDir
		if !filepath.IsAbs(publicDir) {
			publicDir = filepath.Join(ctx.ResourcePath, publicDir)
		}
		return filepath.Join(publicDir, filepath.FromSlash(src)), nil
	}

	if ctx.CurrentSection == "" {
		return "", fmt.Errorf("no current section to resolve relative source against")
	}
	return filepath.Join(filepath.Dir(ctx.CurrentSection), filepath.FromSlash(src)), nil
}

// containsSVGElement tokenizes the file and looks for an opening <svg> tag,
// so arbitrary non-markup bytes are never inlined into the content tree.
func containsSVGElement(raw []byte) bool {
	tokenizer := html.NewTokenizer(bytes.NewReader(raw))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input: either way no <svg> was seen.
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if strings.EqualFold(string(name), "svg") {
				return true
			}
		}
	}
}

func pruneNilAttrs(n *docnode.Node) {
	for key, value := range n.Attrs {
		if value == nil {
			delete(n.Attrs, key)
		}
	}
}
