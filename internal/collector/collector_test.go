package collector

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitetree/internal/docnode"
	"git.home.luguber.info/inful/sitetree/internal/plugin"
)

// writeFixture lays out a content root from a map of relative path to file
// content.
func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestCollect_EndToEnd_HomeAndAbout(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"site.yml":                 "name: Demo Site\n",
		"theme.yml":                "primary: '#336699'\n",
		"pages/home/1-Hero.md":     "---\ncomponent: Hero\nprops:\n  heading: Welcome\n---\n# Hello\n",
		"pages/home/2-Features.md": "# Features\n",
		"pages/about/1-Intro.md":   "# About us\n",
	})

	out, err := New(Options{}).Collect(context.Background(), root)
	require.NoError(t, err)

	require.Equal(t, map[string]any{"name": "Demo Site"}, out.Config)
	require.Equal(t, map[string]any{"primary": "#336699"}, out.Theme)

	require.Len(t, out.Pages, 2)
	require.Equal(t, "/", out.Pages[0].Route, "home page is always first")
	require.Equal(t, "/about", out.Pages[1].Route)
	require.Len(t, out.Pages[0].Sections, 2)
	require.Len(t, out.Pages[1].Sections, 1)

	hero := out.Pages[0].Sections[0]
	require.Equal(t, "1", hero.ID)
	require.Equal(t, "Hero", hero.Title)
	require.NotNil(t, hero.Component)
	require.Equal(t, "Hero", *hero.Component)
	require.Equal(t, "Welcome", hero.Props["heading"])
	require.Equal(t, docnode.TypeDocument, hero.Content.Type)
}

func TestCollect_SubsectionNesting(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/1-Hero.md":         "# Hero\n",
		"pages/home/2-Features.md":     "# Features\n",
		"pages/home/2.1-FeatureOne.md": "# Feature one\n",
	})

	out, err := New(Options{}).Collect(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, out.Pages, 1)

	sections := out.Pages[0].Sections
	require.Len(t, sections, 2)
	require.Equal(t, "1", sections[0].ID)
	require.Equal(t, "2", sections[1].ID)
	require.Len(t, sections[1].Subsections, 1)
	require.Equal(t, "2.1", sections[1].Subsections[0].ID)
	require.Equal(t, "FeatureOne", sections[1].Subsections[0].Title)
}

func TestCollect_MissingParent_ExcludesOnlyThatPage(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/broken/3.1-X.md": "# Orphan\n",
		"pages/ok/1-Intro.md":   "# Fine\n",
	})

	out, err := New(Options{}).Collect(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, out.Pages, 1)
	require.Equal(t, "/ok", out.Pages[0].Route)

	require.NotEmpty(t, out.Errors)
	var found bool
	for _, rec := range out.Errors {
		if rec.Page == "broken" {
			found = true
			require.Contains(t, rec.Message, "parent section")
			require.Contains(t, rec.Message, "not found")
		}
	}
	require.True(t, found, "the broken page must carry an error record")
}

func TestCollect_NoFrontmatter_Defaults(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/1-Hero.md": "# Just content\n",
	})

	out, err := New(Options{}).Collect(context.Background(), root)
	require.NoError(t, err)

	hero := out.Pages[0].Sections[0]
	require.Nil(t, hero.Component)
	require.Nil(t, hero.Config)
	require.Empty(t, hero.Props)
	require.NotNil(t, hero.Props)
	require.NotEmpty(t, hero.Content.Content, "the whole file is parsed as body")
}

func TestCollect_RequireNumericPrefix_SkipsUnprefixed(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/1-Hero.md": "# Hero\n",
		"pages/home/notes.md":  "# Not a section\n",
	})

	out, err := New(Options{RequireNumericPrefix: true}).Collect(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, out.Pages[0].Sections, 1)
	require.Empty(t, out.Errors, "a skipped file is not an error")
}

func TestCollect_UnprefixedFileBecomesTitleSection(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/1-Hero.md": "# Hero\n",
		"pages/home/notes.md":  "# Notes\n",
	})

	out, err := New(Options{}).Collect(context.Background(), root)
	require.NoError(t, err)

	sections := out.Pages[0].Sections
	require.Len(t, sections, 2)
	require.Equal(t, "1", sections[0].ID, "prefixed sections sort before unprefixed")
	require.Equal(t, "notes", sections[1].ID)
}

func TestCollect_Subpages(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/about/1-Intro.md":        "# About\n",
		"pages/about/team/1-Members.md": "# Team\n",
	})

	out, err := New(Options{}).Collect(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, out.Pages, 1)

	about := out.Pages[0]
	require.Len(t, about.Subpages, 1)
	require.Equal(t, "/team", about.Subpages[0].Route)
	require.Len(t, about.Subpages[0].Sections, 1)
}

func TestCollect_BrokenSubpage_DoesNotFailParent(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/about/1-Intro.md":   "# About\n",
		"pages/about/bad/9.9-X.md": "# Orphan\n",
	})

	out, err := New(Options{}).Collect(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, out.Pages, 1)
	require.Empty(t, out.Pages[0].Subpages)
	require.NotEmpty(t, out.Errors)
}

func TestCollect_MissingSiteAndThemeFiles_EmptyObjects(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/1-Hero.md": "# Hero\n",
	})

	out, err := New(Options{}).Collect(context.Background(), root)
	require.NoError(t, err)
	require.Empty(t, out.Config)
	require.NotNil(t, out.Config)
	require.Empty(t, out.Theme)
}

func TestCollect_ProductionEnvironment_OmitsErrors(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/broken/3.1-X.md": "# Orphan\n",
		"pages/home/1-Hero.md":  "# Hero\n",
	})

	out, err := New(Options{Environment: EnvProduction}).Collect(context.Background(), root)
	require.NoError(t, err)
	require.Nil(t, out.Errors, "production output omits the error log")
	require.Len(t, out.Pages, 1, "the error log still drives per-unit exclusion")
}

func TestCollect_Idempotent(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"site.yml":                 "name: X\n",
		"pages/home/1-Hero.md":     "# Hero\n",
		"pages/home/2-Features.md": "# Features\n",
		"pages/about/1-Intro.md":   "# About\n",
	})

	c := New(Options{})
	first, err := c.Collect(context.Background(), root)
	require.NoError(t, err)
	second, err := c.Collect(context.Background(), root)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	require.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestCollect_MissingRoot_Fails(t *testing.T) {
	_, err := New(Options{}).Collect(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestCollect_InvalidSiteYAML_IsRunFatal(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"site.yml":             ": bad yaml",
		"pages/home/1-Hero.md": "# Hero\n",
	})

	_, err := New(Options{}).Collect(context.Background(), root)
	require.Error(t, err)
}

func TestCollect_PageMarshalJSON_FlattensMetadata(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/page.yml":  "title: Start\nlayout: wide\n",
		"pages/home/1-Hero.md": "# Hero\n",
	})

	out, err := New(Options{}).Collect(context.Background(), root)
	require.NoError(t, err)

	raw, err := json.Marshal(out.Pages[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "/", decoded["route"])
	require.Equal(t, "Start", decoded["title"])
	require.Equal(t, "wide", decoded["layout"])
	require.Contains(t, decoded, "sections")
}

func TestCollect_PageTitleDefaultsFromDirectoryName(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/getting-started/1-Intro.md": "# Intro\n",
	})

	out, err := New(Options{}).Collect(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, "Getting Started", out.Pages[0].Meta["title"])
}

// failingLifecycle is a plugin whose lifecycle hook is run-fatal.
type failingLifecycle struct{ plugin.Base }

func (failingLifecycle) Name() string                        { return "failing-lifecycle" }
func (failingLifecycle) BeforeCollect(*plugin.Context) error { return errors.New("boom") }
func (failingLifecycle) AfterCollect(*plugin.Context) error  { return nil }

func TestCollect_LifecycleError_IsRunFatal(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/1-Hero.md": "# Hero\n",
	})

	c := New(Options{})
	c.Use(failingLifecycle{})

	_, err := c.Collect(context.Background(), root)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failing-lifecycle")
}

func TestCollect_MissingPluginDependency_IsRunFatal(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/1-Hero.md": "# Hero\n",
	})

	c := New(Options{})
	c.Use(failingLifecycle{}, "not-registered")

	_, err := c.Collect(context.Background(), root)
	require.Error(t, err)

	var missing *plugin.MissingDependencyError
	require.True(t, errors.As(err, &missing))
}

// panickingProcessor exercises the per-section panic boundary.
type panickingProcessor struct{ plugin.Base }

func (panickingProcessor) Name() string { return "panicking-processor" }
func (panickingProcessor) ProcessContent(tree *docnode.Node, _ *plugin.Context) (*docnode.Node, error) {
	panic("kaboom")
}

func TestCollect_PanickingProcessor_FailsSectionsNotRun(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/1-Hero.md":   "# Hero\n",
		"pages/about/1-Intro.md": "# About\n",
	})

	c := New(Options{})
	c.Use(panickingProcessor{})

	out, err := c.Collect(context.Background(), root)
	require.NoError(t, err, "a panicking processor is unit-scoped, not run-fatal")
	for _, p := range out.Pages {
		require.Empty(t, p.Sections)
	}
	require.NotEmpty(t, out.Errors)
}

// recordingLoader resolves every input with a fixed payload.
type recordingLoader struct {
	plugin.Base
	sources []any
}

func (l *recordingLoader) Name() string { return "recording-loader" }
func (l *recordingLoader) LoadData(source any, _ *plugin.Context) (any, error) {
	l.sources = append(l.sources, source)
	return map[string]any{"resolved": true}, nil
}

func TestCollect_DeclaredInput_ResolvedByFirstLoader(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/1-Hero.md": "---\ninput: ./data.json\n---\n# Hero\n",
	})

	loader := &recordingLoader{}
	c := New(Options{DisableDataLoader: true})
	c.Use(loader)

	out, err := c.Collect(context.Background(), root)
	require.NoError(t, err)

	hero := out.Pages[0].Sections[0]
	require.Equal(t, map[string]any{"resolved": true}, hero.Props["input"])
	require.Equal(t, []any{"./data.json"}, loader.sources)
}

func TestCollect_NoInputDeclared_LoadersNotInvoked(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"pages/home/1-Hero.md": "# Hero\n",
	})

	loader := &recordingLoader{}
	c := New(Options{DisableDataLoader: true})
	c.Use(loader)

	out, err := c.Collect(context.Background(), root)
	require.NoError(t, err)
	require.Empty(t, loader.sources)
	require.NotContains(t, out.Pages[0].Sections[0].Props, "input")
}
