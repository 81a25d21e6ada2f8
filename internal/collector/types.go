package collector

import (
	"encoding/json"

	"git.home.luguber.info/inful/sitetree/internal/docnode"
	"git.home.luguber.info/inful/sitetree/internal/plugin"
)

// SiteContent is the root output of one collection run. Errors is populated
// only in non-production environments; the renderer ignores it.
type SiteContent struct {
	Pages  []*Page              `json:"pages"`
	Config map[string]any       `json:"config"`
	Theme  map[string]any       `json:"theme"`
	Errors []plugin.ErrorRecord `json:"errors,omitempty"`
}

// Page is one content directory's aggregate of ordered sections plus
// optional nested subpages. Metadata from page.yml is flattened into the
// page object on serialization.
type Page struct {
	Route    string
	Meta     map[string]any
	Sections []*Section
	Subpages []*Page
}

// MarshalJSON flattens Meta into the page object. The reserved keys route,
// sections and subpages always win over metadata fields of the same name.
func (p *Page) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Meta)+3)
	for k, v := range p.Meta {
		out[k] = v
	}
	out["route"] = p.Route
	out["sections"] = p.Sections
	if len(p.Subpages) > 0 {
		out["subpages"] = p.Subpages
	}
	return json.Marshal(out)
}

// Section is one Markdown file's processed output. ID doubles as the
// ordering key and the hierarchy address: "2.1" nests under "2".
type Section struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Component   *string        `json:"component"`
	Config      map[string]any `json:"config"`
	Props       map[string]any `json:"props"`
	Content     *docnode.Node  `json:"content"`
	Subsections []*Section     `json:"subsections"`
}
