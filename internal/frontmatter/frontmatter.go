// Package frontmatter splits optional YAML front matter (`---` delimited)
// from a section file and decodes the fields the collection pipeline
// understands.
package frontmatter

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// SectionMeta is the decoded front matter of one section file. Fields the
// YAML does not set keep their zero values; Props is never nil after Parse.
type SectionMeta struct {
	Component string         `yaml:"component"`
	Config    map[string]any `yaml:"config"`
	Props     map[string]any `yaml:"props"`
	Input     any            `yaml:"input"`
}

// Split separates YAML front matter from the Markdown body.
//
// A document carries front matter only when it starts with a `---` line and
// a closing `---` line follows, i.e. the document splits into at least three
// `---`-joined segments. Anything else (including a lone leading `---` with
// no closing line) is treated as body, not as an error.
func Split(content []byte) (frontmatter []byte, body []byte, had bool) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false
	}

	rest := content[len(open):]

	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(rest, closeLine) {
		return []byte{}, rest[len(closeLine):], true
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// No closing delimiter: fewer than three segments, whole input is body.
		if bytes.HasSuffix(rest, []byte(nl+"---")) {
			return rest[:len(rest)-len(nl+"---")+len(nl)], []byte{}, true
		}
		return nil, content, false
	}

	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true
}

// Parse decodes raw front matter (without delimiters) into SectionMeta.
func Parse(frontmatter []byte) (*SectionMeta, error) {
	meta := &SectionMeta{}
	if len(frontmatter) > 0 {
		if err := yaml.Unmarshal(frontmatter, meta); err != nil {
			return nil, err
		}
	}
	if meta.Props == nil {
		meta.Props = map[string]any{}
	}
	return meta, nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
