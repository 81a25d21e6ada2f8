// Package docnode defines the mutable document tree produced by the Markdown
// parser and consumed by processor plugins and the renderer. The tree is
// JSON-serializable; every node carries a discriminating type, leaf and image
// nodes carry an attribute map.
package docnode

// Node is one node of a parsed document tree.
//
// Plugins may read and mutate a tree in place but must keep every node's
// Type intact.
type Node struct {
	Type    string         `json:"type"`
	Literal string         `json:"literal,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
}

// Common node types emitted by the Markdown adapter.
const (
	TypeDocument      = "document"
	TypeHeading       = "heading"
	TypeParagraph     = "paragraph"
	TypeText          = "text"
	TypeEmphasis      = "emphasis"
	TypeStrong        = "strong"
	TypeLink          = "link"
	TypeImage         = "image"
	TypeCodeBlock     = "code_block"
	TypeCodeSpan      = "code_span"
	TypeBlockquote    = "blockquote"
	TypeList          = "list"
	TypeListItem      = "list_item"
	TypeThematicBreak = "thematic_break"
	TypeHTMLBlock     = "html_block"
	TypeRawHTML       = "raw_html"
)

// Attr returns the named attribute, or nil when absent.
func (n *Node) Attr(key string) any {
	if n == nil || n.Attrs == nil {
		return nil
	}
	return n.Attrs[key]
}

// AttrString returns the named attribute as a string, or "" when absent or
// not a string.
func (n *Node) AttrString(key string) string {
	if v, ok := n.Attr(key).(string); ok {
		return v
	}
	return ""
}

// SetAttr sets an attribute, allocating the map on first use.
func (n *Node) SetAttr(key string, value any) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[key] = value
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children; the walk itself always continues with siblings.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Content {
		Walk(child, fn)
	}
}
