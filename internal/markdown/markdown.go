// Package markdown adapts Goldmark's AST to the document tree consumed by
// the collection pipeline. Parsing is pure: one input document yields one
// tree, with no shared state between calls.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/sitetree/internal/docnode"
)

// ToDocumentTree parses a Markdown body (frontmatter already removed) into a
// document tree.
func ToDocumentTree(body []byte) (*docnode.Node, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))
	return convert(root, body), nil
}

func convert(n gmast.Node, source []byte) *docnode.Node {
	out := &docnode.Node{Type: nodeType(n)}

	switch node := n.(type) {
	case *gmast.Heading:
		out.SetAttr("level", node.Level)
	case *gmast.Link:
		out.SetAttr("href", string(node.Destination))
		if len(node.Title) > 0 {
			out.SetAttr("title", string(node.Title))
		}
	case *gmast.Image:
		out.SetAttr("src", string(node.Destination))
		if len(node.Title) > 0 {
			out.SetAttr("title", string(node.Title))
		}
		if alt := childText(node, source); alt != "" {
			out.SetAttr("alt", alt)
		}
	case *gmast.AutoLink:
		out.SetAttr("href", string(node.URL(source)))
		out.Literal = string(node.Label(source))
	case *gmast.FencedCodeBlock:
		if lang := node.Language(source); len(lang) > 0 {
			out.SetAttr("language", string(lang))
		}
		out.Literal = linesText(n, source)
	case *gmast.CodeBlock:
		out.Literal = linesText(n, source)
	case *gmast.HTMLBlock:
		out.Literal = linesText(n, source)
	case *gmast.RawHTML:
		var sb strings.Builder
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			sb.Write(seg.Value(source))
		}
		out.Literal = sb.String()
	case *gmast.List:
		out.SetAttr("ordered", node.IsOrdered())
		if node.IsOrdered() {
			out.SetAttr("start", node.Start)
		}
	case *gmast.Text:
		out.Literal = string(node.Segment.Value(source))
	case *gmast.String:
		out.Literal = string(node.Value)
	case *gmast.CodeSpan:
		// Flatten the span's text children into a single literal.
		out.Literal = childText(node, source)
		return out
	}

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out.Content = append(out.Content, convert(child, source))
	}
	return out
}

// nodeType maps Goldmark kinds onto the stable lowercase type names the
// pipeline and renderer agree on. Unknown kinds keep their Goldmark kind
// string so plugins can still dispatch on them.
func nodeType(n gmast.Node) string {
	switch node := n.(type) {
	case *gmast.Document:
		return docnode.TypeDocument
	case *gmast.Heading:
		return docnode.TypeHeading
	case *gmast.Paragraph, *gmast.TextBlock:
		return docnode.TypeParagraph
	case *gmast.Text, *gmast.String:
		return docnode.TypeText
	case *gmast.Emphasis:
		if node.Level > 1 {
			return docnode.TypeStrong
		}
		return docnode.TypeEmphasis
	case *gmast.Link, *gmast.AutoLink:
		return docnode.TypeLink
	case *gmast.Image:
		return docnode.TypeImage
	case *gmast.FencedCodeBlock, *gmast.CodeBlock:
		return docnode.TypeCodeBlock
	case *gmast.CodeSpan:
		return docnode.TypeCodeSpan
	case *gmast.Blockquote:
		return docnode.TypeBlockquote
	case *gmast.List:
		return docnode.TypeList
	case *gmast.ListItem:
		return docnode.TypeListItem
	case *gmast.ThematicBreak:
		return docnode.TypeThematicBreak
	case *gmast.HTMLBlock:
		return docnode.TypeHTMLBlock
	case *gmast.RawHTML:
		return docnode.TypeRawHTML
	default:
		return strings.ToLower(n.Kind().String())
	}
}

func linesText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}

func childText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *gmast.Text:
			sb.Write(c.Segment.Value(source))
		case *gmast.String:
			sb.Write(c.Value)
		default:
			sb.WriteString(childText(child, source))
		}
	}
	return sb.String()
}
