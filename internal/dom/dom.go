// Package dom is a small, immutable view of a parsed HTML subtree.
//
// A Node is either Text or *Element. Traversal helpers switch on the concrete
// type instead of probing node kinds at every call site, which keeps the
// extraction heuristics in internal/extracthtml easy to read and to test.
//
// Comments, doctypes and other non-content nodes are dropped on conversion.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Node is implemented by Text and *Element only.
type Node interface {
	isNode()
}

// Text is a raw text node, exactly as it appeared in the markup (entities decoded).
type Text string

func (Text) isNode() {}

// Attr is one element attribute.
type Attr struct {
	Key string
	Val string
}

// Element is a tag with its attributes and children in document order.
type Element struct {
	Tag      string
	Attrs    []Attr
	Children []Node
}

func (*Element) isNode() {}

// Attr returns the value of attribute key and whether it was present.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Is reports whether the element's tag is one of tags.
func (e *Element) Is(tags ...string) bool {
	for _, t := range tags {
		if e.Tag == t {
			return true
		}
	}
	return false
}

// FromHTML converts an x/net/html node into a Node.
//
// Element and document nodes become *Element (documents get an empty Tag).
// Text nodes become Text. Anything else returns nil.
func FromHTML(n *html.Node) Node {
	if n == nil {
		return nil
	}
	switch n.Type {
	case html.TextNode:
		return Text(n.Data)
	case html.ElementNode, html.DocumentNode:
		el := &Element{}
		if n.Type == html.ElementNode {
			el.Tag = n.Data
		}
		for _, a := range n.Attr {
			el.Attrs = append(el.Attrs, Attr{Key: a.Key, Val: a.Val})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := FromHTML(c); child != nil {
				el.Children = append(el.Children, child)
			}
		}
		return el
	default:
		return nil
	}
}

// Walk calls fn for every text fragment under n in document order.
func Walk(n Node, fn func(Text)) {
	switch v := n.(type) {
	case Text:
		fn(v)
	case *Element:
		for _, c := range v.Children {
			Walk(c, fn)
		}
	}
}

// RawText concatenates every text fragment under n without trimming.
func RawText(n Node) string {
	var b strings.Builder
	Walk(n, func(t Text) { b.WriteString(string(t)) })
	return b.String()
}

// StrippedStrings returns every text fragment under n, trimmed, skipping
// fragments that are empty after trimming.
func StrippedStrings(n Node) []string {
	var out []string
	Walk(n, func(t Text) {
		if s := strings.TrimSpace(string(t)); s != "" {
			out = append(out, s)
		}
	})
	return out
}

// StrippedText is StrippedStrings joined without a separator.
//
// Note that adjacent fragments are glued together: "<b>1</b> Crew" yields "1Crew".
func StrippedText(n Node) string {
	return strings.Join(StrippedStrings(n), "")
}

// Without returns a copy of n with every descendant element whose tag is in
// tags removed (together with its subtree). n itself is never removed and the
// input tree is not modified.
func Without(n Node, tags ...string) Node {
	el, ok := n.(*Element)
	if !ok {
		return n
	}
	out := &Element{Tag: el.Tag, Attrs: el.Attrs}
	for _, c := range el.Children {
		if ce, ok := c.(*Element); ok && ce.Is(tags...) {
			continue
		}
		out.Children = append(out.Children, Without(c, tags...))
	}
	return out
}
