package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	gerrors "github.com/vango-dev/gousse/internal/errors"
)

// ParseFragment parses markup as the content of an element named
// contextTag ("body" when empty) and returns the top-level nodes.
func ParseFragment(r io.Reader, contextTag string) ([]*Node, error) {
	if contextTag == "" {
		contextTag = "body"
	}
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     contextTag,
		DataAtom: atom.Lookup([]byte(contextTag)),
	}
	parsed, err := html.ParseFragment(r, ctx)
	if err != nil {
		return nil, gerrors.New("G004").Wrap(err)
	}
	out := make([]*Node, 0, len(parsed))
	for _, p := range parsed {
		if n := convert(p); n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// ParseHTML parses a markup string into a fragment.
func ParseHTML(markup string) (*Node, error) {
	nodes, err := ParseFragment(strings.NewReader(markup), "body")
	if err != nil {
		return nil, err
	}
	f := NewFragment()
	for _, n := range nodes {
		f.AppendChild(n)
	}
	return f, nil
}

// MustParseHTML is ParseHTML for trusted, static markup. It panics on error.
func MustParseHTML(markup string) *Node {
	f, err := ParseHTML(markup)
	if err != nil {
		panic(err)
	}
	return f
}

// LoadDocument parses a complete page into d, replacing the head and body
// content and copying their attributes.
func LoadDocument(d *Document, r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return gerrors.New("G004").Wrap(err)
	}

	var head, body *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Head:
				head = n
			case atom.Body:
				body = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(root)

	fill := func(dst *Node, src *html.Node) {
		dst.Clear()
		if src == nil {
			return
		}
		for _, a := range src.Attr {
			dst.SetAttribute(a.Key, a.Val)
		}
		for c := src.FirstChild; c != nil; c = c.NextSibling {
			if n := convert(c); n != nil {
				dst.AppendChild(n)
			}
		}
	}
	fill(d.head, head)
	fill(d.body, body)
	return nil
}

func convert(h *html.Node) *Node {
	var n *Node
	switch h.Type {
	case html.ElementNode:
		n = NewElement(h.Data)
		for _, a := range h.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			n.SetAttribute(key, a.Val)
		}
	case html.TextNode:
		return NewText(h.Data)
	case html.CommentNode:
		return NewComment(h.Data)
	case html.DocumentNode:
		n = NewFragment()
	default:
		return nil
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if child := convert(c); child != nil {
			child.parent = n
			n.children = append(n.children, child)
		}
	}
	return n
}

// rawTextElements hold text that is written without escaping.
var rawTextElements = map[string]bool{
	"script": true,
	"style":  true,
}

// Render writes n as HTML. Documents are prefixed with a doctype and
// shadow roots are written as declarative shadow DOM templates.
func Render(w io.Writer, n *Node) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindDocument:
		if _, err := io.WriteString(w, "<!DOCTYPE html>"); err != nil {
			return err
		}
		return renderChildren(w, n)
	case KindFragment:
		return renderChildren(w, n)
	case KindText:
		if n.parent != nil && rawTextElements[n.parent.Tag] {
			_, err := io.WriteString(w, n.Data)
			return err
		}
		_, err := io.WriteString(w, escapeHTML(n.Data))
		return err
	case KindComment:
		_, err := io.WriteString(w, "<!--"+n.Data+"-->")
		return err
	}

	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		if a.Value != "" {
			b.WriteString(`="`)
			b.WriteString(escapeAttr(a.Value))
			b.WriteByte('"')
		}
	}
	b.WriteByte('>')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if IsVoidElement(n.Tag) {
		return nil
	}
	if n.shadow != nil {
		if _, err := io.WriteString(w, `<template shadowrootmode="open">`); err != nil {
			return err
		}
		if err := renderChildren(w, n.shadow); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "</template>"); err != nil {
			return err
		}
	}
	if err := renderChildren(w, n); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</"+n.Tag+">")
	return err
}

func renderChildren(w io.Writer, n *Node) error {
	for _, c := range n.children {
		if err := Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

// OuterHTML returns the markup of n including itself.
func (n *Node) OuterHTML() string {
	var buf bytes.Buffer
	_ = Render(&buf, n)
	return buf.String()
}

// InnerHTML returns the markup of n's children.
func (n *Node) InnerHTML() string {
	var buf bytes.Buffer
	_ = renderChildren(&buf, n)
	return buf.String()
}

// SetInnerHTML replaces n's children with parsed markup.
func (n *Node) SetInnerHTML(markup string) error {
	ctxTag := "body"
	if n.Kind == KindElement {
		ctxTag = n.Tag
	}
	nodes, err := ParseFragment(strings.NewReader(markup), ctxTag)
	if err != nil {
		return err
	}
	n.Clear()
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for safe inclusion in double-quoted attribute
// values.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\n':
			buf.WriteString("&#10;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
