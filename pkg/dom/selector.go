package dom

import (
	"strings"

	gerrors "github.com/vango-dev/gousse/internal/errors"
)

// Selector is a compiled CSS selector supporting type, #id, .class,
// [attr], [attr=value] and * selectors, compounds, the descendant and
// child combinators, and comma-separated groups.
type Selector struct {
	source string
	groups [][]compound
}

type attrSelector struct {
	key      string
	value    string
	hasValue bool
}

type compound struct {
	tag     string // "" or "*" matches any element
	id      string
	classes []string
	attrs   []attrSelector
	// combinator joins this compound to the previous one: ' ' or '>'.
	combinator byte
}

// CompileSelector parses sel.
func CompileSelector(sel string) (*Selector, error) {
	s := &Selector{source: sel}
	for _, part := range splitGroups(sel) {
		group, err := parseGroup(part)
		if err != nil {
			return nil, gerrors.New("G001").WithDetail(sel).Wrap(err)
		}
		s.groups = append(s.groups, group)
	}
	if len(s.groups) == 0 {
		return nil, gerrors.New("G001").WithDetail(sel)
	}
	return s, nil
}

// String returns the selector source.
func (s *Selector) String() string {
	return s.source
}

// splitGroups splits on commas outside attribute brackets.
func splitGroups(sel string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(sel); i++ {
		switch sel[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, sel[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, sel[start:])

	groups := out[:0]
	for _, g := range out {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

func parseGroup(src string) ([]compound, error) {
	var out []compound
	pending := byte(' ')
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
			continue
		case c == '>':
			if len(out) == 0 {
				return nil, errUnexpected(src, i)
			}
			pending = '>'
			i++
			continue
		}

		comp, next, err := parseCompound(src, i)
		if err != nil {
			return nil, err
		}
		comp.combinator = pending
		pending = ' '
		out = append(out, comp)
		i = next
	}
	if len(out) == 0 || pending == '>' {
		return nil, errUnexpected(src, len(src))
	}
	return out, nil
}

func parseCompound(src string, i int) (compound, int, error) {
	var c compound
	start := i
	if src[i] == '*' {
		c.tag = "*"
		i++
	} else if isIdentByte(src[i]) {
		j := scanIdent(src, i)
		c.tag = strings.ToLower(src[i:j])
		i = j
	}

	for i < len(src) {
		switch src[i] {
		case '#':
			j := scanIdent(src, i+1)
			if j == i+1 {
				return c, i, errUnexpected(src, i)
			}
			c.id = src[i+1 : j]
			i = j
		case '.':
			j := scanIdent(src, i+1)
			if j == i+1 {
				return c, i, errUnexpected(src, i)
			}
			c.classes = append(c.classes, src[i+1:j])
			i = j
		case '[':
			end := strings.IndexByte(src[i:], ']')
			if end < 0 {
				return c, i, errUnexpected(src, i)
			}
			a, err := parseAttrSelector(src[i+1 : i+end])
			if err != nil {
				return c, i, err
			}
			c.attrs = append(c.attrs, a)
			i += end + 1
		default:
			if i == start {
				return c, i, errUnexpected(src, i)
			}
			return c, i, nil
		}
	}
	return c, i, nil
}

func parseAttrSelector(body string) (attrSelector, error) {
	body = strings.TrimSpace(body)
	key, value, hasValue := strings.Cut(body, "=")
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return attrSelector{}, gerrors.Newf(gerrors.CategoryDOM, "empty attribute selector")
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	return attrSelector{key: key, value: value, hasValue: hasValue}, nil
}

func isIdentByte(b byte) bool {
	return b == '-' || b == '_' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func scanIdent(src string, i int) int {
	for i < len(src) && isIdentByte(src[i]) {
		i++
	}
	return i
}

func errUnexpected(src string, pos int) error {
	return gerrors.Newf(gerrors.CategoryDOM, "unexpected character at offset %d in %q", pos, src)
}

// Match reports whether n matches the selector.
func (s *Selector) Match(n *Node) bool {
	if n == nil || n.Kind != KindElement {
		return false
	}
	for _, g := range s.groups {
		if matchFrom(g, len(g)-1, n) {
			return true
		}
	}
	return false
}

func matchFrom(g []compound, idx int, n *Node) bool {
	if !g[idx].match(n) {
		return false
	}
	if idx == 0 {
		return true
	}
	switch g[idx].combinator {
	case '>':
		p := n.parent
		return p != nil && p.Kind == KindElement && matchFrom(g, idx-1, p)
	default:
		for p := n.parent; p != nil; p = p.parent {
			if p.Kind == KindElement && matchFrom(g, idx-1, p) {
				return true
			}
		}
		return false
	}
}

func (c compound) match(n *Node) bool {
	if c.tag != "" && c.tag != "*" && c.tag != n.Tag {
		return false
	}
	if c.id != "" && n.ID() != c.id {
		return false
	}
	for _, cls := range c.classes {
		if !n.HasClass(cls) {
			return false
		}
	}
	for _, a := range c.attrs {
		v, ok := n.GetAttribute(a.key)
		if !ok || (a.hasValue && v != a.value) {
			return false
		}
	}
	return true
}

// QuerySelectorAll returns n's descendants matching sel, in document order.
// n itself is never included and shadow trees are not searched.
func (n *Node) QuerySelectorAll(sel string) ([]*Node, error) {
	s, err := CompileSelector(sel)
	if err != nil {
		return nil, err
	}
	return n.QueryAll(s), nil
}

// QuerySelector returns the first descendant matching sel, or nil.
func (n *Node) QuerySelector(sel string) (*Node, error) {
	s, err := CompileSelector(sel)
	if err != nil {
		return nil, err
	}
	for _, d := range n.Descendants() {
		if s.Match(d) {
			return d, nil
		}
	}
	return nil, nil
}

// QueryAll returns n's descendants matching a compiled selector.
func (n *Node) QueryAll(s *Selector) []*Node {
	var out []*Node
	for _, d := range n.Descendants() {
		if s.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

// Matches reports whether n matches sel.
func (n *Node) Matches(sel string) (bool, error) {
	s, err := CompileSelector(sel)
	if err != nil {
		return false, err
	}
	return s.Match(n), nil
}
