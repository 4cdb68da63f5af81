package dom

import (
	"strings"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement  Kind = iota // <div>, <button>, etc.
	KindText                 // Plain text node
	KindComment              // Comment, used for placeholders and slots
	KindFragment             // Grouping without wrapper
	KindDocument             // Document root
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	case KindFragment:
		return "Fragment"
	case KindDocument:
		return "Document"
	default:
		return "Unknown"
	}
}

// Attr is a single attribute.
type Attr struct {
	Key   string
	Value string
}

// Node is a document node.
type Node struct {
	Kind Kind
	Tag  string // lower-case tag name for elements
	Data string // content of text and comment nodes

	attrs    []Attr
	parent   *Node
	children []*Node

	listeners    map[string][]*listener
	nextListener ListenerID

	shadow *Node // shadow root attached to this element
	host   *Node // element hosting this shadow root

	doc       *Document // set on the document node only
	hooks     ElementHooks
	upgraded  bool
	observers []*MutationObserver
	watchers  []*connectionWatcher
}

// NewElement creates a detached element.
func NewElement(tag string) *Node {
	return &Node{Kind: KindElement, Tag: strings.ToLower(tag)}
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Data: text}
}

// NewComment creates a detached comment node.
func NewComment(text string) *Node {
	return &Node{Kind: KindComment, Data: text}
}

// NewFragment creates an empty fragment.
func NewFragment() *Node {
	return &Node{Kind: KindFragment}
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// Host returns the element hosting this shadow root, or nil.
func (n *Node) Host() *Node {
	return n.host
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// LastChild returns the last child, or nil.
func (n *Node) LastChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[len(n.children)-1]
}

// NextSibling returns the following sibling, or nil.
func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	i := n.parent.indexOf(n)
	if i < 0 || i+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[i+1]
}

// Elements returns the element children.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Kind == KindElement {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Root returns the topmost ancestor, crossing shadow boundaries.
func (n *Node) Root() *Node {
	cur := n
	for {
		switch {
		case cur.parent != nil:
			cur = cur.parent
		case cur.host != nil:
			cur = cur.host
		default:
			return cur
		}
	}
}

// IsConnected reports whether the node is attached to a document.
func (n *Node) IsConnected() bool {
	return n.Root().Kind == KindDocument
}

// OwnerDocument returns the document the node is connected to, or nil.
func (n *Node) OwnerDocument() *Document {
	return n.Root().doc
}

// Attributes

// GetAttribute returns the attribute value and whether it is present.
func (n *Node) GetAttribute(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Attr returns the attribute value, or "" when absent.
func (n *Node) Attr(key string) string {
	v, _ := n.GetAttribute(key)
	return v
}

// HasAttribute reports whether the attribute is present.
func (n *Node) HasAttribute(key string) bool {
	_, ok := n.GetAttribute(key)
	return ok
}

// SetAttribute sets an attribute, keeping the original position when it
// already exists.
func (n *Node) SetAttribute(key, value string) {
	key = strings.ToLower(key)
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Key: key, Value: value})
}

// RemoveAttribute removes an attribute if present.
func (n *Node) RemoveAttribute(key string) {
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// Attributes returns a copy of the attributes in document order.
func (n *Node) Attributes() []Attr {
	out := make([]Attr, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// ID returns the id attribute.
func (n *Node) ID() string {
	return n.Attr("id")
}

// Classes returns the class list.
func (n *Node) Classes() []string {
	return strings.Fields(n.Attr("class"))
}

// HasClass reports whether the class list contains name.
func (n *Node) HasClass(name string) bool {
	for _, c := range n.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass adds name to the class list.
func (n *Node) AddClass(name string) {
	if n.HasClass(name) {
		return
	}
	n.SetAttribute("class", strings.TrimSpace(n.Attr("class")+" "+name))
}

// RemoveClass removes name from the class list.
func (n *Node) RemoveClass(name string) {
	if !n.HasClass(name) {
		return
	}
	var kept []string
	for _, c := range n.Classes() {
		if c != name {
			kept = append(kept, c)
		}
	}
	n.SetAttribute("class", strings.Join(kept, " "))
}

// ToggleClass flips name in the class list and reports whether it is now
// present.
func (n *Node) ToggleClass(name string) bool {
	if n.HasClass(name) {
		n.RemoveClass(name)
		return false
	}
	n.AddClass(name)
	return true
}

// Value returns the current value of a form control.
func (n *Node) Value() string {
	if n.Tag == "textarea" {
		return n.Text()
	}
	return n.Attr("value")
}

// SetValue sets the current value of a form control.
func (n *Node) SetValue(v string) {
	if n.Tag == "textarea" {
		n.SetText(v)
		return
	}
	n.SetAttribute("value", v)
}

// Text returns the concatenated text of all descendant text nodes.
func (n *Node) Text() string {
	var b strings.Builder
	n.collectText(&b)
	return b.String()
}

func (n *Node) collectText(b *strings.Builder) {
	if n.Kind == KindText {
		b.WriteString(n.Data)
		return
	}
	for _, c := range n.children {
		c.collectText(b)
	}
}

// SetText replaces every child with a single text node.
func (n *Node) SetText(text string) {
	if n.Kind == KindText || n.Kind == KindComment {
		n.Data = text
		return
	}
	n.Clear()
	if text != "" {
		n.AppendChild(NewText(text))
	}
}

// Clone copies the node. Listeners, hooks and shadow roots are not copied.
func (n *Node) Clone(deep bool) *Node {
	c := &Node{
		Kind:  n.Kind,
		Tag:   n.Tag,
		Data:  n.Data,
		attrs: n.Attributes(),
	}
	if n.Kind == KindDocument {
		c.Kind = KindFragment
	}
	if deep {
		for _, child := range n.children {
			cc := child.Clone(true)
			cc.parent = c
			c.children = append(c.children, cc)
		}
	}
	return c
}

// AttachShadow attaches an isolated shadow root to an element and returns
// it. Calling it twice returns the existing root.
func (n *Node) AttachShadow() *Node {
	if n.shadow != nil {
		return n.shadow
	}
	n.shadow = &Node{Kind: KindFragment, host: n}
	return n.shadow
}

// ShadowRoot returns the attached shadow root, or nil.
func (n *Node) ShadowRoot() *Node {
	return n.shadow
}

// walk visits n and its descendants in document order, including shadow
// trees. Returning false from fn skips the node's descendants.
func (n *Node) walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	if n.shadow != nil {
		n.shadow.walk(fn)
	}
	for _, c := range n.Children() {
		c.walk(fn)
	}
}

// Descendants returns n's descendants in document order, excluding n and
// shadow trees.
func (n *Node) Descendants() []*Node {
	var out []*Node
	var visit func(*Node)
	visit = func(p *Node) {
		for _, c := range p.children {
			out = append(out, c)
			visit(c)
		}
	}
	visit(n)
	return out
}
