package dom

import (
	"strings"

	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/loop"
)

// Document is the root of a connected tree: <html><head></head><body></body></html>.
type Document struct {
	node *Node
	html *Node
	head *Node
	body *Node

	loop     *loop.Loop
	registry *CustomElementRegistry

	// LegacyMutationEvents enables the DOMNodeInsertedIntoDocument and
	// DOMNodeRemovedFromDocument notifications. Enabled by default.
	LegacyMutationEvents bool
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithoutLegacyMutationEvents disables the legacy insertion and removal
// notifications.
func WithoutLegacyMutationEvents() DocumentOption {
	return func(d *Document) {
		d.LegacyMutationEvents = false
	}
}

// NewDocument creates an empty document bound to l. Mutation observers
// created for the document deliver their records as tasks on l.
func NewDocument(l *loop.Loop, opts ...DocumentOption) *Document {
	d := &Document{
		loop:                 l,
		LegacyMutationEvents: true,
	}
	d.node = &Node{Kind: KindDocument, doc: d}
	d.registry = &CustomElementRegistry{doc: d, defs: make(map[string]Constructor)}
	d.html = NewElement("html")
	d.head = NewElement("head")
	d.body = NewElement("body")
	d.html.AppendChild(d.head)
	d.html.AppendChild(d.body)
	d.node.AppendChild(d.html)

	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Node returns the document node.
func (d *Document) Node() *Node { return d.node }

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Node { return d.html }

// Head returns the <head> element.
func (d *Document) Head() *Node { return d.head }

// Body returns the <body> element.
func (d *Document) Body() *Node { return d.body }

// Loop returns the loop the document is bound to.
func (d *Document) Loop() *loop.Loop { return d.loop }

// CustomElements returns the custom element registry.
func (d *Document) CustomElements() *CustomElementRegistry { return d.registry }

// QuerySelector returns the first element matching sel.
func (d *Document) QuerySelector(sel string) (*Node, error) {
	return d.node.QuerySelector(sel)
}

// QuerySelectorAll returns every element matching sel in document order.
func (d *Document) QuerySelectorAll(sel string) ([]*Node, error) {
	return d.node.QuerySelectorAll(sel)
}

// GetElementByID returns the first element whose id is id.
func (d *Document) GetElementByID(id string) *Node {
	var found *Node
	d.node.walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Kind == KindElement && n.ID() == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// ElementHooks are the lifecycle reactions of a custom element.
type ElementHooks interface {
	Connected()
	Disconnected()
}

// Constructor creates the hooks backing a custom element when it is
// upgraded.
type Constructor func(el *Node) ElementHooks

// CustomElementRegistry maps tag names to constructors.
type CustomElementRegistry struct {
	doc  *Document
	defs map[string]Constructor
}

// Define registers a custom element. Already connected elements with that
// tag are upgraded and connected right away.
func (r *CustomElementRegistry) Define(name string, ctor Constructor) error {
	name = strings.ToLower(name)
	if !strings.Contains(name, "-") {
		return gerrors.New("G022").WithDetail(name)
	}
	if _, exists := r.defs[name]; exists {
		return gerrors.New("G021").WithDetail(name)
	}
	r.defs[name] = ctor

	var pending []*Node
	r.doc.node.walk(func(n *Node) bool {
		if n.Kind == KindElement && n.Tag == name && !n.upgraded {
			pending = append(pending, n)
		}
		return !n.isTemplate()
	})
	for _, n := range pending {
		if !n.IsConnected() {
			continue
		}
		r.upgrade(n)
		if n.hooks != nil {
			n.hooks.Connected()
		}
	}
	return nil
}

// Get returns the constructor for name.
func (r *CustomElementRegistry) Get(name string) (Constructor, bool) {
	ctor, ok := r.defs[strings.ToLower(name)]
	return ctor, ok
}

// Names returns the defined tag names.
func (r *CustomElementRegistry) Names() []string {
	out := make([]string, 0, len(r.defs))
	for name := range r.defs {
		out = append(out, name)
	}
	return out
}

func (r *CustomElementRegistry) upgrade(n *Node) {
	if n.Kind != KindElement || n.upgraded {
		return
	}
	ctor, ok := r.defs[n.Tag]
	if !ok {
		return
	}
	n.upgraded = true
	n.hooks = ctor(n)
}

// Hooks returns the custom element hooks of an upgraded element.
func (n *Node) Hooks() ElementHooks {
	return n.hooks
}
