package dom

import (
	"sort"
	"strings"
)

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// Attrs is a set of attributes applied in key order.
type Attrs map[string]string

// EventHandler binds a listener when passed to H.
type EventHandler struct {
	Event    string
	Listener Listener
	Once     bool
}

// H creates an element. Arguments can be: nil, Attr, []Attr, Attrs,
// EventHandler, or any child accepted by Append.
func H(tag string, args ...any) *Node {
	node := NewElement(tag)
	var children []any

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			if v.Key != "" {
				node.SetAttribute(v.Key, v.Value)
			}
		case []Attr:
			for _, a := range v {
				if a.Key != "" {
					node.SetAttribute(a.Key, a.Value)
				}
			}
		case Attrs:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				node.SetAttribute(k, v[k])
			}
		case EventHandler:
			node.addListener(v.Event, v.Listener, v.Once)
		default:
			children = append(children, v)
		}
	}

	if len(children) > 0 {
		Append(node, children, nil)
	}
	return node
}

// Fragment groups children without a wrapper element.
func Fragment(children ...any) *Node {
	f := NewFragment()
	Append(f, children, nil)
	return f
}

// Text creates a text node.
func Text(content string) *Node {
	return NewText(content)
}

// Attribute creates an attribute.
func Attribute(key, value string) Attr { return Attr{Key: key, Value: value} }

// ID sets the id attribute.
func ID(id string) Attr { return Attribute("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return Attribute("class", strings.Join(classes, " ")) }

// Data creates a data-* attribute.
// Example: Data("emit", "name") → data-emit="name"
func Data(key, value string) Attr { return Attribute("data-"+key, value) }

// Href sets the href attribute.
func Href(url string) Attr { return Attribute("href", url) }

// Type sets the type attribute.
func Type(t string) Attr { return Attribute("type", t) }

// Name sets the name attribute.
func Name(name string) Attr { return Attribute("name", name) }

// Value sets the value attribute.
func Value(v string) Attr { return Attribute("value", v) }

// On binds fn to the event typ.
func On(typ string, fn Listener) EventHandler {
	return EventHandler{Event: typ, Listener: fn}
}

// Once binds fn to the first typ event only.
func Once(typ string, fn Listener) EventHandler {
	return EventHandler{Event: typ, Listener: fn, Once: true}
}

// OnClick handles click events.
func OnClick(fn Listener) EventHandler { return On("click", fn) }

// OnChange handles change events.
func OnChange(fn Listener) EventHandler { return On("change", fn) }

// OnInput handles input events.
func OnInput(fn Listener) EventHandler { return On("input", fn) }

// OnKeyUp handles keyup events.
func OnKeyUp(fn Listener) EventHandler { return On("keyup", fn) }

// OnSubmit handles submit events.
func OnSubmit(fn Listener) EventHandler { return On("submit", fn) }
