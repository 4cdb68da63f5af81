package emit

import (
	"encoding/json"
	"sync"

	"github.com/vango-dev/gousse/pkg/bus"
	"github.com/vango-dev/gousse/pkg/dom"
)

// DefaultTriggers are the events an emitter listens to when none are given.
var DefaultTriggers = []string{"change", "keyup"}

// Emitted is the detail of a ValueEmitted event.
type Emitted struct {
	Name  string `json:"name" msgpack:"name"`
	Value any    `json:"value" msgpack:"value"`
}

// Sink stores emitted values.
type Sink interface {
	Store(name string, value any)
}

// Values is a Sink backed by a map. It is safe for concurrent use.
type Values struct {
	mu   sync.RWMutex
	vals map[string]any
}

// NewValues creates an empty Values.
func NewValues() *Values {
	return &Values{vals: make(map[string]any)}
}

// Store records value under name, replacing any earlier value.
func (v *Values) Store(name string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.vals == nil {
		v.vals = make(map[string]any)
	}
	v.vals[name] = value
}

// Get returns the value stored under name.
func (v *Values) Get(name string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.vals[name]
	return val, ok
}

// Snapshot returns a copy of all stored values.
func (v *Values) Snapshot() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]any, len(v.vals))
	for k, val := range v.vals {
		out[k] = val
	}
	return out
}

// MarshalJSON encodes the current values as a JSON object.
func (v *Values) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Snapshot())
}

// Emitter makes node publish its current value as name each time one of
// the trigger events fires on it. It returns node.
func Emitter(b *bus.Bus, node *dom.Node, name string, triggers ...string) *dom.Node {
	if len(triggers) == 0 {
		triggers = DefaultTriggers
	}
	for _, trigger := range triggers {
		node.AddEventListener(trigger, func(e *dom.Event) {
			src := e.Target
			if src == nil {
				src = node
			}
			b.Publish(bus.ValueEmitted, Emitted{Name: name, Value: src.Value()}, node)
		})
	}
	return node
}

// Emit publishes value as name from node.
func Emit(b *bus.Bus, node *dom.Node, name string, value any) {
	b.Publish(bus.ValueEmitted, Emitted{Name: name, Value: value}, node)
}

// Context attaches an emitter context to nodes. Fragments are unwrapped
// recursively, so their children are registered rather than the fragment
// itself. It returns the registered nodes.
func Context(b *bus.Bus, sink Sink, nodes ...*dom.Node) []*dom.Node {
	var out []*dom.Node
	for _, n := range nodes {
		out = appendContext(b, sink, n, out)
	}
	return out
}

func appendContext(b *bus.Bus, sink Sink, n *dom.Node, out []*dom.Node) []*dom.Node {
	if n == nil {
		return out
	}
	if n.Kind == dom.KindFragment {
		for _, c := range n.Children() {
			out = appendContext(b, sink, c, out)
		}
		return out
	}
	n.AddEventListener(bus.ValueEmitted, func(e *dom.Event) {
		em, ok := e.Detail.(Emitted)
		if !ok {
			return
		}
		e.StopPropagation()
		sink.Store(em.Name, em.Value)
	})
	return append(out, n)
}
