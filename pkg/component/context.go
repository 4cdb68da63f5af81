package component

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vango-dev/gousse/pkg/bus"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/emit"
	"github.com/vango-dev/gousse/pkg/loop"
)

// State is the lifecycle state of a component instance.
type State uint8

const (
	StateUnattached State = iota
	StateConnected
	StateDisconnected
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateUnattached:
		return "Unattached"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// Props are the properties a component is rendered with. Custom elements
// pass their attributes as strings.
type Props map[string]any

// String returns the property as a string, or "" when it is absent.
func (p Props) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// RenderFunc renders a component instance. It may return anything
// dom.Append accepts; a *loop.Promise, or a slice holding promises, is
// awaited before the instance is wired.
type RenderFunc func(ctx *Context, props Props, children []*dom.Node) any

// Context is the lifecycle and event scope of one component instance. It
// is also the emitter context of the instance's nodes: values emitted
// inside are readable with Value.
type Context struct {
	id      string
	name    string
	factory *Factory
	render  RenderFunc

	// dispatcher receives dispatched events; nil means the dispatch point
	// is the rendered node.
	dispatcher *dom.Node
	rootNode   *dom.Node

	values *emit.Values

	state        State
	onConnect    []func()
	onDisconnect []func()

	nodes []*dom.Node
	node  *dom.Node
}

func (f *Factory) newContext(name string, render RenderFunc, dispatcher, rootNode *dom.Node) *Context {
	return &Context{
		id:         uuid.NewString(),
		name:       name,
		factory:    f,
		render:     render,
		dispatcher: dispatcher,
		rootNode:   rootNode,
		values:     emit.NewValues(),
	}
}

// ID returns the instance id.
func (c *Context) ID() string { return c.id }

// Name returns the component name, "" for anonymous function components.
func (c *Context) Name() string { return c.name }

// State returns the lifecycle state.
func (c *Context) State() State { return c.state }

// Bus returns the bus the instance publishes on.
func (c *Context) Bus() *bus.Bus { return c.factory.bus }

// Nodes returns the rendered top-level nodes.
func (c *Context) Nodes() []*dom.Node {
	out := make([]*dom.Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Node returns the instance root: the element or shadow root for custom
// elements, otherwise the last rendered node.
func (c *Context) Node() *dom.Node { return c.node }

// OnConnect schedules fn for the frame after the instance connects, or
// after the current one when it is already connected. fn never runs once
// the instance has been disconnected.
func (c *Context) OnConnect(fn func()) {
	switch c.state {
	case StateUnattached:
		c.onConnect = append(c.onConnect, fn)
	case StateConnected:
		c.schedule(fn)
	}
}

func (c *Context) schedule(fn func()) {
	c.factory.loop().RequestFrame(func() {
		if c.state == StateConnected {
			fn()
		}
	})
}

// OnDisconnect registers fn to run when the instance disconnects. When it
// already has, fn runs immediately.
func (c *Context) OnDisconnect(fn func()) {
	if c.state == StateDisconnected {
		fn()
		return
	}
	c.onDisconnect = append(c.onDisconnect, fn)
}

// Connected marks the instance connected and schedules the connect
// callbacks. Only the first call has an effect.
func (c *Context) Connected() {
	if c.state != StateUnattached {
		return
	}
	c.state = StateConnected
	callbacks := c.onConnect
	c.onConnect = nil
	for _, fn := range callbacks {
		c.schedule(fn)
	}
	c.factory.logger.Debug("component connected", "component", c.name, "id", c.id)
}

// Disconnected marks the instance disconnected and runs the disconnect
// callbacks in registration order. Later calls do nothing.
func (c *Context) Disconnected() {
	if c.state == StateDisconnected {
		return
	}
	c.state = StateDisconnected
	c.onConnect = nil
	callbacks := c.onDisconnect
	c.onDisconnect = nil
	for _, fn := range callbacks {
		fn()
	}
	c.factory.logger.Debug("component disconnected", "component", c.name, "id", c.id)
}

// On subscribes fn to global events while the instance is connected.
func (c *Context) On(names []string, fn dom.Listener, once bool) {
	c.OnConnect(func() {
		off, err := c.factory.bus.Subscribe(bus.Root(), names, fn, once)
		if err != nil {
			c.factory.logger.Warn("component subscription failed", "component", c.name, "error", err)
			return
		}
		c.OnDisconnect(off)
	})
}

func (c *Context) dispatchPoint() *dom.Node {
	if c.dispatcher != nil {
		return c.dispatcher
	}
	return c.node
}

// Dispatch publishes name from the instance.
func (c *Context) Dispatch(name string, data any) {
	c.factory.bus.Publish(name, data, c.dispatchPoint())
}

// DispatchFrom stops e and publishes name from the instance in its place.
func (c *Context) DispatchFrom(e *dom.Event, name string, data any) {
	if e != nil {
		e.StopPropagation()
	}
	c.Dispatch(name, data)
}

// Emit publishes an emitted value from the instance.
func (c *Context) Emit(name string, value any) {
	emit.Emit(c.factory.bus, c.dispatchPoint(), name, value)
}

// Store records an emitted value. It makes Context an emit.Sink.
func (c *Context) Store(name string, value any) {
	c.values.Store(name, value)
}

// Value returns the last value emitted as name inside the instance.
func (c *Context) Value(name string) any {
	v, _ := c.values.Get(name)
	return v
}

// Values returns the instance's emitted values.
func (c *Context) Values() *emit.Values { return c.values }

// Query returns the first element under the instance root matching sel.
func (c *Context) Query(sel string) (*dom.Node, error) {
	if c.node == nil {
		return nil, nil
	}
	return c.node.QuerySelector(sel)
}

// QueryAll returns the elements under the instance root matching sel.
func (c *Context) QueryAll(sel string) ([]*dom.Node, error) {
	if c.node == nil {
		return nil, nil
	}
	return c.node.QuerySelectorAll(sel)
}

// Render runs the render function and wires the result. It returns the
// rendered []*dom.Node, or a *loop.Promise of them when the render function
// returned deferred content.
func (c *Context) Render(props Props, children []*dom.Node) any {
	return c.renderWith(props, children, nil)
}

func (c *Context) renderWith(props Props, children []*dom.Node, after func([]*dom.Node)) any {
	if props == nil {
		props = Props{}
	}
	_, end := c.factory.tel.StartRender(context.Background(), c.name)
	result := c.await(c.render(c, props, children))

	p, ok := result.(*loop.Promise)
	if !ok {
		nodes := c.process(result, after)
		end(nil)
		return nodes
	}

	out, resolve, reject := c.factory.loop().NewPromise()
	p.Then(func(v any, err error) {
		if err != nil {
			end(err)
			reject(err)
			return
		}
		nodes := c.process(v, after)
		end(nil)
		resolve(nodes)
	})
	return out
}

// await turns a render result into either a value ready to materialise or
// a promise of one.
func (c *Context) await(result any) any {
	switch v := result.(type) {
	case *loop.Promise:
		out, resolve, reject := c.factory.loop().NewPromise()
		v.Then(func(value any, err error) {
			if err != nil {
				reject(err)
				return
			}
			resolve(c.await(value))
		})
		return out
	case []any:
		if loop.Contains(v) {
			return loop.All(c.factory.loop(), v)
		}
	}
	return result
}

func (c *Context) process(result any, after func([]*dom.Node)) []*dom.Node {
	frag := dom.NewFragment()
	nodes := dom.Append(frag, result, nil)

	c.nodes = nodes
	c.node = c.rootNode
	if c.node == nil && len(nodes) > 0 {
		c.node = nodes[len(nodes)-1]
	}

	emit.Context(c.factory.bus, c, nodes...)
	for _, n := range nodes {
		c.factory.processor.Transform(n, c.dispatchPoint(), c.values)
	}
	if after != nil {
		after(nodes)
	}
	return c.Nodes()
}
