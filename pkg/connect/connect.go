package connect

import (
	"github.com/vango-dev/gousse/pkg/bus"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/loop"
)

// ContainerClass marks every connector container.
const ContainerClass = "gousse-connect"

// ResolvedEvent is the type of the event a Promise connector passes to its
// listener. Its Detail holds the resolved value.
const ResolvedEvent = "Resolved"

// RenderFunc re-runs the listener as if e had been delivered.
type RenderFunc func(e *dom.Event)

// Listener produces the container content for an event. e is nil for a
// rendered placeholder.
type Listener func(e *dom.Event, render RenderFunc) any

type options struct {
	placeholder any
	rendered    bool
	once        bool
	tag         string
	attrs       dom.Attrs
}

// Option configures a connector.
type Option func(*options)

// WithPlaceholder shows v until the first render.
func WithPlaceholder(v any) Option {
	return func(o *options) {
		o.placeholder = v
	}
}

// WithRenderedPlaceholder runs the listener immediately with a nil event to
// produce the initial content.
func WithRenderedPlaceholder() Option {
	return func(o *options) {
		o.rendered = true
	}
}

// Once stops listening after the first delivered event.
func Once() Option {
	return func(o *options) {
		o.once = true
	}
}

// WithTag sets the container tag (default "div").
func WithTag(tag string) Option {
	return func(o *options) {
		o.tag = tag
	}
}

// WithAttrs adds attributes to the container. A class given here replaces
// the default one.
func WithAttrs(attrs dom.Attrs) Option {
	return func(o *options) {
		o.attrs = attrs
	}
}

type connector struct {
	bus       *bus.Bus
	container *dom.Node
}

func newConnector(b *bus.Bus, opts []Option) (*connector, options) {
	o := options{tag: "div"}
	for _, opt := range opts {
		opt(&o)
	}
	container := dom.H(o.tag, dom.Class(ContainerClass), o.attrs)
	return &connector{bus: b, container: container}, o
}

func (c *connector) renderFunc(listener Listener) RenderFunc {
	var render RenderFunc
	render = func(e *dom.Event) {
		c.apply(listener(e, render))
	}
	return render
}

// apply updates the container from a listener result. false clears it,
// other falsy results (see dom.Truthy) leave it untouched and a promise is
// applied once it resolves.
func (c *connector) apply(result any) {
	switch v := result.(type) {
	case bool:
		if !v {
			c.container.Clear()
			return
		}
	case *loop.Promise:
		if v == nil {
			return
		}
		v.Then(func(value any, err error) {
			if err != nil {
				c.bus.Logger().Warn("connector result rejected", "error", err)
				return
			}
			c.apply(value)
		})
		return
	}
	if !dom.Truthy(result) {
		return
	}
	dom.Content(c.container, result)
}

// listen subscribes fn to names on the root for as long as the container is
// in the document. The subscription starts at once, is dropped when the
// container is disconnected and restored when it is connected again, unless
// a once subscription has already fired.
func (c *connector) listen(names []string, fn dom.Listener, once bool) {
	var (
		off   bus.Off
		fired bool
	)
	handler := fn
	if once {
		handler = func(e *dom.Event) {
			fired = true
			fn(e)
		}
	}
	subscribe := func() {
		var err error
		if off, err = c.bus.Subscribe(bus.Root(), names, handler, once); err != nil {
			c.bus.Logger().Warn("connector subscription failed", "events", names, "error", err)
		}
	}
	subscribe()
	c.container.WatchConnection(func(connected bool) {
		if connected {
			if off == nil && !fired {
				subscribe()
			}
			return
		}
		if off != nil {
			off()
			off = nil
		}
	})
}

func (c *connector) placeholder(o options, render RenderFunc) {
	if o.rendered {
		if render != nil {
			render(nil)
		}
		return
	}
	dom.Append(c.container, o.placeholder, nil)
}

// Events re-renders the returned container each time one of names is
// published globally. Publications are not delivered while the container is
// detached after having been in the document.
func Events(b *bus.Bus, names []string, listener Listener, opts ...Option) *dom.Node {
	c, o := newConnector(b, opts)
	render := c.renderFunc(listener)
	c.listen(names, func(e *dom.Event) { render(e) }, o.once)
	c.placeholder(o, render)
	return c.container
}

// Promise renders the returned container once p resolves. The listener
// receives a ResolvedEvent carrying the value. A rejection is logged and
// leaves the placeholder in place.
func Promise(b *bus.Bus, p *loop.Promise, listener Listener, opts ...Option) *dom.Node {
	c, o := newConnector(b, opts)
	render := c.renderFunc(listener)
	p.Then(func(value any, err error) {
		if err != nil {
			b.Logger().Warn("connected promise rejected", "error", err)
			return
		}
		render(dom.NewEvent(ResolvedEvent, value, false))
	})
	c.placeholder(o, render)
	return c.container
}

// Map gives each event name its own listener, all rendering into the
// returned container. Once and WithRenderedPlaceholder do not apply.
func Map(b *bus.Bus, handlers map[string]Listener, opts ...Option) *dom.Node {
	c, o := newConnector(b, opts)
	for name, listener := range handlers {
		render := c.renderFunc(listener)
		c.listen([]string{name}, func(e *dom.Event) { render(e) }, false)
	}
	dom.Append(c.container, o.placeholder, nil)
	return c.container
}
