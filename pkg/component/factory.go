package component

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/annotate"
	"github.com/vango-dev/gousse/pkg/bus"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/loop"
	"github.com/vango-dev/gousse/pkg/telemetry"
)

// ShadowMode selects how a custom element holds its rendered content.
type ShadowMode uint8

const (
	// ShadowNone renders into the element itself.
	ShadowNone ShadowMode = iota
	// ShadowOpen renders into an attached shadow root.
	ShadowOpen
	// ShadowReplace swaps the element for the rendered nodes.
	ShadowReplace
)

// String returns the mode name used in configuration and markup.
func (m ShadowMode) String() string {
	switch m {
	case ShadowNone:
		return "none"
	case ShadowOpen:
		return "open"
	case ShadowReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// ParseShadowMode parses a shadow mode. "", "false" and "none" select
// ShadowNone; "true" and "open" select ShadowOpen.
func ParseShadowMode(s string) (ShadowMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "none":
		return ShadowNone, nil
	case "true", "open":
		return ShadowOpen, nil
	case "replace":
		return ShadowReplace, nil
	}
	return ShadowNone, gerrors.New("G023").WithDetail(s)
}

// VirtualSlotText is the comment marking where late children of a
// non-shadowed custom element are moved.
const VirtualSlotText = "slot"

// Func creates a component instance. The result is accepted by dom.Append.
type Func func(props Props, children ...any) any

// Factory defines components against one document.
type Factory struct {
	doc       *dom.Document
	bus       *bus.Bus
	processor *annotate.Processor
	tel       *telemetry.Telemetry
	logger    *slog.Logger

	customElements bool
	defaultShadow  ShadowMode
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the factory logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithTelemetry records render spans and durations.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(f *Factory) {
		f.tel = t
	}
}

// WithCustomElements enables or disables custom element definitions.
// Without them, named components fall back to constructor functions.
func WithCustomElements(enabled bool) Option {
	return func(f *Factory) {
		f.customElements = enabled
	}
}

// WithDefaultShadow sets the shadow mode used when Define is not given one.
func WithDefaultShadow(mode ShadowMode) Option {
	return func(f *Factory) {
		f.defaultShadow = mode
	}
}

// NewFactory creates a factory publishing on b and transforming rendered
// nodes with processor.
func NewFactory(b *bus.Bus, processor *annotate.Processor, opts ...Option) *Factory {
	f := &Factory{
		doc:            b.Document(),
		bus:            b,
		processor:      processor,
		logger:         b.Logger(),
		customElements: true,
		defaultShadow:  ShadowNone,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) loop() *loop.Loop { return f.doc.Loop() }

// CustomElementsAvailable reports whether Define creates custom elements.
func (f *Factory) CustomElementsAvailable() bool { return f.customElements }

// Define registers name as a custom element rendered by render and returns
// a constructor creating such elements. In ShadowReplace mode, or when
// custom elements are unavailable, the constructor renders directly like
// Func does.
func (f *Factory) Define(name string, render RenderFunc, shadow ...ShadowMode) (Func, error) {
	if !f.customElements {
		f.logger.Warn("custom elements unavailable, using function component",
			"component", name, "error", gerrors.New("G020").WithDetail(name))
		return f.function(name, render), nil
	}

	mode := f.defaultShadow
	if len(shadow) > 0 {
		mode = shadow[0]
	}
	if mode > ShadowReplace {
		return nil, gerrors.New("G023").WithDetailf("%d", mode)
	}

	err := f.doc.CustomElements().Define(name, func(el *dom.Node) dom.ElementHooks {
		return f.newElement(name, render, mode, el)
	})
	if err != nil {
		return nil, err
	}
	f.logger.Debug("component defined", "component", name, "shadow", mode.String())

	if mode == ShadowReplace {
		return f.function(name, render), nil
	}
	return func(props Props, children ...any) any {
		return dom.H(name, propsAttrs(props), children)
	}, nil
}

// Func returns a constructor for an anonymous function component.
func (f *Factory) Func(render RenderFunc) Func {
	return f.function("", render)
}

// function renders immediately and uses the legacy insertion and removal
// notifications of the instance root as its lifecycle signals. When the
// document has them disabled it watches the root's connection instead.
func (f *Factory) function(name string, render RenderFunc) Func {
	return func(props Props, children ...any) any {
		ctx := f.newContext(name, render, nil, nil)
		holder := dom.NewFragment()
		kids := dom.Append(holder, children, nil)
		return ctx.renderWith(props, kids, func([]*dom.Node) {
			if ctx.node == nil {
				return
			}
			if f.doc.LegacyMutationEvents {
				ctx.node.AddEventListener(dom.EventInsertedIntoDocument, func(*dom.Event) { ctx.Connected() })
				ctx.node.AddEventListener(dom.EventRemovedFromDocument, func(*dom.Event) { ctx.Disconnected() })
				return
			}
			var cancel func()
			cancel = ctx.node.WatchConnection(func(connected bool) {
				if connected {
					ctx.Connected()
					return
				}
				cancel()
				ctx.Disconnected()
			})
		})
	}
}

func propsAttrs(props Props) dom.Attrs {
	if len(props) == 0 {
		return nil
	}
	attrs := make(dom.Attrs, len(props))
	for k, v := range props {
		if v == nil {
			continue
		}
		attrs[k] = fmt.Sprint(v)
	}
	return attrs
}

// element backs one custom element instance.
type element struct {
	factory  *Factory
	el       *dom.Node
	mode     ShadowMode
	root     *dom.Node
	ctx      *Context
	slot     *dom.Node
	observer *dom.MutationObserver
	replaced bool
}

func (f *Factory) newElement(name string, render RenderFunc, mode ShadowMode, el *dom.Node) *element {
	e := &element{factory: f, el: el, mode: mode, root: el, slot: dom.NewComment(VirtualSlotText)}
	switch mode {
	case ShadowOpen:
		e.root = el.AttachShadow()
		e.ctx = f.newContext(name, render, el, e.root)
	case ShadowReplace:
		e.ctx = f.newContext(name, render, nil, nil)
	default:
		e.ctx = f.newContext(name, render, el, el)
	}
	return e
}

// FromElement returns the instance context of an upgraded component element.
func FromElement(el *dom.Node) (*Context, bool) {
	if el == nil {
		return nil, false
	}
	e, ok := el.Hooks().(*element)
	if !ok {
		return nil, false
	}
	return e.ctx, true
}

func (e *element) Connected() {
	if e.replaced || e.ctx.State() != StateUnattached {
		return
	}

	props := Props{}
	for _, a := range e.el.Attributes() {
		props[a.Key] = a.Value
	}
	children := e.el.Children()
	if e.mode != ShadowOpen {
		children = append(children, e.slot)
	}

	result := e.ctx.Render(props, children)
	if p, ok := result.(*loop.Promise); ok {
		p.Then(func(v any, err error) {
			if err != nil {
				e.factory.logger.Error("component render failed", "component", e.ctx.name, "error", err)
				return
			}
			nodes, _ := v.([]*dom.Node)
			e.mount(nodes)
		})
		return
	}
	nodes, _ := result.([]*dom.Node)
	e.mount(nodes)
}

func (e *element) mount(nodes []*dom.Node) {
	if e.ctx.State() == StateDisconnected {
		return
	}
	if e.mode == ShadowReplace {
		if len(nodes) == 0 || !e.el.IsConnected() {
			return
		}
		e.replaced = true
		if err := e.el.ReplaceWith(nodes...); err != nil {
			e.factory.logger.Error("component replace failed", "component", e.ctx.name, "error", err)
			return
		}
		var cancel func()
		cancel = e.ctx.node.WatchConnection(func(connected bool) {
			if !connected {
				cancel()
				e.teardown()
			}
		})
	} else {
		dom.Content(e.root, nodes)
	}

	if e.mode != ShadowOpen {
		e.observer = dom.NewMutationObserver(e.factory.loop(), e.relocate)
		e.observer.Observe(e.el)
	}
	e.ctx.Connected()
}

// relocate moves children added to the element after rendering in front of
// the virtual slot.
func (e *element) relocate(records []dom.MutationRecord, _ *dom.MutationObserver) {
	target := e.slot.Parent()
	if target == nil {
		return
	}
	for _, rec := range records {
		for _, n := range rec.Added {
			if n.Parent() == e.el {
				_ = target.InsertBefore(n, e.slot)
			}
		}
	}
}

func (e *element) Disconnected() {
	if e.replaced {
		return
	}
	e.teardown()
}

func (e *element) teardown() {
	if e.observer != nil {
		e.observer.Disconnect()
	}
	e.ctx.Disconnected()
}

// Names returns the custom element names defined on the document, sorted.
func (f *Factory) Names() []string {
	names := f.doc.CustomElements().Names()
	sort.Strings(names)
	return names
}
