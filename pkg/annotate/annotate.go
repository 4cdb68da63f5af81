package annotate

import (
	"fmt"
	"log/slog"

	"github.com/vango-dev/gousse/pkg/bus"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/emit"
)

// Built-in annotation names. Each is read from the data-<name> attribute.
const (
	Dispatch = "dispatch"
	Emit     = "emit"
	Connect  = "connect"
	Emitted  = "emitted"
)

// HiddenClass hides connected nodes until their event is published.
const HiddenClass = "gousse-hide"

// Visibility modes of data-connect.
const (
	VisibilityShow   = "show"
	VisibilityHide   = "hide"
	VisibilityToggle = "toggle"
)

// Scope is what a handler sees while a subtree is transformed.
type Scope struct {
	// Bus is the processor's bus.
	Bus *bus.Bus

	// Root is the dispatch point: dispatched and emitted events are
	// published from or observed on it. nil means the document body.
	Root *dom.Node

	// Vars are the interpolation variables.
	Vars any

	// Logger reports interpolation failures.
	Logger *slog.Logger
}

// Interpolate fills tpl from envs, then from the scope variables, logging
// any failure.
func (s *Scope) Interpolate(tpl string, envs ...any) string {
	out, err := Interpolate(tpl, append(envs, s.Vars)...)
	if err != nil {
		s.Logger.Warn("annotation interpolation failed", "template", tpl, "error", err)
	}
	return out
}

// Handler binds one annotated node. value is the annotation attribute value.
type Handler func(s *Scope, node *dom.Node, value string)

// Processor holds the known annotations.
type Processor struct {
	bus      *bus.Bus
	logger   *slog.Logger
	handlers map[string]Handler
	order    []string
}

// New creates a processor with the built-in annotations registered.
func New(b *bus.Bus) *Processor {
	p := &Processor{
		bus:      b,
		logger:   b.Logger(),
		handlers: make(map[string]Handler),
	}
	p.Register(Dispatch, dispatchHandler)
	p.Register(Emit, emitHandler)
	p.Register(Connect, connectHandler)
	p.Register(Emitted, emittedHandler)
	return p
}

// Register adds or replaces the handler for data-<name>. Annotations are
// applied in registration order.
func (p *Processor) Register(name string, h Handler) {
	if _, ok := p.handlers[name]; !ok {
		p.order = append(p.order, name)
	}
	p.handlers[name] = h
}

// Names returns the registered annotation names in order.
func (p *Processor) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Transform binds every annotation found on node and its descendants. root
// is the dispatch point handed to handlers.
func (p *Processor) Transform(node, root *dom.Node, vars any) {
	if node == nil {
		return
	}
	scope := &Scope{Bus: p.bus, Root: root, Vars: vars, Logger: p.logger}
	candidates := collect(node, nil)

	for _, name := range p.order {
		attr := "data-" + name
		h := p.handlers[name]
		for _, n := range candidates {
			if n.Kind != dom.KindElement {
				continue
			}
			if value, ok := n.GetAttribute(attr); ok {
				h(scope, n, value)
			}
		}
	}
}

// collect lists n and its descendants in document order, leaving out the
// inert content of template elements.
func collect(n *dom.Node, out []*dom.Node) []*dom.Node {
	out = append(out, n)
	if n.Kind == dom.KindElement && n.Tag == "template" {
		return out
	}
	for _, c := range n.Children() {
		out = collect(c, out)
	}
	return out
}

func dispatchHandler(s *Scope, node *dom.Node, value string) {
	trigger := node.Attr("data-dispatch-event")
	if trigger == "" {
		trigger = "click"
	}
	node.AddEventListener(trigger, func(*dom.Event) {
		var data any
		if tpl, ok := node.GetAttribute("data-dispatch-value"); ok {
			data = s.Interpolate(tpl)
		}
		s.Bus.Publish(value, data, s.Root)
	})
}

func emitHandler(s *Scope, node *dom.Node, value string) {
	emit.Emitter(s.Bus, node, value)
}

type eventEnv struct {
	Event eventView `json:"event"`
}

type eventView struct {
	Type   string `json:"type"`
	Detail any    `json:"detail"`
}

func connectHandler(s *Scope, node *dom.Node, value string) {
	visibility := node.Attr("data-visibility")
	if visibility == "" {
		visibility = VisibilityShow
	}
	if visibility != VisibilityHide {
		node.AddClass(HiddenClass)
	}
	s.Bus.On(func(e *dom.Event) {
		if tpl, ok := node.GetAttribute("data-content"); ok {
			node.SetText(s.Interpolate(tpl, eventEnv{Event: eventView{Type: e.Type, Detail: e.Detail}}))
		}
		switch visibility {
		case VisibilityHide:
			node.AddClass(HiddenClass)
		case VisibilityToggle:
			node.ToggleClass(HiddenClass)
		default:
			node.RemoveClass(HiddenClass)
		}
	}, value)
}

type valueEnv struct {
	Value any `json:"value"`
}

func emittedHandler(s *Scope, node *dom.Node, value string) {
	target := s.Root
	if target == nil {
		target = s.Bus.Document().Body()
	}
	target.AddEventListener(bus.ValueEmitted, func(e *dom.Event) {
		em, ok := e.Detail.(emit.Emitted)
		if !ok || em.Name != value {
			return
		}
		if tpl, ok := node.GetAttribute("data-content"); ok {
			node.SetText(s.Interpolate(tpl, valueEnv{Value: em.Value}))
			return
		}
		if em.Value == nil {
			node.SetText("")
			return
		}
		node.SetText(fmt.Sprint(em.Value))
	})
}
