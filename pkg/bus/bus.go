package bus

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/telemetry"
)

// Reserved event names.
const (
	RouteChanged     = "RouteChanged"
	RouteHashChanged = "RouteHashChanged"
	ValueEmitted     = "ValueEmitted"
	AppReady         = "AppReady"
	GousseReady      = "GousseReady"
)

// Off cancels a subscription. Calling it more than once is a no-op.
type Off func()

// Handlers maps event names to listeners.
type Handlers map[string]dom.Listener

// Bus publishes and subscribes to events on one document.
type Bus struct {
	doc    *dom.Document
	logger *slog.Logger
	tel    *telemetry.Telemetry
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the bus logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithTelemetry counts publications and live subscriptions.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(b *Bus) {
		b.tel = t
	}
}

// New creates a bus over doc.
func New(doc *dom.Document, opts ...Option) *Bus {
	b := &Bus{doc: doc, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Document returns the document the bus dispatches on.
func (b *Bus) Document() *dom.Document { return b.doc }

// Logger returns the bus logger.
func (b *Bus) Logger() *slog.Logger { return b.logger }

// Telemetry returns the bus telemetry, possibly nil.
func (b *Bus) Telemetry() *telemetry.Telemetry { return b.tel }

type registration struct {
	node *dom.Node
	name string
	id   dom.ListenerID
}

// Subscribe registers fn for each event name on the target's nodes. With
// once set, the whole subscription is cancelled after the first delivery.
// The returned Off removes every registration at once.
func (b *Bus) Subscribe(target Target, names []string, fn dom.Listener, once bool) (Off, error) {
	if target == nil {
		target = Root()
	}
	nodes, err := target.Nodes(b.doc)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		regs  []registration
		done  bool
		count int
	)
	off := func() {
		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		done = true
		pending := regs
		regs = nil
		mu.Unlock()
		for _, r := range pending {
			r.node.RemoveEventListener(r.name, r.id)
		}
		b.tel.Subscribed(-count)
	}

	wrapped := func(e *dom.Event) {
		fn(e)
		if once {
			off()
		}
	}
	for _, n := range nodes {
		for _, name := range names {
			id := n.AddEventListener(name, wrapped)
			regs = append(regs, registration{node: n, name: name, id: id})
		}
	}
	count = len(regs)
	b.tel.Subscribed(count)
	b.logger.Debug("bus subscribe", "events", names, "nodes", len(nodes), "once", once)
	return off, nil
}

// SubscribeMap registers each handler under its event name.
func (b *Bus) SubscribeMap(target Target, handlers Handlers) (Off, error) {
	offs := make([]Off, 0, len(handlers))
	for name, fn := range handlers {
		off, err := b.Subscribe(target, []string{name}, fn, false)
		if err != nil {
			for _, o := range offs {
				o()
			}
			return nil, err
		}
		offs = append(offs, off)
	}
	return func() {
		for _, o := range offs {
			o()
		}
	}, nil
}

// On subscribes fn to global events published on the document body.
func (b *Bus) On(fn dom.Listener, names ...string) Off {
	off, _ := b.Subscribe(Root(), names, fn, false)
	return off
}

// Publish dispatches a bubbling event carrying data from target, or from
// the document body when target is nil.
func (b *Bus) Publish(name string, data any, target *dom.Node) {
	if target == nil {
		target = b.doc.Body()
	}
	b.tel.Published(name)
	target.DispatchEvent(dom.NewEvent(name, data, true))
}
