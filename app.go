package gousse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/vango-dev/gousse/internal/config"
	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/annotate"
	"github.com/vango-dev/gousse/pkg/bus"
	"github.com/vango-dev/gousse/pkg/component"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/emit"
	"github.com/vango-dev/gousse/pkg/loop"
	"github.com/vango-dev/gousse/pkg/router"
	"github.com/vango-dev/gousse/pkg/telemetry"
)

// =============================================================================
// App Type
// =============================================================================

// App is one document with its loop, bus, components and router.
type App struct {
	config    *config.Config
	logger    *slog.Logger
	tel       *telemetry.Telemetry
	loop      *loop.Loop
	doc       *dom.Document
	bus       *bus.Bus
	processor *annotate.Processor
	factory   *component.Factory
	router    *router.Router
	emitted   *emit.Values

	mu            sync.Mutex
	readyPromises []any
	booted        *loop.Promise
	ready         bool
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	logger  *slog.Logger
	tel     *telemetry.Telemetry
	loop    *loop.Loop
	history *router.History
	url     string
}

// WithLogger sets the logger shared by every part of the App.
func WithLogger(logger *slog.Logger) Option {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithTelemetry records metrics and spans.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(o *appOptions) {
		o.tel = t
	}
}

// WithLoop runs the App on an existing loop.
func WithLoop(l *loop.Loop) Option {
	return func(o *appOptions) {
		o.loop = l
	}
}

// WithHistory sets the push-state history, typically positioned on the
// requested URL.
func WithHistory(h *router.History) Option {
	return func(o *appOptions) {
		o.history = h
	}
}

// WithURL sets the location the router starts on, in either mode.
func WithURL(url string) Option {
	return func(o *appOptions) {
		o.url = url
	}
}

// New creates an App. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	o := appOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	l := o.loop
	if l == nil {
		l = loop.New(loop.WithLogger(logger))
	}

	var docOpts []dom.DocumentOption
	if !cfg.DOM.LegacyMutationEvents {
		docOpts = append(docOpts, dom.WithoutLegacyMutationEvents())
	}
	doc := dom.NewDocument(l, docOpts...)
	b := bus.New(doc, bus.WithLogger(logger), bus.WithTelemetry(o.tel))
	processor := annotate.New(b)

	a := &App{
		config:    cfg,
		logger:    logger,
		tel:       o.tel,
		loop:      l,
		doc:       doc,
		bus:       b,
		processor: processor,
		factory: component.NewFactory(b, processor,
			component.WithLogger(logger),
			component.WithTelemetry(o.tel),
			component.WithCustomElements(cfg.Components.CustomElements),
			component.WithDefaultShadow(cfg.DefaultShadow()),
		),
		emitted: emit.NewValues(),
	}

	routerOpts := []router.Option{
		router.WithMode(cfg.RouterMode()),
		router.WithLogger(logger),
		router.WithTelemetry(o.tel),
	}
	if o.history == nil && o.url != "" {
		o.history = router.NewHistory(o.url)
	}
	if o.history != nil {
		routerOpts = append(routerOpts, router.WithHistory(o.history))
	}
	if o.url != "" {
		routerOpts = append(routerOpts, router.WithHash(o.url))
	}
	a.router = router.New(b, routerOpts...)
	a.router.RegisterAnnotations(processor)

	a.Ready(func() any {
		a.autoStart()
		return nil
	})
	a.Ready(func() any {
		a.router.Start()
		return nil
	})
	return a
}

// =============================================================================
// Getters
// =============================================================================

// Config returns the App configuration.
func (a *App) Config() *config.Config { return a.config }

// Logger returns the App logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Telemetry returns the telemetry, which may be nil.
func (a *App) Telemetry() *telemetry.Telemetry { return a.tel }

// Loop returns the App loop.
func (a *App) Loop() *loop.Loop { return a.loop }

// Document returns the App document.
func (a *App) Document() *dom.Document { return a.doc }

// Bus returns the event bus.
func (a *App) Bus() *bus.Bus { return a.bus }

// Processor returns the annotation processor.
func (a *App) Processor() *annotate.Processor { return a.processor }

// Factory returns the component factory.
func (a *App) Factory() *component.Factory { return a.factory }

// Router returns the router.
func (a *App) Router() *router.Router { return a.router }

// Emitted returns the values caught by the root emitter context.
func (a *App) Emitted() *emit.Values { return a.emitted }

// =============================================================================
// Ready
// =============================================================================

// Ready runs fn once the App is booted, right away when it already is, and
// returns a promise of fn's result. A nil fn resolves to true.
func (a *App) Ready(fn func() any) *loop.Promise {
	p, resolve, reject := a.loop.NewPromise()
	run := func() {
		defer func() {
			if r := recover(); r != nil {
				reject(fmt.Errorf("gousse: ready callback panicked: %v", r))
			}
		}()
		if fn == nil {
			resolve(true)
			return
		}
		resolve(fn())
	}

	a.mu.Lock()
	ready := a.ready
	a.mu.Unlock()
	if ready {
		run()
		return p
	}
	_, _ = a.bus.Subscribe(bus.Root(), []string{bus.GousseReady}, func(*dom.Event) { run() }, true)
	return p
}

// AddReadyPromise delays Boot until p resolves. Promises added after Boot
// are ignored.
func (a *App) AddReadyPromise(p *loop.Promise) {
	if p == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.booted != nil {
		a.logger.Warn("ready promise added after boot")
		return
	}
	a.readyPromises = append(a.readyPromises, p)
}

// IsReady reports whether GousseReady has been published.
func (a *App) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// Boot waits for the ready promises, then publishes GousseReady. Ready
// callbacks run in registration order, starting with the built-in ones:
// the .app-root element is started, template[data-component] elements
// become components and the hidden class style is added to the head. The
// returned promise resolves once that is done. When a ready promise
// rejects, the App never becomes ready. Boot is idempotent.
func (a *App) Boot() *loop.Promise {
	a.mu.Lock()
	if a.booted != nil {
		p := a.booted
		a.mu.Unlock()
		return p
	}
	p, resolve, reject := a.loop.NewPromise()
	a.booted = p
	items := a.readyPromises
	a.readyPromises = nil
	a.mu.Unlock()

	loop.All(a.loop, items).Then(func(_ any, err error) {
		if err != nil {
			err = gerrors.FromError(err, "G040").WithDetail("ready promise")
			a.logger.Error("boot aborted", "error", err)
			reject(err)
			return
		}
		a.mu.Lock()
		a.ready = true
		a.mu.Unlock()
		a.bus.Publish(bus.GousseReady, nil, nil)
		resolve(true)
	})
	return p
}

func (a *App) autoStart() {
	if root, err := a.doc.QuerySelector(".app-root"); err == nil && root != nil {
		a.start(root, Spec{})
	}

	if a.factory.CustomElementsAvailable() {
		templates, _ := a.doc.QuerySelectorAll("template[data-component]")
		for _, tpl := range templates {
			if err := a.DefineTemplate(tpl); err != nil {
				a.logger.Warn("template component not defined", "component", tpl.Attr("data-component"), "error", err)
			}
		}
	}

	a.doc.Head().AppendChild(dom.H("style", dom.Type("text/css"), HiddenStyle))
}

// =============================================================================
// Start
// =============================================================================

// Spec describes the content of a started root. At most one of Render and
// Content is used, Render first.
type Spec struct {
	// Render builds the content appended to the root.
	Render func(root *dom.Node) any

	// Content is appended to the root as is. It accepts anything dom.Append
	// does, promises included.
	Content any

	// Handlers are subscribed globally.
	Handlers bus.Handlers
}

// Start sets up root once the App is ready: annotations under root are
// bound, root becomes the outermost emitter context feeding Emitted, the
// spec content is appended or its handlers subscribed, and AppReady is
// published. A nil root is the body.
func (a *App) Start(root *dom.Node, spec Spec) *loop.Promise {
	return a.Ready(func() any {
		return a.start(root, spec)
	})
}

func (a *App) start(root *dom.Node, spec Spec) *dom.Node {
	if root == nil {
		root = a.doc.Body()
	}
	a.processor.Transform(root, root, a.emitted)
	emit.Context(a.bus, a.emitted, root)

	switch {
	case spec.Render != nil:
		dom.Append(root, spec.Render(root), nil)
	case spec.Content != nil:
		dom.Append(root, spec.Content, nil)
	}
	if len(spec.Handlers) > 0 {
		if _, err := a.bus.SubscribeMap(bus.Root(), spec.Handlers); err != nil {
			a.logger.Warn("app handlers not subscribed", "error", err)
		}
	}

	a.bus.Publish(bus.AppReady, nil, nil)
	return root
}

// =============================================================================
// Components
// =============================================================================

// Define registers a component; see component.Factory.Define.
func (a *App) Define(name string, render component.RenderFunc, shadow ...component.ShadowMode) (component.Func, error) {
	return a.factory.Define(name, render, shadow...)
}

// DefineTemplate registers the component named by the data-component
// attribute of tpl, rendering tpl's content with the props as vars and the
// children in its <slot>. data-shadow selects the shadow mode.
func (a *App) DefineTemplate(tpl *dom.Node) error {
	name := strings.TrimSpace(tpl.Attr("data-component"))
	if name == "" {
		return gerrors.New("G022").WithDetail("empty data-component")
	}
	var shadow []component.ShadowMode
	if value, ok := tpl.GetAttribute("data-shadow"); ok {
		mode, err := component.ParseShadowMode(value)
		if err != nil {
			return err
		}
		shadow = append(shadow, mode)
	}

	_, err := a.factory.Define(name, func(ctx *component.Context, props component.Props, children []*dom.Node) any {
		kids := make([]any, len(children))
		for i, c := range children {
			kids[i] = c
		}
		out, err := component.Template(tpl, component.TemplateData{Vars: props}, kids...)
		if err != nil {
			a.logger.Warn("template render failed", "component", name, "error", err)
			return nil
		}
		return out
	}, shadow...)
	return err
}

// =============================================================================
// Document
// =============================================================================

// LoadHTML replaces the document head and body with a parsed page.
func (a *App) LoadHTML(r io.Reader) error {
	return dom.LoadDocument(a.doc, r)
}

// Drain runs the loop until it is idle and every promise has settled.
func (a *App) Drain(ctx context.Context) error {
	return a.loop.Drain(ctx)
}

// HTML renders the whole document.
func (a *App) HTML() string {
	return a.doc.Node().OuterHTML()
}

// Render writes the whole document to w.
func (a *App) Render(w io.Writer) error {
	return dom.Render(w, a.doc.Node())
}
