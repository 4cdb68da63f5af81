package router

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/annotate"
	"github.com/vango-dev/gousse/pkg/bus"
	"github.com/vango-dev/gousse/pkg/connect"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/telemetry"
)

// Mode selects how navigation is addressed.
type Mode string

const (
	// ModeHash navigates by changing the location hash.
	ModeHash Mode = "hash"
	// ModePushState navigates by pushing History entries.
	ModePushState Mode = "pushstate"
)

// ParseMode parses a router mode; "" selects ModeHash.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeHash:
		return ModeHash, nil
	case ModePushState, "history":
		return ModePushState, nil
	}
	return ModeHash, gerrors.New("G011").WithDetail(s)
}

// Route is the current location as seen by handlers.
type Route struct {
	URL   string
	Query map[string]string
	State any
}

// Request is passed to route handlers.
type Request struct {
	Route

	// Pattern is the matched pattern, "" for the not-found handler.
	Pattern string

	// Groups are the captured values in order.
	Groups []string

	// Named maps placeholder names to captured values.
	Named map[string]string
}

// Handler renders a route. Its result follows the connector rules: false
// clears the outlet and nil leaves it as is.
type Handler func(r Request) any

type tableEntry struct {
	pattern string
	handler Handler
}

// Table is an ordered set of routes. The first matching pattern wins.
type Table struct {
	entries  []tableEntry
	notFound Handler
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Handle appends a route.
func (t *Table) Handle(pattern string, h Handler) *Table {
	t.entries = append(t.entries, tableEntry{pattern: pattern, handler: h})
	return t
}

// NotFound sets the handler used when no pattern matches.
func (t *Table) NotFound(h Handler) *Table {
	t.notFound = h
	return t
}

// Patterns returns the patterns in match order.
func (t *Table) Patterns() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.pattern
	}
	return out
}

// Lookup returns the first route matching url.
func (t *Table) Lookup(url string) (Request, Handler, bool) {
	path := url
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, e := range t.entries {
		res, ok := Match(e.pattern, path)
		if !ok {
			continue
		}
		return Request{
			Route:   Route{URL: path},
			Pattern: e.pattern,
			Groups:  res.Groups,
			Named:   res.Named,
		}, e.handler, true
	}
	return Request{}, nil, false
}

// Router holds the current route and drives navigation.
type Router struct {
	bus    *bus.Bus
	logger *slog.Logger
	tel    *telemetry.Telemetry

	mode    Mode
	history *History

	mu      sync.RWMutex
	current *Route
	hash    string
}

// Option configures a Router.
type Option func(*Router)

// WithMode sets the navigation mode.
func WithMode(mode Mode) Option {
	return func(r *Router) {
		r.mode = mode
	}
}

// WithHistory sets the push-state history.
func WithHistory(h *History) Option {
	return func(r *Router) {
		r.history = h
	}
}

// WithHash sets the initial location hash, without navigating.
func WithHash(hash string) Option {
	return func(r *Router) {
		r.hash = strings.TrimPrefix(hash, "#")
	}
}

// WithLogger sets the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTelemetry records navigation spans and counts.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(r *Router) {
		r.tel = t
	}
}

// New creates a router publishing on b.
func New(b *bus.Bus, opts ...Option) *Router {
	r := &Router{
		bus:    b,
		logger: b.Logger(),
		tel:    b.Telemetry(),
		mode:   ModeHash,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.history == nil {
		r.history = NewHistory("/")
	}
	r.history.mu.Lock()
	r.history.onPop = func(e Entry) { r.Dispatch(e.URL, e.State) }
	r.history.mu.Unlock()
	return r
}

// Mode returns the navigation mode.
func (r *Router) Mode() Mode { return r.mode }

// History returns the push-state history.
func (r *Router) History() *History { return r.history }

// Current returns a copy of the current route, or nil before the first
// dispatch.
func (r *Router) Current() *Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	c := *r.current
	return &c
}

// Hash returns the location hash, without the leading '#'.
func (r *Router) Hash() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hash
}

// Dispatch makes url the current route and publishes RouteChanged. A query
// string is split off and parsed.
func (r *Router) Dispatch(url string, state any) {
	if url == "" {
		url = "/"
	}
	query := map[string]string{}
	if i := strings.IndexByte(url, '?'); i >= 0 {
		query = ParseQuery(url[i+1:])
		url = url[:i]
	}
	route := Route{URL: url, Query: query, State: state}

	r.mu.Lock()
	r.current = &route
	r.mu.Unlock()

	r.logger.Debug("route changed", "url", url)
	r.bus.Publish(bus.RouteChanged, route, nil)
}

// Start dispatches the initial location: the hash in ModeHash, the
// current History entry in ModePushState.
func (r *Router) Start() {
	if r.mode == ModePushState {
		e := r.history.Current()
		r.Dispatch(e.URL, e.State)
		return
	}
	r.Dispatch(r.Hash(), nil)
}

// SetHash changes the location hash. When it differs from the current one,
// a hash change is handled on the next loop task: a navigation in ModeHash,
// a RouteHashChanged event in ModePushState.
func (r *Router) SetHash(hash string) {
	hash = strings.TrimPrefix(hash, "#")
	r.mu.Lock()
	if r.hash == hash {
		r.mu.Unlock()
		return
	}
	r.hash = hash
	r.mu.Unlock()

	r.bus.Document().Loop().Post(func() {
		h := r.Hash()
		if r.mode == ModePushState {
			r.bus.Publish(bus.RouteHashChanged, h, nil)
			return
		}
		r.Dispatch(h, nil)
	})
}

var wildcardSuffixRE = regexp.MustCompile(`/\{?\*\}?$`)

// URL builds a URL from pattern. A wildcard suffix is dropped, {name}
// placeholders are filled from params and the remaining params are
// appended as a query string. params is not modified.
func (r *Router) URL(pattern string, params map[string]any) string {
	return BuildURL(pattern, params)
}

// BuildURL is Router.URL without a router.
func BuildURL(pattern string, params map[string]any) string {
	url := wildcardSuffixRE.ReplaceAllString(pattern, "")
	if len(params) == 0 {
		return url
	}

	left := make(map[string]any, len(params))
	keys := make([]string, 0, len(params))
	for k, v := range params {
		left[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		placeholder := "{" + k + "}"
		if strings.Contains(url, placeholder) {
			url = strings.Replace(url, placeholder, fmt.Sprint(params[k]), 1)
			delete(left, k)
		}
	}

	if qs := BuildQuery(left); qs != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + qs
	}
	return url
}

// Go navigates to the URL built from pattern and params. In ModePushState
// a History entry is pushed and the route dispatched right away; in
// ModeHash, or for URLs starting with '#', the hash is changed and the
// route follows on the next loop task.
func (r *Router) Go(pattern string, params map[string]any, state any) {
	url := r.URL(pattern, params)
	if r.mode == ModePushState && !strings.HasPrefix(url, "#") {
		if state == nil {
			state = map[string]any{}
		}
		r.history.Push(url, state)
		r.Dispatch(url, state)
		return
	}
	r.SetHash(url)
}

type mounted struct {
	pattern string
	groups  string
}

// Mount returns a container rendering the first route of table matching
// the current route, re-rendered on every RouteChanged. When the same
// pattern ending in /* matches again with identical captures, the content
// is left alone. Without a match the not-found handler renders, or the
// container is cleared.
func (r *Router) Mount(table *Table, opts ...connect.Option) *dom.Node {
	var current *mounted

	listener := func(e *dom.Event, _ connect.RenderFunc) any {
		var route Route
		if e != nil {
			rt, ok := e.Detail.(Route)
			if !ok {
				return nil
			}
			route = rt
		} else if c := r.Current(); c != nil {
			route = *c
		} else {
			return nil
		}

		_, end := r.tel.StartNavigation(context.Background(), route.URL)
		for _, entry := range table.entries {
			p, err := compileCached(entry.pattern)
			if err != nil {
				r.logger.Warn("skipping route", "pattern", entry.pattern, "error", err)
				continue
			}
			res, ok := p.Match(route.URL)
			if !ok {
				continue
			}
			joined := strings.Join(res.Groups, ",")
			if res.Wildcard && current != nil && current.pattern == entry.pattern && current.groups == joined {
				end(telemetry.OutcomeSuppressed)
				return nil
			}
			current = &mounted{pattern: entry.pattern, groups: joined}
			end(telemetry.OutcomeMatched)
			return entry.handler(Request{Route: route, Pattern: entry.pattern, Groups: res.Groups, Named: res.Named})
		}

		current = nil
		if table.notFound != nil {
			end(telemetry.OutcomeNotFound)
			return table.notFound(Request{Route: route})
		}
		end(telemetry.OutcomeCleared)
		return false
	}

	opts = append([]connect.Option{connect.WithRenderedPlaceholder()}, opts...)
	return connect.Events(r.bus, []string{bus.RouteChanged}, listener, opts...)
}

// GoAnnotation is the annotation binding data-go on links.
const GoAnnotation = "go"

// RegisterAnnotations adds data-go to p: clicking an <a data-go="/path">
// navigates to the interpolated path instead of following the link.
func (r *Router) RegisterAnnotations(p *annotate.Processor) {
	p.Register(GoAnnotation, func(s *annotate.Scope, node *dom.Node, value string) {
		if node.Tag != "a" {
			return
		}
		node.AddEventListener("click", func(e *dom.Event) {
			e.PreventDefault()
			r.Go(s.Interpolate(value), nil, nil)
		})
		if !node.HasAttribute("href") {
			node.SetAttribute("href", "javascript:")
		}
	})
}
