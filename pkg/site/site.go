package site

import (
	"bytes"
	"html"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/gousse"
	"github.com/vango-dev/gousse/internal/config"
	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/annotate"
	"github.com/vango-dev/gousse/pkg/component"
	"github.com/vango-dev/gousse/pkg/connect"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/loop"
	"github.com/vango-dev/gousse/pkg/router"
)

// OutletID is the id of the element rendering the current route.
const OutletID = "outlet"

// Site is a parsed site file.
type Site struct {
	Title      string      `yaml:"title"`
	Router     string      `yaml:"router,omitempty"`
	Routes     []Route     `yaml:"routes"`
	NotFound   string      `yaml:"notFound,omitempty"`
	Components []Component `yaml:"components,omitempty"`

	// path is the file the site was loaded from.
	path string
}

// Route maps a pattern to markup.
type Route struct {
	Pattern string `yaml:"pattern"`
	HTML    string `yaml:"html"`
}

// Component is a template component.
type Component struct {
	Name   string `yaml:"name"`
	Shadow string `yaml:"shadow,omitempty"`
	HTML   string `yaml:"html"`
}

// Load reads and validates a site file.
func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gerrors.New("G051").WithDetail(path).Wrap(err)
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	s.path = path
	return s, nil
}

// Parse decodes and validates a site definition.
func Parse(r io.Reader) (*Site, error) {
	var s Site
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, gerrors.New("G051").WithDetail("decoding").Wrap(err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Path returns the file the site was loaded from, or "".
func (s *Site) Path() string {
	return s.path
}

// Validate checks modes, patterns and component definitions.
func (s *Site) Validate() error {
	if s.Router != "" {
		if _, err := router.ParseMode(s.Router); err != nil {
			return gerrors.New("G051").WithDetail("router").Wrap(err)
		}
	}
	for _, rt := range s.Routes {
		if _, err := router.Compile(rt.Pattern); err != nil {
			return gerrors.New("G051").WithDetailf("route %q", rt.Pattern).Wrap(err)
		}
	}
	seen := make(map[string]bool, len(s.Components))
	for _, c := range s.Components {
		if _, err := component.ParseShadowMode(c.Shadow); err != nil {
			return gerrors.New("G051").WithDetailf("component %q", c.Name).Wrap(err)
		}
		if seen[c.Name] {
			return gerrors.New("G051").WithDetailf("component %q", c.Name).Wrap(gerrors.New("G021").WithDetail(c.Name))
		}
		seen[c.Name] = true
	}
	return nil
}

// Apply copies the settings the site overrides into cfg.
func (s *Site) Apply(cfg *config.Config) {
	if s.Router != "" {
		cfg.Router.Mode = s.Router
	}
}

// Build defines the components on app, sets the page title and starts the
// app with an outlet rendering the routes. Annotations in rendered route
// markup are bound with the same values the markup is interpolated with.
// It returns the Start promise.
func (s *Site) Build(app *gousse.App) (*loop.Promise, error) {
	for _, c := range s.Components {
		tpl, err := templateFor(c)
		if err != nil {
			return nil, err
		}
		if err := app.DefineTemplate(tpl); err != nil {
			return nil, err
		}
	}

	if s.Title != "" {
		head := app.Document().Head()
		title, _ := head.QuerySelector("title")
		if title == nil {
			title = head.AppendChild(dom.H("title"))
		}
		title.SetText(s.Title)
	}

	body := app.Document().Body()
	table := s.table(app.Logger(), func(frag *dom.Node, req router.Request) {
		app.Processor().Transform(frag, body, pageEnv(req))
	})
	return app.Start(nil, gousse.Spec{
		Render: func(*dom.Node) any {
			return app.Router().Mount(table, connect.WithAttrs(dom.Attrs{"id": OutletID}))
		},
	}), nil
}

func templateFor(c Component) (*dom.Node, error) {
	content, err := dom.ParseHTML(c.HTML)
	if err != nil {
		return nil, err
	}
	tpl := dom.H("template", dom.Data("component", c.Name))
	if c.Shadow != "" {
		tpl.SetAttribute("data-shadow", c.Shadow)
	}
	dom.Append(tpl, content, nil)
	return tpl, nil
}

// Table returns the route table. Route markup that fails to parse renders
// nothing and is logged.
func (s *Site) Table(logger *slog.Logger) *router.Table {
	return s.table(logger, nil)
}

// table builds the route table, handing every rendered page to bind when
// it is set.
func (s *Site) table(logger *slog.Logger, bind func(*dom.Node, router.Request)) *router.Table {
	if logger == nil {
		logger = slog.Default()
	}
	table := router.NewTable()
	for _, rt := range s.Routes {
		table.Handle(rt.Pattern, page(rt.HTML, logger, bind))
	}
	if s.NotFound != "" {
		table.NotFound(page(s.NotFound, logger, bind))
	}
	return table
}

func page(markup string, logger *slog.Logger, bind func(*dom.Node, router.Request)) router.Handler {
	return func(req router.Request) any {
		out, err := annotate.Interpolate(markup, pageEnv(req))
		if err != nil {
			logger.Debug("route markup interpolation incomplete", "pattern", req.Pattern, "error", err)
		}
		frag, err := dom.ParseHTML(out)
		if err != nil {
			logger.Warn("route markup invalid", "pattern", req.Pattern, "error", err)
			return false
		}
		if bind != nil {
			bind(frag, req)
		}
		return frag
	}
}

func pageEnv(req router.Request) map[string]any {
	env := make(map[string]any, len(req.Named)+2)
	for k, v := range req.Named {
		env[k] = html.EscapeString(v)
	}
	query := make(map[string]string, len(req.Query))
	for k, v := range req.Query {
		query[k] = html.EscapeString(v)
	}
	env["query"] = query
	env["url"] = html.EscapeString(req.URL)
	return env
}
