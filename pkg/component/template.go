package component

import (
	"fmt"
	"strings"

	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/annotate"
	"github.com/vango-dev/gousse/pkg/dom"
)

// Listener binds an event listener on template output. With an empty
// Selector it is bound on every top-level element; otherwise on every
// element matching Selector.
type Listener struct {
	Event    string
	Selector string
	Fn       dom.Listener
}

// TemplateData fills a template.
type TemplateData struct {
	// Vars feed data-var and data-attr-vars.
	Vars map[string]any

	// Listeners are bound after the template is filled.
	Listeners []Listener
}

// Template clones the content of tpl into a fragment and fills it:
//
//   - data-var="name" sets the text to Vars[name], or to the data-content
//     template interpolated with {value} when present
//   - data-attr-vars="name:attr,other" sets attributes from Vars, skipping
//     false values
//   - the first <slot> is replaced by children, when any are given
//   - Listeners are bound last
func Template(tpl *dom.Node, data TemplateData, children ...any) (*dom.Node, error) {
	if tpl == nil {
		return nil, gerrors.New("G002").WithDetail("template")
	}
	root := dom.NewFragment()
	for _, c := range tpl.Children() {
		root.AppendChild(c.Clone(true))
	}

	vars, err := root.QuerySelectorAll("[data-var]")
	if err != nil {
		return nil, err
	}
	for _, n := range vars {
		value, ok := data.Vars[n.Attr("data-var")]
		if !ok {
			continue
		}
		if content, has := n.GetAttribute("data-content"); has {
			text, err := annotate.Interpolate(content, map[string]any{"value": value})
			if err != nil {
				return nil, err
			}
			n.SetText(text)
			continue
		}
		n.SetText(stringify(value))
	}

	attrNodes, err := root.QuerySelectorAll("[data-attr-vars]")
	if err != nil {
		return nil, err
	}
	for _, n := range attrNodes {
		for _, part := range strings.Split(n.Attr("data-attr-vars"), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			varName, attr := part, part
			if i := strings.IndexByte(part, ':'); i >= 0 {
				varName, attr = part[:i], part[i+1:]
			}
			value, ok := data.Vars[varName]
			if !ok || value == false || value == "false" {
				continue
			}
			n.SetAttribute(attr, stringify(value))
		}
	}

	if len(children) > 0 {
		slot, err := root.QuerySelector("slot")
		if err != nil {
			return nil, err
		}
		if slot != nil {
			dom.Append(slot.Parent(), children, slot)
			slot.Remove()
		}
	}

	for _, l := range data.Listeners {
		targets := root.Elements()
		if l.Selector != "" {
			if targets, err = root.QuerySelectorAll(l.Selector); err != nil {
				return nil, err
			}
		}
		for _, n := range targets {
			n.AddEventListener(l.Event, l.Fn)
		}
	}
	return root, nil
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
