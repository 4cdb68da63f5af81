package annotate

import (
	"testing"

	"github.com/vango-dev/gousse/pkg/bus"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/emit"
	"github.com/vango-dev/gousse/pkg/loop"
)

func newTestProcessor(t *testing.T) (*Processor, *bus.Bus) {
	t.Helper()
	b := bus.New(dom.NewDocument(loop.New()))
	return New(b), b
}

func mount(t *testing.T, b *bus.Bus, markup string) *dom.Node {
	t.Helper()
	root := dom.H("div")
	if err := root.SetInnerHTML(markup); err != nil {
		t.Fatalf("SetInnerHTML() error = %v", err)
	}
	b.Document().Body().AppendChild(root)
	return root
}

func click(n *dom.Node) {
	n.DispatchEvent(dom.NewEvent("click", nil, true))
}

func TestDispatchAnnotation(t *testing.T) {
	p, b := newTestProcessor(t)
	root := mount(t, b, `<button data-dispatch="Save" data-dispatch-value="item {id}">go</button>`)
	p.Transform(root, root, map[string]any{"id": 3})

	var got []any
	b.On(func(e *dom.Event) { got = append(got, e.Detail) }, "Save")

	btn, _ := root.QuerySelector("button")
	click(btn)

	if len(got) != 1 || got[0] != "item 3" {
		t.Errorf("Save details = %v, want [item 3]", got)
	}
}

func TestDispatchAnnotationCustomEventNoValue(t *testing.T) {
	p, b := newTestProcessor(t)
	root := mount(t, b, `<input data-dispatch="Typed" data-dispatch-event="keyup">`)
	p.Transform(root, nil, nil)

	var details []any
	b.On(func(e *dom.Event) { details = append(details, e.Detail) }, "Typed")

	input, _ := root.QuerySelector("input")
	click(input)
	input.DispatchEvent(dom.NewEvent("keyup", nil, true))

	if len(details) != 1 || details[0] != nil {
		t.Errorf("details = %v, want [<nil>]", details)
	}
}

func TestDispatchPublishesFromRoot(t *testing.T) {
	p, b := newTestProcessor(t)
	outer := mount(t, b, `<section><button data-dispatch="Inner">x</button></section>`)
	section, _ := outer.QuerySelector("section")
	p.Transform(section, section, nil)

	var target *dom.Node
	b.On(func(e *dom.Event) { target = e.Target }, "Inner")
	btn, _ := section.QuerySelector("button")
	click(btn)

	if target != section {
		t.Errorf("Target = %v, want section", target)
	}
}

func TestEmitAnnotation(t *testing.T) {
	p, b := newTestProcessor(t)
	root := mount(t, b, `<input data-emit="q" value="go">`)
	p.Transform(root, root, nil)

	vals := emit.NewValues()
	emit.Context(b, vals, root)

	input, _ := root.QuerySelector("input")
	input.DispatchEvent(dom.NewEvent("change", nil, true))

	if v, _ := vals.Get("q"); v != "go" {
		t.Errorf("q = %v, want go", v)
	}
}

func TestConnectAnnotationVisibility(t *testing.T) {
	p, b := newTestProcessor(t)
	root := mount(t, b, `<p id="show" data-connect="Done"></p><p id="hide" data-connect="Done" data-visibility="hide"></p><p id="toggle" data-connect="Done" data-visibility="toggle"></p>`)
	p.Transform(root, root, nil)

	show := b.Document().GetElementByID("show")
	hide := b.Document().GetElementByID("hide")
	toggle := b.Document().GetElementByID("toggle")

	if !show.HasClass(HiddenClass) || hide.HasClass(HiddenClass) || !toggle.HasClass(HiddenClass) {
		t.Fatalf("initial classes: show=%v hide=%v toggle=%v", show.Classes(), hide.Classes(), toggle.Classes())
	}

	b.Publish("Done", nil, nil)
	if show.HasClass(HiddenClass) || !hide.HasClass(HiddenClass) || toggle.HasClass(HiddenClass) {
		t.Errorf("after first publish: show=%v hide=%v toggle=%v", show.Classes(), hide.Classes(), toggle.Classes())
	}

	b.Publish("Done", nil, nil)
	if !toggle.HasClass(HiddenClass) {
		t.Errorf("toggle after second publish = %v, want hidden", toggle.Classes())
	}
}

func TestConnectAnnotationContent(t *testing.T) {
	p, b := newTestProcessor(t)
	root := mount(t, b, `<p data-connect="Saved" data-content="{event.type}: {event.detail.id} by {user}"></p>`)
	p.Transform(root, root, map[string]any{"user": "ada"})

	b.Publish("Saved", map[string]any{"id": 9}, nil)

	para, _ := root.QuerySelector("p")
	if got := para.Text(); got != "Saved: 9 by ada" {
		t.Errorf("Text() = %q, want %q", got, "Saved: 9 by ada")
	}
}

func TestEmittedAnnotation(t *testing.T) {
	p, b := newTestProcessor(t)
	root := mount(t, b, `<span id="raw" data-emitted="q"></span><span id="fmt" data-emitted="q" data-content="you typed {value}"></span><input data-emit="q">`)
	p.Transform(root, root, nil)

	input, _ := root.QuerySelector("input")
	input.SetValue("abc")
	input.DispatchEvent(dom.NewEvent("keyup", nil, true))
	emit.Emit(b, input, "other", "zzz")

	if got := b.Document().GetElementByID("raw").Text(); got != "abc" {
		t.Errorf("raw = %q, want abc", got)
	}
	if got := b.Document().GetElementByID("fmt").Text(); got != "you typed abc" {
		t.Errorf("fmt = %q, want %q", got, "you typed abc")
	}
}

func TestTransformIncludesRootNode(t *testing.T) {
	p, b := newTestProcessor(t)
	btn := dom.H("button", dom.Data("dispatch", "Self"))
	b.Document().Body().AppendChild(btn)
	p.Transform(btn, nil, nil)

	calls := 0
	b.On(func(*dom.Event) { calls++ }, "Self")
	click(btn)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRegisterCustomAnnotation(t *testing.T) {
	p, b := newTestProcessor(t)
	var seen []string
	p.Register("track", func(s *Scope, node *dom.Node, value string) {
		seen = append(seen, node.Tag+":"+value)
	})
	root := mount(t, b, `<a data-track="nav">x</a><b data-track="bold">y</b>`)
	p.Transform(root, root, nil)

	if len(seen) != 2 || seen[0] != "a:nav" || seen[1] != "b:bold" {
		t.Errorf("seen = %v", seen)
	}
	names := p.Names()
	if names[len(names)-1] != "track" {
		t.Errorf("Names() = %v, want track last", names)
	}
}

func TestTransformSkipsTemplateContent(t *testing.T) {
	p, b := newTestProcessor(t)
	root := mount(t, b, `<template><button data-dispatch="Hidden">x</button></template>`)
	p.Transform(root, root, nil)

	btn, _ := root.QuerySelector("button")
	if btn == nil {
		t.Fatal("template content not parsed")
	}
	calls := 0
	b.On(func(*dom.Event) { calls++ }, "Hidden")
	click(btn)
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}
