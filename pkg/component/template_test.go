package component

import (
	"testing"

	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/dom"
)

func parseTemplate(t *testing.T, markup string) *dom.Node {
	t.Helper()
	f, err := dom.ParseHTML(markup)
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	tpl, _ := f.QuerySelector("template")
	if tpl == nil {
		t.Fatal("no template element")
	}
	return tpl
}

func TestTemplateVars(t *testing.T) {
	tpl := parseTemplate(t, `<template><h1 data-var="title">x</h1><p data-var="count" data-content="{value} items"></p><i data-var="missing">keep</i></template>`)

	out, err := Template(tpl, TemplateData{Vars: map[string]any{"title": "Cart", "count": 3}})
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	want := `<h1 data-var="title">Cart</h1><p data-var="count" data-content="{value} items">3 items</p><i data-var="missing">keep</i>`
	if got := out.InnerHTML(); got != want {
		t.Errorf("InnerHTML() = %s, want %s", got, want)
	}
	if tpl.InnerHTML() == out.InnerHTML() {
		t.Error("template itself was modified")
	}
}

func TestTemplateAttrVars(t *testing.T) {
	tpl := parseTemplate(t, `<template><a data-attr-vars="url:href, label:title,hidden,off"></a></template>`)

	out, err := Template(tpl, TemplateData{Vars: map[string]any{
		"url":    "/home",
		"label":  "Home",
		"hidden": true,
		"off":    "false",
	}})
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	a, _ := out.QuerySelector("a")
	if a.Attr("href") != "/home" || a.Attr("title") != "Home" || a.Attr("hidden") != "true" {
		t.Errorf("attributes = %v", a.Attributes())
	}
	if a.HasAttribute("off") {
		t.Error(`"false" value set an attribute`)
	}
}

func TestTemplateSlot(t *testing.T) {
	tpl := parseTemplate(t, `<template><div class="card"><slot></slot></div></template>`)

	out, err := Template(tpl, TemplateData{}, dom.H("b", "one"), "two")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	if got := out.InnerHTML(); got != `<div class="card"><b>one</b>two</div>` {
		t.Errorf("InnerHTML() = %s", got)
	}

	empty, _ := Template(tpl, TemplateData{})
	if got := empty.InnerHTML(); got != `<div class="card"><slot></slot></div>` {
		t.Errorf("without children InnerHTML() = %s", got)
	}
}

func TestTemplateListeners(t *testing.T) {
	tpl := parseTemplate(t, `<template><form><button class="ok">ok</button><button>no</button></form></template>`)

	var submits, oks int
	out, err := Template(tpl, TemplateData{Listeners: []Listener{
		{Event: "submit", Fn: func(*dom.Event) { submits++ }},
		{Event: "click", Selector: "button.ok", Fn: func(*dom.Event) { oks++ }},
	}})
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}

	buttons, _ := out.QuerySelectorAll("button")
	for _, b := range buttons {
		b.DispatchEvent(dom.NewEvent("click", nil, true))
	}
	form, _ := out.QuerySelector("form")
	form.DispatchEvent(dom.NewEvent("submit", nil, true))

	if oks != 1 || submits != 1 {
		t.Errorf("oks = %d, submits = %d; want 1, 1", oks, submits)
	}
}

func TestTemplateNil(t *testing.T) {
	if _, err := Template(nil, TemplateData{}); !gerrors.HasCode(err, "G002") {
		t.Errorf("Template(nil) error = %v, want G002", err)
	}
}
