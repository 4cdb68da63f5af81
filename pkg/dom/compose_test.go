package dom

import (
	"context"
	"io"
	"testing"

	"github.com/a-h/templ"
)

func TestAppendHeterogeneousChildren(t *testing.T) {
	div := H("div")
	nodes := Append(div, []any{
		"a",
		[]any{H("b", "x"), []*Node{H("i")}},
		nil,
		"",
		false,
		42,
		3.5,
		Fragment(H("u"), "z"),
	}, nil)

	if got, want := div.InnerHTML(), "a<b>x</b><i></i>423.5<u></u>z"; got != want {
		t.Errorf("InnerHTML() = %q, want %q", got, want)
	}
	if len(nodes) != 7 {
		t.Errorf("Append returned %d nodes, want 7", len(nodes))
	}
}

func TestAppendBeforeMarker(t *testing.T) {
	div := H("div", "a", "c")
	marker := div.LastChild()
	Append(div, "b", marker)
	if got := div.Text(); got != "abc" {
		t.Errorf("Text() = %q, want abc", got)
	}
}

func TestAppendDeferredPreservesOrder(t *testing.T) {
	doc, l := newTestDocument(t)
	body := doc.Body()

	first, resolveFirst, _ := l.NewPromise()
	second, resolveSecond, _ := l.NewPromise()

	Append(body, []any{"[", first, "|", second, "]"}, nil)
	if got := body.InnerHTML(); got != "[<!--placeholder-->|<!--placeholder-->]" {
		t.Fatalf("pending InnerHTML() = %q", got)
	}

	// Resolve out of order.
	resolveSecond(H("b", "2"))
	l.RunPending()
	if got := body.InnerHTML(); got != "[<!--placeholder-->|<b>2</b>]" {
		t.Fatalf("half-resolved InnerHTML() = %q", got)
	}

	resolveFirst([]any{H("a", "1"), "!"})
	drain(t, l)
	if got, want := body.InnerHTML(), "[<a>1</a>!|<b>2</b>]"; got != want {
		t.Errorf("InnerHTML() = %q, want %q", got, want)
	}
}

func TestAppendNestedDeferred(t *testing.T) {
	doc, l := newTestDocument(t)
	inner, resolveInner, _ := l.NewPromise()
	outer := l.Resolved([]any{"x", inner})

	Append(doc.Body(), outer, nil)
	l.RunPending()
	resolveInner("y")
	drain(t, l)

	if got := doc.Body().InnerHTML(); got != "xy" {
		t.Errorf("InnerHTML() = %q, want xy", got)
	}
}

func TestAppendRejectedDeferredKeepsPlaceholder(t *testing.T) {
	doc, l := newTestDocument(t)
	p, _, reject := l.NewPromise()
	Append(doc.Body(), p, nil)
	reject(io.ErrUnexpectedEOF)
	drain(t, l)

	if got := doc.Body().InnerHTML(); got != "<!--placeholder-->" {
		t.Errorf("InnerHTML() = %q, want the placeholder", got)
	}
}

func TestAppendTemplComponent(t *testing.T) {
	comp := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<em class="t">templ</em> tail`)
		return err
	})
	div := H("div", comp)
	if got, want := div.InnerHTML(), `<em class="t">templ</em> tail`; got != want {
		t.Errorf("InnerHTML() = %q, want %q", got, want)
	}
}

func TestContentReplaces(t *testing.T) {
	div := H("div", "old", H("span"))
	Content(div, "new")
	if got := div.InnerHTML(); got != "new" {
		t.Errorf("InnerHTML() = %q, want new", got)
	}
}

func TestHAttributesAndHandlers(t *testing.T) {
	clicks := 0
	btn := H("button",
		Attrs{"type": "button", "aria-label": "save"},
		Class("primary"),
		[]Attr{Data("emit", "x")},
		OnClick(func(e *Event) { clicks++ }),
		"Save",
	)

	want := `<button aria-label="save" type="button" class="primary" data-emit="x">Save</button>`
	if got := btn.OuterHTML(); got != want {
		t.Errorf("OuterHTML() = %q, want %q", got, want)
	}
	btn.DispatchEvent(NewEvent("click", nil, true))
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}
}
