package dom

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/gousse/pkg/loop"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindElement, "Element"},
		{KindText, "Text"},
		{KindComment, "Comment"},
		{KindFragment, "Fragment"},
		{KindDocument, "Document"},
		{Kind(255), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind.String() = %v, want %v", got, tt.want)
		}
	}
}

func TestInsertBeforeAndFragments(t *testing.T) {
	ul := H("ul", H("li", "a"), H("li", "d"))
	last := ul.LastChild()

	frag := Fragment(H("li", "b"), H("li", "c"))
	if err := ul.InsertBefore(frag, last); err != nil {
		t.Fatalf("InsertBefore() error = %v", err)
	}

	if got, want := ul.Text(), "abcd"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if frag.ChildCount() != 0 {
		t.Errorf("fragment still has %d children", frag.ChildCount())
	}
}

func TestInsertBeforeForeignRef(t *testing.T) {
	a := H("div")
	b := H("div", H("span"))
	if err := a.InsertBefore(H("p"), b.FirstChild()); err == nil {
		t.Error("InsertBefore() with foreign ref should fail")
	}
}

func TestInsertAncestorFails(t *testing.T) {
	outer := H("div", H("span"))
	if err := outer.FirstChild().InsertBefore(outer, nil); err == nil {
		t.Error("inserting an ancestor should fail")
	}
}

func TestAppendChildLogsRejectedAncestor(t *testing.T) {
	var buf bytes.Buffer
	doc := NewDocument(loop.New(loop.WithLogger(slog.New(slog.NewTextHandler(&buf, nil)))))
	span := H("span")
	outer := H("div", span)
	doc.Body().AppendChild(outer)

	if got := span.AppendChild(outer); got != outer {
		t.Errorf("AppendChild() = %v, want the child", got)
	}
	if outer.Parent() != doc.Body() || span.ChildCount() != 0 {
		t.Errorf("tree changed: %s", doc.Body().InnerHTML())
	}
	if !strings.Contains(buf.String(), "appendChild rejected") {
		t.Errorf("log = %q, want a rejection", buf.String())
	}
}

func TestAppendMovesNode(t *testing.T) {
	a := H("div")
	b := H("div")
	child := a.AppendChild(H("span"))
	b.AppendChild(child)

	if a.ChildCount() != 0 || b.ChildCount() != 1 || child.Parent() != b {
		t.Error("AppendChild did not move the node")
	}
}

func TestReplaceWith(t *testing.T) {
	div := H("div", H("x-old"), H("i"))
	old := div.FirstChild()
	if err := old.ReplaceWith(H("b"), H("u")); err != nil {
		t.Fatalf("ReplaceWith() error = %v", err)
	}
	if got, want := div.InnerHTML(), "<b></b><u></u><i></i>"; got != want {
		t.Errorf("InnerHTML() = %q, want %q", got, want)
	}
	if old.Parent() != nil {
		t.Error("replaced node still attached")
	}
}

func TestClassHelpers(t *testing.T) {
	n := H("div", Class("a", "b"))
	n.AddClass("c")
	n.RemoveClass("a")
	if got := n.Attr("class"); got != "b c" {
		t.Errorf("class = %q, want %q", got, "b c")
	}
	if n.ToggleClass("b") {
		t.Error("ToggleClass(b) = true, want false")
	}
	if !n.ToggleClass("z") || !n.HasClass("z") {
		t.Error("ToggleClass(z) should add z")
	}
}

func TestCloneDeep(t *testing.T) {
	src := H("div", ID("x"), H("span", "hi"))
	called := false
	src.AddEventListener("click", func(e *Event) { called = true })

	c := src.Clone(true)
	if c.OuterHTML() != src.OuterHTML() {
		t.Errorf("clone = %q, want %q", c.OuterHTML(), src.OuterHTML())
	}
	c.DispatchEvent(NewEvent("click", nil, true))
	if called {
		t.Error("listeners should not be cloned")
	}
	c.FirstChild().SetText("changed")
	if src.Text() != "hi" {
		t.Error("deep clone shares children with the source")
	}
}

func TestValue(t *testing.T) {
	in := H("input", Value("1"))
	in.SetValue("2")
	if in.Value() != "2" {
		t.Errorf("input Value() = %q", in.Value())
	}
	ta := H("textarea", "x")
	ta.SetValue("y")
	if ta.Value() != "y" {
		t.Errorf("textarea Value() = %q", ta.Value())
	}
}

type recordingHooks struct {
	events *[]string
	name   string
}

func (h recordingHooks) Connected()    { *h.events = append(*h.events, h.name+":connected") }
func (h recordingHooks) Disconnected() { *h.events = append(*h.events, h.name+":disconnected") }

func TestCustomElementLifecycle(t *testing.T) {
	doc, _ := newTestDocument(t)
	var events []string
	err := doc.CustomElements().Define("x-item", func(el *Node) ElementHooks {
		return recordingHooks{events: &events, name: el.Attr("name")}
	})
	if err != nil {
		t.Fatalf("Define() error = %v", err)
	}

	el := H("x-item", Name("one"))
	wrapper := H("div", el)
	if len(events) != 0 {
		t.Fatalf("hooks ran before connection: %v", events)
	}

	doc.Body().AppendChild(wrapper)
	wrapper.Remove()

	want := []string{"one:connected", "one:disconnected"}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestDefineUpgradesConnectedElements(t *testing.T) {
	doc, _ := newTestDocument(t)
	doc.Body().AppendChild(H("x-late", Name("late")))

	var events []string
	_ = doc.CustomElements().Define("x-late", func(el *Node) ElementHooks {
		return recordingHooks{events: &events, name: el.Attr("name")}
	})
	if len(events) != 1 || events[0] != "late:connected" {
		t.Errorf("events = %v, want [late:connected]", events)
	}
}

func TestTemplateContentStaysInert(t *testing.T) {
	doc, _ := newTestDocument(t)
	var events []string
	_ = doc.CustomElements().Define("x-inert", func(el *Node) ElementHooks {
		return recordingHooks{events: &events, name: el.Attr("name")}
	})

	tpl := H("template", H("x-inert", Name("inside")))
	doc.Body().AppendChild(tpl)
	doc.Body().AppendChild(H("x-inert", Name("outside")))
	tpl.Remove()

	if len(events) != 1 || events[0] != "outside:connected" {
		t.Errorf("events = %v, want [outside:connected]", events)
	}
}

func TestDefineValidation(t *testing.T) {
	doc, _ := newTestDocument(t)
	ctor := func(el *Node) ElementHooks { return nil }
	if err := doc.CustomElements().Define("nohyphen", ctor); err == nil {
		t.Error("Define(nohyphen) should fail")
	}
	if err := doc.CustomElements().Define("x-a", ctor); err != nil {
		t.Fatalf("Define(x-a) error = %v", err)
	}
	if err := doc.CustomElements().Define("x-a", ctor); err == nil {
		t.Error("second Define(x-a) should fail")
	}
}

func TestLegacyMutationEvents(t *testing.T) {
	doc, _ := newTestDocument(t)
	inner := H("span")
	outer := H("div", inner)

	var got []string
	inner.AddEventListener(EventInsertedIntoDocument, func(e *Event) { got = append(got, "inserted") })
	inner.AddEventListener(EventRemovedFromDocument, func(e *Event) { got = append(got, "removed") })

	detached := H("section")
	detached.AppendChild(outer)
	if len(got) != 0 {
		t.Fatalf("notification fired for detached insertion: %v", got)
	}

	doc.Body().AppendChild(detached)
	detached.Remove()
	if len(got) != 2 || got[0] != "inserted" || got[1] != "removed" {
		t.Errorf("notifications = %v, want [inserted removed]", got)
	}
}

func TestLegacyMutationEventsDisabled(t *testing.T) {
	doc := NewDocument(nil, WithoutLegacyMutationEvents())
	n := H("span")
	fired := false
	n.AddEventListener(EventInsertedIntoDocument, func(e *Event) { fired = true })
	doc.Body().AppendChild(n)
	if fired {
		t.Error("legacy notification fired while disabled")
	}
}

func TestWatchConnection(t *testing.T) {
	doc := NewDocument(nil, WithoutLegacyMutationEvents())
	inner := H("span")
	outer := H("div", inner)

	var got []bool
	cancel := inner.WatchConnection(func(connected bool) { got = append(got, connected) })

	doc.Body().AppendChild(outer)
	outer.Remove()
	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("notifications = %v, want [true false]", got)
	}

	cancel()
	doc.Body().AppendChild(outer)
	if len(got) != 2 {
		t.Errorf("notified after cancel: %v", got)
	}
}

func TestMutationObserver(t *testing.T) {
	doc, l := newTestDocument(t)
	parent := doc.Body()

	var records []MutationRecord
	obs := NewMutationObserver(l, func(r []MutationRecord, o *MutationObserver) {
		records = append(records, r...)
	})
	obs.Observe(parent)

	a := parent.AppendChild(H("a"))
	parent.AppendChild(H("b"))
	if len(records) != 0 {
		t.Fatal("records delivered synchronously")
	}
	drain(t, l)
	if len(records) != 2 || records[0].Added[0] != a {
		t.Fatalf("records = %+v, want two additions", records)
	}

	obs.Disconnect()
	parent.AppendChild(H("c"))
	drain(t, l)
	if len(records) != 2 {
		t.Errorf("records delivered after Disconnect: %d", len(records))
	}
}
