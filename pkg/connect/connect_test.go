package connect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vango-dev/gousse/pkg/bus"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/loop"
)

func newTestBus() (*bus.Bus, *loop.Loop) {
	l := loop.New()
	return bus.New(dom.NewDocument(l)), l
}

func drain(t *testing.T, l *loop.Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
}

func TestEventsContainer(t *testing.T) {
	b, _ := newTestBus()
	c := Events(b, []string{"X"}, func(*dom.Event, RenderFunc) any { return nil })

	if c.Tag != "div" || !c.HasClass(ContainerClass) {
		t.Errorf("container = %s, want div.%s", c.OuterHTML(), ContainerClass)
	}

	span := Events(b, []string{"X"}, func(*dom.Event, RenderFunc) any { return nil },
		WithTag("span"), WithAttrs(dom.Attrs{"id": "status"}))
	if got := span.OuterHTML(); got != `<span class="gousse-connect" id="status"></span>` {
		t.Errorf("OuterHTML() = %s", got)
	}
}

func TestEventsResultRules(t *testing.T) {
	b, _ := newTestBus()
	var next any
	c := Events(b, []string{"Tick"}, func(e *dom.Event, _ RenderFunc) any { return next },
		WithPlaceholder("loading"))

	steps := []struct {
		name   string
		result any
		want   string
	}{
		{"placeholder", nil, "loading"},
		{"string replaces", "one", "one"},
		{"nil keeps", nil, "one"},
		{"empty string keeps", "", "one"},
		{"zero keeps", 0, "one"},
		{"nil node keeps", (*dom.Node)(nil), "one"},
		{"node replaces", dom.H("b", "two"), "<b>two</b>"},
		{"false clears", false, ""},
		{"slice replaces", []any{"a", dom.H("i", "b")}, "a<i>b</i>"},
	}
	for i, step := range steps {
		if i > 0 {
			next = step.result
			b.Publish("Tick", nil, nil)
		}
		if got := c.InnerHTML(); got != step.want {
			t.Errorf("%s: InnerHTML() = %q, want %q", step.name, got, step.want)
		}
	}
}

func TestEventsListenerReceivesEvent(t *testing.T) {
	b, _ := newTestBus()
	c := Events(b, []string{"A", "B"}, func(e *dom.Event, _ RenderFunc) any {
		return e.Type + ":" + e.Detail.(string)
	})

	b.Publish("A", "1", nil)
	if got := c.InnerHTML(); got != "A:1" {
		t.Errorf("after A InnerHTML() = %q, want A:1", got)
	}
	b.Publish("B", "2", nil)
	if got := c.InnerHTML(); got != "B:2" {
		t.Errorf("after B InnerHTML() = %q, want B:2", got)
	}
}

func TestEventsOnce(t *testing.T) {
	b, _ := newTestBus()
	calls := 0
	Events(b, []string{"A"}, func(*dom.Event, RenderFunc) any { calls++; return "x" }, Once())

	b.Publish("A", nil, nil)
	b.Publish("A", nil, nil)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRenderedPlaceholder(t *testing.T) {
	b, _ := newTestBus()
	var events []*dom.Event
	c := Events(b, []string{"A"}, func(e *dom.Event, _ RenderFunc) any {
		events = append(events, e)
		if e == nil {
			return "initial"
		}
		return "updated"
	}, WithRenderedPlaceholder())

	if len(events) != 1 || events[0] != nil {
		t.Fatalf("listener calls = %v, want one call with nil event", events)
	}
	if got := c.InnerHTML(); got != "initial" {
		t.Errorf("InnerHTML() = %q, want initial", got)
	}
	b.Publish("A", nil, nil)
	if got := c.InnerHTML(); got != "updated" {
		t.Errorf("InnerHTML() = %q, want updated", got)
	}
}

func TestRenderFuncRerenders(t *testing.T) {
	b, _ := newTestBus()
	count := 0
	var rerender RenderFunc
	c := Events(b, []string{"A"}, func(e *dom.Event, render RenderFunc) any {
		rerender = render
		count++
		return count
	})

	b.Publish("A", nil, nil)
	rerender(nil)
	if got := c.InnerHTML(); got != "2" {
		t.Errorf("InnerHTML() = %q, want 2", got)
	}
}

func TestDeferredResultReplacesInOneStep(t *testing.T) {
	b, l := newTestBus()
	p, resolve, _ := l.NewPromise()
	c := Events(b, []string{"A"}, func(*dom.Event, RenderFunc) any { return p },
		WithPlaceholder("old"))

	b.Publish("A", nil, nil)
	l.RunPending()
	if got := c.InnerHTML(); got != "old" {
		t.Errorf("before resolve InnerHTML() = %q, want old", got)
	}
	resolve(dom.H("p", "new"))
	drain(t, l)
	if got := c.InnerHTML(); got != "<p>new</p>" {
		t.Errorf("after resolve InnerHTML() = %q, want <p>new</p>", got)
	}
}

func TestDeferredFalseClears(t *testing.T) {
	b, l := newTestBus()
	c := Events(b, []string{"A"}, func(*dom.Event, RenderFunc) any { return l.Resolved(false) },
		WithPlaceholder("x"))
	b.Publish("A", nil, nil)
	drain(t, l)
	if got := c.InnerHTML(); got != "" {
		t.Errorf("InnerHTML() = %q, want empty", got)
	}
}

// Overlapping renders are not cancelled: the result that resolves last is
// shown even when it belongs to the earlier event.
func TestOverlappingRendersLastResolvedWins(t *testing.T) {
	b, l := newTestBus()
	first, resolveFirst, _ := l.NewPromise()
	second, resolveSecond, _ := l.NewPromise()
	results := []*loop.Promise{first, second}
	n := 0
	c := Events(b, []string{"Load"}, func(*dom.Event, RenderFunc) any {
		p := results[n]
		n++
		return p
	})

	b.Publish("Load", nil, nil)
	b.Publish("Load", nil, nil)

	resolveSecond("second")
	l.RunPending()
	if got := c.InnerHTML(); got != "second" {
		t.Errorf("after second InnerHTML() = %q, want second", got)
	}

	resolveFirst("first")
	drain(t, l)
	if got := c.InnerHTML(); got != "first" {
		t.Errorf("after first InnerHTML() = %q, want first", got)
	}
}

func TestPromiseConnector(t *testing.T) {
	b, l := newTestBus()
	p, resolve, _ := l.NewPromise()
	calls := 0
	c := Promise(b, p, func(e *dom.Event, _ RenderFunc) any {
		calls++
		if e.Type != ResolvedEvent {
			t.Errorf("event type = %q, want %q", e.Type, ResolvedEvent)
		}
		return "hello " + e.Detail.(string)
	}, WithPlaceholder("..."))

	if got := c.InnerHTML(); got != "..." {
		t.Errorf("placeholder InnerHTML() = %q", got)
	}
	resolve("world")
	drain(t, l)
	if got := c.InnerHTML(); got != "hello world" {
		t.Errorf("InnerHTML() = %q, want hello world", got)
	}
	b.Publish(ResolvedEvent, nil, nil)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPromiseConnectorRejected(t *testing.T) {
	b, l := newTestBus()
	c := Promise(b, l.Rejected(errors.New("nope")), func(*dom.Event, RenderFunc) any {
		t.Error("listener called for rejected promise")
		return nil
	}, WithPlaceholder("wait"))
	drain(t, l)
	if got := c.InnerHTML(); got != "wait" {
		t.Errorf("InnerHTML() = %q, want wait", got)
	}
}

func TestMapConnector(t *testing.T) {
	b, _ := newTestBus()
	c := Map(b, map[string]Listener{
		"Login":  func(e *dom.Event, _ RenderFunc) any { return "hi " + e.Detail.(string) },
		"Logout": func(*dom.Event, RenderFunc) any { return false },
	}, WithPlaceholder("anonymous"))

	if got := c.InnerHTML(); got != "anonymous" {
		t.Errorf("InnerHTML() = %q, want anonymous", got)
	}
	b.Publish("Login", "ada", nil)
	if got := c.InnerHTML(); got != "hi ada" {
		t.Errorf("InnerHTML() = %q, want hi ada", got)
	}
	b.Publish("Logout", nil, nil)
	if got := c.InnerHTML(); got != "" {
		t.Errorf("InnerHTML() = %q, want empty", got)
	}
}

func TestEventsStopsWhileDetached(t *testing.T) {
	b, _ := newTestBus()
	body := b.Document().Body()
	calls := 0
	c := Events(b, []string{"Tick"}, func(e *dom.Event, _ RenderFunc) any {
		calls++
		return e.Detail
	})

	b.Publish("Tick", "detached", nil)
	if got := c.InnerHTML(); got != "detached" {
		t.Errorf("before insertion InnerHTML() = %q, want detached", got)
	}

	body.AppendChild(c)
	b.Publish("Tick", "in", nil)
	c.Remove()
	b.Publish("Tick", "out", nil)
	if calls != 2 || c.InnerHTML() != "in" {
		t.Errorf("after removal calls = %d, InnerHTML() = %q; want 2, in", calls, c.InnerHTML())
	}
	if n := body.ListenerCount("Tick"); n != 0 {
		t.Errorf("body listeners = %d, want 0", n)
	}

	body.AppendChild(c)
	b.Publish("Tick", "back", nil)
	if got := c.InnerHTML(); got != "back" {
		t.Errorf("after reinsertion InnerHTML() = %q, want back", got)
	}
}

func TestMapStopsWhileDetached(t *testing.T) {
	b, _ := newTestBus()
	body := b.Document().Body()
	c := Map(b, map[string]Listener{
		"Login": func(e *dom.Event, _ RenderFunc) any { return "hi " + e.Detail.(string) },
	})
	body.AppendChild(c)
	c.Remove()
	b.Publish("Login", "ada", nil)
	if got := c.InnerHTML(); got != "" {
		t.Errorf("InnerHTML() = %q, want empty", got)
	}
}
