package bus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/loop"
	"github.com/vango-dev/gousse/pkg/telemetry"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	doc := dom.NewDocument(loop.New())
	return New(doc)
}

func TestPublishReachesRootSubscriber(t *testing.T) {
	b := newTestBus(t)
	var got []any
	b.On(func(e *dom.Event) { got = append(got, e.Detail) }, "Saved")

	b.Publish("Saved", 42, nil)

	if len(got) != 1 || got[0] != 42 {
		t.Errorf("deliveries = %v, want [42]", got)
	}
}

func TestPublishBubblesFromNode(t *testing.T) {
	b := newTestBus(t)
	section := dom.H("section")
	button := dom.H("button")
	section.AppendChild(button)
	b.Document().Body().AppendChild(section)

	var order []string
	if _, err := b.Subscribe(NodeTarget(section), []string{"Picked"}, func(e *dom.Event) {
		order = append(order, "section")
	}, false); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	b.On(func(e *dom.Event) {
		order = append(order, "root")
		if e.Target != button {
			t.Errorf("Target = %v, want button", e.Target)
		}
	}, "Picked")

	b.Publish("Picked", nil, button)

	if len(order) != 2 || order[0] != "section" || order[1] != "root" {
		t.Errorf("order = %v, want [section root]", order)
	}
}

func TestSubscribedSubtreeDoesNotSeeGlobalEvents(t *testing.T) {
	b := newTestBus(t)
	section := dom.H("section")
	b.Document().Body().AppendChild(section)

	calls := 0
	_, _ = b.Subscribe(NodeTarget(section), []string{"Ping"}, func(*dom.Event) { calls++ }, false)
	b.Publish("Ping", nil, nil)

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestSubscribeMultipleNamesOffCancelsAll(t *testing.T) {
	b := newTestBus(t)
	calls := 0
	off, err := b.Subscribe(Root(), []string{"A", "B"}, func(*dom.Event) { calls++ }, false)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	b.Publish("A", nil, nil)
	b.Publish("B", nil, nil)
	off()
	off()
	b.Publish("A", nil, nil)
	b.Publish("B", nil, nil)

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if n := b.Document().Body().ListenerCount("A"); n != 0 {
		t.Errorf("ListenerCount(A) = %d, want 0", n)
	}
}

func TestSubscribeOnceCancelsEveryName(t *testing.T) {
	b := newTestBus(t)
	calls := 0
	_, _ = b.Subscribe(Root(), []string{"A", "B"}, func(*dom.Event) { calls++ }, true)

	b.Publish("B", nil, nil)
	b.Publish("A", nil, nil)
	b.Publish("B", nil, nil)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestFragmentTargetFansOut(t *testing.T) {
	b := newTestBus(t)
	a, c := dom.H("p"), dom.H("p")
	frag := dom.Fragment(a, c)

	var targets []*dom.Node
	_, _ = b.Subscribe(NodeTarget(frag), []string{"Hit"}, func(e *dom.Event) {
		targets = append(targets, e.CurrentTarget)
	}, false)

	b.Document().Body().AppendChild(frag)
	b.Publish("Hit", nil, a)
	b.Publish("Hit", nil, c)

	if len(targets) != 2 || targets[0] != a || targets[1] != c {
		t.Errorf("targets = %v, want [a c]", targets)
	}
}

func TestSelectorTarget(t *testing.T) {
	b := newTestBus(t)
	nav := dom.H("nav", dom.ID("menu"))
	b.Document().Body().AppendChild(nav)

	calls := 0
	if _, err := b.Subscribe(Selector("#menu"), []string{"Open"}, func(*dom.Event) { calls++ }, false); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	b.Publish("Open", nil, nav)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	_, err := b.Subscribe(Selector("#missing"), []string{"Open"}, func(*dom.Event) {}, false)
	if !gerrors.HasCode(err, "G002") {
		t.Errorf("Subscribe(#missing) error = %v, want G002", err)
	}
}

func TestSubscribeMap(t *testing.T) {
	b := newTestBus(t)
	var got []string
	off, err := b.SubscribeMap(Root(), Handlers{
		"Open":  func(*dom.Event) { got = append(got, "open") },
		"Close": func(*dom.Event) { got = append(got, "close") },
	})
	if err != nil {
		t.Fatalf("SubscribeMap() error = %v", err)
	}

	b.Publish("Open", nil, nil)
	b.Publish("Close", nil, nil)
	off()
	b.Publish("Open", nil, nil)

	if len(got) != 2 || got[0] != "open" || got[1] != "close" {
		t.Errorf("got = %v, want [open close]", got)
	}
}

func TestSubscriptionGauge(t *testing.T) {
	tel := telemetry.New(telemetry.WithRegistry(prometheus.NewRegistry()))
	b := New(dom.NewDocument(loop.New()), WithTelemetry(tel))

	off, _ := b.Subscribe(Root(), []string{"A", "B"}, func(*dom.Event) {}, false)
	b.Publish("A", nil, nil)
	off()

	families, err := tel.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		switch f.GetName() {
		case "gousse_bus_subscriptions":
			if v := f.GetMetric()[0].GetGauge().GetValue(); v != 0 {
				t.Errorf("subscriptions = %v, want 0", v)
			}
		case "gousse_bus_published_total":
			if v := f.GetMetric()[0].GetCounter().GetValue(); v != 1 {
				t.Errorf("published = %v, want 1", v)
			}
		}
	}
}
