package dom

import (
	"reflect"
	"testing"
)

func TestEventBubbles(t *testing.T) {
	outer := H("div", H("p", H("span")))
	span := outer.FirstChild().FirstChild()

	var got []string
	outer.AddEventListener("ping", func(e *Event) { got = append(got, "div") })
	span.AddEventListener("ping", func(e *Event) { got = append(got, "span") })

	span.DispatchEvent(NewEvent("ping", nil, true))
	if want := []string{"span", "div"}; !reflect.DeepEqual(got, want) {
		t.Errorf("delivery = %v, want %v", got, want)
	}

	got = nil
	span.DispatchEvent(NewEvent("ping", nil, false))
	if want := []string{"span"}; !reflect.DeepEqual(got, want) {
		t.Errorf("non-bubbling delivery = %v, want %v", got, want)
	}
}

func TestStopPropagation(t *testing.T) {
	outer := H("div", H("span"))
	span := outer.FirstChild()

	var got []string
	outer.AddEventListener("ping", func(e *Event) { got = append(got, "outer") })
	span.AddEventListener("ping", func(e *Event) {
		got = append(got, "first")
		e.StopPropagation()
	})
	span.AddEventListener("ping", func(e *Event) { got = append(got, "second") })

	span.DispatchEvent(NewEvent("ping", nil, true))
	if want := []string{"first", "second"}; !reflect.DeepEqual(got, want) {
		t.Errorf("delivery = %v, want %v", got, want)
	}
}

func TestStopImmediatePropagation(t *testing.T) {
	n := H("div")
	var got []string
	n.AddEventListener("ping", func(e *Event) {
		got = append(got, "first")
		e.StopImmediatePropagation()
	})
	n.AddEventListener("ping", func(e *Event) { got = append(got, "second") })

	n.DispatchEvent(NewEvent("ping", nil, true))
	if want := []string{"first"}; !reflect.DeepEqual(got, want) {
		t.Errorf("delivery = %v, want %v", got, want)
	}
}

func TestOnceListener(t *testing.T) {
	n := H("div")
	count := 0
	n.AddEventListenerOnce("ping", func(e *Event) { count++ })

	n.DispatchEvent(NewEvent("ping", nil, true))
	n.DispatchEvent(NewEvent("ping", nil, true))
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if n.ListenerCount("ping") != 0 {
		t.Errorf("ListenerCount = %d, want 0", n.ListenerCount("ping"))
	}
}

func TestRemoveDuringDispatch(t *testing.T) {
	n := H("div")
	var second ListenerID
	called := false
	n.AddEventListener("ping", func(e *Event) { n.RemoveEventListener("ping", second) })
	second = n.AddEventListener("ping", func(e *Event) { called = true })

	n.DispatchEvent(NewEvent("ping", nil, true))
	if called {
		t.Error("listener removed during dispatch was still called")
	}
}

func TestShadowRootBubblesToHost(t *testing.T) {
	host := H("x-card")
	root := host.AttachShadow()
	inner := root.AppendChild(H("button"))

	var target, current *Node
	host.AddEventListener("ping", func(e *Event) {
		target = e.Target
		current = e.CurrentTarget
	})
	inner.DispatchEvent(NewEvent("ping", "data", true))

	if target != inner || current != host {
		t.Errorf("target/current = %v/%v, want inner/host", target, current)
	}
}

func TestPreventDefault(t *testing.T) {
	n := H("a")
	n.AddEventListener("click", func(e *Event) { e.PreventDefault() })
	if n.DispatchEvent(NewEvent("click", nil, true)) {
		t.Error("DispatchEvent() = true, want false after PreventDefault")
	}
}
