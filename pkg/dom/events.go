package dom

// Legacy mutation notifications fired on every node of a subtree when it is
// connected to or disconnected from a document. They do not bubble.
const (
	EventInsertedIntoDocument = "DOMNodeInsertedIntoDocument"
	EventRemovedFromDocument  = "DOMNodeRemovedFromDocument"
)

// ListenerID identifies a registered listener for removal. Go functions
// cannot be compared, so every registration gets its own id.
type ListenerID uint64

// Listener receives dispatched events.
type Listener func(e *Event)

type listener struct {
	id      ListenerID
	fn      Listener
	once    bool
	removed bool
}

// Event is a DOM-style event.
type Event struct {
	// Type is the event name (e.g. "click", "RouteChanged").
	Type string

	// Detail carries the payload of custom events.
	Detail any

	// Bubbles makes the event travel from the target up to the document.
	Bubbles bool

	// Cancelable allows PreventDefault to take effect.
	Cancelable bool

	// Target is the node the event was dispatched on.
	Target *Node

	// CurrentTarget is the node whose listeners are running.
	CurrentTarget *Node

	stopped          bool
	stoppedImmediate bool
	defaultPrevented bool
}

// NewEvent creates an event.
func NewEvent(typ string, detail any, bubbles bool) *Event {
	return &Event{Type: typ, Detail: detail, Bubbles: bubbles, Cancelable: true}
}

// StopPropagation prevents the event from reaching further ancestors.
// Remaining listeners on the current node still run.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// StopImmediatePropagation stops the event right after the running
// listener.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
}

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool {
	return e.stopped
}

// PreventDefault marks a cancelable event as canceled.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether PreventDefault took effect.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// AddEventListener registers fn for events of type typ. Listeners are
// called in registration order.
func (n *Node) AddEventListener(typ string, fn Listener) ListenerID {
	return n.addListener(typ, fn, false)
}

// AddEventListenerOnce registers fn and removes it after its first call.
func (n *Node) AddEventListenerOnce(typ string, fn Listener) ListenerID {
	return n.addListener(typ, fn, true)
}

func (n *Node) addListener(typ string, fn Listener, once bool) ListenerID {
	if fn == nil {
		return 0
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]*listener)
	}
	n.nextListener++
	id := n.nextListener
	n.listeners[typ] = append(n.listeners[typ], &listener{id: id, fn: fn, once: once})
	return id
}

// RemoveEventListener removes a listener by id. It returns false when no
// such listener is registered.
func (n *Node) RemoveEventListener(typ string, id ListenerID) bool {
	entries := n.listeners[typ]
	for i, l := range entries {
		if l.id == id {
			l.removed = true
			n.listeners[typ] = append(entries[:i:i], entries[i+1:]...)
			if len(n.listeners[typ]) == 0 {
				delete(n.listeners, typ)
			}
			return true
		}
	}
	return false
}

// ListenerCount returns how many listeners are registered for typ.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// DispatchEvent delivers e to n and, when e bubbles, to each ancestor. It
// returns false if a listener called PreventDefault.
func (n *Node) DispatchEvent(e *Event) bool {
	e.Target = n
	e.stopped = false
	e.stoppedImmediate = false

	path := []*Node{n}
	if e.Bubbles {
		for p := n.eventParent(); p != nil; p = p.eventParent() {
			path = append(path, p)
		}
	}

	for _, cur := range path {
		e.CurrentTarget = cur
		cur.invoke(e)
		if e.stopped {
			break
		}
	}
	e.CurrentTarget = nil
	return !e.defaultPrevented
}

func (n *Node) eventParent() *Node {
	if n.parent != nil {
		return n.parent
	}
	return n.host
}

func (n *Node) invoke(e *Event) {
	entries := n.listeners[e.Type]
	if len(entries) == 0 {
		return
	}
	snapshot := make([]*listener, len(entries))
	copy(snapshot, entries)

	for _, l := range snapshot {
		if l.removed {
			continue
		}
		if l.once {
			n.RemoveEventListener(e.Type, l.id)
		}
		l.fn(e)
		if e.stoppedImmediate {
			return
		}
	}
}
