// Package bus is the application event bus.
//
// Events are plain DOM events with a Detail payload. Publishing dispatches a
// bubbling event on a node (the document body when none is given), so a
// subscriber on the body sees every application event while a subscriber on
// a subtree only sees what is published inside it.
//
//	off, err := b.Subscribe(bus.Root(), []string{bus.RouteChanged}, func(e *dom.Event) {
//	    route := e.Detail.(router.Route)
//	    ...
//	}, false)
//	defer off()
//
//	b.Publish("CartUpdated", cart, nil)
package bus
