// Package emit turns input nodes into named value sources.
//
// An emitter publishes ValueEmitted with an Emitted{Name, Value} payload
// whenever its node changes. An emitter context catches those events for a
// subtree, stops them and records the latest value per name in a Sink, so
// the nearest enclosing context owns the value.
package emit
