// Package annotate wires markup attributes to the bus.
//
// Transform scans a subtree for data-* annotations and binds each one:
//
//	<button data-dispatch="Save" data-dispatch-value="{id}">Save</button>
//	<input data-emit="query">
//	<p data-connect="Saved" data-content="saved {event.detail.id}" data-visibility="show">
//	<span data-emitted="query" data-content="searching {value}"></span>
//
// Interpolated attributes are filled by a closed lookup: {path} and ${path}
// read a dotted path from the variables, {{ and }} are literal braces. Markup
// can never run code.
package annotate
