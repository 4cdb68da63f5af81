// Package connect keeps a container's content in sync with the latest
// result of a listener.
//
// The listener runs each time one of the subscribed events is published
// (or once when a promise settles) and its result decides what the
// container shows:
//
//   - false clears the container
//   - nil or "" leaves the current content in place
//   - a *loop.Promise is awaited and its value handled by the same rules
//   - anything else accepted by dom.Append replaces the content
//
// Replacement happens in one step once the result is available. Overlapping
// deferred results are not cancelled: whichever resolves last is shown.
package connect
