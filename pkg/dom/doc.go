// Package dom provides the mutable document model gousse renders into.
//
// A Node is an element, text, comment, fragment or document node. Nodes
// form a tree with parent links, carry ordered attributes and dispatch
// DOM-style events that bubble towards the document. A shadow root
// attached to an element bubbles into its host.
//
// # Building Trees
//
// Elements are created with H, which accepts typed arguments:
//
//	H("button", Class("primary"), On("click", handler), "Save")
//
// Append is the composer: it accepts nodes, fragments, nested slices,
// strings, numbers, templ components and *loop.Promise values. A promise
// child is represented by a placeholder comment until it resolves, so the
// order of children always matches the order they were passed in.
//
// # Connection
//
// A node is connected while its root is a Document. Inserting a subtree
// into a connected parent upgrades custom elements defined in the
// document's registry and runs their Connected hooks; removing it runs
// Disconnected. The legacy DOMNodeInsertedIntoDocument and
// DOMNodeRemovedFromDocument notifications are fired on every node of the
// subtree as well, unless the document was created without them.
// WatchConnection callbacks run in either case.
//
// Nodes are not safe for concurrent use. Mutate them from the goroutine
// driving the document's loop.
package dom
