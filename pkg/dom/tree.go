package dom

import (
	"log/slog"

	gerrors "github.com/vango-dev/gousse/internal/errors"
)

// AppendChild appends child and returns it. A fragment child is emptied
// into n. A rejected insertion, such as an ancestor of n, is logged;
// InsertBefore(child, nil) reports it instead.
func (n *Node) AppendChild(child *Node) *Node {
	if err := n.insertBefore(child, nil); err != nil {
		logger := slog.Default()
		if doc := n.OwnerDocument(); doc != nil && doc.loop != nil {
			logger = doc.loop.Logger()
		}
		logger.Warn("appendChild rejected", "parent", n.Tag, "error", err)
	}
	return child
}

// InsertBefore inserts child before ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) error {
	return n.insertBefore(child, ref)
}

func (n *Node) insertBefore(child, ref *Node) error {
	if child == nil {
		return nil
	}
	if ref != nil && ref.parent != n {
		return gerrors.New("G003").WithDetail("insertBefore reference")
	}
	if child.Kind == KindDocument || child.Contains(n) {
		return gerrors.Newf(gerrors.CategoryDOM, "cannot insert %s into its own subtree", child.Kind)
	}

	nodes := []*Node{child}
	if child.Kind == KindFragment && child.host == nil {
		nodes = child.Children()
		for _, c := range nodes {
			child.detach(c)
		}
		child.notify(nil, nodes)
	}

	for _, c := range nodes {
		if c == ref {
			continue
		}
		if c.parent != nil {
			_ = c.parent.RemoveChild(c)
		}
		idx := len(n.children)
		if ref != nil {
			idx = n.indexOf(ref)
		}
		n.children = append(n.children, nil)
		copy(n.children[idx+1:], n.children[idx:])
		n.children[idx] = c
		c.parent = n
	}

	n.notify(nodes, nil)
	if n.IsConnected() {
		for _, c := range nodes {
			connectSubtree(c)
		}
	}
	return nil
}

// RemoveChild removes child from n.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.parent != n {
		return gerrors.New("G003").WithDetail("removeChild")
	}
	doc := n.OwnerDocument()
	var subtree []*Node
	if doc != nil {
		subtree = collectSubtree(child)
	}

	n.detach(child)
	n.notify(nil, []*Node{child})

	if doc != nil {
		disconnectNodes(subtree, doc.LegacyMutationEvents)
	}
	return nil
}

func (n *Node) detach(child *Node) {
	if i := n.indexOf(child); i >= 0 {
		n.children = append(n.children[:i], n.children[i+1:]...)
	}
	child.parent = nil
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	if n.parent != nil {
		_ = n.parent.RemoveChild(n)
	}
}

// ReplaceWith puts nodes where n is and detaches n.
func (n *Node) ReplaceWith(nodes ...*Node) error {
	parent := n.parent
	if parent == nil {
		return gerrors.New("G003").WithDetail("replaceWith on a detached node")
	}
	for _, r := range nodes {
		if r == n {
			continue
		}
		if err := parent.insertBefore(r, n); err != nil {
			return err
		}
	}
	for _, r := range nodes {
		if r == n {
			return nil
		}
	}
	return parent.RemoveChild(n)
}

// Clear removes every child.
func (n *Node) Clear() {
	for len(n.children) > 0 {
		_ = n.RemoveChild(n.children[len(n.children)-1])
	}
}

func collectSubtree(root *Node) []*Node {
	var out []*Node
	root.walk(func(n *Node) bool {
		out = append(out, n)
		return !n.isTemplate()
	})
	return out
}

// isTemplate reports whether n is a <template>, whose content stays inert:
// it is neither upgraded nor notified of connection changes.
func (n *Node) isTemplate() bool {
	return n.Kind == KindElement && n.Tag == "template"
}

// connectSubtree runs connection reactions for a freshly inserted subtree.
// Reactions may mutate the tree, so each node is re-checked first.
func connectSubtree(root *Node) {
	doc := root.OwnerDocument()
	if doc == nil {
		return
	}
	for _, n := range collectSubtree(root) {
		if !n.IsConnected() {
			continue
		}
		doc.registry.upgrade(n)
		if n.hooks != nil {
			n.hooks.Connected()
		}
		n.notifyWatchers(true)
		if doc.LegacyMutationEvents {
			n.DispatchEvent(NewEvent(EventInsertedIntoDocument, nil, false))
		}
	}
}

func disconnectNodes(nodes []*Node, legacy bool) {
	for _, n := range nodes {
		if n.IsConnected() {
			continue
		}
		if n.hooks != nil {
			n.hooks.Disconnected()
		}
		n.notifyWatchers(false)
		if legacy {
			n.DispatchEvent(NewEvent(EventRemovedFromDocument, nil, false))
		}
	}
}

type connectionWatcher struct {
	fn func(connected bool)
}

// WatchConnection registers fn to run after n is connected to or
// disconnected from its document, once the mutation has completed. It runs
// whether or not the legacy mutation events are enabled. The returned func
// cancels the registration.
func (n *Node) WatchConnection(fn func(connected bool)) (cancel func()) {
	w := &connectionWatcher{fn: fn}
	n.watchers = append(n.watchers, w)
	return func() {
		for i, x := range n.watchers {
			if x == w {
				n.watchers = append(n.watchers[:i:i], n.watchers[i+1:]...)
				return
			}
		}
	}
}

func (n *Node) notifyWatchers(connected bool) {
	if len(n.watchers) == 0 {
		return
	}
	for _, w := range append([]*connectionWatcher(nil), n.watchers...) {
		w.fn(connected)
	}
}
