package bus

import (
	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/dom"
)

// Target resolves to the nodes a subscription is attached to.
type Target interface {
	Nodes(doc *dom.Document) ([]*dom.Node, error)
}

type rootTarget struct{}

func (rootTarget) Nodes(doc *dom.Document) ([]*dom.Node, error) {
	return []*dom.Node{doc.Body()}, nil
}

// Root targets the document body, where global events are published.
func Root() Target { return rootTarget{} }

type nodeTarget struct{ node *dom.Node }

func (t nodeTarget) Nodes(doc *dom.Document) ([]*dom.Node, error) {
	if t.node == nil {
		return []*dom.Node{doc.Body()}, nil
	}
	if t.node.Kind == dom.KindFragment {
		return t.node.Children(), nil
	}
	return []*dom.Node{t.node}, nil
}

// NodeTarget targets n. A fragment targets each of its current children;
// nil targets the document body.
func NodeTarget(n *dom.Node) Target { return nodeTarget{node: n} }

type selectorTarget struct{ sel string }

func (t selectorTarget) Nodes(doc *dom.Document) ([]*dom.Node, error) {
	n, err := doc.QuerySelector(t.sel)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, gerrors.New("G002").WithDetailf("selector %q", t.sel)
	}
	return []*dom.Node{n}, nil
}

// Selector targets the first element in the document matching sel,
// resolved when the subscription is made.
func Selector(sel string) Target { return selectorTarget{sel: sel} }
