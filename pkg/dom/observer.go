package dom

import "github.com/vango-dev/gousse/pkg/loop"

// MutationRecord describes one child-list change.
type MutationRecord struct {
	Target  *Node
	Added   []*Node
	Removed []*Node
}

// MutationObserver watches child-list changes on the nodes it observes and
// delivers batched records as a loop task.
type MutationObserver struct {
	loop      *loop.Loop
	callback  func(records []MutationRecord, o *MutationObserver)
	targets   []*Node
	records   []MutationRecord
	scheduled bool
}

// NewMutationObserver creates an observer delivering on l.
func NewMutationObserver(l *loop.Loop, callback func(records []MutationRecord, o *MutationObserver)) *MutationObserver {
	return &MutationObserver{loop: l, callback: callback}
}

// Observe starts watching n's child list.
func (o *MutationObserver) Observe(n *Node) {
	for _, t := range o.targets {
		if t == n {
			return
		}
	}
	o.targets = append(o.targets, n)
	n.observers = append(n.observers, o)
}

// Disconnect stops watching every target and drops undelivered records.
func (o *MutationObserver) Disconnect() {
	for _, t := range o.targets {
		for i, obs := range t.observers {
			if obs == o {
				t.observers = append(t.observers[:i], t.observers[i+1:]...)
				break
			}
		}
	}
	o.targets = nil
	o.records = nil
}

// TakeRecords returns and clears the undelivered records.
func (o *MutationObserver) TakeRecords() []MutationRecord {
	out := o.records
	o.records = nil
	return out
}

func (o *MutationObserver) enqueue(rec MutationRecord) {
	o.records = append(o.records, rec)
	if o.scheduled {
		return
	}
	o.scheduled = true
	o.loop.Post(o.flush)
}

func (o *MutationObserver) flush() {
	o.scheduled = false
	records := o.TakeRecords()
	if len(records) == 0 {
		return
	}
	o.callback(records, o)
}

func (n *Node) notify(added, removed []*Node) {
	if len(n.observers) == 0 || (len(added) == 0 && len(removed) == 0) {
		return
	}
	rec := MutationRecord{Target: n, Added: added, Removed: removed}
	for _, o := range n.observers {
		o.enqueue(rec)
	}
}
