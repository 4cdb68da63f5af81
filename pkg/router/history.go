package router

import "sync"

// Entry is one history entry.
type Entry struct {
	URL   string
	State any
}

// History is an in-memory session history, the push-state backend of a
// Router.
type History struct {
	mu      sync.Mutex
	entries []Entry
	index   int
	onPop   func(Entry)
}

// NewHistory creates a history positioned on initial.
func NewHistory(initial string) *History {
	if initial == "" {
		initial = "/"
	}
	return &History{entries: []Entry{{URL: initial}}}
}

// Push adds an entry after the current one, dropping any forward entries.
func (h *History) Push(url string, state any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], Entry{URL: url, State: state})
	h.index = len(h.entries) - 1
}

// Replace overwrites the current entry.
func (h *History) Replace(url string, state any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = Entry{URL: url, State: state}
}

// Current returns the current entry.
func (h *History) Current() Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Back moves to the previous entry and reports it as popped. It returns
// false at the first entry.
func (h *History) Back() bool {
	return h.move(-1)
}

// Forward moves to the next entry and reports it as popped. It returns
// false at the last entry.
func (h *History) Forward() bool {
	return h.move(1)
}

func (h *History) move(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	e := h.entries[next]
	onPop := h.onPop
	h.mu.Unlock()

	if onPop != nil {
		onPop(e)
	}
	return true
}
