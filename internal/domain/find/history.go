package find

import "sync"

// DefaultHistorySize caps the number of remembered search terms
const DefaultHistorySize = 10

// History remembers search terms, most recent first.
// Navigation moves a cursor over the terms without reordering them.
type History struct {
	mu     sync.Mutex
	terms  []string
	limit  int
	cursor int
}

// NewHistory creates a history holding at most limit terms
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit}
}

// Push records term as the most recent entry. An exact repeat moves the
// existing entry to the front instead of duplicating it. Navigation restarts
// at the pushed term.
func (h *History) Push(term string) {
	if term == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	terms := make([]string, 0, len(h.terms)+1)
	terms = append(terms, term)
	for _, t := range h.terms {
		if t != term {
			terms = append(terms, t)
		}
	}
	if len(terms) > h.limit {
		terms = terms[:h.limit]
	}

	h.terms = terms
	h.cursor = 0
}

// Previous steps to the next older term, wrapping to the newest
func (h *History) Previous() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.terms) == 0 {
		return "", false
	}
	h.cursor = (h.cursor + 1) % len(h.terms)
	return h.terms[h.cursor], true
}

// Next steps to the next newer term, wrapping to the oldest
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.terms) == 0 {
		return "", false
	}
	h.cursor = (h.cursor - 1 + len(h.terms)) % len(h.terms)
	return h.terms[h.cursor], true
}

// Terms returns a copy of the history, most recent first
func (h *History) Terms() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.terms))
	copy(out, h.terms)
	return out
}

// Len returns the number of remembered terms
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.terms)
}
