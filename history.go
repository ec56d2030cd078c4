package formsg

import "sync"

// errorHistory keeps the most recent resolution errors, oldest first.
// A nil history records nothing.
type errorHistory struct {
	mu    sync.Mutex
	limit int
	errs  []error
}

// newErrorHistory returns a history bounded to limit entries, or nil when
// limit is not positive.
func newErrorHistory(limit int) *errorHistory {
	if limit <= 0 {
		return nil
	}
	return &errorHistory{limit: limit, errs: make([]error, 0, limit)}
}

func (h *errorHistory) push(err error) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.errs) == h.limit {
		copy(h.errs, h.errs[1:])
		h.errs = h.errs[:h.limit-1]
	}
	h.errs = append(h.errs, err)
}

func (h *errorHistory) reset() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.errs)
	h.errs = h.errs[:0]
}

func (h *errorHistory) list() []error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.errs) == 0 {
		return nil
	}
	out := make([]error, len(h.errs))
	copy(out, h.errs)
	return out
}
