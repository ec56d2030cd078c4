package formsg

import "sync"

// Override replaces the display text of one error kind for a single usage.
type Override struct {
	Kind ErrorKind
	Text string
}

// Overrides is a mutable registry of projected overrides.
//
// When several overrides share a kind, the most recently registered one wins;
// removing it reveals the previous registration. Every membership change
// publishes the new list on Changes. Safe for concurrent use.
type Overrides struct {
	mu      sync.Mutex
	entries []overrideEntry
	nextID  uint64
	changes Feed[[]Override]
}

type overrideEntry struct {
	id uint64
	Override
}

// NewOverrides creates a registry holding the given overrides in order.
func NewOverrides(initial ...Override) *Overrides {
	o := &Overrides{}
	for _, ov := range initial {
		o.nextID++
		o.entries = append(o.entries, overrideEntry{id: o.nextID, Override: ov})
	}
	return o
}

// Register adds an override and returns a function that removes it.
// The remove function is idempotent.
func (o *Overrides) Register(kind ErrorKind, text string) func() {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.entries = append(o.entries, overrideEntry{id: id, Override: Override{Kind: kind, Text: text}})
	snapshot := o.listLocked()
	o.mu.Unlock()

	o.changes.Publish(snapshot)

	return func() { o.remove(id) }
}

func (o *Overrides) remove(id uint64) {
	o.mu.Lock()
	idx := -1
	for i, e := range o.entries {
		if e.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		o.mu.Unlock()
		return
	}
	o.entries = append(o.entries[:idx:idx], o.entries[idx+1:]...)
	snapshot := o.listLocked()
	o.mu.Unlock()

	o.changes.Publish(snapshot)
}

// List returns the registered overrides in registration order.
func (o *Overrides) List() []Override {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.listLocked()
}

func (o *Overrides) listLocked() []Override {
	if len(o.entries) == 0 {
		return nil
	}
	out := make([]Override, len(o.entries))
	for i, e := range o.entries {
		out[i] = e.Override
	}
	return out
}

// Lookup returns the winning override text for kind.
func (o *Overrides) Lookup(kind ErrorKind) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return lookupOverride(o.listLocked(), kind)
}

// Changes publishes the full override list after every registration or removal.
func (o *Overrides) Changes() *Feed[[]Override] {
	return &o.changes
}

// lookupOverride scans from the end so the latest registration wins.
func lookupOverride(overrides []Override, kind ErrorKind) (string, bool) {
	for i := len(overrides) - 1; i >= 0; i-- {
		if overrides[i].Kind == kind {
			return overrides[i].Text, true
		}
	}
	return "", false
}
