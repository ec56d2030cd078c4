package formsg

import "strings"

// Placeholder is rendered instead of nothing so the message area keeps its
// height when no message is shown.
const Placeholder = " "

// Model is the derived view model of a View.
type Model struct {
	Visible bool
	Entries []Entry
}

// Shown returns the entries to render, or nil when messages are hidden.
func (m Model) Shown() []Entry {
	if !m.Visible {
		return nil
	}
	return m.Entries
}

// Texts returns the texts of the shown entries in order.
func (m Model) Texts() []string {
	shown := m.Shown()
	if len(shown) == 0 {
		return nil
	}
	out := make([]string, len(shown))
	for i, e := range shown {
		out[i] = e.Text
	}
	return out
}

// String renders the shown texts one per line, or Placeholder when nothing
// is shown.
func (m Model) String() string {
	texts := m.Texts()
	if len(texts) == 0 {
		return Placeholder
	}
	return strings.Join(texts, "\n")
}

// Equal reports whether two models render identically.
func (m Model) Equal(other Model) bool {
	if m.Visible != other.Visible || len(m.Entries) != len(other.Entries) {
		return false
	}
	for i := range m.Entries {
		if m.Entries[i] != other.Entries[i] {
			return false
		}
	}
	return true
}
