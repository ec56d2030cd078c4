package formsg

// Entry is one rendered message.
type Entry struct {
	Kind ErrorKind
	Text string
}

// Project selects the errors to display and resolves their text.
//
// With single set, only the first error in insertion order is considered.
// Text comes from the latest override registered for the kind, otherwise
// from cfg's producer invoked with the error payload. Kinds with neither are
// rendered with empty text and reported in missing. A kind repeated in errs
// is rendered once, at its first position.
func Project(errs Errors, cfg Config, overrides []Override, single bool) (entries []Entry, missing []ErrorKind) {
	if len(errs) == 0 {
		return nil, nil
	}
	selected := errs
	if single {
		selected = errs[:1]
	}

	entries = make([]Entry, 0, len(selected))
	for _, ve := range selected {
		if containsKind(entries, ve.Kind) {
			continue
		}
		if text, ok := lookupOverride(overrides, ve.Kind); ok {
			entries = append(entries, Entry{Kind: ve.Kind, Text: text})
			continue
		}
		if produce := cfg[ve.Kind]; produce != nil {
			entries = append(entries, Entry{Kind: ve.Kind, Text: produce(ve.Payload)})
			continue
		}
		missing = append(missing, ve.Kind)
		entries = append(entries, Entry{Kind: ve.Kind})
	}
	return entries, missing
}

func containsKind(entries []Entry, kind ErrorKind) bool {
	for _, e := range entries {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
