package formsg

import "github.com/zoobzio/capitan"

// Field keys for formsg events.
var (
	// KeyState is the current state of a Resolver.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyStage is the processing stage where a snapshot failed.
	KeyStage = capitan.NewStringKey("stage")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyKind is the error kind a message refers to.
	KeyKind = capitan.NewStringKey("kind")

	// KeyWhen is the when policy a View received.
	KeyWhen = capitan.NewStringKey("when")

	// KeyVisible is "true" when a rendered model shows messages.
	KeyVisible = capitan.NewStringKey("visible")

	// KeyEntries is the number of entries in a rendered model.
	KeyEntries = capitan.NewIntKey("entries")
)
