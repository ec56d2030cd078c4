package formsg

import "sync/atomic"

// Form is the host form a control belongs to.
type Form interface {
	// Submitted reports whether a submit has been attempted.
	Submitted() bool

	// Submits publishes the submitted flag on every submit or reset.
	Submits() *Feed[bool]
}

// FormState is a minimal Form whose submitted flag latches on Submit and is
// cleared only by Reset.
type FormState struct {
	submitted atomic.Bool
	submits   Feed[bool]
}

// NewFormState creates an unsubmitted FormState.
func NewFormState() *FormState {
	return &FormState{}
}

// Submit records a submit attempt.
func (f *FormState) Submit() {
	f.submitted.Store(true)
	f.submits.Publish(true)
}

// Reset clears the submitted flag.
func (f *FormState) Reset() {
	f.submitted.Store(false)
	f.submits.Publish(false)
}

// Submitted reports whether a submit has been attempted since the last reset.
func (f *FormState) Submitted() bool {
	return f.submitted.Load()
}

// Submits returns the submit feed.
func (f *FormState) Submits() *Feed[bool] {
	return &f.submits
}

var _ Form = (*FormState)(nil)
