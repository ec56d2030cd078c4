package formsg

import (
	"reflect"
	"sync"
)

// Control is the read side of a bound form field.
type Control interface {
	// Errors returns the current validation errors in insertion order.
	// A nil result means the control is valid.
	Errors() Errors

	// Status returns the current validation status.
	Status() Status

	// Touched reports whether the user has interacted with the field.
	Touched() bool

	// Dirty reports whether the user has changed the field's value.
	Dirty() bool

	// StatusChanges publishes the status after every validation run.
	StatusChanges() *Feed[Status]
}

// Marker is the mutation API for a control's touched and dirty flags.
type Marker interface {
	MarkAsTouched()
	MarkAsUntouched()
	MarkAsDirty()
	MarkAsPristine()
}

// ObservedControl is a Control that publishes touched and dirty changes.
// Feeds publish after the flag has been updated on the control.
type ObservedControl interface {
	Control
	TouchedChanges() *Feed[bool]
	DirtyChanges() *Feed[bool]
}

// TrackableControl is a Control whose flags can only be changed through its
// Marker methods and which does not publish those changes itself.
type TrackableControl interface {
	Control
	Marker
}

// TrackedControl is an ObservedControl that also exposes the Marker API.
type TrackedControl interface {
	ObservedControl
	Marker
}

// Track wraps c so that every call to its Marker methods is published on the
// TouchedChanges and DirtyChanges feeds. The wrapped control is called first,
// so its own side effects are unchanged and visible to subscribers.
//
// Mutations only publish when made through the returned value. If c already
// publishes its flag changes, it is returned as is. Tracking the same
// control again returns the same wrapper until Untrack releases it, so every
// holder publishes on the same feeds. Controls of non-comparable types get a
// new wrapper on every call.
func Track(c TrackableControl) TrackedControl {
	if c == nil {
		return nil
	}
	if tc, ok := c.(TrackedControl); ok {
		return tc
	}
	if !reflect.TypeOf(c).Comparable() {
		return &trackedControl{TrackableControl: c}
	}
	if existing, ok := trackedControls.Load(c); ok {
		return existing.(*trackedControl)
	}
	actual, _ := trackedControls.LoadOrStore(c, &trackedControl{TrackableControl: c})
	return actual.(*trackedControl)
}

// Untrack releases the wrapper Track holds for c. Existing wrappers keep
// working; the next Track call creates a new one.
func Untrack(c TrackableControl) {
	if c == nil {
		return
	}
	if tc, ok := c.(*trackedControl); ok {
		c = tc.TrackableControl
	}
	if !reflect.TypeOf(c).Comparable() {
		return
	}
	trackedControls.Delete(c)
}

// trackedControls maps each tracked control to its wrapper.
var trackedControls sync.Map

// trackedControl decorates a TrackableControl with change feeds.
type trackedControl struct {
	TrackableControl
	touched Feed[bool]
	dirty   Feed[bool]
}

func (t *trackedControl) TouchedChanges() *Feed[bool] { return &t.touched }
func (t *trackedControl) DirtyChanges() *Feed[bool]   { return &t.dirty }

func (t *trackedControl) MarkAsTouched() {
	t.TrackableControl.MarkAsTouched()
	t.touched.Publish(true)
}

func (t *trackedControl) MarkAsUntouched() {
	t.TrackableControl.MarkAsUntouched()
	t.touched.Publish(false)
}

func (t *trackedControl) MarkAsDirty() {
	t.TrackableControl.MarkAsDirty()
	t.dirty.Publish(true)
}

func (t *trackedControl) MarkAsPristine() {
	t.TrackableControl.MarkAsPristine()
	t.dirty.Publish(false)
}

// Unwrap returns the wrapped control.
func (t *trackedControl) Unwrap() TrackableControl {
	return t.TrackableControl
}
