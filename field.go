package formsg

import (
	"context"
	"sync"
)

// ValidatorFunc checks a value and returns its errors, or nil when valid.
type ValidatorFunc func(value any) Errors

// AsyncValidatorFunc checks a value asynchronously. It should return
// promptly once ctx is canceled; its result is then discarded.
type AsyncValidatorFunc func(ctx context.Context, value any) Errors

// Field is a reference form control. It publishes its status, touched and
// dirty changes natively, so it can be bound to a View without Track.
//
// Every mutating method updates all affected state before publishing, so a
// subscriber always reads a settled Field. Safe for concurrent use.
type Field struct {
	mu              sync.Mutex
	value           any
	errors          Errors
	status          Status
	touched         bool
	dirty           bool
	disabled        bool
	validators      []ValidatorFunc
	asyncValidators []AsyncValidatorFunc
	asyncCancel     context.CancelFunc
	asyncGen        uint64

	statusChanges  Feed[Status]
	touchedChanges Feed[bool]
	dirtyChanges   Feed[bool]
	valueChanges   Feed[any]
}

// NewField creates a Field holding value, validated by validators in order.
func NewField(value any, validators ...ValidatorFunc) *Field {
	f := &Field{value: value, validators: validators}
	f.mu.Lock()
	f.validateLocked()
	f.mu.Unlock()
	return f
}

// Value returns the current value.
func (f *Field) Value() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Errors implements Control.
func (f *Field) Errors() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errors) == 0 {
		return nil
	}
	out := make(Errors, len(f.errors))
	copy(out, f.errors)
	return out
}

// Status implements Control.
func (f *Field) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Touched implements Control.
func (f *Field) Touched() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

// Dirty implements Control.
func (f *Field) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

// StatusChanges implements Control.
func (f *Field) StatusChanges() *Feed[Status] { return &f.statusChanges }

// TouchedChanges implements ObservedControl.
func (f *Field) TouchedChanges() *Feed[bool] { return &f.touchedChanges }

// DirtyChanges implements ObservedControl.
func (f *Field) DirtyChanges() *Feed[bool] { return &f.dirtyChanges }

// ValueChanges publishes every new value.
func (f *Field) ValueChanges() *Feed[any] { return &f.valueChanges }

// SetValue replaces the value programmatically and revalidates. It does not
// change the dirty flag.
func (f *Field) SetValue(value any) {
	f.mu.Lock()
	f.value = value
	status := f.validateLocked()
	f.mu.Unlock()

	f.valueChanges.Publish(value)
	f.statusChanges.Publish(status)
}

// Input records a user edit: the Field becomes dirty and takes value.
func (f *Field) Input(value any) {
	f.mu.Lock()
	f.dirty = true
	f.value = value
	status := f.validateLocked()
	f.mu.Unlock()

	f.dirtyChanges.Publish(true)
	f.valueChanges.Publish(value)
	f.statusChanges.Publish(status)
}

// Blur records the user leaving the field.
func (f *Field) Blur() {
	f.MarkAsTouched()
}

// MarkAsTouched implements Marker.
func (f *Field) MarkAsTouched() {
	f.setFlag(&f.touched, true, &f.touchedChanges)
}

// MarkAsUntouched implements Marker.
func (f *Field) MarkAsUntouched() {
	f.setFlag(&f.touched, false, &f.touchedChanges)
}

// MarkAsDirty implements Marker.
func (f *Field) MarkAsDirty() {
	f.setFlag(&f.dirty, true, &f.dirtyChanges)
}

// MarkAsPristine implements Marker.
func (f *Field) MarkAsPristine() {
	f.setFlag(&f.dirty, false, &f.dirtyChanges)
}

func (f *Field) setFlag(flag *bool, value bool, feed *Feed[bool]) {
	f.mu.Lock()
	*flag = value
	f.mu.Unlock()
	feed.Publish(value)
}

// SetValidators replaces the synchronous validators. Call
// UpdateValueAndValidity to apply them.
func (f *Field) SetValidators(validators ...ValidatorFunc) {
	f.mu.Lock()
	f.validators = validators
	f.mu.Unlock()
}

// SetAsyncValidators replaces the asynchronous validators. They run only
// when every synchronous validator passes. Call UpdateValueAndValidity to
// apply them.
func (f *Field) SetAsyncValidators(validators ...AsyncValidatorFunc) {
	f.mu.Lock()
	f.asyncValidators = validators
	f.mu.Unlock()
}

// UpdateValueAndValidity reruns validation for the current value.
func (f *Field) UpdateValueAndValidity() {
	f.mu.Lock()
	status := f.validateLocked()
	f.mu.Unlock()

	f.statusChanges.Publish(status)
}

// Disable exempts the Field from validation and clears its errors.
func (f *Field) Disable() {
	f.mu.Lock()
	f.disabled = true
	status := f.validateLocked()
	f.mu.Unlock()

	f.statusChanges.Publish(status)
}

// Enable reinstates validation.
func (f *Field) Enable() {
	f.mu.Lock()
	f.disabled = false
	status := f.validateLocked()
	f.mu.Unlock()

	f.statusChanges.Publish(status)
}

// Reset sets value and returns the Field to untouched and pristine.
func (f *Field) Reset(value any) {
	f.mu.Lock()
	f.value = value
	f.touched = false
	f.dirty = false
	status := f.validateLocked()
	f.mu.Unlock()

	f.touchedChanges.Publish(false)
	f.dirtyChanges.Publish(false)
	f.valueChanges.Publish(value)
	f.statusChanges.Publish(status)
}

// validateLocked runs the validators and returns the new status. Any
// asynchronous run still in flight is canceled. Must hold f.mu.
func (f *Field) validateLocked() Status {
	if f.asyncCancel != nil {
		f.asyncCancel()
		f.asyncCancel = nil
	}
	f.asyncGen++

	if f.disabled {
		f.errors = nil
		f.status = StatusDisabled
		return f.status
	}

	var errs Errors
	for _, validate := range f.validators {
		errs = errs.Merge(validate(f.value))
	}
	f.errors = errs
	if len(errs) > 0 {
		f.status = StatusInvalid
		return f.status
	}

	if len(f.asyncValidators) == 0 {
		f.status = StatusValid
		return f.status
	}

	f.status = StatusPending
	ctx, cancel := context.WithCancel(context.Background())
	f.asyncCancel = cancel
	go f.runAsync(ctx, f.asyncGen, f.value, f.asyncValidators)
	return f.status
}

func (f *Field) runAsync(ctx context.Context, gen uint64, value any, validators []AsyncValidatorFunc) {
	var errs Errors
	for _, validate := range validators {
		errs = errs.Merge(validate(ctx, value))
		if ctx.Err() != nil {
			return
		}
	}

	f.mu.Lock()
	if gen != f.asyncGen {
		f.mu.Unlock()
		return
	}
	f.asyncCancel = nil
	f.errors = errs
	f.status = StatusValid
	if len(errs) > 0 {
		f.status = StatusInvalid
	}
	status := f.status
	f.mu.Unlock()

	f.statusChanges.Publish(status)
}

var _ TrackedControl = (*Field)(nil)
