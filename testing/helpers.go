// Package testing provides test utilities and helpers for formsg views and
// resolvers.
package testing

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/zoobzio/formsg"
)

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForState waits until the resolver reaches the expected state or timeout occurs.
func WaitForState(t *testing.T, r *formsg.Resolver, expected formsg.State, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return r.State() == expected
	})
}

// RequireState fails the test immediately if the resolver is not in the expected state.
func RequireState(t *testing.T, r *formsg.Resolver, expected formsg.State) {
	t.Helper()
	if got := r.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireModel fails the test immediately if the view does not render
// exactly the expected texts. No texts means the placeholder.
func RequireModel(t *testing.T, v *formsg.View, expected ...string) {
	t.Helper()
	m := v.Model()
	if diff := cmp.Diff(expected, m.Texts(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("texts mismatch (-want +got):\n%s", diff)
	}
	if len(expected) == 0 && m.String() != formsg.Placeholder {
		t.Fatalf("expected placeholder, got %q", m.String())
	}
}

// NewTestView creates a view whose resolver runs in sync mode, fed by the
// returned channel. Send the first snapshot before calling Start, then use
// Resolver().Process to apply each later one. The view is closed when the
// test ends.
func NewTestView(t *testing.T, opts ...formsg.Option) (*formsg.View, chan<- formsg.Snapshot) {
	t.Helper()
	ch := make(chan formsg.Snapshot, 10)
	opts = append(opts,
		formsg.WithProvider(formsg.Snapshots(ch)),
		formsg.WithResolver(func(r *formsg.Resolver) { r.SyncMode() }),
	)
	v := formsg.NewView(opts...)
	t.Cleanup(v.Close)
	return v, ch
}
