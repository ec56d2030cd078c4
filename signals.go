package formsg

import "github.com/zoobzio/capitan"

// Resolver lifecycle signals.
var (
	// ResolverStarted is emitted when a Resolver begins listening to its provider.
	ResolverStarted = capitan.NewSignal(
		"formsg.resolver.started",
		"Resolver listening started",
	)

	// ResolverStopped is emitted when a Resolver stops listening.
	ResolverStopped = capitan.NewSignal(
		"formsg.resolver.stopped",
		"Resolver listening stopped",
	)

	// ResolverStateChanged is emitted when a Resolver transitions between states.
	ResolverStateChanged = capitan.NewSignal(
		"formsg.resolver.state.changed",
		"Resolver state transition",
	)
)

// Snapshot processing signals.
var (
	// SnapshotReceived is emitted when a snapshot arrives from the provider.
	SnapshotReceived = capitan.NewSignal(
		"formsg.snapshot.received",
		"Configuration snapshot received",
	)

	// SnapshotFailed is emitted when a snapshot is rejected and the
	// defaults take its place.
	SnapshotFailed = capitan.NewSignal(
		"formsg.snapshot.failed",
		"Configuration snapshot rejected, defaults applied",
	)

	// SnapshotApplied is emitted when a snapshot becomes the effective configuration.
	SnapshotApplied = capitan.NewSignal(
		"formsg.snapshot.applied",
		"Configuration snapshot applied",
	)
)

// View signals.
var (
	// ViewBound is emitted when a control is bound to a View.
	ViewBound = capitan.NewSignal(
		"formsg.view.bound",
		"Control bound",
	)

	// ViewUnbound is emitted when a View's control is removed.
	ViewUnbound = capitan.NewSignal(
		"formsg.view.unbound",
		"Control unbound",
	)

	// ViewRendered is emitted when a View publishes a changed model.
	ViewRendered = capitan.NewSignal(
		"formsg.view.rendered",
		"View model changed",
	)

	// MessageMissing is emitted when a displayed error kind has neither an
	// override nor a configured producer.
	MessageMissing = capitan.NewSignal(
		"formsg.message.missing",
		"No text producer for error kind",
	)

	// WhenUnknown is emitted when a View receives an unrecognized when policy.
	WhenUnknown = capitan.NewSignal(
		"formsg.when.unknown",
		"Unrecognized when policy, showing messages always",
	)
)
