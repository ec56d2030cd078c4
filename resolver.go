package formsg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

var (
	// ErrResolverStarted is returned when Start is called more than once.
	ErrResolverStarted = errors.New("resolver already started")

	// ErrProviderClosed is returned when a provider closes without emitting.
	ErrProviderClosed = errors.New("provider closed before emitting initial configuration")
)

var (
	defaultsID = pipz.NewIdentity("formsg:defaults", "Fill missing well-known kinds with built-in producers")
	applyID    = pipz.NewIdentity("formsg:apply", "Deliver the effective configuration")
)

// Update carries one snapshot through the resolution pipeline.
type Update struct {
	// Previous is the effective configuration before this update.
	Previous Config

	// Source is the configuration as emitted by the provider. Stages
	// registered with Use may replace or modify it.
	Source Config

	// Current is the effective configuration, set by the defaults stage.
	Current Config
}

// Resolver turns the snapshots of a Provider into a continuously updated
// effective configuration and delivers every change to a callback.
//
// Each snapshot is completed against the built-in defaults on its own;
// snapshots never merge with each other. A snapshot that fails at any stage
// is replaced by the defaults and recorded in LastError.
type Resolver struct {
	provider       Provider
	apply          func(ctx context.Context, cfg Config) error
	stages         []pipz.Chainable[*Update]
	debounce       time.Duration
	startupTimeout time.Duration
	syncMode       bool
	clock          clockz.Clock
	metrics        MetricsProvider
	onStop         func(State)

	state     atomic.Int32
	current   atomic.Pointer[Config]
	lastError atomic.Pointer[error]
	history   *errorHistory

	mu      sync.Mutex
	started bool

	// For sync mode: channel to receive snapshots
	snapshots <-chan Snapshot
}

// NewResolver creates a Resolver for p. A nil provider resolves to the
// defaults. fn receives every new effective configuration.
func NewResolver(p Provider, fn func(ctx context.Context, cfg Config) error) *Resolver {
	if p == nil {
		p = Static(nil)
	}
	if fn == nil {
		fn = func(context.Context, Config) error { return nil }
	}
	r := &Resolver{
		provider: p,
		apply:    fn,
		clock:    clockz.RealClock,
	}
	r.state.Store(int32(StateLoading))
	return r
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Debounce coalesces snapshots arriving within d into the latest one.
// Default: 0, every snapshot is applied. Must be called before Start().
func (r *Resolver) Debounce(d time.Duration) *Resolver {
	r.debounce = d
	return r
}

// SyncMode enables synchronous processing for testing.
// In sync mode only the initial snapshot is processed by Start; use Process
// to apply subsequent ones. Must be called before Start().
func (r *Resolver) SyncMode() *Resolver {
	r.syncMode = true
	return r
}

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce testing.
// Must be called before Start().
func (r *Resolver) Clock(clock clockz.Clock) *Resolver {
	r.clock = clock
	return r
}

// StartupTimeout bounds how long Start waits for the first snapshot. When it
// elapses, the defaults stay in effect, Start returns an error and a late
// snapshot is still applied when it arrives.
// Default: no timeout. Must be called before Start().
func (r *Resolver) StartupTimeout(d time.Duration) *Resolver {
	r.startupTimeout = d
	return r
}

// Metrics sets a metrics provider. Must be called before Start().
func (r *Resolver) Metrics(provider MetricsProvider) *Resolver {
	r.metrics = provider
	return r
}

// OnStop sets a callback invoked with the final state when the Resolver
// stops listening. Must be called before Start().
func (r *Resolver) OnStop(fn func(State)) *Resolver {
	r.onStop = fn
	return r
}

// ErrorHistorySize sets the number of recent errors to retain.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before Start().
func (r *Resolver) ErrorHistorySize(n int) *Resolver {
	r.history = newErrorHistory(n)
	return r
}

// Use appends pipeline stages that run before the defaults are filled in.
// Stages may rewrite Update.Source; a stage error rejects the snapshot.
// Must be called before Start().
func (r *Resolver) Use(stages ...pipz.Chainable[*Update]) *Resolver {
	r.stages = append(r.stages, stages...)
	return r
}

// State returns the current state of the Resolver.
func (r *Resolver) State() State {
	return State(r.state.Load())
}

// Current returns the effective configuration and true, or the defaults and
// false if no snapshot has been processed yet.
func (r *Resolver) Current() (Config, bool) {
	ptr := r.current.Load()
	if ptr == nil {
		return Defaults(), false
	}
	return *ptr, true
}

// LastError returns the last error encountered, or nil after a successful
// snapshot.
func (r *Resolver) LastError() error {
	ptr := r.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns the recent error history, oldest first.
// Returns nil if error history is not enabled (see ErrorHistorySize).
func (r *Resolver) ErrorHistory() []error {
	return r.history.list()
}

// Start asks the provider for snapshots and blocks until the first one is
// processed, then keeps listening asynchronously until ctx ends or the
// provider closes. The returned error reports a failed first snapshot; the
// defaults are in effect in that case.
//
// Start can only be called once. Subsequent calls return ErrResolverStarted.
func (r *Resolver) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrResolverStarted
	}
	r.started = true
	r.mu.Unlock()

	capitan.Emit(ctx, ResolverStarted,
		KeyDebounce.Field(r.debounce),
	)

	snapshots, err := r.provider.Provide(ctx)
	if err != nil {
		return r.fail(ctx, "provide", fmt.Errorf("failed to start provider: %w", err), r.clock.Now())
	}

	startupCtx := ctx
	if r.startupTimeout > 0 {
		var cancel context.CancelFunc
		startupCtx, cancel = r.clock.WithTimeout(ctx, r.startupTimeout)
		defer cancel()
	}

	var initialErr error
	select {
	case <-startupCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		initialErr = r.fail(ctx, "provide",
			fmt.Errorf("startup timeout: provider did not emit within %v", r.startupTimeout), r.clock.Now())
	case snap, ok := <-snapshots:
		if !ok {
			return r.fail(ctx, "provide", ErrProviderClosed, r.clock.Now())
		}
		r.received(ctx)
		initialErr = r.process(ctx, snap)
	}

	if r.syncMode {
		r.snapshots = snapshots
		return initialErr
	}

	go r.watch(ctx, snapshots)

	return initialErr
}

// Process applies the next pending snapshot in sync mode.
// Returns false if no snapshot is available, the provider has closed, or the
// Resolver is not in sync mode.
func (r *Resolver) Process(ctx context.Context) bool {
	if !r.syncMode || r.snapshots == nil {
		return false
	}

	select {
	case snap, ok := <-r.snapshots:
		if !ok {
			return false
		}
		r.received(ctx)
		_ = r.process(ctx, snap) //nolint:errcheck // Errors stored via setError
		return true
	default:
		return false
	}
}

func (r *Resolver) received(ctx context.Context) {
	capitan.Emit(ctx, SnapshotReceived)
	if r.metrics != nil {
		r.metrics.OnSnapshotReceived()
	}
}

// process runs one snapshot through the pipeline.
func (r *Resolver) process(ctx context.Context, snap Snapshot) error {
	start := r.clock.Now()

	if snap.Err != nil {
		return r.fail(ctx, "provide", snap.Err, start)
	}

	prev, _ := r.Current()
	update := &Update{Previous: prev, Source: snap.Config}

	chain := r.pipeline()
	for i, s := range chain {
		next, err := s.Process(ctx, update)
		if err != nil {
			stage := "pipeline"
			if i == len(chain)-1 {
				stage = "apply"
			}
			return r.fail(ctx, stage, err, start)
		}
		if next != nil {
			update = next
		}
	}

	r.current.Store(&update.Current)
	r.lastError.Store(nil)
	r.history.reset()
	r.transitionState(ctx, StateResolved)
	capitan.Emit(ctx, SnapshotApplied)
	if r.metrics != nil {
		r.metrics.OnResolveSuccess(r.clock.Since(start))
	}
	return nil
}

// pipeline returns the user stages followed by the defaults and apply stages.
func (r *Resolver) pipeline() []pipz.Chainable[*Update] {
	chain := make([]pipz.Chainable[*Update], 0, len(r.stages)+2)
	for _, s := range r.stages {
		if s != nil {
			chain = append(chain, s)
		}
	}
	chain = append(chain,
		pipz.Transform(defaultsID, func(_ context.Context, u *Update) *Update {
			u.Current = Effective(u.Source)
			return u
		}),
		pipz.Effect(applyID, func(ctx context.Context, u *Update) error {
			return r.apply(ctx, u.Current)
		}),
	)
	return chain
}

// fail records err, installs the defaults and notifies the callback.
func (r *Resolver) fail(ctx context.Context, stage string, err error, start time.Time) error {
	r.setError(err)

	defaults := Defaults()
	r.current.Store(&defaults)
	_ = r.apply(ctx, defaults) //nolint:errcheck // Defaults are best effort after a failure

	r.transitionState(ctx, StateFallback)
	capitan.Emit(ctx, SnapshotFailed,
		KeyStage.Field(stage),
		KeyError.Field(err.Error()),
	)
	if r.metrics != nil {
		r.metrics.OnResolveFailure(stage, r.clock.Since(start))
	}
	return fmt.Errorf("%s failed: %w", stage, err)
}

// transitionState updates the state and emits a state change event if changed.
func (r *Resolver) transitionState(ctx context.Context, newState State) {
	oldState := State(r.state.Swap(int32(newState)))
	if oldState == newState {
		return
	}
	capitan.Emit(ctx, ResolverStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	if r.metrics != nil {
		r.metrics.OnStateChange(oldState, newState)
	}
}

func (r *Resolver) setError(err error) {
	e := err
	r.lastError.Store(&e)
	r.history.push(err)
}

// watch applies snapshots until the provider closes or ctx ends, coalescing
// bursts when a debounce is configured. Ending ctx moves the Resolver to
// StateClosed; a closed provider leaves the last state in place.
func (r *Resolver) watch(ctx context.Context, snapshots <-chan Snapshot) {
	defer func() {
		stopCtx := context.WithoutCancel(ctx)
		if ctx.Err() != nil {
			r.transitionState(stopCtx, StateClosed)
		}
		finalState := r.State()
		capitan.Emit(stopCtx, ResolverStopped,
			KeyState.Field(finalState.String()),
		)
		if r.onStop != nil {
			r.onStop(finalState)
		}
	}()

	var (
		timer      clockz.Timer
		pending    Snapshot
		hasPending bool
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case snap, ok := <-snapshots:
			if !ok {
				if hasPending {
					_ = r.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				}
				return
			}

			r.received(ctx)
			if r.debounce <= 0 {
				_ = r.process(ctx, snap) //nolint:errcheck // Errors stored via setError
				continue
			}

			pending = snap
			hasPending = true

			if timer == nil {
				timer = r.clock.NewTimer(r.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(r.debounce)
			}

		case <-timerC:
			if hasPending {
				_ = r.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				hasPending = false
			}
		}
	}
}
