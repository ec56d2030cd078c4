package formsg

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/capitan"
)

// ErrViewClosed is returned by Start after Close.
var ErrViewClosed = errors.New("view closed")

// View composes a bound control, a host form, a when policy, a single-mode
// flag, a message configuration and projected overrides into one
// continuously updated Model.
//
// Every input change is an event. Events are applied one at a time, in
// arrival order, by whichever goroutine finds the View idle; events raised
// while another is being applied (for example by a Subscribe callback that
// changes the policy) are queued and applied after it. Once the queue is
// empty the Model is recomputed from a single live read of the control, and
// subscribers are notified only if the result differs from the previous one.
type View struct {
	form      Form
	overrides *Overrides
	provider  Provider
	tune      []func(*Resolver)
	metrics   MetricsProvider

	mu       sync.Mutex
	queue    []func()
	draining bool
	closed   bool

	// Owned by the goroutine draining the queue.
	ctx          context.Context
	control      ObservedControl
	gen          uint64
	unbind       []func()
	detach       []func()
	when         When
	single       bool
	config       Config
	overrideList []Override
	warned       map[ErrorKind]bool
	stale        bool

	model    atomic.Pointer[Model]
	models   Feed[Model]
	resolver *Resolver
	cancel   context.CancelFunc
}

// Option configures a View.
type Option func(*View)

// WithProvider sets the message configuration provider. Without one the
// built-in defaults are used.
func WithProvider(p Provider) Option {
	return func(v *View) { v.provider = p }
}

// WithForm sets the host form whose submit attempts reveal messages.
func WithForm(f Form) Option {
	return func(v *View) { v.form = f }
}

// WithWhen sets the initial when policy. Default: WhenTouched. Unrecognized
// policies show messages whenever errors exist and emit WhenUnknown.
func WithWhen(w When) Option {
	return func(v *View) { v.when = w }
}

// WithSingle sets the initial single-mode flag. Default: false.
func WithSingle(single bool) Option {
	return func(v *View) { v.single = single }
}

// WithOverrides sets the projected override registry. Without one the View
// creates an empty registry, available through Overrides.
func WithOverrides(o *Overrides) Option {
	return func(v *View) { v.overrides = o }
}

// WithControl binds c at construction.
func WithControl(c ObservedControl) Option {
	return func(v *View) { v.control = c }
}

// WithMetrics sets a metrics provider shared by the View and its Resolver.
func WithMetrics(m MetricsProvider) Option {
	return func(v *View) { v.metrics = m }
}

// WithResolver tunes the Resolver created by Start, for example to set a
// debounce or a startup timeout.
func WithResolver(fn func(*Resolver)) Option {
	return func(v *View) { v.tune = append(v.tune, fn) }
}

// NewView creates a View. Until Start resolves a configuration, the
// built-in defaults are in effect.
func NewView(opts ...Option) *View {
	v := &View{
		ctx:    context.Background(),
		config: Defaults(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.overrides == nil {
		v.overrides = NewOverrides()
	}
	v.model.Store(&Model{})

	v.overrideList = v.overrides.List()
	v.detach = append(v.detach, v.overrides.Changes().Subscribe(func(list []Override) {
		v.dispatch(func() {
			v.overrideList = list
			v.stale = true
		})
	}))
	if v.form != nil {
		v.detach = append(v.detach, v.form.Submits().Subscribe(func(bool) {
			v.dispatch(v.invalidate)
		}))
	}

	initial := v.control
	v.control = nil
	v.dispatch(func() {
		v.warnWhen(v.when)
		if initial != nil {
			v.bind(initial)
		}
		v.stale = true
	})
	return v
}

// Start resolves the message configuration and keeps applying provider
// updates until ctx ends or Close is called. It blocks until the first
// snapshot is processed; an error means the defaults are in effect.
func (v *View) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	r := NewResolver(v.provider, func(_ context.Context, cfg Config) error {
		v.dispatch(func() {
			v.config = cfg
			v.stale = true
		})
		return nil
	})
	if v.metrics != nil {
		r.Metrics(v.metrics)
	}
	for _, fn := range v.tune {
		fn(r)
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		cancel()
		return ErrViewClosed
	}
	if v.resolver != nil {
		v.mu.Unlock()
		cancel()
		return ErrResolverStarted
	}
	v.resolver = r
	v.cancel = cancel
	v.mu.Unlock()

	v.dispatch(func() { v.ctx = ctx })
	return r.Start(ctx)
}

// Resolver returns the Resolver created by Start, or nil before Start.
func (v *View) Resolver() *Resolver {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resolver
}

// Close stops configuration resolution and releases every subscription.
// The last Model stays readable. Close is idempotent.
func (v *View) Close() {
	v.dispatch(func() {
		for _, fn := range v.unbind {
			fn()
		}
		for _, fn := range v.detach {
			fn()
		}
		v.unbind, v.detach = nil, nil
		v.control = nil
		v.gen++

		v.mu.Lock()
		v.closed = true
		cancel := v.cancel
		v.queue = nil
		v.mu.Unlock()

		if cancel != nil {
			cancel()
		}
	})
}

// Bind observes c, replacing any previously bound control. All
// subscriptions to the previous control are released and notifications it
// raises afterwards are ignored. A nil c unbinds.
func (v *View) Bind(c ObservedControl) {
	v.dispatch(func() { v.bind(c) })
}

// SetWhen changes the when policy. Unrecognized policies show messages
// whenever errors exist.
func (v *View) SetWhen(w When) {
	v.dispatch(func() {
		v.warnWhen(w)
		v.when = w
		v.stale = true
	})
}

// SetSingle changes whether only the first error is shown.
func (v *View) SetSingle(single bool) {
	v.dispatch(func() {
		v.single = single
		v.stale = true
	})
}

// Overrides returns the View's projected override registry.
func (v *View) Overrides() *Overrides {
	return v.overrides
}

// Model returns the current view model.
func (v *View) Model() Model {
	return *v.model.Load()
}

// Subscribe registers fn to receive every changed Model and returns a
// function that removes it. fn runs on the goroutine applying events and may
// call back into the View; such calls are applied after fn returns.
func (v *View) Subscribe(fn func(Model)) func() {
	return v.models.Subscribe(fn)
}

// Batch runs fn as a single logical event: changes raised by fn are applied
// together and produce at most one new Model after fn returns.
func (v *View) Batch(fn func()) {
	v.mu.Lock()
	if v.draining || v.closed {
		v.mu.Unlock()
		fn()
		return
	}
	v.draining = true
	v.mu.Unlock()

	defer v.drain()
	fn()
}

// dispatch queues an event and applies the queue if no other goroutine is
// doing so.
func (v *View) dispatch(event func()) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.queue = append(v.queue, event)
	if v.draining {
		v.mu.Unlock()
		return
	}
	v.draining = true
	v.mu.Unlock()

	v.drain()
}

// drain applies queued events and renders once the queue is empty. The
// caller must have set draining.
func (v *View) drain() {
	defer func() {
		if r := recover(); r != nil {
			v.mu.Lock()
			v.draining = false
			v.mu.Unlock()
			panic(r)
		}
	}()

	for {
		v.mu.Lock()
		if len(v.queue) == 0 {
			if !v.stale || v.closed {
				v.draining = false
				v.mu.Unlock()
				return
			}
			v.stale = false
			v.mu.Unlock()
			v.render()
			continue
		}
		next := v.queue[0]
		v.queue[0] = nil
		v.queue = v.queue[1:]
		v.mu.Unlock()

		next()
	}
}

// warnWhen emits WhenUnknown for policies that are set but not recognized.
func (v *View) warnWhen(w When) {
	if w != "" && !w.Valid() {
		capitan.Emit(v.ctx, WhenUnknown, KeyWhen.Field(string(w)))
	}
}

func (v *View) invalidate() {
	v.stale = true
}

func (v *View) bind(c ObservedControl) {
	for _, fn := range v.unbind {
		fn()
	}
	v.unbind = nil
	v.gen++
	v.warned = nil
	v.stale = true

	previous := v.control
	v.control = c
	if c == nil {
		if previous != nil {
			capitan.Emit(v.ctx, ViewUnbound)
		}
		return
	}

	gen := v.gen
	changed := func() {
		v.dispatch(func() {
			if v.gen == gen {
				v.stale = true
			}
		})
	}
	v.unbind = append(v.unbind,
		c.StatusChanges().Subscribe(func(Status) { changed() }),
		c.TouchedChanges().Subscribe(func(bool) { changed() }),
		c.DirtyChanges().Subscribe(func(bool) { changed() }),
	)
	capitan.Emit(v.ctx, ViewBound)
}

// render recomputes the Model and publishes it if it changed.
func (v *View) render() {
	m := v.compute()
	if prev := v.model.Load(); prev != nil && prev.Equal(m) {
		return
	}
	v.model.Store(&m)

	capitan.Emit(v.ctx, ViewRendered,
		KeyVisible.Field(strconv.FormatBool(m.Visible)),
		KeyEntries.Field(len(m.Entries)),
	)
	if v.metrics != nil {
		v.metrics.OnRender(m.Visible, len(m.Entries))
	}
	v.models.Publish(m)
}

// compute derives the Model from one live snapshot of every input.
func (v *View) compute() Model {
	var (
		errs    Errors
		touched bool
		dirty   bool
		status  = StatusValid
	)
	if c := v.control; c != nil {
		errs = c.Errors()
		touched = c.Touched()
		dirty = c.Dirty()
		status = c.Status()
	}
	submitted := v.form != nil && v.form.Submitted()

	entries, missing := Project(errs, v.config, v.overrideList, v.single)
	for _, kind := range missing {
		if v.warned[kind] {
			continue
		}
		if v.warned == nil {
			v.warned = make(map[ErrorKind]bool)
		}
		v.warned[kind] = true
		capitan.Emit(v.ctx, MessageMissing, KeyKind.Field(string(kind)))
	}

	return Model{
		Visible: Visible(v.when, touched, dirty, submitted, status),
		Entries: entries,
	}
}
