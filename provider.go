package formsg

import (
	"context"
	"fmt"
)

// Snapshot is one configuration emitted by a Provider. A snapshot carrying
// an error replaces the effective configuration with the defaults.
type Snapshot struct {
	Config Config
	Err    error
}

// Provider supplies message configurations. The returned channel emits one
// snapshot for immediate and deferred sources and many for live streams; it
// is closed when the source is exhausted or ctx ends.
type Provider interface {
	Provide(ctx context.Context) (<-chan Snapshot, error)
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func(ctx context.Context) (<-chan Snapshot, error)

// Provide calls f.
func (f ProviderFunc) Provide(ctx context.Context) (<-chan Snapshot, error) {
	return f(ctx)
}

// Static provides cfg once. A nil cfg resolves to the defaults.
func Static(cfg Config) Provider {
	return ProviderFunc(func(context.Context) (<-chan Snapshot, error) {
		ch := make(chan Snapshot, 1)
		ch <- Snapshot{Config: cfg}
		close(ch)
		return ch, nil
	})
}

// Deferred provides the result of fn once it completes.
func Deferred(fn func(ctx context.Context) (Config, error)) Provider {
	return ProviderFunc(func(ctx context.Context) (<-chan Snapshot, error) {
		ch := make(chan Snapshot, 1)
		go func() {
			defer close(ch)
			cfg, err := fn(ctx)
			if err != nil {
				err = fmt.Errorf("deferred configuration: %w", err)
			}
			ch <- Snapshot{Config: cfg, Err: err}
		}()
		return ch, nil
	})
}

// Stream provides every configuration received on ch.
func Stream(ch <-chan Config) Provider {
	return ProviderFunc(func(ctx context.Context) (<-chan Snapshot, error) {
		out := make(chan Snapshot)
		go func() {
			defer close(out)
			for cfg := range relay(ctx, ch) {
				select {
				case out <- Snapshot{Config: cfg}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	})
}

// Snapshots provides the snapshots received on ch without relaying them.
// Pair it with Resolver.SyncMode for deterministic tests.
func Snapshots(ch <-chan Snapshot) Provider {
	return ProviderFunc(func(context.Context) (<-chan Snapshot, error) {
		return ch, nil
	})
}

// FromWatcher provides catalogs observed by w, decoded with codec.
// Catalogs that fail to decode or validate are emitted as error snapshots.
func FromWatcher(w Watcher, codec Codec) Provider {
	if codec == nil {
		codec = JSONCodec{}
	}
	return ProviderFunc(func(ctx context.Context) (<-chan Snapshot, error) {
		raw, err := w.Watch(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to start watcher: %w", err)
		}
		out := make(chan Snapshot)
		go func() {
			defer close(out)
			for data := range raw {
				cfg, err := DecodeCatalog(data, codec)
				select {
				case out <- Snapshot{Config: cfg, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	})
}
