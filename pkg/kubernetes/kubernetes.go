// Package kubernetes serves formsg message catalogs stored in a Kubernetes
// ConfigMap, using the Watch API.
package kubernetes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

// DefaultKey is the ConfigMap data key holding the catalog.
const DefaultKey = "messages.yaml"

// DefaultRetryDelay is the pause before re-establishing a broken watch.
const DefaultRetryDelay = time.Second

var errWatchClosed = errors.New("watch channel closed")

// Watcher watches one key of a ConfigMap.
type Watcher struct {
	client     kubernetes.Interface
	namespace  string
	name       string
	key        string
	retryDelay time.Duration
	clock      clockz.Clock
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithKey sets the data key holding the catalog. Defaults to DefaultKey.
func WithKey(key string) Option {
	return func(w *Watcher) {
		w.key = key
	}
}

// WithRetryDelay sets the pause before a broken watch is re-established.
// Defaults to DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.retryDelay = d
	}
}

// WithClock sets the clock used for retry delays.
func WithClock(clock clockz.Clock) Option {
	return func(w *Watcher) {
		w.clock = clock
	}
}

// New creates a Watcher for the ConfigMap name in namespace.
func New(client kubernetes.Interface, namespace, name string, opts ...Option) *Watcher {
	w := &Watcher{
		client:     client,
		namespace:  namespace,
		name:       name,
		key:        DefaultKey,
		retryDelay: DefaultRetryDelay,
		clock:      clockz.RealClock,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch reads the ConfigMap, emits the catalog, and then emits it again on
// every change. A ConfigMap that cannot be read at start is an error; later
// failures re-establish the watch after the retry delay. Identical
// consecutive catalogs and ConfigMaps without the key are not emitted.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	value, resourceVersion, err := w.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read configmap %s/%s: %w", w.namespace, w.name, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)

		var last []byte
		emit := func(v []byte) bool {
			if v == nil || bytes.Equal(v, last) {
				return true
			}
			last = v
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(value) {
			return
		}

		for {
			err := w.watch(ctx, resourceVersion, emit)
			if ctx.Err() != nil || err == nil {
				return
			}

			timer := w.clock.NewTimer(w.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C():
			}

			value, resourceVersion, err = w.get(ctx)
			if err != nil {
				resourceVersion = ""
				continue
			}
			if !emit(value) {
				return
			}
		}
	}()

	return out, nil
}

// watch streams ConfigMap events into emit until the watch breaks or ctx
// ends. A nil error means emit asked to stop.
func (w *Watcher) watch(ctx context.Context, resourceVersion string, emit func([]byte) bool) error {
	watcher, err := w.client.CoreV1().ConfigMaps(w.namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector:   fmt.Sprintf("metadata.name=%s", w.name),
		ResourceVersion: resourceVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return errWatchClosed
			}
			switch event.Type {
			case watch.Error:
				return fmt.Errorf("watch error: %v", event.Object)
			case watch.Deleted:
				continue
			}
			if !emit(w.extract(event.Object)) {
				return nil
			}
		}
	}
}

func (w *Watcher) get(ctx context.Context) ([]byte, string, error) {
	cm, err := w.client.CoreV1().ConfigMaps(w.namespace).Get(ctx, w.name, metav1.GetOptions{})
	if err != nil {
		return nil, "", err
	}
	return w.extract(cm), cm.ResourceVersion, nil
}

// extract returns the catalog held by obj, or nil if obj is not the watched
// ConfigMap or lacks the key.
func (w *Watcher) extract(obj any) []byte {
	cm, ok := obj.(*corev1.ConfigMap)
	if !ok || cm.Name != w.name {
		return nil
	}
	if v, ok := cm.Data[w.key]; ok {
		return []byte(v)
	}
	if v, ok := cm.BinaryData[w.key]; ok {
		return v
	}
	return nil
}
