package kubernetes

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/formsg"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func catalogMap(data string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "form-messages",
			Namespace: "default",
		},
		Data: map[string]string{
			DefaultKey: data,
		},
	}
}

func TestWatcher_EmitsInitialValue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := fake.NewSimpleClientset(catalogMap("messages:\n  required: Needed\n"))

	ch, err := New(client, "default", "form-messages").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	select {
	case data := <-ch:
		if string(data) != "messages:\n  required: Needed\n" {
			t.Errorf("unexpected initial value %q", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for initial value")
	}
}

func TestWatcher_CustomKey(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cm := catalogMap("")
	cm.Data = map[string]string{"messages.json": `{"messages": {"required": "Needed"}}`}
	client := fake.NewSimpleClientset(cm)

	ch, err := New(client, "default", "form-messages", WithKey("messages.json")).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	select {
	case data := <-ch:
		if string(data) != `{"messages": {"required": "Needed"}}` {
			t.Errorf("unexpected initial value %q", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for initial value")
	}
}

func TestWatcher_MissingConfigMap(t *testing.T) {
	client := fake.NewSimpleClientset()

	if _, err := New(client, "default", "absent").Watch(context.Background()); err == nil {
		t.Error("expected error for a missing configmap")
	}
}

func TestWatcher_EmitsOnUpdate(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := fake.NewSimpleClientset(catalogMap("v1"))

	ch, err := New(client, "default", "form-messages").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	<-ch

	// Give the watch time to register
	time.Sleep(100 * time.Millisecond)

	if _, err := client.CoreV1().ConfigMaps("default").Update(ctx, catalogMap("v2"), metav1.UpdateOptions{}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	select {
	case data := <-ch:
		if string(data) != "v2" {
			t.Errorf("expected 'v2', got %q", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for update")
	}
}

func TestWatcher_FeedsView(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := fake.NewSimpleClientset(catalogMap("messages:\n  required: From the cluster\n"))

	field := formsg.NewField("", formsg.Required())
	v := formsg.NewView(
		formsg.WithControl(field),
		formsg.WithWhen(formsg.WhenAlways),
		formsg.WithProvider(formsg.FromWatcher(New(client, "default", "form-messages"), formsg.YAMLCodec{})),
	)
	defer v.Close()

	if err := v.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := v.Model().String(); got != "From the cluster" {
		t.Errorf("expected cluster text, got %q", got)
	}
}

func TestNew_Options(t *testing.T) {
	client := fake.NewSimpleClientset()
	clock := clockz.NewFakeClock()

	w := New(client, "default", "form-messages")
	if w.key != DefaultKey {
		t.Errorf("expected key %q, got %q", DefaultKey, w.key)
	}
	if w.retryDelay != DefaultRetryDelay {
		t.Errorf("expected retry delay %v, got %v", DefaultRetryDelay, w.retryDelay)
	}

	w = New(client, "default", "form-messages",
		WithKey("catalog.json"),
		WithRetryDelay(5*time.Second),
		WithClock(clock),
	)
	if w.key != "catalog.json" {
		t.Errorf("expected key 'catalog.json', got %q", w.key)
	}
	if w.retryDelay != 5*time.Second {
		t.Errorf("expected retry delay 5s, got %v", w.retryDelay)
	}
	if w.clock != clock {
		t.Error("expected custom clock")
	}
}

func TestWatcher_IgnoresOtherConfigMaps(t *testing.T) {
	w := New(fake.NewSimpleClientset(), "default", "form-messages")

	other := catalogMap("other")
	other.Name = "unrelated"
	if got := w.extract(other); got != nil {
		t.Errorf("expected nil for another configmap, got %q", got)
	}

	binary := catalogMap("")
	binary.Data = nil
	binary.BinaryData = map[string][]byte{DefaultKey: []byte("bin")}
	if got := w.extract(binary); string(got) != "bin" {
		t.Errorf("expected 'bin', got %q", got)
	}
}
