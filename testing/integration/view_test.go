package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zoobzio/formsg"
)

type catalogFile struct {
	Messages map[string]string `json:"messages"`
}

func writeCatalog(t *testing.T, path string, messages map[string]string) {
	t.Helper()
	data, err := json.Marshal(catalogFile{Messages: messages})
	if err != nil {
		t.Fatalf("failed to marshal catalog: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
}

func newCatalogView(t *testing.T, path string, control formsg.ObservedControl) *formsg.View {
	t.Helper()
	v := formsg.NewView(
		formsg.WithControl(control),
		formsg.WithWhen(formsg.WhenAlways),
		formsg.WithProvider(formsg.FromWatcher(formsg.NewFileWatcher(path), formsg.JSONCodec{})),
		formsg.WithResolver(func(r *formsg.Resolver) { r.Debounce(20 * time.Millisecond) }),
	)
	t.Cleanup(v.Close)
	return v
}

func TestView_FileCatalog_InitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	writeCatalog(t, path, map[string]string{
		"minlength": "At least {{.requiredLength}} characters",
	})

	name := formsg.NewField("ab", formsg.MinLength(5))
	v := newCatalogView(t, path, name)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := v.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if v.Resolver().State() != formsg.StateResolved {
		t.Errorf("expected StateResolved, got %s", v.Resolver().State())
	}
	if got := v.Model().String(); got != "At least 5 characters" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestView_FileCatalog_LiveUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	writeCatalog(t, path, map[string]string{"required": "v1"})

	v := newCatalogView(t, path, formsg.NewField("", formsg.Required()))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := v.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := v.Model().String(); got != "v1" {
		t.Fatalf("expected 'v1', got %q", got)
	}

	writeCatalog(t, path, map[string]string{"required": "v2"})

	if !waitFor(t, 2*time.Second, func() bool { return v.Model().String() == "v2" }) {
		t.Errorf("expected 'v2', got %q", v.Model().String())
	}
}

func TestView_FileCatalog_InvalidUpdateFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	writeCatalog(t, path, map[string]string{"required": "Custom"})

	v := newCatalogView(t, path, formsg.NewField("", formsg.Required()))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := v.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Empty text fails catalog validation
	writeCatalog(t, path, map[string]string{"required": ""})

	if !waitFor(t, 2*time.Second, func() bool {
		return v.Resolver().State() == formsg.StateFallback && v.Model().String() == "Field is required"
	}) {
		t.Fatalf("expected fallback to defaults, got %s %q", v.Resolver().State(), v.Model().String())
	}
	if v.Resolver().LastError() == nil {
		t.Error("expected LastError to be set")
	}

	// A valid catalog recovers
	writeCatalog(t, path, map[string]string{"required": "Recovered"})

	if !waitFor(t, 2*time.Second, func() bool { return v.Model().String() == "Recovered" }) {
		t.Errorf("expected 'Recovered', got %q", v.Model().String())
	}
	if v.Resolver().State() != formsg.StateResolved {
		t.Errorf("expected StateResolved, got %s", v.Resolver().State())
	}
}

func TestView_FileCatalog_MalformedAtStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	if err := os.WriteFile(path, []byte(`{"messages": `), 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	v := newCatalogView(t, path, formsg.NewField("", formsg.Required()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := v.Start(ctx); err == nil {
		t.Fatal("expected Start to report the malformed catalog")
	}
	if got := v.Model().String(); got != "Field is required" {
		t.Errorf("expected defaults in effect, got %q", got)
	}
}
