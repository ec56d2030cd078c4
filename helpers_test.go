package formsg

import (
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("test error")

// waitFor polls condition until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}

// textOf renders kind with the producer found in cfg.
func textOf(cfg Config, kind ErrorKind, payload any) string {
	if p := cfg[kind]; p != nil {
		return p(payload)
	}
	return ""
}
