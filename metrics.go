package formsg

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on resolver and view events.
type MetricsProvider interface {
	// OnStateChange is called when a Resolver transitions between states.
	OnStateChange(from, to State)

	// OnSnapshotReceived is called when a Resolver receives a snapshot.
	OnSnapshotReceived()

	// OnResolveSuccess is called when a snapshot has been applied.
	OnResolveSuccess(duration time.Duration)

	// OnResolveFailure is called when a snapshot is rejected.
	// Stage is "provide", "pipeline" or "apply".
	OnResolveFailure(stage string, duration time.Duration)

	// OnRender is called when a View publishes a changed model.
	OnRender(visible bool, entries int)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Embed it to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ State)                   {}
func (NoOpMetricsProvider) OnSnapshotReceived()                        {}
func (NoOpMetricsProvider) OnResolveSuccess(_ time.Duration)           {}
func (NoOpMetricsProvider) OnResolveFailure(_ string, _ time.Duration) {}
func (NoOpMetricsProvider) OnRender(_ bool, _ int)                     {}
