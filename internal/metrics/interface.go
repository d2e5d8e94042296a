package metrics

// Recorder is the surface the scan engine records through: probe counters,
// worker gauges, and scan duration histograms. Keeping it as an interface
// lets tests substitute a scratch registry for the package default.
type Recorder interface {
	// Counter increments the named counter, e.g. probes by protocol/state.
	Counter(name string, labels Labels)

	// Gauge sets the named gauge, e.g. in-flight workers.
	Gauge(name string, value float64, labels Labels)

	// Histogram records an observation, e.g. a scan duration in seconds.
	Histogram(name string, value float64, labels Labels)

	// GetMetrics returns a snapshot of everything recorded so far.
	GetMetrics() map[string]*Metric

	// Reset clears all recorded metrics.
	Reset()
}

var _ Recorder = (*Registry)(nil)
