package metrics

import "time"

// ResultLabel enumerates unit result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for collection runs. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe on
// the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveCollectDuration(d time.Duration)
	IncPageResult(result ResultLabel)
	IncSectionResult(result ResultLabel)
	IncLoaderFetch(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCollectDuration(time.Duration) {}
func (NoopRecorder) IncPageResult(ResultLabel)            {}
func (NoopRecorder) IncSectionResult(ResultLabel)         {}
func (NoopRecorder) IncLoaderFetch(bool)                  {}
