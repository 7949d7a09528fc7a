package metrics

import "time"

// ResultLabel enumerates document result categories for counters.
type ResultLabel string

const (
	ResultWritten ResultLabel = "written"
	ResultSkipped ResultLabel = "skipped"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for build and stage metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncDocuments(result ResultLabel)
	IncWarnings(category string)
	SetLastBuild(t time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncDocuments(ResultLabel)                   {}
func (NoopRecorder) IncWarnings(string)                         {}
func (NoopRecorder) SetLastBuild(time.Time)                     {}
