package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var totalIterations atomic.Uint64

var (
	FuzzIterationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fuzz_iterations_total",
		Help: "The total number of completed fuzz iterations",
	})

	IterationDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "fuzz_iteration_duration_seconds",
		Help: "Duration of one randomize/launch/synchronize iteration",
	})

	RandomizeDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "fuzz_randomize_duration_seconds",
		Help: "Duration of host-side buffer randomization per iteration",
	})

	PinnedMemoryAllocated = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pinned_memory_allocated_bytes",
		Help: "Current bytes of page-locked host memory allocated",
	})

	PipelineBuffers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipeline_io_buffers",
		Help: "Number of I/O buffers owned per pipeline",
	}, []string{"pipeline"})

	GraphLaunches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_launches_total",
		Help: "Total executable graph launches per pipeline",
	}, []string{"pipeline"})

	DeviceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_errors_total",
		Help: "Total fatal device-operation errors by operation",
	}, []string{"operation"})
)

// RecordIteration counts one completed fuzz iteration.
func RecordIteration(duration time.Duration) {
	totalIterations.Add(1)
	FuzzIterationsTotal.Inc()
	IterationDuration.Observe(duration.Seconds())
}

// TotalIterations returns the process-lifetime iteration count.
func TotalIterations() uint64 {
	return totalIterations.Load()
}

// RecordPinnedMemory updates the pinned host memory gauge.
func RecordPinnedMemory(bytes int64) {
	PinnedMemoryAllocated.Set(float64(bytes))
}

// RecordRandomize observes the host-side randomization time of one iteration.
func RecordRandomize(duration time.Duration) {
	RandomizeDuration.Observe(duration.Seconds())
}

// RecordGraphLaunch counts one executable graph launch for a pipeline.
func RecordGraphLaunch(pipeline string) {
	GraphLaunches.WithLabelValues(pipeline).Inc()
}

// RecordPipelineBuffers records how many I/O buffers a pipeline owns.
func RecordPipelineBuffers(pipeline string, count int) {
	PipelineBuffers.WithLabelValues(pipeline).Set(float64(count))
}

// RecordDeviceError counts a fatal device-operation error.
func RecordDeviceError(operation string) {
	DeviceErrors.WithLabelValues(operation).Inc()
}
