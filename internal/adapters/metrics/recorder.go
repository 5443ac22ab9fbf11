// Package metrics records build metrics with Prometheus collectors and writes
// them in the text exposition format.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

const namespace = "bake"

// stateFresh labels succeeded nodes whose action did not run.
const stateFresh = "fresh"

var _ ports.Metrics = (*Recorder)(nil)

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	mu            sync.Mutex
	registry      *prometheus.Registry
	nodes         *prometheus.CounterVec
	nodeDuration  *prometheus.HistogramVec
	builds        *prometheus.CounterVec
	buildDuration prometheus.Gauge
}

// NewRecorder creates a Recorder with its collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		nodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_total",
				Help:      "Nodes processed by final state.",
			},
			[]string{"kind", "state"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_duration_seconds",
				Help:      "Action run time in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"kind"},
		),
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builds_total",
				Help:      "Builds by verdict.",
			},
			[]string{"verdict"},
		),
		buildDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of the last build in seconds.",
		}),
	}
	r.registry.MustRegister(r.nodes, r.nodeDuration, r.builds, r.buildDuration)
	return r
}

// ObserveNode counts the node under its final state. Only executed actions feed the duration histogram.
func (r *Recorder) ObserveNode(res domain.NodeResult) {
	state := string(res.State)
	if res.Fresh {
		state = stateFresh
	}
	r.nodes.WithLabelValues(string(res.Kind), state).Inc()

	if !res.Fresh && (res.State == domain.StateSucceeded || res.State == domain.StateFailed) {
		r.nodeDuration.WithLabelValues(string(res.Kind)).Observe(res.Duration.Seconds())
	}
}

// ObserveBuild records the verdict and wall time of a build.
func (r *Recorder) ObserveBuild(verdict domain.Verdict, elapsed time.Duration) {
	r.builds.WithLabelValues(string(verdict)).Inc()
	r.buildDuration.Set(elapsed.Seconds())
}

// Flush writes the collected metrics to path. An empty path writes nothing.
func (r *Recorder) Flush(path string) error {
	if path == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrMetricsWriteFailed, err.Error()), "path", path)
	}
	return nil
}
