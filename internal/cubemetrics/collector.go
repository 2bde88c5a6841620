// Package cubemetrics exposes Prometheus metrics for the cube connector,
// implementing cubeconnector.MetricsSink.
package cubemetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sifteo/cubeconnectord/internal/cubeconnector"
)

const (
	namespace = "cubeconnectord"
	subsystem = "connector"
)

const (
	labelFromState = "from_state"
	labelToState   = "to_state"
)

// Collector holds all cube-connector Prometheus metrics and implements
// cubeconnector.MetricsSink.
type Collector struct {
	// StateTransitions counts connector FSM state transitions, labeled
	// with the old and new state for alerting on stuck attempts.
	StateTransitions *prometheus.CounterVec

	// PairingsStarted counts first-contact acks that began a new
	// pairing attempt.
	PairingsStarted prometheus.Counter

	// PairingsVerified counts verify-round acks that advanced an
	// in-progress pairing.
	PairingsVerified prometheus.Counter

	// CubesConnected counts successful hand-offs to a runtime cube
	// slot.
	CubesConnected prometheus.Counter

	// PairingsRecycled counts pairing slots evicted to make room for a
	// freshly-verified cube.
	PairingsRecycled prometheus.Counter

	// NeighborKeyRotations counts neighbor-key rotations.
	NeighborKeyRotations prometheus.Counter
}

// NewCollector creates a Collector with all metrics registered against
// reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.StateTransitions,
		c.PairingsStarted,
		c.PairingsVerified,
		c.CubesConnected,
		c.PairingsRecycled,
		c.NeighborKeyRotations,
	)

	return c
}

func newMetrics() *Collector {
	transitionLabels := []string{labelFromState, labelToState}

	return &Collector{
		StateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "state_transitions_total",
			Help:      "Total connector FSM state transitions.",
		}, transitionLabels),

		PairingsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pairings_started_total",
			Help:      "Total pairing attempts begun by a first-contact acknowledgement.",
		}),

		PairingsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pairings_verified_total",
			Help:      "Total verify-round acknowledgements that advanced an in-progress pairing.",
		}),

		CubesConnected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cubes_connected_total",
			Help:      "Total hand-offs of a freshly-paired cube to a runtime cube slot.",
		}),

		PairingsRecycled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pairings_recycled_total",
			Help:      "Total pairing slots evicted to make room for a new cube.",
		}),

		NeighborKeyRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "neighbor_key_rotations_total",
			Help:      "Total neighbor-key rotations.",
		}),
	}
}

// StateTransition implements cubeconnector.MetricsSink.
func (c *Collector) StateTransition(from, to cubeconnector.State) {
	c.StateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// PairingStarted implements cubeconnector.MetricsSink.
func (c *Collector) PairingStarted() { c.PairingsStarted.Inc() }

// PairingVerified implements cubeconnector.MetricsSink.
func (c *Collector) PairingVerified() { c.PairingsVerified.Inc() }

// CubeConnected implements cubeconnector.MetricsSink.
func (c *Collector) CubeConnected() { c.CubesConnected.Inc() }

// CubePairingRecycled implements cubeconnector.MetricsSink.
func (c *Collector) CubePairingRecycled() { c.PairingsRecycled.Inc() }

// NeighborKeyRotated implements cubeconnector.MetricsSink.
func (c *Collector) NeighborKeyRotated() { c.NeighborKeyRotations.Inc() }
