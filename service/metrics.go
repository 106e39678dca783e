package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "discovery"

// Metrics holds the counters the registry core maintains for observability exporters.
type Metrics struct {
	Leases        prometheus.Gauge
	Registrations prometheus.Counter
	Renewals      prometheus.Counter
	Cancellations prometheus.Counter
	StatusChanges prometheus.Counter
	Evictions     prometheus.Counter
	SkippedSweeps prometheus.Counter

	RemoteMutations *prometheus.CounterVec // result: applied|stale

	SelfPreservationActive      prometheus.Gauge
	SelfPreservationTransitions *prometheus.CounterVec // to: NORMAL|SELF_PRESERVING
	RenewalRatio                prometheus.Gauge

	ReplicationQueueDepth *prometheus.GaugeVec   // peer
	ReplicationSent       *prometheus.CounterVec // peer
	ReplicationDropped    *prometheus.CounterVec // peer, reason: queue_full|stopped|shutdown|rejected|retries_exhausted
	Reconciliations       *prometheus.CounterVec // peer, result: ok|failed
}

// NewMetrics creates the registry metrics and registers them with reg.
// A nil reg creates unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Leases: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Subsystem: "registry", Name: "leases",
			Help: "Number of active leases held by this node.",
		}),
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "registry", Name: "registrations_total",
			Help: "Local registrations.",
		}),
		Renewals: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "registry", Name: "renewals_total",
			Help: "Local lease renewals.",
		}),
		Cancellations: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "registry", Name: "cancellations_total",
			Help: "Local cancellations.",
		}),
		StatusChanges: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "registry", Name: "status_changes_total",
			Help: "Local status changes.",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "eviction", Name: "evictions_total",
			Help: "Leases removed by the eviction scheduler.",
		}),
		SkippedSweeps: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "eviction", Name: "skipped_sweeps_total",
			Help: "Eviction sweeps skipped because self-preservation was active.",
		}),
		RemoteMutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "replication", Name: "remote_mutations_total",
			Help: "Mutations received from peers, by merge result.",
		}, []string{"result"}),
		SelfPreservationActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Subsystem: "self_preservation", Name: "active",
			Help: "1 while self-preservation suppresses eviction.",
		}),
		SelfPreservationTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "self_preservation", Name: "transitions_total",
			Help: "Self-preservation state transitions, by target state.",
		}, []string{"to"}),
		RenewalRatio: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Subsystem: "self_preservation", Name: "renewal_ratio",
			Help: "Observed over expected renewals in the last measurement window.",
		}),
		ReplicationQueueDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Subsystem: "replication", Name: "queue_depth",
			Help: "Replication tasks waiting to be sent, per peer.",
		}, []string{"peer"}),
		ReplicationSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "replication", Name: "sent_total",
			Help: "Replication tasks delivered, per peer.",
		}, []string{"peer"}),
		ReplicationDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "replication", Name: "dropped_total",
			Help: "Replication tasks dropped, per peer and reason.",
		}, []string{"peer", "reason"}),
		Reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "replication", Name: "reconciliations_total",
			Help: "Full snapshot reconciliations, per peer and result.",
		}, []string{"peer", "result"}),
	}
}
