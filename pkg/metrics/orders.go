package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "orderledger"

// OrderMetrics counts ledger mutations.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	items       *prometheus.CounterVec
	archived    prometheus.Counter
	conflicts   *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Applied order status transitions.",
	}, []string{"from", "to"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_item_mutations_total",
		Help:      "Line item inserts, quantity edits and deletes.",
	}, []string{"op"})
	archived := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_archived_total",
		Help:      "Orders moved to the archive table.",
	})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_conflicts_total",
		Help:      "Rejected order writes by reason.",
	}, []string{"reason"})
	reg.MustRegister(transitions, items, archived, conflicts)
	return &OrderMetrics{
		transitions: transitions,
		items:       items,
		archived:    archived,
		conflicts:   conflicts,
	}
}

// IncTransition records a status change.
func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncItemMutation records an item write; op is add, edit or delete.
func (m *OrderMetrics) IncItemMutation(op string) {
	if m == nil || m.items == nil {
		return
	}
	m.items.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncArchived records an archived order.
func (m *OrderMetrics) IncArchived() {
	if m == nil || m.archived == nil {
		return
	}
	m.archived.Inc()
}

// IncConflict records a rejected write.
func (m *OrderMetrics) IncConflict(reason string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(reason)).Inc()
}
