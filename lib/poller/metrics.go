package poller

type fetchMetrics struct {
	recorded int
	absent   int
	errored  int
}

func (m *fetchMetrics) Add(other *fetchMetrics) {
	m.recorded += other.recorded
	m.absent += other.absent
	m.errored += other.errored
}
