package node

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type nodeMetrics struct {
	operations    *prometheus.CounterVec
	journalErrors prometheus.Counter
	totalSupply   prometheus.Gauge
	treasury      prometheus.Gauge
	contributors  prometheus.Gauge
}

func (m *nodeMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.operations = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "ucic_operations_total",
		Help: "operations offered to the node by kind and outcome",
	}, []string{"kind", "outcome"})
	m.journalErrors = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ucic_journal_errors_total",
		Help: "journal writes that failed after an operation was applied",
	})
	m.totalSupply = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "ucic_total_supply_units",
		Help: "total UC supply in smallest units",
	})
	m.treasury = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "ucic_treasury_balance_units",
		Help: "treasury balance in smallest units",
	})
	m.contributors = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "ucic_contributors",
		Help: "registered contributors",
	})
}
