package matching

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const (
	directionMatchSuppliers   = "match_suppliers"
	directionMatchBorrowers   = "match_borrowers"
	directionUnmatchSuppliers = "unmatch_suppliers"
	directionUnmatchBorrowers = "unmatch_borrowers"
)

// Metrics matching volume and work, a nil *Metrics records nothing
type Metrics struct {
	volume *prometheus.CounterVec
	steps  *prometheus.CounterVec
}

// NewMetrics registers the matching collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "p2plend_matching_volume_total",
			Help: "Underlying moved between pool and p2p by market and direction.",
		}, []string{"market", "direction"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "p2plend_matching_steps_total",
			Help: "Registry entries visited by direction.",
		}, []string{"direction"}),
	}

	reg.MustRegister(m.volume, m.steps)
	return m
}

func (m *Metrics) observe(market common.Address, direction string, moved decimal.Decimal, steps int) {
	if m == nil {
		return
	}

	volume, _ := moved.Float64()
	m.volume.WithLabelValues(market.Hex(), direction).Add(volume)
	m.steps.WithLabelValues(direction).Add(float64(steps))
}
