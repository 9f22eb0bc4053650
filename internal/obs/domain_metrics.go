package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ResultPlaced labels a checkout that produced an order.
const ResultPlaced = "placed"

var (
	domainOnce sync.Once

	// DiscountEvaluationsTotal counts rule evaluations by code source and outcome reason.
	DiscountEvaluationsTotal *prometheus.CounterVec
	// DiscountRedemptionsTotal counts ledger commits by code source and outcome.
	DiscountRedemptionsTotal *prometheus.CounterVec
	// OrdersPlacedTotal counts checkout attempts by outcome.
	OrdersPlacedTotal *prometheus.CounterVec
	// OrderDiscountMinor records the discount total of placed orders in minor units.
	OrderDiscountMinor prometheus.Histogram
	// TasksProcessedTotal counts background task handling outcomes.
	TasksProcessedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DiscountEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_evaluations_total",
			Help:      "Count of discount code evaluations by source and result.",
		}, []string{"source", "result"})
		DiscountRedemptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_redemptions_total",
			Help:      "Count of discount redemption commits by source and result.",
		}, []string{"source", "result"})
		OrdersPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Count of checkout attempts by result.",
		}, []string{"result"})
		OrderDiscountMinor = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_discount_minor_units",
			Help:      "Distribution of order discount totals in minor currency units.",
			Buckets:   []float64{0, 100, 500, 1000, 2500, 5000, 10000, 25000, 50000},
		})
		TasksProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_processed_total",
			Help:      "Count of background tasks processed by type and result.",
		}, []string{"type", "result"})

		DiscountEvaluationsTotal = register(reg, DiscountEvaluationsTotal)
		DiscountRedemptionsTotal = register(reg, DiscountRedemptionsTotal)
		OrdersPlacedTotal = register(reg, OrdersPlacedTotal)
		OrderDiscountMinor = register(reg, OrderDiscountMinor)
		TasksProcessedTotal = register(reg, TasksProcessedTotal)
	})
}

// CountDiscountEvaluation records an evaluation outcome when metrics are registered.
func CountDiscountEvaluation(source, result string) {
	if DiscountEvaluationsTotal != nil {
		DiscountEvaluationsTotal.WithLabelValues(source, result).Inc()
	}
}

// CountDiscountRedemption records a redemption outcome when metrics are registered.
func CountDiscountRedemption(source, result string) {
	if DiscountRedemptionsTotal != nil {
		DiscountRedemptionsTotal.WithLabelValues(source, result).Inc()
	}
}

// CountOrderPlaced records a checkout outcome and, on success, the discount applied.
func CountOrderPlaced(result string, discountMinor int64) {
	if OrdersPlacedTotal != nil {
		OrdersPlacedTotal.WithLabelValues(result).Inc()
	}
	if result == ResultPlaced && OrderDiscountMinor != nil {
		OrderDiscountMinor.Observe(float64(discountMinor))
	}
}

// CountTask records a background task outcome when metrics are registered.
func CountTask(taskType, result string) {
	if TasksProcessedTotal != nil {
		TasksProcessedTotal.WithLabelValues(taskType, result).Inc()
	}
}
