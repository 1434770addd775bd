package deduction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "larder_deduction_orders_total",
		Help: "Total number of orders run through stock deduction",
	})

	linesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "larder_deduction_failed_lines_total",
		Help: "Total number of order lines that failed deduction",
	})

	movementsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "larder_deduction_movements_total",
		Help: "Total number of stock movements created by deduction",
	})
)
