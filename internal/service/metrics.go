package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	opsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_store_operations_total",
			Help: "Task store operations by kind",
		},
		[]string{"op"},
	)
	persistFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_store_persist_failures_total",
			Help: "Slot reads/writes that failed",
		},
		[]string{"direction"},
	)
	tasksGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "task_store_tasks",
			Help: "Tasks currently held, by state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(opsTotal)
	prometheus.MustRegister(persistFailures)
	prometheus.MustRegister(tasksGauge)
}
