package ws

import (
	"encoding/json"

	"taskboard/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// server -> client; store events use their own domain.EventKind values
const MsgHello = "hello"

// Hello is the first message on every connection: the current snapshot.
type Hello struct {
	Type   string         `json:"type"`
	Filter domain.Filter  `json:"filter"`
	Tasks  []*domain.Task `json:"tasks"`
	Stats  domain.Stats   `json:"stats"`
}

func EncodeHello(filter domain.Filter, tasks []*domain.Task, stats domain.Stats) ([]byte, error) {
	return json.Marshal(Hello{Type: MsgHello, Filter: filter, Tasks: tasks, Stats: stats})
}

var (
	connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "WebSocket clients subscribed to task events",
	})
	droppedClients = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_dropped_clients_total",
		Help: "Clients dropped because their send queue was full",
	})
)

func init() {
	prometheus.MustRegister(connectedClients)
	prometheus.MustRegister(droppedClients)
}
