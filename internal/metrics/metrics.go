// Package metrics содержит счетчики Prometheus для наблюдения за игрой
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pig_matches_started_total",
		Help: "Начатые матчи по режимам",
	}, []string{"mode"})

	MatchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pig_matches_completed_total",
		Help: "Матчи, доигранные до победителя",
	})

	Rolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pig_rolls_total",
		Help: "Броски кубика",
	})

	Busts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pig_busts_total",
		Help: "Броски, на которых выпала единица",
	})

	Holds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pig_holds_total",
		Help: "Банкования очков хода",
	})

	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pig_rooms_created_total",
		Help: "Созданные сетевые комнаты",
	})

	RemoteActionsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pig_remote_actions_applied_total",
		Help: "Примененные действия противника",
	})

	RemoteActionsDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pig_remote_actions_deduped_total",
		Help: "Отброшенные повторные доставки действий",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pig_ws_connections",
		Help: "Текущее число WebSocket-подключений",
	})
)
