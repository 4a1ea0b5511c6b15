package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Métricas do worker de apuração (expostas em /metrics)
var (
	roomsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_rooms_swept_total",
		Help: "Salas fechadas por deadline pela varredura",
	})
	roomsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_rooms_settled_total",
		Help: "Salas apuradas com sucesso",
	})
	settleSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_settle_skipped_total",
		Help: "Apurações ignoradas por condição terminal",
	}, []string{"reason"})
	prizesCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_prizes_credited_total",
		Help: "Créditos de prêmio efetuados na wallet",
	})
	dlqMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_dlq_messages_total",
		Help: "Mensagens enviadas para DLQ após esgotar retries",
	}, []string{"topic"})
)

// RecordDLQ incrementa o contador de mensagens desviadas para a DLQ
func RecordDLQ(topic string) { dlqMessages.WithLabelValues(topic).Inc() }
