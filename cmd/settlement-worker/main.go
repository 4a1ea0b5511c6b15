package main

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/internal/room-service/domain"
	"github.com/blockwin/blockwin-backend/internal/room-service/fair"
	"github.com/blockwin/blockwin-backend/internal/room-service/producer"
	roomrepo "github.com/blockwin/blockwin-backend/internal/room-service/repo"
	"github.com/blockwin/blockwin-backend/internal/settlement"
	"github.com/blockwin/blockwin-backend/internal/shared/config"
	"github.com/blockwin/blockwin-backend/internal/shared/db"
	"github.com/blockwin/blockwin-backend/internal/shared/kafka"
	"github.com/blockwin/blockwin-backend/internal/shared/logger"
	"github.com/blockwin/blockwin-backend/internal/shared/metrics"
	"github.com/blockwin/blockwin-backend/pkg/contracts/events"
)

const maxRetries = 3

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	store := roomrepo.NewPostgres(pg)
	ctl := domain.NewController(store, fair.StakeWeightedPicker)

	closedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoomClosed)
	defer closedWriter.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoomSettled)
	defer settledWriter.Close()
	publ := producer.NewKafkaPublisher(nil, closedWriter, settledWriter)

	closedDLQ := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoomClosedDLQ)
	defer closedDLQ.Close()
	settledDLQ := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoomSettledDLQ)
	defer settledDLQ.Close()

	closedReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRoomClosed, "settlement")
	defer closedReader.Close()
	settledReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRoomSettled, "prize-payout")
	defer settledReader.Close()

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	ctx := context.Background()

	// Varredura de salas vencidas: fecha no banco e emite room_closed
	sweeper := settlement.NewSweeper(log, store, publ, cfg.SweepInterval)
	go sweeper.Run(ctx)

	settler := settlement.NewSettler(log, ctl, store, publ)
	payer := settlement.NewPayer(log, cfg.WalletURL)

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicRoomClosed+","+cfg.TopicRoomSettled),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)

	// Consumidor de room_closed: dispara a apuração
	go consumeLoop(ctx, log, closedReader, closedDLQ, cfg.TopicRoomClosedDLQ, func(value []byte) error {
		var ev events.RoomClosed
		if err := json.Unmarshal(value, &ev); err != nil {
			return err
		}
		return settler.HandleRoomClosed(ctx, ev)
	})

	// Consumidor de room_settled: credita os prêmios na wallet
	consumeLoop(ctx, log, settledReader, settledDLQ, cfg.TopicRoomSettledDLQ, func(value []byte) error {
		var ev events.RoomSettled
		if err := json.Unmarshal(value, &ev); err != nil {
			return err
		}
		return payer.HandleRoomSettled(ctx, ev)
	})
}

// consumeLoop lê mensagens e processa com retry; depois de esgotar os
// retries a mensagem vai para a DLQ e o consumo continua.
func consumeLoop(
	ctx context.Context,
	log *zap.Logger,
	reader *kafkago.Reader,
	dlq *kafkago.Writer,
	dlqTopic string,
	handle func(value []byte) error,
) {
	for {
		key, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		err = handle(value)
		for i := 0; err != nil && i < maxRetries; i++ {
			time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
			err = handle(value)
		}
		if err != nil {
			log.Error("message exhausted retries",
				zap.String("key", string(key)),
				zap.String("dlq", dlqTopic),
				zap.Error(err),
			)
			if werr := kafka.WriteJSON(ctx, dlq, string(key), value); werr != nil {
				log.Error("dlq write", zap.Error(werr))
			} else {
				settlement.RecordDLQ(dlqTopic)
			}
		}
	}
}
