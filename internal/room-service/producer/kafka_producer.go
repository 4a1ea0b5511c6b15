package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/blockwin/blockwin-backend/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do ciclo de vida das salas.
// Um writer por tópico, chave = roomID pra manter ordem por sala.
type KafkaPublisher struct {
	StakeWriter   *kafka.Writer
	ClosedWriter  *kafka.Writer
	SettledWriter *kafka.Writer
}

func NewKafkaPublisher(stake, closed, settled *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{StakeWriter: stake, ClosedWriter: closed, SettledWriter: settled}
}

func (p *KafkaPublisher) PublishStakePlaced(ctx context.Context, e events.StakePlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.StakeWriter, e.RoomID, e)
}

func (p *KafkaPublisher) PublishRoomClosed(ctx context.Context, e events.RoomClosed) error {
	if e.ClosedAt.IsZero() {
		e.ClosedAt = time.Now().UTC()
	}
	return write(ctx, p.ClosedWriter, e.RoomID, e)
}

func (p *KafkaPublisher) PublishRoomSettled(ctx context.Context, e events.RoomSettled) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	return write(ctx, p.SettledWriter, e.RoomID, e)
}

func write(ctx context.Context, w *kafka.Writer, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: time.Now()})
}
