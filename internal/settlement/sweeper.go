package settlement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/pkg/contracts/events"
)

// SweepStore fecha em lote as salas cujo deadline já passou
type SweepStore interface {
	SweepExpired(ctx context.Context) ([]string, error)
}

// ClosedPublisher publica eventos room_closed
type ClosedPublisher interface {
	PublishRoomClosed(ctx context.Context, ev events.RoomClosed) error
}

// Sweeper materializa o fechamento por deadline: o status CLOSED já é
// derivado na leitura, mas a apuração precisa do evento room_closed.
type Sweeper struct {
	log      *zap.Logger
	store    SweepStore
	publ     ClosedPublisher
	interval time.Duration
}

func NewSweeper(log *zap.Logger, store SweepStore, publ ClosedPublisher, interval time.Duration) *Sweeper {
	return &Sweeper{log: log, store: store, publ: publ, interval: interval}
}

// Run roda a varredura em loop até o contexto ser cancelado
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	ids, err := s.store.SweepExpired(ctx)
	if err != nil {
		s.log.Warn("sweep expired rooms", zap.Error(err))
		return
	}
	for _, id := range ids {
		ev := events.RoomClosed{RoomID: id, Reason: "deadline", ClosedAt: time.Now()}
		if err := s.publ.PublishRoomClosed(ctx, ev); err != nil {
			// A sala já está fechada no banco; a apuração ainda acontece
			// quando o próximo settle explícito ou retry chegar.
			s.log.Error("publish room_closed", zap.String("roomId", id), zap.Error(err))
			continue
		}
		roomsSwept.Inc()
		s.log.Info("room closed by deadline", zap.String("roomId", id))
	}
}
