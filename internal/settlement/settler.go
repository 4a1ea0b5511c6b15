package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/internal/room-service/domain"
	"github.com/blockwin/blockwin-backend/pkg/contracts/events"
)

// Lifecycle é o subconjunto do controller de salas usado pela apuração
type Lifecycle interface {
	Settle(ctx context.Context, id string, seed string) (domain.Room, []domain.Winner, error)
}

// WinnerStore lê o resultado já persistido de uma sala apurada
type WinnerStore interface {
	GetRoom(ctx context.Context, id string) (domain.Room, error)
	ListWinners(ctx context.Context, roomID string) ([]domain.Winner, error)
}

// SettledPublisher publica eventos room_settled
type SettledPublisher interface {
	PublishRoomSettled(ctx context.Context, ev events.RoomSettled) error
}

// Settler consome room_closed e dispara a apuração da sala.
// Sala já apurada não é erro: o resultado persistido é republicado,
// porque o consumo é at-least-once e o crédito de prêmio é idempotente.
// Erros terminais (sem participantes, sala inexistente) são descartados;
// qualquer outro erro é devolvido para o chamador decidir retry/DLQ.
type Settler struct {
	log   *zap.Logger
	ctl   Lifecycle
	store WinnerStore
	publ  SettledPublisher
}

func NewSettler(log *zap.Logger, ctl Lifecycle, store WinnerStore, publ SettledPublisher) *Settler {
	return &Settler{log: log, ctl: ctl, store: store, publ: publ}
}

func (s *Settler) HandleRoomClosed(ctx context.Context, ev events.RoomClosed) error {
	seed := uuid.New().String()
	room, winners, err := s.ctl.Settle(ctx, ev.RoomID, seed)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadySettled):
			settleSkipped.WithLabelValues("already_settled").Inc()
			return s.republish(ctx, ev.RoomID)
		case errors.Is(err, domain.ErrNoParticipants):
			settleSkipped.WithLabelValues("no_participants").Inc()
			s.log.Info("room settled empty", zap.String("roomId", ev.RoomID))
			return nil
		case errors.Is(err, domain.ErrRoomNotFound):
			settleSkipped.WithLabelValues("not_found").Inc()
			s.log.Warn("room not found", zap.String("roomId", ev.RoomID))
			return nil
		default:
			return err
		}
	}

	if err := s.publ.PublishRoomSettled(ctx, buildSettled(room, winners, seed)); err != nil {
		return err
	}
	roomsSettled.Inc()
	s.log.Info("room settled",
		zap.String("roomId", room.ID),
		zap.String("payoutType", string(room.PayoutType)),
		zap.Int("winners", len(winners)),
	)
	return nil
}

// republish reemite o room_settled de uma sala já apurada
func (s *Settler) republish(ctx context.Context, roomID string) error {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	winners, err := s.store.ListWinners(ctx, roomID)
	if err != nil {
		return err
	}
	if len(winners) == 0 {
		// apurada vazia, nada a pagar
		return nil
	}
	s.log.Info("room already settled, republishing result", zap.String("roomId", roomID))
	return s.publ.PublishRoomSettled(ctx, buildSettled(room, winners, ""))
}

func buildSettled(room domain.Room, winners []domain.Winner, seed string) events.RoomSettled {
	var pool int64
	infos := make([]events.WinnerInfo, 0, len(winners))
	for _, w := range winners {
		pool += w.PrizeCents
		infos = append(infos, events.WinnerInfo{Player: w.Player, PrizeCents: w.PrizeCents, Rank: w.Rank})
	}
	return events.RoomSettled{
		RoomID:     room.ID,
		PayoutType: string(room.PayoutType),
		PoolCents:  pool,
		Seed:       seed,
		Winners:    infos,
		Ts:         time.Now(),
	}
}
