package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/internal/room-service/domain"
	walletdto "github.com/blockwin/blockwin-backend/internal/wallet-service/dto"
	"github.com/blockwin/blockwin-backend/pkg/contracts/events"
)

type fakeLifecycle struct {
	room    domain.Room
	winners []domain.Winner
	err     error
	calls   int
}

func (f *fakeLifecycle) Settle(ctx context.Context, id, seed string) (domain.Room, []domain.Winner, error) {
	f.calls++
	return f.room, f.winners, f.err
}

type fakeWinnerStore struct {
	room    domain.Room
	winners []domain.Winner
}

func (f *fakeWinnerStore) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	return f.room, nil
}

func (f *fakeWinnerStore) ListWinners(ctx context.Context, roomID string) ([]domain.Winner, error) {
	return f.winners, nil
}

type fakePublisher struct {
	settled []events.RoomSettled
	closed  []events.RoomClosed
	err     error
}

func (f *fakePublisher) PublishRoomSettled(ctx context.Context, ev events.RoomSettled) error {
	if f.err != nil {
		return f.err
	}
	f.settled = append(f.settled, ev)
	return nil
}

func (f *fakePublisher) PublishRoomClosed(ctx context.Context, ev events.RoomClosed) error {
	if f.err != nil {
		return f.err
	}
	f.closed = append(f.closed, ev)
	return nil
}

func TestSettlerPublishesResult(t *testing.T) {
	ctl := &fakeLifecycle{
		room: domain.Room{ID: "room-1", PayoutType: domain.PayoutSplit, Settled: true},
		winners: []domain.Winner{
			{Player: "0xbbb", PrizeCents: 3000, Rank: 1},
			{Player: "0xaaa", PrizeCents: 1000, Rank: 2},
		},
	}
	publ := &fakePublisher{}
	s := NewSettler(zap.NewNop(), ctl, &fakeWinnerStore{}, publ)

	err := s.HandleRoomClosed(context.Background(), events.RoomClosed{RoomID: "room-1", Reason: "deadline"})
	require.NoError(t, err)
	require.Len(t, publ.settled, 1)

	ev := publ.settled[0]
	require.Equal(t, "room-1", ev.RoomID)
	require.Equal(t, "SPLIT", ev.PayoutType)
	require.Equal(t, int64(4000), ev.PoolCents)
	require.NotEmpty(t, ev.Seed)
	require.Len(t, ev.Winners, 2)
	require.Equal(t, 1, ev.Winners[0].Rank)
}

func TestSettlerRepublishesAlreadySettled(t *testing.T) {
	ctl := &fakeLifecycle{err: domain.ErrAlreadySettled}
	store := &fakeWinnerStore{
		room:    domain.Room{ID: "room-1", PayoutType: domain.PayoutWinnerTakesAll, Settled: true},
		winners: []domain.Winner{{Player: "0xccc", PrizeCents: 5000, Rank: 1}},
	}
	publ := &fakePublisher{}
	s := NewSettler(zap.NewNop(), ctl, store, publ)

	err := s.HandleRoomClosed(context.Background(), events.RoomClosed{RoomID: "room-1"})
	require.NoError(t, err)
	require.Len(t, publ.settled, 1)
	require.Equal(t, int64(5000), publ.settled[0].PoolCents)
	require.Empty(t, publ.settled[0].Seed)
}

func TestSettlerSkipsTerminalErrors(t *testing.T) {
	for _, terminal := range []error{domain.ErrNoParticipants, domain.ErrRoomNotFound} {
		ctl := &fakeLifecycle{err: terminal}
		publ := &fakePublisher{}
		s := NewSettler(zap.NewNop(), ctl, &fakeWinnerStore{}, publ)

		err := s.HandleRoomClosed(context.Background(), events.RoomClosed{RoomID: "room-x"})
		require.NoError(t, err)
		require.Empty(t, publ.settled)
	}
}

func TestSettlerBubblesTransientErrors(t *testing.T) {
	boom := errors.New("pg down")
	ctl := &fakeLifecycle{err: boom}
	s := NewSettler(zap.NewNop(), ctl, &fakeWinnerStore{}, &fakePublisher{})

	err := s.HandleRoomClosed(context.Background(), events.RoomClosed{RoomID: "room-x"})
	require.ErrorIs(t, err, boom)
}

type fakeSweepStore struct {
	ids []string
	err error
}

func (f *fakeSweepStore) SweepExpired(ctx context.Context) ([]string, error) {
	return f.ids, f.err
}

func TestSweeperPublishesDeadlineClose(t *testing.T) {
	publ := &fakePublisher{}
	s := NewSweeper(zap.NewNop(), &fakeSweepStore{ids: []string{"room-1", "room-2"}}, publ, time.Second)

	s.sweepOnce(context.Background())
	require.Len(t, publ.closed, 2)
	require.Equal(t, "deadline", publ.closed[0].Reason)
	require.Equal(t, "room-1", publ.closed[0].RoomID)
}

func TestPayerCreditsEachWinner(t *testing.T) {
	var refs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req walletdto.CreditRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		refs = append(refs, req.ExternalRef)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPayer(zap.NewNop(), srv.URL)
	ev := events.RoomSettled{
		RoomID: "room-1",
		Winners: []events.WinnerInfo{
			{Player: "0xbbb", PrizeCents: 3000, Rank: 1},
			{Player: "0xaaa", PrizeCents: 1000, Rank: 2},
		},
	}
	require.NoError(t, p.HandleRoomSettled(context.Background(), ev))
	require.Equal(t, []string{"room-1:1", "room-1:2"}, refs)
}

func TestPayerStopsOnWalletError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPayer(zap.NewNop(), srv.URL)
	ev := events.RoomSettled{
		RoomID: "room-1",
		Winners: []events.WinnerInfo{
			{Player: "0xbbb", PrizeCents: 3000, Rank: 1},
			{Player: "0xaaa", PrizeCents: 1000, Rank: 2},
		},
	}
	err := p.HandleRoomSettled(context.Background(), ev)
	require.Error(t, err)
	require.Equal(t, 2, calls)
}
