package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/internal/room-service/domain"
	"github.com/blockwin/blockwin-backend/internal/room-service/dto"
	"github.com/blockwin/blockwin-backend/pkg/contracts/events"
)

type memStore struct {
	rooms   map[string]domain.Room
	stakes  map[string]map[string]int64
	winners map[string][]domain.Winner
	nextID  int
}

func newMemStore() *memStore {
	return &memStore{
		rooms:   map[string]domain.Room{},
		stakes:  map[string]map[string]int64{},
		winners: map[string][]domain.Winner{},
	}
}

func (m *memStore) CreateRoom(ctx context.Context, r *domain.Room) (string, error) {
	m.nextID++
	id := "room-" + string(rune('0'+m.nextID))
	r.ID = id
	m.rooms[id] = *r
	return id, nil
}

func (m *memStore) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return r, nil
}

func (m *memStore) ListRooms(ctx context.Context, limit int) ([]domain.Room, error) {
	out := make([]domain.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) UpsertStake(ctx context.Context, roomID, player string, amountCents int64) (int64, error) {
	r, ok := m.rooms[roomID]
	if !ok {
		return 0, domain.ErrRoomNotFound
	}
	if r.Closed || r.Settled || !time.Now().Before(r.SettlementAt) {
		return 0, domain.ErrRoomNotOpen
	}
	if m.stakes[roomID] == nil {
		m.stakes[roomID] = map[string]int64{}
	}
	m.stakes[roomID][player] += amountCents
	return m.stakes[roomID][player], nil
}

func (m *memStore) ListStakes(ctx context.Context, roomID string) ([]domain.Stake, error) {
	var out []domain.Stake
	for p, v := range m.stakes[roomID] {
		out = append(out, domain.Stake{Player: p, AmountCents: v})
	}
	return out, nil
}

func (m *memStore) TotalPool(ctx context.Context, roomID string) (int64, error) {
	var total int64
	for _, v := range m.stakes[roomID] {
		total += v
	}
	return total, nil
}

func (m *memStore) MarkClosed(ctx context.Context, id string) error {
	r, ok := m.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if r.Closed || r.Settled {
		return domain.ErrAlreadyClosed
	}
	r.Closed = true
	m.rooms[id] = r
	return nil
}

func (m *memStore) MarkSettled(ctx context.Context, id string, winners []domain.Winner) error {
	r, ok := m.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if r.Settled {
		return domain.ErrAlreadySettled
	}
	if !r.Closed {
		return domain.ErrNotClosedYet
	}
	r.Settled = true
	m.rooms[id] = r
	m.winners[id] = winners
	return nil
}

func (m *memStore) ListWinners(ctx context.Context, roomID string) ([]domain.Winner, error) {
	return m.winners[roomID], nil
}

type fakeWallet struct {
	fail       bool
	failCommit bool
	calls      int
	commits    []string
	refunds    []string
	onReserve  func()
}

func (f *fakeWallet) Reserve(ctx context.Context, address string, cents int64, ref string) (string, error) {
	f.calls++
	if f.onReserve != nil {
		f.onReserve()
	}
	if f.fail {
		return "", context.DeadlineExceeded
	}
	return "res-1", nil
}

func (f *fakeWallet) Commit(ctx context.Context, address, ref string) error {
	f.commits = append(f.commits, ref)
	if f.failCommit {
		return context.DeadlineExceeded
	}
	return nil
}

func (f *fakeWallet) Refund(ctx context.Context, address, ref string) error {
	f.refunds = append(f.refunds, ref)
	return nil
}

type fakePublisher struct {
	stakes  []events.StakePlaced
	closed  []events.RoomClosed
	settled []events.RoomSettled
}

func (f *fakePublisher) PublishStakePlaced(ctx context.Context, e events.StakePlaced) error {
	f.stakes = append(f.stakes, e)
	return nil
}

func (f *fakePublisher) PublishRoomClosed(ctx context.Context, e events.RoomClosed) error {
	f.closed = append(f.closed, e)
	return nil
}

func (f *fakePublisher) PublishRoomSettled(ctx context.Context, e events.RoomSettled) error {
	f.settled = append(f.settled, e)
	return nil
}

func newTestServer(t *testing.T) (*Server, *memStore, *fakeWallet, *fakePublisher) {
	t.Helper()
	store := newMemStore()
	wcli := &fakeWallet{}
	publ := &fakePublisher{}
	ctl := domain.NewController(store, func(seed string, s []domain.Stake) (string, error) {
		return s[0].Player, nil
	})
	return NewServer(zap.NewNop(), store, ctl, wcli, publ, nil), store, wcli, publ
}

func openRoom(store *memStore) string {
	id := "room-1"
	store.rooms[id] = domain.Room{
		ID:            id,
		Name:          "Premier League Pool",
		MinStakeCents: 100,
		MaxStakeCents: 10_000,
		SettlementAt:  time.Now().Add(time.Hour),
		PayoutType:    domain.PayoutSplit,
		CreatedBy:     "0xadmin",
	}
	return id
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPlaceStake(t *testing.T) {
	srv, store, wcli, publ := newTestServer(t)
	id := openRoom(store)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xaaa", AmountCents: 500})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.StakeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(500), resp.TotalStakeCents)
	require.Equal(t, int64(500), resp.PoolCents)
	require.Equal(t, 1, wcli.calls)
	require.Len(t, wcli.commits, 1)
	require.Empty(t, wcli.refunds)
	require.Len(t, publ.stakes, 1)
	require.NotEmpty(t, resp.ReservedRef)
	require.Equal(t, publ.stakes[0].ReservedRef, resp.ReservedRef)
}

func TestPlaceStakeCommitFailureReturnsRef(t *testing.T) {
	srv, store, wcli, publ := newTestServer(t)
	id := openRoom(store)
	wcli.failCommit = true

	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xaaa", AmountCents: 500})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.StakeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(500), resp.TotalStakeCents)
	require.NotEmpty(t, resp.ReservedRef, "reserva pendente tem que voltar pra reconciliação")
	require.Len(t, publ.stakes, 1)
	require.Equal(t, resp.ReservedRef, publ.stakes[0].ReservedRef)
	require.Empty(t, wcli.refunds)
}

func TestPlaceStakeAccumulates(t *testing.T) {
	srv, store, _, _ := newTestServer(t)
	id := openRoom(store)

	doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xaaa", AmountCents: 500})
	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xaaa", AmountCents: 300})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.StakeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(800), resp.TotalStakeCents)
}

func TestPlaceStakeOutOfBounds(t *testing.T) {
	srv, store, wcli, _ := newTestServer(t)
	id := openRoom(store)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xaaa", AmountCents: 50})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, wcli.calls, "rejected stake must not touch the wallet")
	pool, _ := store.TotalPool(context.Background(), id)
	require.Zero(t, pool)
}

func TestPlaceStakeClosedRoom(t *testing.T) {
	srv, store, _, _ := newTestServer(t)
	id := openRoom(store)
	r := store.rooms[id]
	r.Closed = true
	store.rooms[id] = r

	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xaaa", AmountCents: 500})

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlaceStakeRoomClosesDuringReserve(t *testing.T) {
	srv, store, wcli, publ := newTestServer(t)
	id := openRoom(store)

	// fecha a sala entre a validação e a escrita (sweep concorrente)
	wcli.onReserve = func() {
		r := store.rooms[id]
		r.Closed = true
		store.rooms[id] = r
	}

	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xaaa", AmountCents: 500})

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Empty(t, store.stakes[id], "closed room must not record the stake")
	require.Len(t, wcli.refunds, 1, "reservation returned when the write is rejected")
	require.Empty(t, wcli.commits)
	require.Empty(t, publ.stakes)
}

func TestPlaceStakeWalletFailure(t *testing.T) {
	srv, store, wcli, _ := newTestServer(t)
	wcli.fail = true
	id := openRoom(store)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xaaa", AmountCents: 500})

	require.Equal(t, http.StatusConflict, rec.Code)
	pool, _ := store.TotalPool(context.Background(), id)
	require.Zero(t, pool, "no stake without a wallet reservation")
}

func TestCloseTwice(t *testing.T) {
	srv, store, _, publ := newTestServer(t)
	id := openRoom(store)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, publ.closed, 1)

	rec = doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/close", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Len(t, publ.closed, 1, "no event for a failed close")
}

func TestSettleFlow(t *testing.T) {
	srv, store, _, publ := newTestServer(t)
	id := openRoom(store)

	doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xaaa", AmountCents: 1000})
	doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xbbb", AmountCents: 3000})
	doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/close", nil)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/settle", dto.SettleRequest{Seed: "s"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.SettleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "SETTLED", resp.Status)
	require.Len(t, resp.Winners, 2)
	require.Equal(t, "0xbbb", resp.Winners[0].Address)
	require.Equal(t, int64(3000), resp.Winners[0].PrizeCents)
	require.Len(t, publ.settled, 1)

	// segunda apuração: conflito, sem novo evento
	rec = doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/settle", dto.SettleRequest{Seed: "s"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Len(t, publ.settled, 1)
}

func TestSettleWhileOpen(t *testing.T) {
	srv, store, _, _ := newTestServer(t)
	id := openRoom(store)

	doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/stakes",
		dto.PlaceStakeRequest{Address: "0xaaa", AmountCents: 500})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/v1/rooms/"+id+"/settle", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetRoomDerivedStatus(t *testing.T) {
	srv, store, _, _ := newTestServer(t)
	id := openRoom(store)
	r := store.rooms[id]
	r.SettlementAt = time.Now().Add(-time.Minute) // deadline vencido, flag ainda false
	store.rooms[id] = r

	rec := doJSON(t, srv.Router(), http.MethodGet, "/v1/rooms/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.RoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "CLOSED", resp.Status)
}

func TestGetRoomNotFound(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/v1/rooms/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
