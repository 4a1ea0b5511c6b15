package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/internal/room-service/domain"
	"github.com/blockwin/blockwin-backend/internal/room-service/dto"
	"github.com/blockwin/blockwin-backend/pkg/contracts/events"
)

// Store define as operações de persistência usadas pelos handlers
type Store interface {
	CreateRoom(ctx context.Context, r *domain.Room) (string, error)
	GetRoom(ctx context.Context, id string) (domain.Room, error)
	ListRooms(ctx context.Context, limit int) ([]domain.Room, error)
	UpsertStake(ctx context.Context, roomID, player string, amountCents int64) (int64, error)
	TotalPool(ctx context.Context, roomID string) (int64, error)
	ListWinners(ctx context.Context, roomID string) ([]domain.Winner, error)
}

// Lifecycle é o Controller de domínio (close/settle)
type Lifecycle interface {
	Close(ctx context.Context, id string) (domain.Room, error)
	Settle(ctx context.Context, id string, seed string) (domain.Room, []domain.Winner, error)
}

// Wallet reserva o valor da aposta antes da escrita; commit/refund
// fecham o ciclo conforme o registro da aposta der certo ou não
type Wallet interface {
	Reserve(ctx context.Context, address string, cents int64, externalRef string) (string, error)
	Commit(ctx context.Context, address, externalRef string) error
	Refund(ctx context.Context, address, externalRef string) error
}

// Publisher emite os eventos de ciclo de vida no Kafka
type Publisher interface {
	PublishStakePlaced(ctx context.Context, e events.StakePlaced) error
	PublishRoomClosed(ctx context.Context, e events.RoomClosed) error
	PublishRoomSettled(ctx context.Context, e events.RoomSettled) error
}

// RoomCache é o cache de leitura (Redis); pode ser nil em testes
type RoomCache interface {
	GetRoom(ctx context.Context, roomID string, dst any) (bool, error)
	SetRoom(ctx context.Context, roomID string, v any, ttl time.Duration) error
	GetList(ctx context.Context, dst any) (bool, error)
	SetList(ctx context.Context, v any, ttl time.Duration) error
	Invalidate(ctx context.Context, roomID string) error
}

const (
	listLimit = 100
	cacheTTL  = 5 * time.Second
)

// Server expõe a API REST de salas de aposta
type Server struct {
	log   *zap.Logger
	store Store
	ctl   Lifecycle
	wcli  Wallet
	publ  Publisher
	cache RoomCache
}

func NewServer(log *zap.Logger, store Store, ctl Lifecycle, w Wallet, p Publisher, c RoomCache) *Server {
	return &Server{log: log, store: store, ctl: ctl, wcli: w, publ: p, cache: c}
}

// Router retorna o roteador HTTP com as rotas da API de salas
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/rooms", s.createRoom)
	r.Get("/v1/rooms", s.listRooms)
	r.Get("/v1/rooms/{id}", s.getRoom)
	r.Post("/v1/rooms/{id}/stakes", s.placeStake)
	r.Post("/v1/rooms/{id}/close", s.closeRoom)
	r.Post("/v1/rooms/{id}/settle", s.settleRoom)
	r.Get("/v1/rooms/{id}/winners", s.listWinners)
	return r
}

// createRoom cria uma sala em estado OPEN (ação administrativa)
func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	pt := domain.PayoutType(req.PayoutType)
	if req.Name == "" || req.CreatedBy == "" || req.SettlementAt.IsZero() ||
		req.MinStakeCents <= 0 || req.MaxStakeCents < req.MinStakeCents ||
		(pt != domain.PayoutWinnerTakesAll && pt != domain.PayoutSplit) {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	room := domain.Room{
		Name:          req.Name,
		MinStakeCents: req.MinStakeCents,
		MaxStakeCents: req.MaxStakeCents,
		SettlementAt:  req.SettlementAt,
		PayoutType:    pt,
		CreatedBy:     req.CreatedBy,
	}
	id, err := s.store.CreateRoom(r.Context(), &room)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	room.ID = id
	s.invalidate(r.Context(), id)

	writeJSON(w, http.StatusCreated, s.roomResponse(r.Context(), room))
}

// listRooms lista as salas com status derivado, preferencialmente do cache
func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		var cached []dto.RoomResponse
		if ok, _ := s.cache.GetList(r.Context(), &cached); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	rooms, err := s.store.ListRooms(r.Context(), listLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]dto.RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, s.roomResponse(r.Context(), room))
	}

	if s.cache != nil {
		_ = s.cache.SetList(r.Context(), out, cacheTTL)
	}
	writeJSON(w, http.StatusOK, out)
}

// getRoom retorna uma sala com status derivado e pool corrente
func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if s.cache != nil {
		var cached dto.RoomResponse
		if ok, _ := s.cache.GetRoom(r.Context(), id, &cached); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	room, err := s.store.GetRoom(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	resp := s.roomResponse(r.Context(), room)

	if s.cache != nil {
		_ = s.cache.SetRoom(r.Context(), id, resp, cacheTTL)
	}
	writeJSON(w, http.StatusOK, resp)
}

// placeStake registra uma aposta: valida no domínio, reserva saldo na
// carteira e acumula o registro; publica stake_placed no final
func (s *Server) placeStake(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.PlaceStakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Address == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	room, err := s.store.GetRoom(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := domain.ValidateStake(room, req.AmountCents, time.Now()); err != nil {
		s.writeDomainError(w, err)
		return
	}

	// 1) Reserva saldo via wallet; sem reserva não há aposta
	ref := "stake:" + uuid.NewString()
	if _, err := s.wcli.Reserve(r.Context(), req.Address, req.AmountCents, ref); err != nil {
		s.log.Warn("wallet reserve failed", zap.String("roomId", id), zap.Error(err))
		http.Error(w, "wallet reserve failed", http.StatusConflict)
		return
	}

	// 2) Acumula a aposta (um registro por jogador). O upsert reconfere o
	// estado da sala dentro da transação: se ela fechou entre a validação
	// e a escrita, volta ErrRoomNotOpen e a reserva é devolvida.
	total, err := s.store.UpsertStake(r.Context(), id, req.Address, req.AmountCents)
	if err != nil {
		// devolve a reserva; melhor esforço, a wallet ainda tem o ref
		if rerr := s.wcli.Refund(r.Context(), req.Address, ref); rerr != nil {
			s.log.Error("wallet refund after failed stake", zap.String("ref", ref), zap.Error(rerr))
		}
		s.writeDomainError(w, err)
		return
	}
	// A aposta já vale mesmo se o commit falhar: a reserva segue PENDING
	// na wallet e o ref volta na resposta e no evento pra reconciliação
	if err := s.wcli.Commit(r.Context(), req.Address, ref); err != nil {
		s.log.Error("wallet commit pending reconciliation",
			zap.String("ref", ref),
			zap.String("address", req.Address),
			zap.Error(err),
		)
	}
	pool, err := s.store.TotalPool(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.invalidate(r.Context(), id)

	// 3) Publica evento stake_placed
	_ = s.publ.PublishStakePlaced(r.Context(), events.StakePlaced{
		RoomID:      id,
		Player:      req.Address,
		AmountCents: req.AmountCents,
		PoolCents:   pool,
		ReservedRef: ref,
	})

	writeJSON(w, http.StatusCreated, dto.StakeResponse{
		RoomID:          id,
		Address:         req.Address,
		TotalStakeCents: total,
		PoolCents:       pool,
		ReservedRef:     ref,
	})
}

// closeRoom força a transição OPEN → CLOSED
func (s *Server) closeRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	room, err := s.ctl.Close(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.invalidate(r.Context(), id)

	_ = s.publ.PublishRoomClosed(r.Context(), events.RoomClosed{
		RoomID: id,
		Reason: "explicit",
	})

	writeJSON(w, http.StatusOK, s.roomResponse(r.Context(), room))
}

// settleRoom transita CLOSED → SETTLED e devolve os vencedores
func (s *Server) settleRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.SettleRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // body opcional
	}
	seed := req.Seed
	if seed == "" {
		seed = uuid.NewString()
	}

	room, winners, err := s.ctl.Settle(r.Context(), id, seed)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.invalidate(r.Context(), id)

	pool, _ := s.store.TotalPool(r.Context(), id)
	_ = s.publ.PublishRoomSettled(r.Context(), events.RoomSettled{
		RoomID:     id,
		PayoutType: string(room.PayoutType),
		PoolCents:  pool,
		Seed:       seed,
		Winners:    toEventWinners(winners),
	})

	writeJSON(w, http.StatusOK, dto.SettleResponse{
		RoomID:  id,
		Status:  string(domain.StatusSettled),
		Winners: toWinnerResponses(winners),
	})
}

// listWinners retorna os registros de premiação da sala
func (s *Server) listWinners(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.GetRoom(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	winners, err := s.store.ListWinners(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toWinnerResponses(winners))
}

func (s *Server) roomResponse(ctx context.Context, room domain.Room) dto.RoomResponse {
	pool, err := s.store.TotalPool(ctx, room.ID)
	if err != nil {
		s.log.Warn("total pool read failed", zap.String("roomId", room.ID), zap.Error(err))
	}
	return dto.RoomResponse{
		RoomID:        room.ID,
		Name:          room.Name,
		MinStakeCents: room.MinStakeCents,
		MaxStakeCents: room.MaxStakeCents,
		SettlementAt:  room.SettlementAt,
		Status:        string(domain.CurrentStatus(room)),
		PayoutType:    string(room.PayoutType),
		PoolCents:     pool,
		CreatedBy:     room.CreatedBy,
	}
}

func (s *Server) invalidate(ctx context.Context, roomID string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, roomID)
	}
}

// writeDomainError mapeia erros de domínio para status HTTP:
// not found → 404; limites/valor → 400; transições ilegais → 409
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrRoomNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case domain.ErrStakeOutOfBounds, domain.ErrInvalidAmount, domain.ErrInvalidPayoutType:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case domain.ErrRoomNotOpen, domain.ErrDuplicateStake, domain.ErrAlreadyClosed,
		domain.ErrNotClosedYet, domain.ErrAlreadySettled, domain.ErrNoParticipants:
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toWinnerResponses(winners []domain.Winner) []dto.WinnerResponse {
	out := make([]dto.WinnerResponse, 0, len(winners))
	for _, w := range winners {
		out = append(out, dto.WinnerResponse{Address: w.Player, PrizeCents: w.PrizeCents, Rank: w.Rank})
	}
	return out
}

func toEventWinners(winners []domain.Winner) []events.WinnerInfo {
	out := make([]events.WinnerInfo, 0, len(winners))
	for _, w := range winners {
		out = append(out, events.WinnerInfo{Player: w.Player, PrizeCents: w.PrizeCents, Rank: w.Rank})
	}
	return out
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
