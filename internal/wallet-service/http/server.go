package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/blockwin/blockwin-backend/internal/wallet-service/dto"
	"github.com/blockwin/blockwin-backend/internal/wallet-service/repo"
)

const ledgerLimit = 50

// Repo define a interface de operações de carteira usadas pelo handler HTTP
type Repo interface {
	GetOrCreateWallet(ctx context.Context, address string) (walletID string, balance int64, err error)
	Deposit(ctx context.Context, address string, amount int64, externalRef string) (walletID string, newBalance int64, err error)
	Reserve(ctx context.Context, address string, amount int64, externalRef string) (reservationID string, err error)
	Commit(ctx context.Context, address, externalRef string) error
	Refund(ctx context.Context, address, externalRef string) error
	Credit(ctx context.Context, address string, amount int64, externalRef, description string) (newBalance int64, err error)
	Transactions(ctx context.Context, address string, limit int) (balance int64, entries []dto.LedgerEntry, err error)
}

// Server expõe endpoints HTTP para operações de carteira (wallet)
type Server struct {
	log  *zap.Logger
	repo Repo
}

// NewServer instancia o servidor HTTP de wallet
func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

// Router retorna o mux HTTP com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet", s.getWallet)                    // GET ?address=...
	mux.HandleFunc("/wallet/transactions", s.getTransactions) // GET ?address=...
	mux.HandleFunc("/wallet/deposit", s.deposit)              // POST
	mux.HandleFunc("/wallet/reserve", s.reserve)              // POST
	mux.HandleFunc("/wallet/commit", s.commit)                // POST
	mux.HandleFunc("/wallet/refund", s.refund)                // POST
	mux.HandleFunc("/wallet/credit", s.credit)                // POST
	return mux
}

// getWallet retorna (ou cria) a carteira e saldo do endereço
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		http.Error(w, "address required", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.GetOrCreateWallet(r.Context(), address)
	if err != nil {
		s.log.Error("get wallet failed", zap.String("address", address), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.WalletResponse{Address: address, WalletID: walletID, BalanceCents: bal})
}

// getTransactions retorna saldo + extrato recente (fluxo de reconciliação)
func (s *Server) getTransactions(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		http.Error(w, "address required", http.StatusBadRequest)
		return
	}
	bal, entries, err := s.repo.Transactions(r.Context(), address, ledgerLimit)
	if err != nil {
		if err == repo.ErrNotFound {
			http.Error(w, "wallet not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.TransactionsResponse{Address: address, BalanceCents: bal, Entries: entries})
}

// deposit adiciona saldo à carteira do endereço
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Address == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.Deposit(r.Context(), req.Address, req.AmountCents, req.ExternalRef)
	if err != nil {
		s.log.Error("deposit failed", zap.String("address", req.Address), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.WalletResponse{Address: req.Address, WalletID: walletID, BalanceCents: bal})
}

// reserve cria uma reserva de saldo (bloqueio) para o endereço
func (s *Server) reserve(w http.ResponseWriter, r *http.Request) {
	var req dto.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Address == "" || req.AmountCents <= 0 || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	resID, err := s.repo.Reserve(r.Context(), req.Address, req.AmountCents, req.ExternalRef)
	if err != nil {
		switch err {
		case repo.ErrNotFound, sql.ErrNoRows:
			http.Error(w, "wallet not found", http.StatusNotFound)
		case repo.ErrInsufficientFunds:
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, dto.ReservationResponse{ReservationID: resID, Status: "PENDING"})
}

// commit efetiva uma reserva de saldo
func (s *Server) commit(w http.ResponseWriter, r *http.Request) {
	var req dto.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Address == "" || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := s.repo.Commit(r.Context(), req.Address, req.ExternalRef); err != nil {
		if err == repo.ErrNotFound {
			http.Error(w, "reservation not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"COMMITTED"}`))
}

// refund desfaz uma reserva de saldo, devolvendo o valor ao endereço
func (s *Server) refund(w http.ResponseWriter, r *http.Request) {
	var req dto.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Address == "" || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := s.repo.Refund(r.Context(), req.Address, req.ExternalRef); err != nil {
		if err == repo.ErrNotFound {
			http.Error(w, "reservation not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"REFUNDED"}`))
}

// credit credita um prêmio (idempotente por external_ref)
func (s *Server) credit(w http.ResponseWriter, r *http.Request) {
	var req dto.CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Address == "" || req.AmountCents < 0 || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	bal, err := s.repo.Credit(r.Context(), req.Address, req.AmountCents, req.ExternalRef, req.Description)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, dto.WalletResponse{Address: req.Address, BalanceCents: bal})
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
