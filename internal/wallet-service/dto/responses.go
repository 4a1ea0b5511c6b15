package dto

import "time"

type WalletResponse struct {
	Address      string `json:"address"`
	WalletID     string `json:"walletId"`
	BalanceCents int64  `json:"balance_cents"`
}

type ReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type LedgerEntry struct {
	OperationType string    `json:"operation_type"` // CREDIT | DEBIT | RESERVE | REFUND | PRIZE
	AmountCents   int64     `json:"amount_cents"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TransactionsResponse agrega saldo e extrato recente, a visão de
// reconciliação que o front consome.
type TransactionsResponse struct {
	Address      string        `json:"address"`
	BalanceCents int64         `json:"balance_cents"`
	Entries      []LedgerEntry `json:"entries"`
}
