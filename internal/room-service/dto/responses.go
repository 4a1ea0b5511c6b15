package dto

import "time"

type RoomResponse struct {
	RoomID        string    `json:"roomId"`
	Name          string    `json:"name"`
	MinStakeCents int64     `json:"min_stake_cents"`
	MaxStakeCents int64     `json:"max_stake_cents"`
	SettlementAt  time.Time `json:"settlementAt"`
	Status        string    `json:"status"` // OPEN | CLOSED | SETTLED (derivado)
	PayoutType    string    `json:"payoutType"`
	PoolCents     int64     `json:"pool_cents"`
	CreatedBy     string    `json:"createdBy"`
}

type StakeResponse struct {
	RoomID          string `json:"roomId"`
	Address         string `json:"address"`
	TotalStakeCents int64  `json:"total_stake_cents"` // acumulado do jogador na sala
	PoolCents       int64  `json:"pool_cents"`
	ReservedRef     string `json:"reserved_ref"` // ref da reserva na wallet (commit/refund manual se preciso)
}

type WinnerResponse struct {
	Address    string `json:"address"`
	PrizeCents int64  `json:"prize_cents"`
	Rank       int    `json:"rank"`
}

type SettleResponse struct {
	RoomID  string           `json:"roomId"`
	Status  string           `json:"status"`
	Winners []WinnerResponse `json:"winners"`
}
