package dto

import "time"

type CreateRoomRequest struct {
	Name          string    `json:"name"`
	MinStakeCents int64     `json:"min_stake_cents"`
	MaxStakeCents int64     `json:"max_stake_cents"`
	SettlementAt  time.Time `json:"settlementAt"`
	PayoutType    string    `json:"payoutType"` // "WINNER_TAKES_ALL" | "SPLIT"
	CreatedBy     string    `json:"createdBy"`  // endereço do admin/dono
}

type PlaceStakeRequest struct {
	Address     string `json:"address"`
	AmountCents int64  `json:"amount_cents"`
}

type SettleRequest struct {
	Seed string `json:"seed,omitempty"` // seed de auditoria; gerada se vazia
}
