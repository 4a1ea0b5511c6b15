package events

import "time"

// Evento publicado quando uma sala é apurada. Carrega a lista final de
// vencedores; o settlement-worker usa isso para creditar os prêmios.
type RoomSettled struct {
	RoomID     string       `json:"roomId"`
	PayoutType string       `json:"payoutType"` // "WINNER_TAKES_ALL" | "SPLIT"
	PoolCents  int64        `json:"pool_cents"`
	Seed       string       `json:"seed,omitempty"`
	Winners    []WinnerInfo `json:"winners"`
	Ts         time.Time    `json:"ts"`
}

type WinnerInfo struct {
	Player     string `json:"player"`
	PrizeCents int64  `json:"prize_cents"`
	Rank       int    `json:"rank"`
}
