package events

type StakePlaced struct {
	RoomID      string `json:"room_id"`
	Player      string `json:"player"`
	AmountCents int64  `json:"amount_cents"`
	PoolCents   int64  `json:"pool_cents"`
	ReservedRef string `json:"reserved_ref"` // external_ref usado na reserva da carteira
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
