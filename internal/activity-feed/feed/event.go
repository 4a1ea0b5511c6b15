package feed

import "time"

// Tipos de evento sintético do feed de atividade
const (
	KindStakePlaced = "stake_placed"
	KindWin         = "win"
)

// Event é um item do feed ao vivo mostrado no lobby. Os dados são
// sintéticos: endereço mascarado, jogo e valor sorteados.
type Event struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // stake_placed | win
	Player      string    `json:"player"`
	Game        string    `json:"game"`
	AmountCents int64     `json:"amount_cents"`
	Ts          time.Time `json:"ts"`
}
