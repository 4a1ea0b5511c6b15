package domain

import "time"

// PayoutType define a política de distribuição do pool entre os vencedores.
type PayoutType string

const (
	PayoutWinnerTakesAll PayoutType = "WINNER_TAKES_ALL"
	PayoutSplit          PayoutType = "SPLIT"
)

// Status é o estado efetivo de uma sala, derivado das flags + deadline.
type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusClosed  Status = "CLOSED"
	StatusSettled Status = "SETTLED"
)

// Room é o modelo persistido de uma sala de apostas.
// Closed e Settled são monotônicas (false→true); settled implica closed.
type Room struct {
	ID            string
	Name          string
	MinStakeCents int64
	MaxStakeCents int64
	SettlementAt  time.Time // após esse instante, não entram mais apostas
	Closed        bool
	Settled       bool
	PayoutType    PayoutType
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Stake é a aposta acumulada de um jogador em uma sala.
// Há no máximo um registro por (sala, jogador).
type Stake struct {
	Player      string
	AmountCents int64
}

// Winner é um registro imutável de premiação, criado na apuração.
type Winner struct {
	Player     string
	PrizeCents int64
	Rank       int // ordinal 1-based, único dentro da sala
}
