package domain

import "time"

// StakePolicy define o que acontece quando o mesmo jogador aposta duas
// vezes na mesma sala.
type StakePolicy int

const (
	// PolicyAccumulate soma os valores em um único registro (default).
	PolicyAccumulate StakePolicy = iota
	// PolicyRejectDuplicate recusa a segunda aposta com ErrDuplicateStake.
	PolicyRejectDuplicate
)

// ValidateStake aplica as pré-condições de aposta, na ordem do contrato:
// sala OPEN, valor dentro dos limites, valor positivo (esta última só é
// alcançável se minStake <= 0).
func ValidateStake(r Room, amountCents int64, now time.Time) error {
	if StatusAt(r, now) != StatusOpen {
		return ErrRoomNotOpen
	}
	if amountCents < r.MinStakeCents || amountCents > r.MaxStakeCents {
		return ErrStakeOutOfBounds
	}
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Ledger mantém em memória as apostas de uma sala. O room-service usa o
// repositório direto (o upsert é a mesma política); o ledger serve ao
// worker de apuração e a qualquer caminho que precise do pool agregado.
type Ledger struct {
	policy StakePolicy
	order  []string         // jogadores na ordem de primeira aposta
	byAddr map[string]int64 // jogador -> total acumulado em cents
}

func NewLedger(policy StakePolicy) *Ledger {
	return &Ledger{
		policy: policy,
		byAddr: make(map[string]int64),
	}
}

// Place valida e registra uma aposta. Em caso de erro, o ledger não muda.
func (l *Ledger) Place(r Room, player string, amountCents int64, now time.Time) (Stake, error) {
	if err := ValidateStake(r, amountCents, now); err != nil {
		return Stake{}, err
	}

	cur, exists := l.byAddr[player]
	if exists && l.policy == PolicyRejectDuplicate {
		return Stake{}, ErrDuplicateStake
	}
	if !exists {
		l.order = append(l.order, player)
	}
	l.byAddr[player] = cur + amountCents

	return Stake{Player: player, AmountCents: l.byAddr[player]}, nil
}

// Load registra apostas já persistidas, sem revalidar (a validação
// aconteceu na escrita). Entradas repetidas acumulam.
func (l *Ledger) Load(stakes []Stake) {
	for _, s := range stakes {
		if _, ok := l.byAddr[s.Player]; !ok {
			l.order = append(l.order, s.Player)
		}
		l.byAddr[s.Player] += s.AmountCents
	}
}

// TotalPool devolve a soma exata de todas as apostas aceitas.
func (l *Ledger) TotalPool() int64 {
	var total int64
	for _, v := range l.byAddr {
		total += v
	}
	return total
}

// Stakes devolve as apostas na ordem de entrada dos jogadores.
func (l *Ledger) Stakes() []Stake {
	out := make([]Stake, 0, len(l.order))
	for _, p := range l.order {
		out = append(out, Stake{Player: p, AmountCents: l.byAddr[p]})
	}
	return out
}
