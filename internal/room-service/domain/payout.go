package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Picker escolhe o vencedor de uma sala WINNER_TAKES_ALL a partir de uma
// seed auditável e da lista de candidatos. A seleção é injetada: o core
// nunca gera aleatoriedade própria, pra política de fairness ser plugável
// e testável.
type Picker func(seed string, stakes []Stake) (player string, err error)

// ComputeWinners calcula a lista ordenada de vencedores de uma sala
// fechada. Pré-condições: sala com closed=true e ainda não apurada (quem
// materializa um fechamento por deadline é o Controller, antes de chamar
// aqui), e pelo menos uma aposta.
//
//   - WINNER_TAKES_ALL: exatamente um vencedor, escolhido pelo Picker;
//     prêmio = pool inteiro, rank 1.
//   - SPLIT: todo apostador vence; prêmio proporcional à fração da aposta,
//     com arredondamento bancário e o resto do arredondamento atribuído ao
//     rank 1; a soma dos prêmios fecha exatamente no pool.
//
// Pós-condição: sum(prize) <= pool sempre; igualdade com taxa zero.
func ComputeWinners(r Room, stakes []Stake, pick Picker, seed string) ([]Winner, error) {
	if r.Settled {
		return nil, ErrAlreadySettled
	}
	if !r.Closed {
		return nil, ErrNotClosedYet
	}
	if len(stakes) == 0 {
		return nil, ErrNoParticipants
	}

	var pool int64
	for _, s := range stakes {
		pool += s.AmountCents
	}

	switch r.PayoutType {
	case PayoutWinnerTakesAll:
		if pick == nil {
			return nil, fmt.Errorf("winner picker required for %s", PayoutWinnerTakesAll)
		}
		chosen, err := pick(seed, stakes)
		if err != nil {
			return nil, fmt.Errorf("pick winner: %w", err)
		}
		if !hasPlayer(stakes, chosen) {
			return nil, fmt.Errorf("picker chose %q, not a staking player", chosen)
		}
		return []Winner{{Player: chosen, PrizeCents: pool, Rank: 1}}, nil

	case PayoutSplit:
		return splitPool(stakes, pool), nil

	default:
		// enum fechado; falhar alto em vez de assumir um default
		return nil, ErrInvalidPayoutType
	}
}

// splitPool distribui o pool proporcionalmente ao valor apostado.
// prize_i = round_bank(stake_i / total * pool); o resto (positivo ou
// negativo) vai para o rank 1, evitando centavos perdidos.
func splitPool(stakes []Stake, pool int64) []Winner {
	dPool := decimal.NewFromInt(pool)
	dTotal := decimal.NewFromInt(pool) // total apostado == pool (taxa externa)

	winners := make([]Winner, 0, len(stakes))
	byPlayer := make(map[string]int64, len(stakes))
	for _, s := range stakes {
		share := decimal.NewFromInt(s.AmountCents).Div(dTotal).Mul(dPool)
		prize := share.RoundBank(0).IntPart()
		winners = append(winners, Winner{Player: s.Player, PrizeCents: prize})
		byPlayer[s.Player] = s.AmountCents
	}

	// ordena desc por prêmio; empate por aposta e depois por endereço,
	// pra apuração ser determinística
	sort.Slice(winners, func(i, j int) bool {
		a, b := winners[i], winners[j]
		if a.PrizeCents != b.PrizeCents {
			return a.PrizeCents > b.PrizeCents
		}
		if byPlayer[a.Player] != byPlayer[b.Player] {
			return byPlayer[a.Player] > byPlayer[b.Player]
		}
		return a.Player < b.Player
	})

	var distributed int64
	for i := range winners {
		winners[i].Rank = i + 1
		distributed += winners[i].PrizeCents
	}
	winners[0].PrizeCents += pool - distributed

	return winners
}

func hasPlayer(stakes []Stake, player string) bool {
	for _, s := range stakes {
		if s.Player == player {
			return true
		}
	}
	return false
}
