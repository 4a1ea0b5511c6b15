package fair

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/blockwin/blockwin-backend/internal/room-service/domain"
)

// StakeWeightedPicker é a seleção default de WINNER_TAKES_ALL: um sorteio
// determinístico por seed, com probabilidade proporcional ao valor
// apostado. Qualquer um com a seed e a lista de apostas reproduz o
// resultado, então o sorteio é auditável de ponta a ponta.
//
// O sorteio: os candidatos são ordenados por endereço (ordem canônica,
// independente da ordem de leitura do banco), a seed e cada par
// endereço/valor entram num SHA-256, e o hash vira um offset dentro do
// intervalo [0, pool). O offset cai na faixa acumulada de um jogador.
func StakeWeightedPicker(seed string, stakes []domain.Stake) (string, error) {
	if len(stakes) == 0 {
		return "", errors.New("no candidates")
	}

	ordered := make([]domain.Stake, len(stakes))
	copy(ordered, stakes)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Player < ordered[j].Player })

	var pool int64
	h := sha256.New()
	h.Write([]byte(seed))
	for _, s := range ordered {
		if s.AmountCents <= 0 {
			return "", fmt.Errorf("non-positive stake for %s", s.Player)
		}
		pool += s.AmountCents
		fmt.Fprintf(h, "|%s:%d", s.Player, s.AmountCents)
	}

	digest := h.Sum(nil)
	draw := int64(binary.BigEndian.Uint64(digest[:8]) % uint64(pool))

	var acc int64
	for _, s := range ordered {
		acc += s.AmountCents
		if draw < acc {
			return s.Player, nil
		}
	}
	// inalcançável: draw < pool por construção
	return ordered[len(ordered)-1].Player, nil
}
