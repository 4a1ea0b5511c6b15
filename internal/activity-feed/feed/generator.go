package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Catálogo fixo de jogos usado na geração do feed
var games = []string{
	"Lucky Rooms",
	"Crash",
	"Plinko",
	"Dice",
	"Roulette",
	"Sports Parlay",
}

// Generator produz eventos sintéticos em intervalos irregulares dentro
// de [min, max) e os entrega ao sink (normalmente o hub WS). Os últimos
// eventos ficam num ring buffer consultado via REST.
type Generator struct {
	min  time.Duration
	max  time.Duration
	rng  *rand.Rand
	sink func(Event)

	mu     sync.RWMutex
	buf    []Event
	next   int
	filled bool
}

const bufferSize = 50

func NewGenerator(min, max time.Duration, sink func(Event)) *Generator {
	if max <= min {
		max = min + time.Second
	}
	return &Generator{
		min:  min,
		max:  max,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		sink: sink,
		buf:  make([]Event, bufferSize),
	}
}

// Run gera eventos até o contexto ser cancelado
func (g *Generator) Run(ctx context.Context) {
	timer := time.NewTimer(g.nextInterval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			ev := g.makeEvent()
			g.record(ev)
			if g.sink != nil {
				g.sink(ev)
			}
			timer.Reset(g.nextInterval())
		}
	}
}

// Recent devolve os eventos mais recentes, do mais novo para o mais antigo
func (g *Generator) Recent(limit int) []Event {
	g.mu.RLock()
	defer g.mu.RUnlock()

	size := g.next
	if g.filled {
		size = bufferSize
	}
	if limit <= 0 || limit > size {
		limit = size
	}
	out := make([]Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (g.next - i + bufferSize) % bufferSize
		out = append(out, g.buf[idx])
	}
	return out
}

func (g *Generator) nextInterval() time.Duration {
	return g.min + time.Duration(g.rng.Int63n(int64(g.max-g.min)))
}

func (g *Generator) makeEvent() Event {
	kind := KindStakePlaced
	amount := int64(g.rng.Intn(49900)+100) * 10 // 1,00 a 5.000,00
	if g.rng.Intn(100) < 25 {
		kind = KindWin
		amount *= int64(g.rng.Intn(9) + 2) // prêmios maiores que apostas
	}
	return Event{
		ID:          uuid.New().String(),
		Kind:        kind,
		Player:      g.maskedAddress(),
		Game:        games[g.rng.Intn(len(games))],
		AmountCents: amount,
		Ts:          time.Now().UTC(),
	}
}

// maskedAddress gera um endereço de carteira já truncado (0xab...cdef)
func (g *Generator) maskedAddress() string {
	const hex = "0123456789abcdef"
	b := make([]byte, 6)
	for i := range b {
		b[i] = hex[g.rng.Intn(len(hex))]
	}
	return fmt.Sprintf("0x%s...%s", b[:2], b[2:])
}

func (g *Generator) record(ev Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buf[g.next] = ev
	g.next = (g.next + 1) % bufferSize
	if g.next == 0 {
		g.filled = true
	}
}
