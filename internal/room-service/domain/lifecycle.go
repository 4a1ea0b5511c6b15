package domain

import (
	"context"
	"time"
)

// Store é o colaborador de persistência do ciclo de vida. As trocas de
// flag são updates condicionais no banco: a implementação deve mapear
// "zero linhas afetadas" para ErrAlreadyClosed / ErrAlreadySettled /
// ErrNotClosedYet. É isso que torna close/settle concorrentes idempotentes
// em efeito (só um vence).
type Store interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListStakes(ctx context.Context, roomID string) ([]Stake, error)
	// MarkClosed: UPDATE ... SET closed=true WHERE id=? AND closed=false AND settled=false
	MarkClosed(ctx context.Context, id string) error
	// MarkSettled persiste os winners e vira settled=true na mesma transação.
	MarkSettled(ctx context.Context, id string, winners []Winner) error
}

// Controller orquestra OPEN → CLOSED → SETTLED (estritamente pra frente,
// SETTLED terminal). Só codifica a legalidade da transição e o cálculo;
// durabilidade é toda do Store.
type Controller struct {
	store Store
	pick  Picker
	now   func() time.Time
}

func NewController(store Store, pick Picker) *Controller {
	return &Controller{store: store, pick: pick, now: time.Now}
}

// WithClock troca o relógio (testes).
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// Close transita OPEN → CLOSED. Permitido também quando o OPEN já virou
// CLOSED por deadline (a flag ainda não persiste sozinha); aí o Close
// apenas materializa o fechamento.
func (c *Controller) Close(ctx context.Context, id string) (Room, error) {
	r, err := c.store.GetRoom(ctx, id)
	if err != nil {
		return Room{}, err
	}

	switch {
	case r.Settled:
		return Room{}, ErrAlreadySettled
	case r.Closed:
		return Room{}, ErrAlreadyClosed
	}

	if err := c.store.MarkClosed(ctx, id); err != nil {
		return Room{}, err
	}
	r.Closed = true
	return r, nil
}

// Settle transita CLOSED → SETTLED: calcula os vencedores e persiste
// winners + flag atomicamente. Nunca aplica efeito parcial: qualquer
// falha de validação acontece antes da persistência.
func (c *Controller) Settle(ctx context.Context, id string, seed string) (Room, []Winner, error) {
	r, err := c.store.GetRoom(ctx, id)
	if err != nil {
		return Room{}, nil, err
	}

	switch StatusAt(r, c.now()) {
	case StatusSettled:
		return Room{}, nil, ErrAlreadySettled
	case StatusOpen:
		return Room{}, nil, ErrNotClosedYet
	}

	// CLOSED por deadline pode ainda não estar materializado na flag;
	// o settle condicional exige closed=true, então fecha antes.
	if !r.Closed {
		if err := c.store.MarkClosed(ctx, id); err != nil && err != ErrAlreadyClosed {
			return Room{}, nil, err
		}
		r.Closed = true
	}

	stakes, err := c.store.ListStakes(ctx, id)
	if err != nil {
		return Room{}, nil, err
	}

	winners, err := ComputeWinners(r, stakes, c.pick, seed)
	if err != nil {
		return Room{}, nil, err
	}

	if err := c.store.MarkSettled(ctx, id, winners); err != nil {
		return Room{}, nil, err
	}
	r.Settled = true
	return r, winners, nil
}
