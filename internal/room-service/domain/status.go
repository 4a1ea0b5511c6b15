package domain

import "time"

// StatusAt deriva o estado efetivo de uma sala a partir das flags
// persistidas e do deadline de apuração. Função pura: nunca altera as
// flags; um fechamento por deadline só vira persistência via Controller.
//
// Ordem estrita de avaliação (a primeira regra que casa vence):
//  1. settled  → SETTLED
//  2. closed   → CLOSED
//  3. now >= settlementAt → CLOSED
//  4. → OPEN
func StatusAt(r Room, now time.Time) Status {
	if r.Settled {
		return StatusSettled
	}
	if r.Closed {
		return StatusClosed
	}
	if !now.Before(r.SettlementAt) {
		return StatusClosed
	}
	return StatusOpen
}

// CurrentStatus é o atalho com relógio de parede.
func CurrentStatus(r Room) Status {
	return StatusAt(r, time.Now())
}
