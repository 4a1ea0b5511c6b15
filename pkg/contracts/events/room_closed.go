package events

import "time"

// Evento publicado quando uma sala fecha (deadline ou fechamento explícito).
// O settlement-worker consome este tópico para disparar a apuração.
type RoomClosed struct {
	RoomID   string    `json:"roomId"`
	Reason   string    `json:"reason"` // "deadline" | "explicit"
	ClosedAt time.Time `json:"closedAt"`
}
