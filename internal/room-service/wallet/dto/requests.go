package dto

// ReserveRequest representa o payload para reservar saldo no wallet-service.
type ReserveRequest struct {
	Address     string `json:"address"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"` // ex: stake:roomID:player
}

// ReserveResponse representa a resposta do endpoint de reserva do wallet-service.
type ReserveResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

// RefRequest referencia uma reserva existente (commit/refund).
type RefRequest struct {
	Address     string `json:"address"`
	ExternalRef string `json:"external_ref"`
}
