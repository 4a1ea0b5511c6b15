package domain

import "errors"

// Falhas de validação do domínio. Nenhuma é fatal: o chamador decide
// retry e mensagem ao usuário; o core nunca loga nem tenta de novo.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomNotOpen       = errors.New("room not open")
	ErrStakeOutOfBounds  = errors.New("stake out of bounds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrDuplicateStake    = errors.New("duplicate stake")
	ErrNoParticipants    = errors.New("no participants")
	ErrInvalidPayoutType = errors.New("invalid payout type")
	ErrAlreadyClosed     = errors.New("room already closed")
	ErrNotClosedYet      = errors.New("room not closed yet")
	ErrAlreadySettled    = errors.New("room already settled")
)
