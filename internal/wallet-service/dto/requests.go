package dto

type DepositRequest struct {
	Address     string `json:"address"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref,omitempty"` // opcional p/ idempotência simples
}

type ReserveRequest struct {
	Address     string `json:"address"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"` // ex: stake:<uuid>
}

type CommitRequest struct {
	Address     string `json:"address"`
	ExternalRef string `json:"external_ref"`
}

type RefundRequest struct {
	Address     string `json:"address"`
	ExternalRef string `json:"external_ref"`
}

type CreditRequest struct {
	Address     string `json:"address"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"` // ex: prize:<roomId>:<rank> (garante crédito único)
	Description string `json:"description,omitempty"`
}
