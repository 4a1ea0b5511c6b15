package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/blockwin/blockwin-backend/internal/wallet-service/dto"
)

// Postgres implementa operações de carteira em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// GetOrCreateWallet retorna o walletId e saldo de um endereço, criando a
// carteira se não existir. Usa transação para garantir atomicidade
func (p *Postgres) GetOrCreateWallet(ctx context.Context, address string) (walletID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	var bal int64
	err = tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE address=$1`, address).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		id = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, address, balance_cents, version) VALUES($1,$2,0,1)`,
			id, address); err != nil {
			return "", 0, err
		}
		bal = 0
	} else if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}

	return id, bal, nil
}

// Deposit incrementa o saldo da carteira e registra a operação no ledger
// Garante lock pessimista na linha da carteira
func (p *Postgres) Deposit(ctx context.Context, address string, amount int64, externalRef string) (walletID string, newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE address=$1 FOR UPDATE`, address).Scan(&id); err != nil {
		return "", 0, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`, amount, id); err != nil {
		return "", 0, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description) VALUES($1,'CREDIT',$2,$3)`,
		id, amount, "deposit:"+externalRef); err != nil {
		return "", 0, err
	}

	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE id=$1`, id).Scan(&newBalance); err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, newBalance, nil
}

// Reserve cria uma reserva PENDING e debita saldo (bloqueio)
// Garante idempotência por (wallet_id, external_ref)
func (p *Postgres) Reserve(ctx context.Context, address string, amount int64, externalRef string) (reservationID string, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var walletID string
	var balance int64
	if err = tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE address=$1 FOR UPDATE`, address).Scan(&walletID, &balance); err != nil {
		return "", err
	}

	if balance < amount {
		return "", ErrInsufficientFunds
	}

	// Idempotência: verifica se já existe reserva para o mesmo external_ref
	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM wallet_reservations WHERE wallet_id=$1 AND external_ref=$2`, walletID, externalRef).Scan(&exists)

	if err == nil {
		return exists, nil // já existe
	} else if err != sql.ErrNoRows {
		return "", err
	}

	// Debita saldo (bloqueio)
	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_cents = balance_cents - $1, version = version + 1 WHERE id=$2`, amount, walletID); err != nil {
		return "", err
	}

	reservationID = uuid.New().String()
	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_reservations(id, wallet_id, external_ref, amount_cents, status) VALUES($1,$2,$3,$4,'PENDING')`,
		reservationID, walletID, externalRef, amount); err != nil {
		return "", err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description)
		VALUES($1,'RESERVE',$2,$3)`,
		walletID, amount, "reserve:"+externalRef); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}

	return reservationID, nil
}

// Commit efetiva uma reserva, marcando como COMMITTED e registrando débito no ledger
// Idempotente: se já estiver committed, não faz nada
func (p *Postgres) Commit(ctx context.Context, address, externalRef string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var walletID, resID string
	var status string
	var amount int64

	if err = tx.QueryRowContext(ctx, `
		SELECT wr.id, wr.wallet_id, wr.amount_cents, wr.status
		FROM wallet_reservations wr
		JOIN wallets w ON w.id = wr.wallet_id
		WHERE w.address=$1 AND wr.external_ref=$2
		FOR UPDATE`, address, externalRef).Scan(&resID, &walletID, &amount, &status); err != nil {
		return ErrNotFound
	}

	if status != "PENDING" {
		return nil
	} // idempotente

	if _, err = tx.ExecContext(ctx, `UPDATE wallet_reservations SET status='COMMITTED' WHERE id=$1`, resID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description)
		VALUES($1,'DEBIT',$2,$3)`, walletID, amount, "commit:"+externalRef); err != nil {
		return err
	}

	return tx.Commit()
}

// Refund desfaz uma reserva PENDING, devolvendo saldo e registrando no ledger
// Idempotente: se já estiver REFUNDED, não faz nada
func (p *Postgres) Refund(ctx context.Context, address, externalRef string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var walletID, resID string
	var status string
	var amount int64

	if err = tx.QueryRowContext(ctx, `
		SELECT wr.id, wr.wallet_id, wr.amount_cents, wr.status
		FROM wallet_reservations wr
		JOIN wallets w ON w.id = wr.wallet_id
		WHERE w.address=$1 AND wr.external_ref=$2
		FOR UPDATE`, address, externalRef).Scan(&resID, &walletID, &amount, &status); err != nil {
		return ErrNotFound
	}

	if status != "PENDING" {
		return nil
	} // já tratado

	// Devolve saldo
	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`, amount, walletID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE wallet_reservations SET status='REFUNDED' WHERE id=$1`, resID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description)
		VALUES($1,'REFUND',$2,$3)`, walletID, amount, "refund:"+externalRef); err != nil {
		return err
	}

	return tx.Commit()
}

// Credit credita um prêmio na carteira. Idempotente por external_ref:
// o settlement-worker pode reprocessar room_settled sem crédito duplicado
func (p *Postgres) Credit(ctx context.Context, address string, amount int64, externalRef, description string) (newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var walletID string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE address=$1 FOR UPDATE`, address).Scan(&walletID); err != nil {
		if err == sql.ErrNoRows {
			// vencedor sem carteira ainda: cria na hora
			walletID = uuid.New().String()
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO wallets(id, address, balance_cents, version) VALUES($1,$2,0,1)`,
				walletID, address); err != nil {
				return 0, err
			}
		} else {
			return 0, err
		}
	}

	desc := "prize:" + externalRef
	if description != "" {
		desc = desc + ":" + description
	}

	// Idempotência: um crédito por external_ref, comparado por igualdade
	// na coluna própria (prefixo de description colidiria: room:1 x room:12)
	var done int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM wallet_ledger WHERE wallet_id=$1 AND operation_type='PRIZE' AND external_ref=$2`,
		walletID, externalRef).Scan(&done)
	if err == nil {
		if berr := tx.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE id=$1`, walletID).Scan(&newBalance); berr != nil {
			return 0, berr
		}
		return newBalance, tx.Commit() // já creditado
	} else if err != sql.ErrNoRows {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`, amount, walletID); err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description, external_ref)
		VALUES($1,'PRIZE',$2,$3,$4)`, walletID, amount, desc, externalRef); err != nil {
		return 0, err
	}

	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE id=$1`, walletID).Scan(&newBalance); err != nil {
		return 0, err
	}

	return newBalance, tx.Commit()
}

// Transactions devolve saldo + extrato recente do endereço (reconciliação)
func (p *Postgres) Transactions(ctx context.Context, address string, limit int) (balance int64, entries []dto.LedgerEntry, err error) {
	var walletID string
	err = p.db.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE address=$1`, address).Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		return 0, nil, ErrNotFound
	}
	if err != nil {
		return 0, nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT operation_type, amount_cents, description, created_at
		FROM wallet_ledger
		WHERE wallet_id=$1
		ORDER BY created_at DESC
		LIMIT $2`, walletID, limit)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e dto.LedgerEntry
		if err := rows.Scan(&e.OperationType, &e.AmountCents, &e.Description, &e.CreatedAt); err != nil {
			return 0, nil, err
		}
		entries = append(entries, e)
	}
	return balance, entries, rows.Err()
}
