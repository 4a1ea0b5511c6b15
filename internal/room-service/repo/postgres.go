package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/blockwin/blockwin-backend/internal/room-service/domain"
)

// Postgres implementa a persistência de salas, apostas e vencedores.
// Também é o domain.Store do Controller: os flips de flag são updates
// condicionais e zero linhas afetadas vira o erro de domínio correspondente.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de salas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreateRoom insere uma sala nova em estado OPEN e devolve o id gerado
func (p *Postgres) CreateRoom(ctx context.Context, r *domain.Room) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO betting_rooms
		  (id, name, min_stake_cents, max_stake_cents, settlement_at, closed, settled, payout_type, created_by)
		VALUES ($1,$2,$3,$4,$5,false,false,$6,$7)`,
		id, r.Name, r.MinStakeCents, r.MaxStakeCents, r.SettlementAt, string(r.PayoutType), r.CreatedBy,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetRoom carrega uma sala pelo id
func (p *Postgres) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	var r domain.Room
	var pt string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, min_stake_cents, max_stake_cents, settlement_at, closed, settled, payout_type, created_by, created_at, updated_at
		FROM betting_rooms WHERE id=$1`, id,
	).Scan(&r.ID, &r.Name, &r.MinStakeCents, &r.MaxStakeCents, &r.SettlementAt, &r.Closed, &r.Settled, &pt, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	r.PayoutType = domain.PayoutType(pt)
	return r, nil
}

// ListRooms lista as salas mais recentes (salas são registros históricos,
// nada é deletado)
func (p *Postgres) ListRooms(ctx context.Context, limit int) ([]domain.Room, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, min_stake_cents, max_stake_cents, settlement_at, closed, settled, payout_type, created_by, created_at, updated_at
		FROM betting_rooms
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		var r domain.Room
		var pt string
		if err := rows.Scan(&r.ID, &r.Name, &r.MinStakeCents, &r.MaxStakeCents, &r.SettlementAt, &r.Closed, &r.Settled, &pt, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.PayoutType = domain.PayoutType(pt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertStake aplica a política de acumulação: um registro por
// (sala, jogador), segunda aposta soma no valor existente. A escrita
// tranca a linha da sala e reconfere o estado dentro da transação: um
// fechamento concorrente entre a validação do handler e o insert faz a
// aposta falhar com ErrRoomNotOpen em vez de entrar numa sala fechada.
func (p *Postgres) UpsertStake(ctx context.Context, roomID, player string, amountCents int64) (total int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// MarkClosed/MarkSettled concorrentes serializam neste lock, então a
	// checagem vale até o commit
	var closed, settled bool
	var settlementAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT closed, settled, settlement_at FROM betting_rooms WHERE id=$1 FOR UPDATE`,
		roomID,
	).Scan(&closed, &settled, &settlementAt)
	if err == sql.ErrNoRows {
		return 0, domain.ErrRoomNotFound
	}
	if err != nil {
		return 0, err
	}
	if closed || settled || !time.Now().Before(settlementAt) {
		return 0, domain.ErrRoomNotOpen
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO player_stakes (room_id, player_address, stake_cents)
		VALUES ($1,$2,$3)
		ON CONFLICT (room_id, player_address) DO UPDATE SET
		  stake_cents = player_stakes.stake_cents + EXCLUDED.stake_cents,
		  updated_at  = NOW()
		RETURNING stake_cents`,
		roomID, player, amountCents,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, tx.Commit()
}

// ListStakes devolve todas as apostas de uma sala
func (p *Postgres) ListStakes(ctx context.Context, roomID string) ([]domain.Stake, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT player_address, stake_cents
		FROM player_stakes
		WHERE room_id=$1
		ORDER BY created_at`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Stake
	for rows.Next() {
		var s domain.Stake
		if err := rows.Scan(&s.Player, &s.AmountCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TotalPool soma as apostas da sala direto no banco
func (p *Postgres) TotalPool(ctx context.Context, roomID string) (int64, error) {
	var total int64
	err := p.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(stake_cents),0) FROM player_stakes WHERE room_id=$1`, roomID,
	).Scan(&total)
	return total, err
}

// MarkClosed fecha a sala com update condicional; com duas tentativas
// concorrentes só uma afeta linha, a outra recebe ErrAlreadyClosed
func (p *Postgres) MarkClosed(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE betting_rooms SET closed=true, updated_at=NOW()
		WHERE id=$1 AND closed=false AND settled=false`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadyClosed
	}
	return nil
}

// MarkSettled grava os vencedores e vira settled=true na mesma transação.
// O update condicional garante que a corrida entre dois settles só deixa
// um conjunto de winners; zero linhas vira o erro de quem perdeu a corrida.
func (p *Postgres) MarkSettled(ctx context.Context, id string, winners []domain.Winner) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE betting_rooms SET settled=true, updated_at=NOW()
		WHERE id=$1 AND closed=true AND settled=false`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// distingue "ainda aberta" de "já apurada"
		var closed, settled bool
		if qerr := tx.QueryRowContext(ctx,
			`SELECT closed, settled FROM betting_rooms WHERE id=$1`, id,
		).Scan(&closed, &settled); qerr != nil {
			if qerr == sql.ErrNoRows {
				return domain.ErrRoomNotFound
			}
			return qerr
		}
		if settled {
			return domain.ErrAlreadySettled
		}
		return domain.ErrNotClosedYet
	}

	for _, w := range winners {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO room_winners (id, room_id, player_address, prize_cents, rank)
			VALUES ($1,$2,$3,$4,$5)`,
			uuid.NewString(), id, w.Player, w.PrizeCents, w.Rank,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListWinners devolve os vencedores de uma sala apurada, por rank
func (p *Postgres) ListWinners(ctx context.Context, roomID string) ([]domain.Winner, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT player_address, prize_cents, rank
		FROM room_winners
		WHERE room_id=$1
		ORDER BY rank`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Winner
	for rows.Next() {
		var w domain.Winner
		if err := rows.Scan(&w.Player, &w.PrizeCents, &w.Rank); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SweepExpired fecha de uma vez todas as salas com deadline vencido e
// devolve os ids afetados (usado pelo settlement-worker)
func (p *Postgres) SweepExpired(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		UPDATE betting_rooms SET closed=true, updated_at=NOW()
		WHERE settlement_at <= NOW() AND closed=false AND settled=false
		RETURNING id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
