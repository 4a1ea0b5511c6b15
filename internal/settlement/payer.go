package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	walletdto "github.com/blockwin/blockwin-backend/internal/wallet-service/dto"
	"github.com/blockwin/blockwin-backend/pkg/contracts/events"
)

// Payer consome room_settled e credita os prêmios na wallet.
// O external_ref <roomId>:<rank> torna cada crédito idempotente, então
// reprocessar o mesmo evento não paga duas vezes.
type Payer struct {
	log       *zap.Logger
	walletURL string
	client    *http.Client
}

func NewPayer(log *zap.Logger, walletURL string) *Payer {
	return &Payer{
		log:       log,
		walletURL: walletURL,
		client:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (p *Payer) HandleRoomSettled(ctx context.Context, ev events.RoomSettled) error {
	for _, w := range ev.Winners {
		ref := ev.RoomID + ":" + strconv.Itoa(w.Rank)
		if err := p.credit(ctx, w.Player, w.PrizeCents, ref); err != nil {
			// Para no primeiro erro; o retry recomeça do início e os
			// créditos já feitos são deduplicados pelo external_ref.
			return err
		}
		prizesCredited.Inc()
		p.log.Info("prize credited",
			zap.String("roomId", ev.RoomID),
			zap.String("player", w.Player),
			zap.Int64("prize_cents", w.PrizeCents),
			zap.Int("rank", w.Rank),
		)
	}
	return nil
}

func (p *Payer) credit(ctx context.Context, address string, amount int64, externalRef string) error {
	body, _ := json.Marshal(walletdto.CreditRequest{
		Address:     address,
		AmountCents: amount,
		ExternalRef: externalRef,
		Description: "room prize",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.walletURL+"/wallet/credit", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("wallet credit http " + resp.Status)
	}
	return nil
}
