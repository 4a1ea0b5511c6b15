package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	walletdto "github.com/blockwin/blockwin-backend/internal/room-service/wallet/dto"
)

// Client fala com o wallet-service pra reservar o valor da aposta antes
// de registrá-la na sala.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Reserve(ctx context.Context, address string, cents int64, externalRef string) (string, error) {
	body, _ := json.Marshal(walletdto.ReserveRequest{Address: address, AmountCents: cents, ExternalRef: externalRef})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/wallet/reserve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return "", fmt.Errorf("wallet reserve http %d", res.StatusCode)
	}
	var out walletdto.ReserveResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ReservationID, nil
}

// Commit efetiva uma reserva depois que a aposta foi registrada
func (c *Client) Commit(ctx context.Context, address, externalRef string) error {
	return c.postRef(ctx, "/wallet/commit", address, externalRef)
}

// Refund devolve o valor reservado quando o registro da aposta falha
func (c *Client) Refund(ctx context.Context, address, externalRef string) error {
	return c.postRef(ctx, "/wallet/refund", address, externalRef)
}

func (c *Client) postRef(ctx context.Context, path, address, externalRef string) error {
	body, _ := json.Marshal(walletdto.RefRequest{Address: address, ExternalRef: externalRef})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	return nil
}
