package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client consulta a API de estatísticas esportivas de terceiros.
// A resposta é repassada como veio; o schema é problema do upstream.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Matches busca a lista de partidas do dia
func (c *Client) Matches(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/matches")
}

// MatchStats busca as estatísticas de uma partida
func (c *Client) MatchStats(ctx context.Context, matchID string) ([]byte, error) {
	return c.get(ctx, "/matches/"+matchID+"/stats")
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sports upstream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sports upstream: http %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
