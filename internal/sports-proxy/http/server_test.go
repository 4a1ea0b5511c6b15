package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUpstream struct {
	matches []byte
	stats   map[string][]byte
	err     error
	calls   int
}

func (f *fakeUpstream) Matches(ctx context.Context) ([]byte, error) {
	f.calls++
	return f.matches, f.err
}

func (f *fakeUpstream) MatchStats(ctx context.Context, matchID string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.stats[matchID], nil
}

func TestListMatchesPassthrough(t *testing.T) {
	up := &fakeUpstream{matches: []byte(`[{"id":"m1"}]`)}
	srv := NewServer(zap.NewNop(), up, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/matches", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `[{"id":"m1"}]`, rec.Body.String())
}

func TestMatchStatsPassthrough(t *testing.T) {
	up := &fakeUpstream{stats: map[string][]byte{"m1": []byte(`{"shots":7}`)}}
	srv := NewServer(zap.NewNop(), up, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/matches/m1/stats", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"shots":7}`, rec.Body.String())
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	up := &fakeUpstream{err: errors.New("timeout")}
	srv := NewServer(zap.NewNop(), up, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/matches", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, 1, up.calls)
}
