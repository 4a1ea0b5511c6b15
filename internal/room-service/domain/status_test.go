package domain

import (
	"testing"
	"time"
)

func TestStatusAt(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	before := deadline.Add(-time.Hour)
	after := deadline.Add(time.Hour)

	tests := []struct {
		name     string
		closed   bool
		settled  bool
		now      time.Time
		expected Status
	}{
		{"open before deadline", false, false, before, StatusOpen},
		{"closed at deadline", false, false, deadline, StatusClosed},
		{"closed after deadline", false, false, after, StatusClosed},
		{"explicit close before deadline", true, false, before, StatusClosed},
		{"settled wins over closed", true, true, before, StatusSettled},
		{"settled regardless of clock", true, true, after, StatusSettled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Room{Closed: tt.closed, Settled: tt.settled, SettlementAt: deadline}
			if got := StatusAt(r, tt.now); got != tt.expected {
				t.Errorf("StatusAt = %v, want %v", got, tt.expected)
			}
		})
	}
}

// Uma vez CLOSED, o avanço do relógio nunca devolve a sala pra OPEN com as
// mesmas flags persistidas.
func TestStatusMonotonicOverTime(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := Room{SettlementAt: deadline}

	now := deadline
	for i := 0; i < 48; i++ {
		if got := StatusAt(r, now); got != StatusClosed {
			t.Fatalf("at %v: got %v, want CLOSED", now, got)
		}
		now = now.Add(time.Hour)
	}
}
