package feed

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextIntervalWithinBounds(t *testing.T) {
	g := NewGenerator(2*time.Second, 9*time.Second, nil)
	for i := 0; i < 1000; i++ {
		d := g.nextInterval()
		require.GreaterOrEqual(t, d, 2*time.Second)
		require.Less(t, d, 9*time.Second)
	}
}

func TestNewGeneratorFixesInvertedBounds(t *testing.T) {
	g := NewGenerator(5*time.Second, 5*time.Second, nil)
	d := g.nextInterval()
	require.GreaterOrEqual(t, d, 5*time.Second)
	require.Less(t, d, 6*time.Second)
}

func TestMakeEventShape(t *testing.T) {
	g := NewGenerator(time.Second, 2*time.Second, nil)
	masked := regexp.MustCompile(`^0x[0-9a-f]{2}\.\.\.[0-9a-f]{4}$`)
	for i := 0; i < 200; i++ {
		ev := g.makeEvent()
		require.NotEmpty(t, ev.ID)
		require.Contains(t, []string{KindStakePlaced, KindWin}, ev.Kind)
		require.Regexp(t, masked, ev.Player)
		require.NotEmpty(t, ev.Game)
		require.Greater(t, ev.AmountCents, int64(0))
		require.False(t, ev.Ts.IsZero())
	}
}

func TestRecentNewestFirst(t *testing.T) {
	g := NewGenerator(time.Second, 2*time.Second, nil)
	for i := 0; i < 5; i++ {
		ev := g.makeEvent()
		ev.ID = string(rune('a' + i))
		g.record(ev)
	}

	recent := g.Recent(3)
	require.Len(t, recent, 3)
	require.Equal(t, "e", recent[0].ID)
	require.Equal(t, "d", recent[1].ID)
	require.Equal(t, "c", recent[2].ID)

	all := g.Recent(0)
	require.Len(t, all, 5)
}

func TestRecentAfterWrapAround(t *testing.T) {
	g := NewGenerator(time.Second, 2*time.Second, nil)
	for i := 0; i < bufferSize+10; i++ {
		ev := g.makeEvent()
		g.record(ev)
	}

	all := g.Recent(0)
	require.Len(t, all, bufferSize)
	for i := 1; i < len(all); i++ {
		require.False(t, all[i].Ts.After(all[i-1].Ts))
	}
}

func TestRunDeliversToSink(t *testing.T) {
	got := make(chan Event, 1)
	g := NewGenerator(time.Millisecond, 2*time.Millisecond, func(ev Event) { got <- ev })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go g.Run(ctx)

	select {
	case ev := <-got:
		require.NotEmpty(t, ev.ID)
	case <-ctx.Done():
		t.Fatal("no event generated before timeout")
	}
	require.NotEmpty(t, g.Recent(1))
}
