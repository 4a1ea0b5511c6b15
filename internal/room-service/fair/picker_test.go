package fair

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/blockwin/blockwin-backend/internal/room-service/domain"
)

func TestStakeWeightedPickerDeterministic(t *testing.T) {
	stakes := []domain.Stake{
		{Player: "0xaaa", AmountCents: 500},
		{Player: "0xbbb", AmountCents: 1500},
		{Player: "0xccc", AmountCents: 1000},
	}

	first, err := StakeWeightedPicker("seed-42", stakes)
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := StakeWeightedPicker("seed-42", stakes)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if again != first {
			t.Fatalf("pick not deterministic: got %s then %s", first, again)
		}
	}
}

func TestStakeWeightedPickerIgnoresInputOrder(t *testing.T) {
	a := []domain.Stake{
		{Player: "0xaaa", AmountCents: 100},
		{Player: "0xbbb", AmountCents: 200},
		{Player: "0xccc", AmountCents: 300},
	}
	b := []domain.Stake{a[2], a[0], a[1]}

	pa, err := StakeWeightedPicker("s", a)
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	pb, err := StakeWeightedPicker("s", b)
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if pa != pb {
		t.Fatalf("order changed the draw: %s vs %s", pa, pb)
	}
}

func TestStakeWeightedPickerEmpty(t *testing.T) {
	if _, err := StakeWeightedPicker("s", nil); err == nil {
		t.Fatal("expected error for empty candidate list")
	}
}

func TestStakeWeightedPickerAlwaysPicksStaker(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		stakes := make([]domain.Stake, n)
		players := make(map[string]bool, n)
		for i := range stakes {
			p := fmt.Sprintf("0x%03d", i)
			stakes[i] = domain.Stake{
				Player:      p,
				AmountCents: rapid.Int64Range(1, 1_000_000).Draw(t, fmt.Sprintf("stake%d", i)),
			}
			players[p] = true
		}
		seed := rapid.StringMatching(`[a-z0-9]{1,32}`).Draw(t, "seed")

		winner, err := StakeWeightedPicker(seed, stakes)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if !players[winner] {
			t.Fatalf("winner %s never staked", winner)
		}
	})
}
