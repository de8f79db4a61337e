package blackjack

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-lite/card"
)

func TestHandValue(t *testing.T) {
	cases := []struct {
		name  string
		cards []string
		value int
		soft  bool
	}{
		{"natural", []string{"As", "Kd"}, 21, true},
		{"two aces and nine", []string{"Ah", "Ac", "9d"}, 21, true},
		{"bust", []string{"Th", "9c", "5d"}, 24, false},
		{"face cards", []string{"Jh", "Qc"}, 20, false},
		{"ace drops to one", []string{"Ah", "9c", "5d"}, 15, false},
		{"four aces", []string{"Ah", "Ad", "Ac", "As"}, 14, true},
		{"empty", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cards := card.MustParse(tc.cards...)
			assert.Equal(t, tc.value, HandValue(cards))
			assert.Equal(t, tc.soft, IsSoft(cards))
			assert.Equal(t, tc.value > BlackjackValue, IsBust(cards))
		})
	}
}

func TestIsBlackjack(t *testing.T) {
	assert.True(t, IsBlackjack(card.MustParse("As", "Td")))
	assert.False(t, IsBlackjack(card.MustParse("7s", "7d", "7h")))
}

func TestDraw(t *testing.T) {
	deck := NewShuffledDeck(rand.New(rand.NewSource(3)))
	require.Equal(t, 52, deck.Count())

	seen := map[card.Card]bool{}
	for i := 0; i < 52; i++ {
		c, err := Draw(&deck)
		require.NoError(t, err)
		require.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
	_, err := Draw(&deck)
	assert.ErrorIs(t, err, ErrEmptyDeck)
	assert.Equal(t, KindResourceExhausted, KindOf(err))
}

// The dealer draws only below 17 and always stops on 17 or more.
func TestDealerStopsAtSeventeenOrMore(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		g, err := NewGame(Config{TotalRounds: 1, Seed: seed}, []string{"a", "b"})
		require.NoError(t, err)
		require.NoError(t, g.StartRound())
		for g.Phase() == PhaseAwaitingTurn {
			_, err := g.Act(g.Turn(), ActionStand)
			require.NoError(t, err)
		}
		for {
			before := HandValue(g.Snapshot().Dealer)
			_, drew, err := g.DealerStep()
			require.NoError(t, err)
			if !drew {
				assert.GreaterOrEqual(t, before, DefaultDealerStandOn, "seed %d: stood early", seed)
				break
			}
			assert.Less(t, before, DefaultDealerStandOn, "seed %d: drew on %d", seed, before)
		}

		snap := g.Snapshot()
		assert.GreaterOrEqual(t, snap.DealerValue, DefaultDealerStandOn, "seed %d", seed)
		assert.Equal(t, PhaseSettling, snap.Phase)
	}
}
