package card

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EncodesSuitAndRank(t *testing.T) {
	c := New(Spades, RankAce)
	assert.Equal(t, Spades, c.Suit())
	assert.Equal(t, RankAce, c.Rank())
	assert.True(t, c.IsAce())
	assert.Equal(t, "As", c.String())

	assert.Equal(t, CardInvalid, New(Hearts, 1))
	assert.Equal(t, CardInvalid, New(Suit(7), 5))
}

func TestParse(t *testing.T) {
	c, err := Parse("10h")
	require.NoError(t, err)
	assert.Equal(t, New(Hearts, 10), c)

	c, err = Parse("Kd")
	require.NoError(t, err)
	assert.Equal(t, RankKing, c.Rank())
	assert.Equal(t, Diamonds, c.Suit())

	_, err = Parse("1x")
	assert.Error(t, err)
	_, err = Parse("Zs")
	assert.Error(t, err)
}

func TestStandardDeck_Has52UniqueCards(t *testing.T) {
	deck := StandardDeck()
	require.Equal(t, 52, deck.Count())
	seen := make(map[Card]bool, 52)
	for _, c := range deck {
		require.True(t, c.IsValid(), "invalid card %v", c)
		require.False(t, seen[c], "duplicate card %v", c)
		seen[c] = true
	}
}

func TestShuffle_IsPermutation(t *testing.T) {
	deck := StandardDeck()
	shuffled := deck.Clone()
	shuffled.Shuffle(rand.New(rand.NewSource(7)))

	assert.ElementsMatch(t, deck, shuffled)
	assert.NotEqual(t, deck, shuffled)
}

func TestPopCard_TakesFromEnd(t *testing.T) {
	list := CardList(MustParse("2h", "3h", "4h"))
	assert.Equal(t, New(Hearts, 4), list.PopCard())
	assert.Equal(t, 2, list.Count())

	var empty CardList
	assert.Equal(t, CardInvalid, empty.PopCard())
}
