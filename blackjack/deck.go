package blackjack

import (
	"math/rand"

	"blackjack-lite/card"
)

// NewShuffledDeck builds the 52-card deck and shuffles it with rng.
func NewShuffledDeck(rng *rand.Rand) card.CardList {
	deck := card.StandardDeck()
	deck.Shuffle(rng)
	return deck
}

// Draw pops the top card. An empty deck is a caller bug: the round engine
// reshuffles before it can run dry.
func Draw(deck *card.CardList) (card.Card, error) {
	if deck == nil || deck.Count() == 0 {
		return card.CardInvalid, ErrEmptyDeck
	}
	return deck.PopCard(), nil
}

// CardValue is the hard value of a single card (Ace counts 11 here).
func CardValue(c card.Card) int {
	r := c.Rank()
	switch {
	case r == card.RankAce:
		return 11
	case r >= card.RankJack:
		return 10
	default:
		return int(r)
	}
}

// HandValue sums the hand, dropping soft Aces from 11 to 1 while the total
// would otherwise bust.
func HandValue(cards []card.Card) int {
	total, _ := handValue(cards)
	return total
}

// IsSoft reports whether at least one Ace is still counted as 11.
func IsSoft(cards []card.Card) bool {
	_, soft := handValue(cards)
	return soft > 0
}

func handValue(cards []card.Card) (total int, softAces int) {
	for _, c := range cards {
		if c.IsAce() {
			softAces++
		}
		total += CardValue(c)
	}
	for total > BlackjackValue && softAces > 0 {
		total -= 10
		softAces--
	}
	return total, softAces
}

func IsBust(cards []card.Card) bool {
	return HandValue(cards) > BlackjackValue
}

func IsBlackjack(cards []card.Card) bool {
	return len(cards) == 2 && HandValue(cards) == BlackjackValue
}
