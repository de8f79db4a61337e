package card

const (
	CardInvalid Card = 0
	CardRear    Card = 0xFF
)

const (
	RankTwo   byte = 2
	RankJack  byte = 11
	RankQueen byte = 12
	RankKing  byte = 13
	RankAce   byte = 14
)

// StandardDeck returns the 52 cards in suit-major, rank-ascending order.
func StandardDeck() CardList {
	cards := make(CardList, 0, len(Suits)*13)
	for _, s := range Suits {
		for r := RankTwo; r <= RankAce; r++ {
			cards = append(cards, New(s, r))
		}
	}
	return cards
}
