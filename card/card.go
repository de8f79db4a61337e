package card

import (
	"fmt"
	"strings"
)

// Card packs a suit and a rank into one byte.
//
// Encoding:
//   - high 4 bits: suit (0:Hearts, 1:Diamonds, 2:Clubs, 3:Spades)
//   - low 4 bits: rank (2..10, 11:J, 12:Q, 13:K, 14:A)
type Card byte

// New builds a card from suit and rank. Out-of-range input yields CardInvalid.
func New(s Suit, rank byte) Card {
	if s > Spades || rank < RankTwo || rank > RankAce {
		return CardInvalid
	}
	return Card(byte(s)<<4 | rank)
}

func (c Card) String() string {
	if c == CardInvalid {
		return "Invalid"
	}
	if c == CardRear {
		return "Rear"
	}
	return fmt.Sprintf("%s%s", rankString(c.Rank()), c.Suit())
}

// Rank returns 2..14 (A=14), or 0 for invalid/rear cards.
func (c Card) Rank() byte {
	if c == CardInvalid || c == CardRear {
		return 0
	}
	return byte(c & 0x0F)
}

func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == RankAce
}

// IsValid reports whether c encodes one of the 52 standard cards.
func (c Card) IsValid() bool {
	r := c.Rank()
	return r >= RankTwo && r <= RankAce && c.Suit() <= Spades
}

func rankString(r byte) string {
	switch r {
	case 10:
		return "T"
	case RankJack:
		return "J"
	case RankQueen:
		return "Q"
	case RankKing:
		return "K"
	case RankAce:
		return "A"
	default:
		return fmt.Sprintf("%d", r)
	}
}

// Parse converts strings like "As", "Td", "10h" into a Card.
func Parse(cardStr string) (Card, error) {
	if len(cardStr) < 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %s", cardStr)
	}

	var s Suit
	switch suitChar := cardStr[len(cardStr)-1]; suitChar {
	case 'h', 'H':
		s = Hearts
	case 'd', 'D':
		s = Diamonds
	case 'c', 'C':
		s = Clubs
	case 's', 'S':
		s = Spades
	default:
		return CardInvalid, fmt.Errorf("invalid suit: %c", suitChar)
	}

	var rank byte
	switch rankStr := strings.ToUpper(cardStr[:len(cardStr)-1]); rankStr {
	case "A":
		rank = RankAce
	case "K":
		rank = RankKing
	case "Q":
		rank = RankQueen
	case "J":
		rank = RankJack
	case "T", "10":
		rank = 10
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = rankStr[0] - '0'
	default:
		return CardInvalid, fmt.Errorf("invalid rank: %s", rankStr)
	}
	return New(s, rank), nil
}

// MustParse is Parse for fixtures; it panics on malformed input.
func MustParse(cards ...string) []Card {
	out := make([]Card, 0, len(cards))
	for _, s := range cards {
		c, err := Parse(s)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}
