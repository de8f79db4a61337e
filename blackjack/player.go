package blackjack

import "blackjack-lite/card"

type Player struct {
	ID       string
	Position int

	status PlayerStatus
	hand   card.CardList
	score  float64
}

func (p *Player) Status() PlayerStatus { return p.status }
func (p *Player) Score() float64       { return p.score }
func (p *Player) Hand() []card.Card {
	return p.hand
}
func (p *Player) Value() int { return HandValue(p.hand) }

func (p *Player) resetForNewRound() {
	p.status = StatusPlaying
	p.hand = make(card.CardList, 0, 4)
}

func (p *Player) addCard(c card.Card) {
	p.hand = append(p.hand, c)
}

func (p *Player) addScore(points float64) {
	p.score += points
}
