package blackjack

import "blackjack-lite/card"

type PlayerView struct {
	ID       string
	Position int
	Status   PlayerStatus
	Cards    []card.Card
	Value    int
	Score    float64
}

// Snapshot is a copy of the game state safe to hand to other goroutines.
// Dealer holds the full dealer hand; masking the hole card is left to the
// presentation layer.
type Snapshot struct {
	Round         int
	TotalRounds   int
	Phase         Phase
	Turn          int
	Finished      bool
	Dealer        []card.Card
	DealerValue   int
	DeckRemaining int
	Players       []PlayerView
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		Round:         g.round,
		TotalRounds:   g.cfg.TotalRounds,
		Phase:         g.phase,
		Turn:          g.turn,
		Finished:      g.finished,
		Dealer:        append([]card.Card(nil), g.dealer...),
		DealerValue:   HandValue(g.dealer),
		DeckRemaining: g.deck.Count(),
		Players:       make([]PlayerView, 0, len(g.players)),
	}
	for _, p := range g.players {
		s.Players = append(s.Players, PlayerView{
			ID:       p.ID,
			Position: p.Position,
			Status:   p.status,
			Cards:    append([]card.Card(nil), p.hand...),
			Value:    HandValue(p.hand),
			Score:    p.score,
		})
	}
	return s
}

// CurrentPlayerID is the id of the seat at the current turn, or "".
func (s Snapshot) CurrentPlayerID() string {
	if s.Turn < 0 || s.Turn >= len(s.Players) {
		return ""
	}
	return s.Players[s.Turn].ID
}
