package blackjack

import (
	"sort"

	"blackjack-lite/card"
)

// SeatResult is one seat's outcome for a settled round.
type SeatResult struct {
	PlayerID string
	Position int
	Value    int
	Outcome  Outcome
	Points   float64
	Total    float64
}

type SettlementResult struct {
	Round       int
	DealerCards []card.Card
	DealerValue int
	DealerBust  bool
	Seats       []SeatResult
	// GameOver is set when this was the last configured round.
	GameOver bool
}

// Standing is a player's cumulative score.
type Standing struct {
	PlayerID string
	Score    float64
}

// Settle scores every seat dealt into the round against the dealer and
// moves the game to FINISHED after the last round. Seats that joined
// mid-round (still WAITING) are skipped.
func (g *Game) Settle() (*SettlementResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseSettling {
		return nil, ErrInvalidState("cannot settle in phase " + g.phase.String())
	}

	dealerValue := HandValue(g.dealer)
	dealerBust := dealerValue > BlackjackValue
	res := &SettlementResult{
		Round:       g.round,
		DealerCards: append([]card.Card(nil), g.dealer...),
		DealerValue: dealerValue,
		DealerBust:  dealerBust,
	}

	for _, p := range g.players {
		if p.status == StatusWaiting {
			continue
		}
		value := HandValue(p.hand)
		var outcome Outcome
		var points float64
		switch {
		case p.status == StatusBust || value > BlackjackValue:
			outcome = OutcomeBust
		case dealerBust || value > dealerValue:
			outcome, points = OutcomeWin, WinPoints
		case value == dealerValue:
			outcome, points = OutcomePush, PushPoints
		default:
			outcome = OutcomeLoss
		}
		p.addScore(points)
		p.status = StatusSettled
		res.Seats = append(res.Seats, SeatResult{
			PlayerID: p.ID,
			Position: p.Position,
			Value:    value,
			Outcome:  outcome,
			Points:   points,
			Total:    p.score,
		})
	}

	if g.round >= g.cfg.TotalRounds {
		g.phase = PhaseFinished
		g.finished = true
		res.GameOver = true
	}
	return res, nil
}

// Standings returns cumulative scores, best first. Ties keep seat order.
func (g *Game) Standings() []Standing {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.standingsLocked()
}

func (g *Game) standingsLocked() []Standing {
	out := make([]Standing, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, Standing{PlayerID: p.ID, Score: p.score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Winners returns every player sharing the top score.
func (g *Game) Winners() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	standings := g.standingsLocked()
	if len(standings) == 0 {
		return nil
	}
	top := standings[0].Score
	var winners []string
	for _, s := range standings {
		if s.Score != top {
			break
		}
		winners = append(winners, s.PlayerID)
	}
	return winners
}
