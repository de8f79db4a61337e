package blackjack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-lite/card"
)

// stackDeck arranges the deck so the given cards come off the top in order.
func stackDeck(g *Game, cards ...string) {
	parsed := card.MustParse(cards...)
	deck := make(card.CardList, len(parsed))
	for i, c := range parsed {
		deck[len(parsed)-1-i] = c
	}
	g.deck = deck
}

func newTestGame(t *testing.T, rounds int, ids ...string) *Game {
	t.Helper()
	g, err := NewGame(Config{TotalRounds: rounds, ReshuffleThreshold: 1, Seed: 42}, ids)
	require.NoError(t, err)
	return g
}

func TestNewGame_Validation(t *testing.T) {
	_, err := NewGame(Config{TotalRounds: 1}, []string{"solo"})
	assert.ErrorIs(t, err, ErrInsufficientPlayers)

	_, err = NewGame(Config{TotalRounds: 1}, []string{"a", "a"})
	assert.ErrorIs(t, err, ErrDuplicatePlayer)

	_, err = NewGame(Config{}, []string{"a", "b"})
	assert.Error(t, err)
}

func TestStartRound_DealOrder(t *testing.T) {
	g := newTestGame(t, 3, "alice", "bob")
	// p0, p1, dealer, p0, p1, dealer, then spare cards
	stackDeck(g, "2h", "3h", "4h", "5h", "6h", "7h", "8h", "9h")

	require.NoError(t, g.StartRound())
	snap := g.Snapshot()

	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, PhaseAwaitingTurn, snap.Phase)
	assert.Equal(t, 0, snap.Turn)
	assert.Equal(t, "alice", snap.CurrentPlayerID())
	assert.Equal(t, card.MustParse("2h", "5h"), snap.Players[0].Cards)
	assert.Equal(t, card.MustParse("3h", "6h"), snap.Players[1].Cards)
	assert.Equal(t, card.MustParse("4h", "7h"), snap.Dealer)
	assert.Equal(t, 2, snap.DeckRemaining)
	for _, p := range snap.Players {
		assert.Equal(t, StatusPlaying, p.Status)
	}
}

func TestStartRound_DeckShrinksBySix(t *testing.T) {
	g, err := NewGame(Config{TotalRounds: 1, Seed: 9}, []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, g.StartRound())
	assert.Equal(t, 52-6, g.DeckRemaining())

	err = g.StartRound()
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestAct_OnlyCurrentTurn(t *testing.T) {
	g := newTestGame(t, 1, "a", "b")
	stackDeck(g, "2h", "3h", "4h", "5h", "6h", "7h", "8h")
	require.NoError(t, g.StartRound())
	before := g.Snapshot()

	_, err := g.Act(1, ActionHit)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, before, g.Snapshot())

	_, err = g.Act(0, Action("split"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestAct_BustAdvancesTurn(t *testing.T) {
	g := newTestGame(t, 1, "a", "b")
	// a: T 6, b: 9 8, dealer: 7 9, next card K busts a
	stackDeck(g, "Th", "9h", "7c", "6d", "8d", "9c", "Ks", "2s")
	require.NoError(t, g.StartRound())

	res, err := g.Act(0, ActionHit)
	require.NoError(t, err)
	assert.True(t, res.Bust)
	assert.Equal(t, 26, res.Value)
	assert.Equal(t, card.MustParse("Ks")[0], res.Drawn)
	assert.Equal(t, 1, res.NextTurn)
	assert.False(t, res.DealerTurn)

	snap := g.Snapshot()
	assert.Equal(t, StatusBust, snap.Players[0].Status)
	assert.Equal(t, 1, snap.Turn)

	_, err = g.Act(0, ActionHit)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestAct_LastStandHandsToDealer(t *testing.T) {
	g := newTestGame(t, 1, "a", "b")
	stackDeck(g, "Th", "9h", "7c", "8d", "8s", "9c", "2s")
	require.NoError(t, g.StartRound())

	_, err := g.Act(0, ActionStand)
	require.NoError(t, err)
	res, err := g.Act(1, ActionStand)
	require.NoError(t, err)

	assert.True(t, res.DealerTurn)
	assert.Equal(t, NoTurn, res.NextTurn)
	assert.Equal(t, PhaseDealerPlay, g.Phase())

	_, err = g.Act(1, ActionHit)
	assert.ErrorIs(t, err, ErrRoundNotActive)
}

func TestTurnOrderNeverMovesBackwards(t *testing.T) {
	g, err := NewGame(Config{TotalRounds: 1, Seed: 5}, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	require.NoError(t, g.StartRound())

	last := g.Turn()
	for g.Phase() == PhaseAwaitingTurn {
		turn := g.Turn()
		require.GreaterOrEqual(t, turn, last)
		last = turn
		action := ActionHit
		if g.Snapshot().Players[turn].Value >= 15 {
			action = ActionStand
		}
		_, err := g.Act(turn, action)
		require.NoError(t, err)
	}
	assert.Equal(t, PhaseDealerPlay, g.Phase())
}

func TestDealerPlayAndSettle(t *testing.T) {
	g := newTestGame(t, 2, "a", "b")
	// a: T 9 (19), b: 8 8 (16), dealer: T 6 then draws 2 -> 18
	stackDeck(g, "Th", "8h", "Tc", "9d", "8d", "6c", "2s", "5s")
	require.NoError(t, g.StartRound())
	_, err := g.Act(0, ActionStand)
	require.NoError(t, err)
	_, err = g.Act(1, ActionStand)
	require.NoError(t, err)

	drawn, err := g.PlayDealer()
	require.NoError(t, err)
	assert.Equal(t, card.MustParse("2s"), drawn)

	res, err := g.Settle()
	require.NoError(t, err)
	assert.Equal(t, 18, res.DealerValue)
	assert.False(t, res.DealerBust)
	assert.False(t, res.GameOver)
	require.Len(t, res.Seats, 2)
	assert.Equal(t, OutcomeWin, res.Seats[0].Outcome)
	assert.Equal(t, WinPoints, res.Seats[0].Points)
	assert.Equal(t, OutcomeLoss, res.Seats[1].Outcome)
	assert.Equal(t, 0.0, res.Seats[1].Points)

	assert.Equal(t, PhaseSettling, g.Phase())
	assert.Equal(t, []string{"a"}, g.Winners())
}

func TestSettle_PushAndDealerBust(t *testing.T) {
	g := newTestGame(t, 1, "a", "b")
	// a: T 8 (18), b: T 6 (16), dealer: T 8 (18) stands
	stackDeck(g, "Th", "Tc", "Td", "8h", "6c", "8d", "2s")
	require.NoError(t, g.StartRound())
	_, _ = g.Act(0, ActionStand)
	_, _ = g.Act(1, ActionStand)
	_, err := g.PlayDealer()
	require.NoError(t, err)

	res, err := g.Settle()
	require.NoError(t, err)
	assert.Equal(t, OutcomePush, res.Seats[0].Outcome)
	assert.Equal(t, PushPoints, res.Seats[0].Points)
	assert.Equal(t, OutcomeLoss, res.Seats[1].Outcome)
	assert.True(t, res.GameOver)
	assert.True(t, g.Finished())
	assert.Equal(t, PhaseFinished, g.Phase())

	assert.ErrorIs(t, g.StartRound(), ErrGameOver)

	g2 := newTestGame(t, 1, "a", "b")
	// dealer T 6 draws K -> bust; bust player still scores 0
	stackDeck(g2, "Th", "9h", "Tc", "6d", "8d", "6c", "Ks", "Kd")
	require.NoError(t, g2.StartRound())
	res2, err := g2.Act(0, ActionHit)
	require.NoError(t, err)
	require.True(t, res2.Bust)
	_, _ = g2.Act(1, ActionStand)
	_, err = g2.PlayDealer()
	require.NoError(t, err)
	settled, err := g2.Settle()
	require.NoError(t, err)
	assert.True(t, settled.DealerBust)
	assert.Equal(t, OutcomeBust, settled.Seats[0].Outcome)
	assert.Equal(t, 0.0, settled.Seats[0].Points)
	assert.Equal(t, OutcomeWin, settled.Seats[1].Outcome)
}

func TestSettle_WrongPhase(t *testing.T) {
	g := newTestGame(t, 1, "a", "b")
	_, err := g.Settle()
	var invalid InvalidStateError
	assert.ErrorAs(t, err, &invalid)
}

func TestRemovePlayer_MidRound(t *testing.T) {
	g := newTestGame(t, 1, "a", "b", "c")
	stackDeck(g, "2h", "3h", "4h", "5h", "6h", "7h", "8h", "9h", "Th", "Jh")
	require.NoError(t, g.StartRound())

	// a acts, turn moves to b
	_, err := g.Act(0, ActionStand)
	require.NoError(t, err)
	require.Equal(t, 1, g.Turn())

	// removing a (behind the turn) keeps b current at its new position
	moved, err := g.RemovePlayer("a")
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 0, g.Turn())
	assert.Equal(t, "b", g.Snapshot().CurrentPlayerID())

	// removing the current player passes the turn to c
	moved, err = g.RemovePlayer("b")
	require.NoError(t, err)
	assert.True(t, moved)
	snap := g.Snapshot()
	assert.Equal(t, "c", snap.CurrentPlayerID())
	assert.Equal(t, 0, snap.Players[0].Position)

	// removing the last active seat hands the round to the dealer
	moved, err = g.RemovePlayer("c")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, PhaseDealerPlay, g.Phase())

	_, err = g.RemovePlayer("zed")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestAddPlayer_LateJoinerWaitsForNextRound(t *testing.T) {
	g := newTestGame(t, 2, "a", "b")
	stackDeck(g, "Th", "9h", "Tc", "9d", "8d", "8c", "2s", "3s", "4s", "5s", "6s", "7s", "8s", "9s", "Ts")
	require.NoError(t, g.StartRound())

	require.NoError(t, g.AddPlayer("late"))
	assert.ErrorIs(t, g.AddPlayer("late"), ErrDuplicatePlayer)
	snap := g.Snapshot()
	assert.Equal(t, StatusWaiting, snap.Players[2].Status)
	assert.Empty(t, snap.Players[2].Cards)

	_, _ = g.Act(0, ActionStand)
	_, _ = g.Act(1, ActionStand)
	assert.Equal(t, PhaseDealerPlay, g.Phase(), "waiting seat must not receive a turn")
	_, err := g.PlayDealer()
	require.NoError(t, err)
	res, err := g.Settle()
	require.NoError(t, err)
	assert.Len(t, res.Seats, 2)

	require.NoError(t, g.StartRound())
	snap = g.Snapshot()
	assert.Equal(t, StatusPlaying, snap.Players[2].Status)
	assert.Len(t, snap.Players[2].Cards, 2)
}

func TestDraw_RefillsWithoutCardsInPlay(t *testing.T) {
	g := newTestGame(t, 1, "a", "b")
	// exactly the six cards for the deal
	stackDeck(g, "2h", "3h", "4h", "5h", "6h", "7h")
	require.NoError(t, g.StartRound())
	require.Equal(t, 0, g.DeckRemaining())

	res, err := g.Act(0, ActionHit)
	require.NoError(t, err)
	inPlay := card.MustParse("2h", "3h", "4h", "5h", "6h", "7h")
	assert.NotContains(t, inPlay, res.Drawn)
	assert.Equal(t, 52-6-1, g.DeckRemaining())
}
