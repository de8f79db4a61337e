package blackjack

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"blackjack-lite/card"
)

// Game is the per-table round state machine:
//
//	WAITING -> DEALING -> AWAITING_TURN -> DEALER_PLAY -> SETTLING -> (DEALING | FINISHED)
//
// Players are kept in seat order; Player.Position always equals the slice index.
type Game struct {
	cfg Config
	rng *rand.Rand

	mu sync.Mutex

	players []*Player

	deck   card.CardList
	dealer card.CardList

	round    int
	phase    Phase
	turn     int
	finished bool
}

// ActionResult describes one applied hit/stand.
type ActionResult struct {
	Position int
	PlayerID string
	Action   Action
	// Drawn is set for hits.
	Drawn card.Card
	Value int
	Bust  bool
	// NextTurn is the position now expected to act, or NoTurn.
	NextTurn int
	// DealerTurn is true once every dealt seat is done and the dealer must play.
	DealerTurn bool
}

func NewGame(cfg Config, playerIDs []string) (*Game, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(playerIDs) < cfg.MinPlayers {
		return nil, fmt.Errorf("%w: %d < %d", ErrInsufficientPlayers, len(playerIDs), cfg.MinPlayers)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Game{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		phase: PhaseWaiting,
		turn:  NoTurn,
	}
	for _, id := range playerIDs {
		if err := g.addPlayerLocked(id, StatusWaiting); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Game) addPlayerLocked(id string, status PlayerStatus) error {
	for _, p := range g.players {
		if p.ID == id {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, id)
		}
	}
	g.players = append(g.players, &Player{
		ID:       id,
		Position: len(g.players),
		status:   status,
	})
	return nil
}

// AddPlayer seats a late joiner at the end. They sit out the current round
// (status WAITING) and are dealt in from the next one.
func (g *Game) AddPlayer(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finished {
		return ErrGameOver
	}
	return g.addPlayerLocked(id, StatusWaiting)
}

// RemovePlayer drops a player's seat and hand, renumbers positions and
// keeps the turn pointing at the same logical seat. turnMoved is true when
// the removed player was the one expected to act.
func (g *Game) RemovePlayer(id string) (turnMoved bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := g.indexOfLocked(id)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	g.players = append(g.players[:idx], g.players[idx+1:]...)
	for i, p := range g.players {
		p.Position = i
	}

	if g.phase != PhaseAwaitingTurn {
		return false, nil
	}
	switch {
	case idx < g.turn:
		g.turn--
	case idx == g.turn:
		g.turn--
		g.advanceTurnLocked()
		turnMoved = true
	}
	return turnMoved, nil
}

func (g *Game) indexOfLocked(id string) int {
	for i, p := range g.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// PositionOf returns the seat index of id, or -1.
func (g *Game) PositionOf(id string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.indexOfLocked(id)
}

// StartRound deals a new round. Allowed from WAITING (first round) or
// SETTLING (next round).
func (g *Game) StartRound() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finished {
		return ErrGameOver
	}
	if g.phase != PhaseWaiting && g.phase != PhaseSettling {
		return ErrGameInProgress
	}
	if g.round == 0 && len(g.players) < g.cfg.MinPlayers {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientPlayers, len(g.players), g.cfg.MinPlayers)
	}
	if len(g.players) == 0 {
		return ErrInsufficientPlayers
	}

	g.phase = PhaseDealing
	g.round++
	if g.deck.Count() < g.cfg.ReshuffleThreshold {
		g.deck = NewShuffledDeck(g.rng)
	}
	g.dealer = make(card.CardList, 0, 4)
	for _, p := range g.players {
		p.resetForNewRound()
	}

	// One to each seat, one to dealer, second to each seat, second to dealer.
	for pass := 0; pass < 2; pass++ {
		for _, p := range g.players {
			p.addCard(g.drawLocked())
		}
		g.dealer = append(g.dealer, g.drawLocked())
	}

	g.phase = PhaseAwaitingTurn
	g.turn = 0
	return nil
}

// drawLocked pops a card. If the shoe runs dry mid-round it is rebuilt from
// the cards not currently on the table, so ErrEmptyDeck never escapes.
func (g *Game) drawLocked() card.Card {
	c, err := Draw(&g.deck)
	if err == nil {
		return c
	}
	g.deck = g.freshDeckExcludingTableLocked()
	c, _ = Draw(&g.deck)
	return c
}

func (g *Game) freshDeckExcludingTableLocked() card.CardList {
	inPlay := make(map[card.Card]bool)
	for _, c := range g.dealer {
		inPlay[c] = true
	}
	for _, p := range g.players {
		for _, c := range p.hand {
			inPlay[c] = true
		}
	}
	deck := make(card.CardList, 0, 52)
	for _, c := range card.StandardDeck() {
		if !inPlay[c] {
			deck = append(deck, c)
		}
	}
	deck.Shuffle(g.rng)
	return deck
}

// Act applies hit or stand for the seat at position. Only the seat at the
// current turn may act; any other call fails without mutating state.
func (g *Game) Act(position int, action Action) (*ActionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseAwaitingTurn {
		return nil, ErrRoundNotActive
	}
	if position != g.turn || position < 0 || position >= len(g.players) {
		return nil, ErrNotYourTurn
	}
	p := g.players[position]
	if p.status != StatusPlaying {
		return nil, ErrInvalidState(fmt.Sprintf("seat %d has status %s", position, p.status))
	}

	res := &ActionResult{Position: position, PlayerID: p.ID, Action: action}
	switch action {
	case ActionHit:
		c := g.drawLocked()
		p.addCard(c)
		res.Drawn = c
		if IsBust(p.hand) {
			p.status = StatusBust
			res.Bust = true
			g.advanceTurnLocked()
		}
	case ActionStand:
		p.status = StatusStood
		g.advanceTurnLocked()
	default:
		return nil, ErrUnknownAction
	}

	res.Value = HandValue(p.hand)
	res.NextTurn = g.turn
	res.DealerTurn = g.phase == PhaseDealerPlay
	return res, nil
}

// advanceTurnLocked moves the turn forward to the next seat still playing,
// or hands over to the dealer. It never moves backwards.
func (g *Game) advanceTurnLocked() {
	for i := g.turn + 1; i < len(g.players); i++ {
		if g.players[i].status == StatusPlaying {
			g.turn = i
			return
		}
	}
	g.turn = NoTurn
	g.phase = PhaseDealerPlay
}

// DealerStep performs one dealer draw. drew is false once the dealer stands;
// at that point the phase moves to SETTLING.
func (g *Game) DealerStep() (c card.Card, drew bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseDealerPlay {
		return card.CardInvalid, false, ErrInvalidState("dealer cannot play in phase " + g.phase.String())
	}
	if HandValue(g.dealer) >= g.cfg.DealerStandOn {
		g.phase = PhaseSettling
		return card.CardInvalid, false, nil
	}
	c = g.drawLocked()
	g.dealer = append(g.dealer, c)
	return c, true, nil
}

// PlayDealer runs DealerStep to completion and returns the drawn cards in order.
func (g *Game) PlayDealer() ([]card.Card, error) {
	var drawn []card.Card
	for {
		c, drew, err := g.DealerStep()
		if err != nil {
			return drawn, err
		}
		if !drew {
			return drawn, nil
		}
		drawn = append(drawn, c)
	}
}

func (g *Game) Round() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round
}

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Turn returns the position expected to act, or NoTurn.
func (g *Game) Turn() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn
}

func (g *Game) Finished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finished
}

func (g *Game) TotalRounds() int { return g.cfg.TotalRounds }

func (g *Game) DeckRemaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deck.Count()
}
