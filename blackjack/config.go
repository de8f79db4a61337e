package blackjack

import "fmt"

const (
	DefaultReshuffleThreshold = 20
	DefaultDealerStandOn      = 17
	DefaultMinPlayers         = 2
)

type Config struct {
	// Players required for StartRound on a fresh game.
	MinPlayers int
	// Rounds played before the game finishes.
	TotalRounds int
	// A fresh deck is shuffled when fewer cards remain at round start.
	ReshuffleThreshold int
	// Dealer draws while the hand value is below this number.
	DealerStandOn int

	// RNG seed (0 => time-based)
	Seed int64
}

func (c Config) withDefaults() Config {
	if c.MinPlayers == 0 {
		c.MinPlayers = DefaultMinPlayers
	}
	if c.ReshuffleThreshold == 0 {
		c.ReshuffleThreshold = DefaultReshuffleThreshold
	}
	if c.DealerStandOn == 0 {
		c.DealerStandOn = DefaultDealerStandOn
	}
	return c
}

func (c Config) validate() error {
	if c.MinPlayers < 1 {
		return fmt.Errorf("MinPlayers must be > 0")
	}
	if c.TotalRounds < 1 {
		return fmt.Errorf("TotalRounds must be >= 1")
	}
	if c.ReshuffleThreshold < 0 || c.ReshuffleThreshold > 52 {
		return fmt.Errorf("ReshuffleThreshold must be in [0,52], got %d", c.ReshuffleThreshold)
	}
	if c.DealerStandOn < 2 || c.DealerStandOn > BlackjackValue {
		return fmt.Errorf("DealerStandOn must be in [2,%d], got %d", BlackjackValue, c.DealerStandOn)
	}
	return nil
}
