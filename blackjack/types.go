package blackjack

// NoTurn marks that no seat is currently expected to act.
const NoTurn = -1

const BlackjackValue = 21

// Phase of the current round.
type Phase byte

const (
	PhaseWaiting      Phase = 0
	PhaseDealing      Phase = 1
	PhaseAwaitingTurn Phase = 2
	PhaseDealerPlay   Phase = 3
	PhaseSettling     Phase = 4
	PhaseFinished     Phase = 5
)

var PhaseDictionary = map[Phase]string{
	PhaseWaiting:      "waiting",
	PhaseDealing:      "dealing",
	PhaseAwaitingTurn: "awaiting_turn",
	PhaseDealerPlay:   "dealer_play",
	PhaseSettling:     "settling",
	PhaseFinished:     "finished",
}

func (p Phase) String() string { return PhaseDictionary[p] }

// PlayerStatus is a seat's per-round status.
type PlayerStatus byte

const (
	StatusWaiting PlayerStatus = 0
	StatusPlaying PlayerStatus = 1
	StatusStood   PlayerStatus = 2
	StatusBust    PlayerStatus = 3
	StatusSettled PlayerStatus = 4
)

var PlayerStatusDictionary = map[PlayerStatus]string{
	StatusWaiting: "waiting",
	StatusPlaying: "playing",
	StatusStood:   "stood",
	StatusBust:    "bust",
	StatusSettled: "settled",
}

func (s PlayerStatus) String() string { return PlayerStatusDictionary[s] }

// Terminal reports whether the seat is done acting this round.
func (s PlayerStatus) Terminal() bool {
	return s == StatusStood || s == StatusBust
}

// Action a seated player can take on their turn.
type Action string

const (
	ActionHit   Action = "hit"
	ActionStand Action = "stand"
)

// ParseAction validates a client-supplied action name.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionHit, ActionStand:
		return Action(raw), nil
	default:
		return "", ErrUnknownAction
	}
}

// Outcome of one seat against the dealer.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomePush Outcome = "push"
	OutcomeLoss Outcome = "loss"
	OutcomeBust Outcome = "bust"
)

// Points awarded per outcome.
const (
	WinPoints  = 1.0
	PushPoints = 0.5
)
