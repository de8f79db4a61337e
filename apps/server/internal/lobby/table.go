package lobby

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"blackjack-lite/blackjack"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Member is the identity data a seat needs.
type Member struct {
	UserID       string
	DisplayName  string
	ConnectionID string
}

// Seat is a table-scoped slot bound to one identity.
type Seat struct {
	UserID       string
	DisplayName  string
	Position     int
	ConnectionID string
	RoundStatus  blackjack.PlayerStatus
}

// TableConfig is what a host supplies on create.
type TableConfig struct {
	Name        string
	MaxSeats    int
	TotalRounds int
	TurnTimeout time.Duration
	SkillLevel  string
	// PasswordHash comes from HashPassword; nil means an open table.
	PasswordHash []byte
}

// Table is owned by the registry for membership and by the engine for Game.
type Table struct {
	ID          string
	Name        string
	HostUserID  string
	MaxSeats    int
	TotalRounds int
	TurnTimeout time.Duration
	SkillLevel  string
	Seats       []*Seat
	Status      Status
	CreatedAt   time.Time

	// Game is the running match while Status is playing or finished.
	Game *blackjack.Game
	// GameID identifies the current match in the ledger.
	GameID string

	passwordHash []byte
}

func (t *Table) HasPassword() bool { return len(t.passwordHash) > 0 }

// HashPassword bcrypt-hashes a table password for TableConfig.PasswordHash.
// Call it outside the registry lock and off the engine goroutine.
func HashPassword(password string) ([]byte, error) {
	if len(password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password longer than %d bytes", ErrInvalidConfig, maxPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return hash, nil
}

func (t *Table) seatOf(userID string) (*Seat, int) {
	for i, s := range t.Seats {
		if s.UserID == userID {
			return s, i
		}
	}
	return nil, -1
}

// SeatOf returns a copy of userID's seat.
func (t *Table) SeatOf(userID string) (Seat, bool) {
	s, _ := t.seatOf(userID)
	if s == nil {
		return Seat{}, false
	}
	return *s, true
}

func (t *Table) Host() (Seat, bool) { return t.SeatOf(t.HostUserID) }

// ConnectionIDs lists the connections of every seat holder, skipping
// disconnected ones.
func (t *Table) ConnectionIDs() []string {
	out := make([]string, 0, len(t.Seats))
	for _, s := range t.Seats {
		if s.ConnectionID != "" {
			out = append(out, s.ConnectionID)
		}
	}
	return out
}

func (t *Table) UserIDs() []string {
	out := make([]string, 0, len(t.Seats))
	for _, s := range t.Seats {
		out = append(out, s.UserID)
	}
	return out
}

// TableInfo is a detached copy of a table for list views.
type TableInfo struct {
	ID          string
	Name        string
	HostUserID  string
	MaxSeats    int
	TotalRounds int
	TurnTimeout time.Duration
	SkillLevel  string
	HasPassword bool
	Seats       []Seat
	Status      Status
	CreatedAt   time.Time
}

func (t *Table) Info() TableInfo {
	info := TableInfo{
		ID:          t.ID,
		Name:        t.Name,
		HostUserID:  t.HostUserID,
		MaxSeats:    t.MaxSeats,
		TotalRounds: t.TotalRounds,
		TurnTimeout: t.TurnTimeout,
		SkillLevel:  t.SkillLevel,
		HasPassword: t.HasPassword(),
		Seats:       make([]Seat, 0, len(t.Seats)),
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
	}
	for _, s := range t.Seats {
		info.Seats = append(info.Seats, *s)
	}
	return info
}

// mustBeDense panics if seat positions are not exactly 0..n-1 or the host
// does not hold a seat.
func mustBeDense(t *Table) {
	for i, s := range t.Seats {
		if s.Position != i {
			panic("lobby: table " + t.ID + " has non-dense seat positions")
		}
	}
	if len(t.Seats) > 0 {
		if s, _ := t.seatOf(t.HostUserID); s == nil {
			panic("lobby: table " + t.ID + " host holds no seat")
		}
	}
	if len(t.Seats) > t.MaxSeats {
		panic("lobby: table " + t.ID + " exceeds max seats")
	}
}
