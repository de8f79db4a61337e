package lobby

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"blackjack-lite/blackjack"
)

var (
	ErrInvalidConfig = blackjack.NewError(blackjack.KindValidation, "invalid table config")
	ErrTableNotFound = blackjack.NewError(blackjack.KindNotFound, "table not found")
	ErrTableFull     = blackjack.NewError(blackjack.KindCapacity, "table is full")
	ErrWrongPassword = blackjack.NewError(blackjack.KindAuthorization, "wrong table password")
	ErrAlreadySeated = blackjack.NewError(blackjack.KindConflict, "already seated at a table")
	ErrNotSeated     = blackjack.NewError(blackjack.KindNotFound, "not seated at any table")
	ErrTableFinished = blackjack.NewError(blackjack.KindConflict, "table has finished its game")
)

const (
	maxNameLen     = 48
	maxPasswordLen = 72 // bcrypt input limit
)

// Limits bound what a host may configure.
type Limits struct {
	MinSeats int
	MaxSeats int
}

// Registry manages all tables and seat membership.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
	byUser map[string]string // user id -> table id
	limits Limits
	logger *zap.Logger
}

func New(limits Limits, logger *zap.Logger) *Registry {
	if limits.MinSeats < 2 {
		limits.MinSeats = 2
	}
	if limits.MaxSeats < limits.MinSeats {
		limits.MaxSeats = limits.MinSeats
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tables: make(map[string]*Table),
		byUser: make(map[string]string),
		limits: limits,
		logger: logger.Named("lobby"),
	}
}

func (r *Registry) validate(cfg *TableConfig) error {
	cfg.Name = strings.TrimSpace(cfg.Name)
	switch {
	case cfg.Name == "" || len(cfg.Name) > maxNameLen:
		return fmt.Errorf("%w: name must be 1..%d characters", ErrInvalidConfig, maxNameLen)
	case cfg.MaxSeats < r.limits.MinSeats || cfg.MaxSeats > r.limits.MaxSeats:
		return fmt.Errorf("%w: max players must be in [%d,%d]", ErrInvalidConfig, r.limits.MinSeats, r.limits.MaxSeats)
	case cfg.TotalRounds < 1:
		return fmt.Errorf("%w: rounds must be >= 1", ErrInvalidConfig)
	case cfg.TurnTimeout <= 0:
		return fmt.Errorf("%w: turn timeout must be > 0", ErrInvalidConfig)
	}
	return nil
}

// Create opens a table with host seated at position 0.
func (r *Registry) Create(host Member, cfg TableConfig, now time.Time) (*Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seated := r.byUser[host.UserID]; seated {
		return nil, ErrAlreadySeated
	}
	if err := r.validate(&cfg); err != nil {
		return nil, err
	}

	t := &Table{
		ID:           uuid.NewString(),
		Name:         cfg.Name,
		HostUserID:   host.UserID,
		MaxSeats:     cfg.MaxSeats,
		TotalRounds:  cfg.TotalRounds,
		TurnTimeout:  cfg.TurnTimeout,
		SkillLevel:   strings.TrimSpace(cfg.SkillLevel),
		Status:       StatusWaiting,
		CreatedAt:    now,
		passwordHash: cfg.PasswordHash,
	}
	t.Seats = []*Seat{newSeat(host, 0)}
	mustBeDense(t)

	r.tables[t.ID] = t
	r.byUser[host.UserID] = t.ID
	r.logger.Info("table created",
		zap.String("table_id", t.ID),
		zap.String("host", host.UserID),
		zap.Int("max_seats", t.MaxSeats),
		zap.Bool("password", t.HasPassword()))
	return t, nil
}

func newSeat(m Member, position int) *Seat {
	return &Seat{
		UserID:       m.UserID,
		DisplayName:  m.DisplayName,
		Position:     position,
		ConnectionID: m.ConnectionID,
		RoundStatus:  blackjack.StatusWaiting,
	}
}

// VerifyPassword reports whether password opens tableID. The bcrypt compare
// runs outside the registry lock; a table's hash never changes once created.
// Unknown or open tables report true and let Join decide.
func (r *Registry) VerifyPassword(tableID, password string) bool {
	r.mu.RLock()
	t, ok := r.tables[tableID]
	var hash []byte
	if ok {
		hash = t.passwordHash
	}
	r.mu.RUnlock()
	if len(hash) == 0 {
		return true
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Join appends a seat for m at the end of the table. passwordOK is the
// VerifyPassword verdict and only matters for protected tables.
func (r *Registry) Join(m Member, tableID string, passwordOK bool) (*Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[tableID]
	if !ok {
		return nil, ErrTableNotFound
	}
	if _, seated := r.byUser[m.UserID]; seated {
		return nil, ErrAlreadySeated
	}
	if t.Status == StatusFinished {
		return nil, ErrTableFinished
	}
	if len(t.Seats) >= t.MaxSeats {
		return nil, ErrTableFull
	}
	if t.HasPassword() && !passwordOK {
		return nil, ErrWrongPassword
	}
	mustBeDense(t)

	t.Seats = append(t.Seats, newSeat(m, len(t.Seats)))
	r.byUser[m.UserID] = t.ID
	r.logger.Debug("seat taken",
		zap.String("table_id", t.ID),
		zap.String("user_id", m.UserID),
		zap.Int("position", len(t.Seats)-1))
	return t, nil
}

// LeaveResult describes a completed leave.
type LeaveResult struct {
	Table *Table
	Seat  Seat
	// Destroyed is set when the last seat emptied and the table was removed.
	Destroyed bool
	// NewHost is the promoted user id when the host left, else "".
	NewHost string
}

// Leave removes userID's seat, renumbers the rest densely and hands the
// host role to position 0 if needed. Not being seated yields ErrNotSeated
// without any mutation, so repeated leaves are harmless.
func (r *Registry) Leave(userID string) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tableID, ok := r.byUser[userID]
	if !ok {
		return LeaveResult{}, ErrNotSeated
	}
	t := r.tables[tableID]
	mustBeDense(t)

	seat, idx := t.seatOf(userID)
	res := LeaveResult{Table: t, Seat: *seat}

	t.Seats = append(t.Seats[:idx], t.Seats[idx+1:]...)
	for i, s := range t.Seats {
		s.Position = i
	}
	delete(r.byUser, userID)

	if len(t.Seats) == 0 {
		delete(r.tables, t.ID)
		res.Destroyed = true
		r.logger.Info("table destroyed", zap.String("table_id", t.ID))
		return res, nil
	}
	if t.HostUserID == userID {
		t.HostUserID = t.Seats[0].UserID
		res.NewHost = t.HostUserID
		r.logger.Info("host handed off",
			zap.String("table_id", t.ID),
			zap.String("from", userID),
			zap.String("to", res.NewHost))
	}
	mustBeDense(t)
	return res, nil
}

func (r *Registry) Get(tableID string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[tableID]
	return t, ok
}

// TableOf returns the table userID is seated at.
func (r *Registry) TableOf(userID string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	return r.tables[id], true
}

// RebindConnection patches the connection id on userID's seat. connID may be
// "" while the identity is disconnected.
func (r *Registry) RebindConnection(userID, connID string) (*Table, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	t := r.tables[id]
	if s, _ := t.seatOf(userID); s != nil {
		s.ConnectionID = connID
	}
	return t, true
}

// SetStatus records the table lifecycle status.
func (r *Registry) SetStatus(t *Table, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.Status = status
}

// SyncRoundStatus copies per-seat round status out of the running game.
func (r *Registry) SyncRoundStatus(t *Table, snap blackjack.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[string]blackjack.PlayerStatus, len(snap.Players))
	for _, p := range snap.Players {
		byID[p.ID] = p.Status
	}
	for _, s := range t.Seats {
		if st, ok := byID[s.UserID]; ok {
			s.RoundStatus = st
		} else {
			s.RoundStatus = blackjack.StatusWaiting
		}
	}
}

// List returns detached copies of every table, oldest first.
func (r *Registry) List() []TableInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TableInfo, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}
