package presence

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"blackjack-lite/blackjack"
)

var (
	ErrIdentityNotFound = blackjack.NewError(blackjack.KindNotFound, "identity not found")
	ErrNotAuthenticated = blackjack.NewError(blackjack.KindAuthorization, "not authenticated")
	ErrInvalidIdentity  = blackjack.NewError(blackjack.KindValidation, "invalid identity")
)

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.:-]{0,63}$`)

const maxDisplayNameRunes = 64

type Status string

const (
	StatusOnline       Status = "online"
	StatusInTable      Status = "in_table"
	StatusDisconnected Status = "disconnected"
)

// Identity is a player record that survives reconnects.
type Identity struct {
	UserID       string
	ConnectionID string
	DisplayName  string
	Status       Status
	LastActiveAt time.Time
}

// AuthResult describes what Authenticate did.
type AuthResult struct {
	Identity Identity
	// Resumed is true when a disconnected identity came back inside its grace window.
	Resumed bool
	// ReplacedConn is the previous live connection taken over by this one, if any.
	ReplacedConn string
}

// Registry maps stable user ids to their current connection.
// At most one live connection is bound per user id.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Identity
	byConn map[string]string // connection id -> user id
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]*Identity),
		byConn: make(map[string]string),
	}
}

func normalizeDisplayName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func validate(userID, displayName, connID string) error {
	if connID == "" {
		return ErrInvalidIdentity
	}
	if !userIDPattern.MatchString(userID) {
		return ErrInvalidIdentity
	}
	return validateDisplayName(displayName)
}

// validateDisplayName accepts any printable text up to maxDisplayNameRunes.
func validateDisplayName(name string) error {
	if name == "" || !utf8.ValidString(name) || utf8.RuneCountInString(name) > maxDisplayNameRunes {
		return ErrInvalidIdentity
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrInvalidIdentity
		}
	}
	return nil
}

// Authenticate binds connID to userID. A known identity (disconnected or
// still live elsewhere) is rebound in place; status is left to the caller
// via SetStatus since only the table registry knows about seats.
func (r *Registry) Authenticate(userID, displayName, connID string, now time.Time) (AuthResult, error) {
	userID = strings.TrimSpace(userID)
	displayName = normalizeDisplayName(displayName)
	if err := validate(userID, displayName, connID); err != nil {
		return AuthResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A connection authenticating as someone else first drops its old binding.
	if prev, ok := r.byConn[connID]; ok && prev != userID {
		if old := r.byUser[prev]; old != nil && old.ConnectionID == connID {
			old.ConnectionID = ""
			old.Status = StatusDisconnected
			old.LastActiveAt = now
		}
		delete(r.byConn, connID)
	}

	var res AuthResult
	id, ok := r.byUser[userID]
	if !ok {
		id = &Identity{UserID: userID}
		r.byUser[userID] = id
	} else {
		res.Resumed = id.Status == StatusDisconnected
		if id.ConnectionID != "" && id.ConnectionID != connID {
			res.ReplacedConn = id.ConnectionID
			delete(r.byConn, id.ConnectionID)
		}
	}
	id.ConnectionID = connID
	id.DisplayName = displayName
	id.Status = StatusOnline
	id.LastActiveAt = now
	r.byConn[connID] = userID

	res.Identity = *id
	return res, nil
}

// MarkDisconnected flags the identity bound to connID. Connections that were
// already taken over are unknown here and yield ErrIdentityNotFound.
func (r *Registry) MarkDisconnected(connID string, now time.Time) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	delete(r.byConn, connID)
	id := r.byUser[userID]
	id.ConnectionID = ""
	id.Status = StatusDisconnected
	id.LastActiveAt = now
	return *id, nil
}

// Expire removes userID if it is still disconnected. ok is false when the
// identity reconnected or was already removed.
func (r *Registry) Expire(userID string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, found := r.byUser[userID]
	if !found || id.Status != StatusDisconnected {
		return Identity{}, false
	}
	delete(r.byUser, userID)
	return *id, true
}

// Resolve returns the identity bound to a live connection.
func (r *Registry) Resolve(connID string) (Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return Identity{}, ErrNotAuthenticated
	}
	return *r.byUser[userID], nil
}

func (r *Registry) Lookup(userID string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUser[userID]
	if !ok {
		return Identity{}, false
	}
	return *id, true
}


// SetStatus switches a connected identity between online and in_table.
// Disconnected identities keep their status until they come back.
func (r *Registry) SetStatus(userID string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUser[userID]
	if !ok {
		return ErrIdentityNotFound
	}
	if id.Status == StatusDisconnected {
		return nil
	}
	id.Status = status
	return nil
}

func (r *Registry) Touch(connID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID, ok := r.byConn[connID]; ok {
		r.byUser[userID].LastActiveAt = now
	}
}

// Connections returns every live connection id.
func (r *Registry) Connections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byConn))
	for connID := range r.byConn {
		out = append(out, connID)
	}
	sort.Strings(out)
	return out
}

// ListOnline returns every registered identity, including those inside
// their grace window, as one consistent snapshot ordered by user id.
func (r *Registry) ListOnline() []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Identity, 0, len(r.byUser))
	for _, id := range r.byUser {
		out = append(out, *id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
