package chat

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"blackjack-lite/blackjack"
)

const (
	DefaultHistoryCap = 100
	maxBodyRunes      = 500
)

var ErrEmptyMessage = blackjack.NewError(blackjack.KindValidation, "message is empty")

type Message struct {
	ID         string
	SenderID   string
	SenderName string
	Body       string
	Timestamp  time.Time
}

// History is a FIFO of chat messages; the oldest entry is evicted once the
// cap is reached.
type History struct {
	cap  int
	msgs []Message
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{cap: capacity}
}

func (h *History) Append(m Message) {
	if len(h.msgs) >= h.cap {
		copy(h.msgs, h.msgs[1:])
		h.msgs = h.msgs[:len(h.msgs)-1]
	}
	h.msgs = append(h.msgs, m)
}

// Messages returns a copy, oldest first.
func (h *History) Messages() []Message {
	return append([]Message(nil), h.msgs...)
}

func (h *History) Len() int { return len(h.msgs) }

// Relay keeps the global history and one history per table.
type Relay struct {
	mu       sync.Mutex
	capacity int
	global   *History
	tables   map[string]*History
}

func NewRelay(capacity int) *Relay {
	return &Relay{
		capacity: capacity,
		global:   NewHistory(capacity),
		tables:   make(map[string]*History),
	}
}

func newMessage(senderID, senderName, body string, now time.Time) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > maxBodyRunes {
		body = string([]rune(body)[:maxBodyRunes])
	}
	return Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		SenderName: senderName,
		Body:       body,
		Timestamp:  now,
	}, nil
}

func (r *Relay) PostGlobal(senderID, senderName, body string, now time.Time) (Message, error) {
	m, err := newMessage(senderID, senderName, body, now)
	if err != nil {
		return Message{}, err
	}
	r.mu.Lock()
	r.global.Append(m)
	r.mu.Unlock()
	return m, nil
}

func (r *Relay) PostTable(tableID, senderID, senderName, body string, now time.Time) (Message, error) {
	m, err := newMessage(senderID, senderName, body, now)
	if err != nil {
		return Message{}, err
	}
	r.mu.Lock()
	h, ok := r.tables[tableID]
	if !ok {
		h = NewHistory(r.capacity)
		r.tables[tableID] = h
	}
	h.Append(m)
	r.mu.Unlock()
	return m, nil
}

func (r *Relay) Global() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.global.Messages()
}

func (r *Relay) Table(tableID string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.tables[tableID]; ok {
		return h.Messages()
	}
	return nil
}

// DropTable forgets a destroyed table's history.
func (r *Relay) DropTable(tableID string) {
	r.mu.Lock()
	delete(r.tables, tableID)
	r.mu.Unlock()
}
