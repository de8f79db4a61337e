package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRecentLimit = 200
	defaultListLimit   = 20
	maxListLimit       = 100
)

type Mode string

const (
	ModeMemory   Mode = "memory"
	ModeSQLite   Mode = "sqlite"
	ModePostgres Mode = "postgres"
)

var ErrNotFound = errors.New("not found")

// Service archives settled rounds and finished games.
type Service interface {
	Close() error
	RecordRound(ctx context.Context, rec RoundRecord) error
	RecordGame(ctx context.Context, rec GameRecord) error
	ListTableRounds(ctx context.Context, tableID string, limit int) ([]RoundRecord, error)
	ListRecentGames(ctx context.Context, limit int) ([]GameRecord, error)
	GetRoundEvents(ctx context.Context, gameID string, roundNumber int) ([]EventItem, error)
}

type RoundRecord struct {
	GameID      string         `json:"game_id"`
	TableID     string         `json:"table_id"`
	RoundNumber int            `json:"round_number"`
	PlayedAt    time.Time      `json:"played_at"`
	Summary     map[string]any `json:"summary"`
	Events      []EventItem    `json:"events,omitempty"`
}

type Standing struct {
	PlayerID string  `json:"player_id"`
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}

type GameRecord struct {
	GameID     string     `json:"game_id"`
	TableID    string     `json:"table_id"`
	TableName  string     `json:"table_name"`
	Rounds     int        `json:"rounds"`
	FinishedAt time.Time  `json:"finished_at"`
	Standings  []Standing `json:"standings"`
	Winners    []string   `json:"winners"`
}

type Options struct {
	Mode        Mode
	SQLitePath  string
	PostgresDSN string
	// RecentLimit caps rounds kept per table; 0 uses the default.
	RecentLimit int
}

// NewService opens the archive selected by opts.Mode.
func NewService(ctx context.Context, opts Options, logger *zap.Logger) (Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("ledger")
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = defaultRecentLimit
	}

	switch Mode(strings.ToLower(strings.TrimSpace(string(opts.Mode)))) {
	case ModeMemory, "":
		return NewMemoryService(opts.RecentLimit), nil
	case ModeSQLite, "local":
		return NewSQLiteService(ctx, opts.SQLitePath, opts.RecentLimit, logger)
	case ModePostgres:
		return NewPostgresService(ctx, opts.PostgresDSN, opts.RecentLimit, logger)
	default:
		return nil, fmt.Errorf("unknown ledger mode %q", opts.Mode)
	}
}

func validateRound(rec RoundRecord) error {
	if strings.TrimSpace(rec.GameID) == "" || strings.TrimSpace(rec.TableID) == "" || rec.RoundNumber <= 0 {
		return fmt.Errorf("round record requires game id, table id and round number")
	}
	return nil
}

func validateGame(rec GameRecord) error {
	if strings.TrimSpace(rec.GameID) == "" || strings.TrimSpace(rec.TableID) == "" {
		return fmt.Errorf("game record requires game id and table id")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// MemoryService keeps the archive in process memory.
type MemoryService struct {
	mu          sync.RWMutex
	recentLimit int
	rounds      map[string][]RoundRecord // table id -> rounds, oldest first
	games       []GameRecord
}

func NewMemoryService(recentLimit int) *MemoryService {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &MemoryService{
		recentLimit: recentLimit,
		rounds:      make(map[string][]RoundRecord),
	}
}

func (m *MemoryService) Close() error { return nil }

func (m *MemoryService) RecordRound(_ context.Context, rec RoundRecord) error {
	if err := validateRound(rec); err != nil {
		return err
	}
	if rec.Summary == nil {
		rec.Summary = map[string]any{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.rounds[rec.TableID]
	for i, r := range list {
		if r.GameID == rec.GameID && r.RoundNumber == rec.RoundNumber {
			list[i] = rec
			return nil
		}
	}
	list = append(list, rec)
	if len(list) > m.recentLimit {
		list = list[len(list)-m.recentLimit:]
	}
	m.rounds[rec.TableID] = list
	return nil
}

func (m *MemoryService) RecordGame(_ context.Context, rec GameRecord) error {
	if err := validateGame(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.games = append(m.games, rec)
	if len(m.games) > m.recentLimit {
		m.games = m.games[len(m.games)-m.recentLimit:]
	}
	return nil
}

func (m *MemoryService) ListTableRounds(_ context.Context, tableID string, limit int) ([]RoundRecord, error) {
	limit = clampLimit(limit)
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.rounds[tableID]
	out := make([]RoundRecord, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		r := list[i]
		r.Events = nil
		out = append(out, r)
	}
	return out, nil
}

func (m *MemoryService) ListRecentGames(_ context.Context, limit int) ([]GameRecord, error) {
	limit = clampLimit(limit)
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]GameRecord(nil), m.games...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryService) GetRoundEvents(_ context.Context, gameID string, roundNumber int) ([]EventItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, list := range m.rounds {
		for _, r := range list {
			if r.GameID == gameID && r.RoundNumber == roundNumber {
				return append([]EventItem(nil), r.Events...), nil
			}
		}
	}
	return nil, ErrNotFound
}

// Helpers shared by the SQL services.

func marshalSummary(summary map[string]any) (string, error) {
	if summary == nil {
		summary = map[string]any{}
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func marshalTape(events []EventItem) ([]byte, error) {
	if len(events) == 0 {
		return nil, nil
	}
	return json.Marshal(events)
}

func unmarshalTape(raw []byte) ([]EventItem, error) {
	if len(raw) == 0 {
		return []EventItem{}, nil
	}
	var events []EventItem
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func nullableBytes(v []byte) any {
	if len(v) == 0 {
		return nil
	}
	return v
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(row rowScanner) (RoundRecord, error) {
	var rec RoundRecord
	var playedAtMs int64
	var summaryRaw string
	if err := row.Scan(&rec.GameID, &rec.TableID, &rec.RoundNumber, &playedAtMs, &summaryRaw); err != nil {
		return RoundRecord{}, err
	}
	rec.PlayedAt = time.UnixMilli(playedAtMs).UTC()
	_ = json.Unmarshal([]byte(summaryRaw), &rec.Summary)
	if rec.Summary == nil {
		rec.Summary = map[string]any{}
	}
	return rec, nil
}

func scanGame(row rowScanner) (GameRecord, error) {
	var rec GameRecord
	var finishedAtMs int64
	var standingsRaw, winnersRaw string
	if err := row.Scan(&rec.GameID, &rec.TableID, &rec.TableName, &rec.Rounds, &finishedAtMs, &standingsRaw, &winnersRaw); err != nil {
		return GameRecord{}, err
	}
	rec.FinishedAt = time.UnixMilli(finishedAtMs).UTC()
	_ = json.Unmarshal([]byte(standingsRaw), &rec.Standings)
	_ = json.Unmarshal([]byte(winnersRaw), &rec.Winners)
	if rec.Standings == nil {
		rec.Standings = []Standing{}
	}
	if rec.Winners == nil {
		rec.Winners = []string{}
	}
	return rec, nil
}

func collectRounds(rows *sql.Rows, capacity int) ([]RoundRecord, error) {
	defer rows.Close()
	out := make([]RoundRecord, 0, capacity)
	for rows.Next() {
		rec, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func collectGames(rows *sql.Rows, capacity int) ([]GameRecord, error) {
	defer rows.Close()
	out := make([]GameRecord, 0, capacity)
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
