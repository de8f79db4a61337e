package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const DefaultSQLitePath = "blackjack_local.db"

type SQLiteService struct {
	db          *sql.DB
	recentLimit int
	logger      *zap.Logger
}

func NewSQLiteService(ctx context.Context, dbPath string, recentLimit int, logger *zap.Logger) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		dbPath = DefaultSQLitePath
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	logger.Info("sqlite ledger ready", zap.String("path", dbPath))
	return &SQLiteService{db: db, recentLimit: recentLimit, logger: logger}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) RecordRound(ctx context.Context, rec RoundRecord) error {
	if err := validateRound(rec); err != nil {
		return err
	}
	summaryRaw, err := marshalSummary(rec.Summary)
	if err != nil {
		return fmt.Errorf("marshal round summary: %w", err)
	}
	tape, err := marshalTape(rec.Events)
	if err != nil {
		return fmt.Errorf("marshal round tape: %w", err)
	}
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now().UTC()
	}
	nowMs := time.Now().UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO ledger_rounds (
    game_id, table_id, round_number, played_at_ms, summary_json, tape_blob, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id, round_number) DO UPDATE
SET
    played_at_ms = excluded.played_at_ms,
    summary_json = excluded.summary_json,
    tape_blob = COALESCE(excluded.tape_blob, ledger_rounds.tape_blob)
`, rec.GameID, rec.TableID, rec.RoundNumber, rec.PlayedAt.UTC().UnixMilli(), summaryRaw, nullableBytes(tape), nowMs); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
DELETE FROM ledger_rounds
WHERE table_id = ?
  AND id IN (
      SELECT id
      FROM ledger_rounds
      WHERE table_id = ?
      ORDER BY played_at_ms DESC, id DESC
      LIMIT -1 OFFSET ?
  )
`, rec.TableID, rec.TableID, s.recentLimit); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteService) RecordGame(ctx context.Context, rec GameRecord) error {
	if err := validateGame(rec); err != nil {
		return err
	}
	standingsRaw, err := json.Marshal(rec.Standings)
	if err != nil {
		return err
	}
	winnersRaw, err := json.Marshal(rec.Winners)
	if err != nil {
		return err
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO ledger_games (
    game_id, table_id, table_name, rounds, finished_at_ms, standings_json, winners_json, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id) DO UPDATE
SET
    finished_at_ms = excluded.finished_at_ms,
    standings_json = excluded.standings_json,
    winners_json = excluded.winners_json
`, rec.GameID, rec.TableID, rec.TableName, rec.Rounds, rec.FinishedAt.UTC().UnixMilli(),
		string(standingsRaw), string(winnersRaw), time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLiteService) ListTableRounds(ctx context.Context, tableID string, limit int) ([]RoundRecord, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
SELECT game_id, table_id, round_number, played_at_ms, summary_json
FROM ledger_rounds
WHERE table_id = ?
ORDER BY played_at_ms DESC, id DESC
LIMIT ?
`, tableID, limit)
	if err != nil {
		return nil, err
	}
	return collectRounds(rows, limit)
}

func (s *SQLiteService) ListRecentGames(ctx context.Context, limit int) ([]GameRecord, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
SELECT game_id, table_id, table_name, rounds, finished_at_ms, standings_json, winners_json
FROM ledger_games
ORDER BY finished_at_ms DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	return collectGames(rows, limit)
}

func (s *SQLiteService) GetRoundEvents(ctx context.Context, gameID string, roundNumber int) ([]EventItem, error) {
	var tape []byte
	err := s.db.QueryRowContext(ctx, `
SELECT tape_blob
FROM ledger_rounds
WHERE game_id = ?
  AND round_number = ?
`, gameID, roundNumber).Scan(&tape)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return unmarshalTape(tape)
}

func ensureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS ledger_rounds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    game_id TEXT NOT NULL,
    table_id TEXT NOT NULL,
    round_number INTEGER NOT NULL,
    played_at_ms INTEGER NOT NULL,
    summary_json TEXT NOT NULL DEFAULT '{}',
    tape_blob BLOB,
    created_at_ms INTEGER NOT NULL,
    UNIQUE (game_id, round_number)
)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_rounds_table ON ledger_rounds(table_id, played_at_ms DESC)`,
		`
CREATE TABLE IF NOT EXISTS ledger_games (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    game_id TEXT NOT NULL UNIQUE,
    table_id TEXT NOT NULL,
    table_name TEXT NOT NULL DEFAULT '',
    rounds INTEGER NOT NULL DEFAULT 0,
    finished_at_ms INTEGER NOT NULL,
    standings_json TEXT NOT NULL DEFAULT '[]',
    winners_json TEXT NOT NULL DEFAULT '[]',
    created_at_ms INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_games_finished ON ledger_games(finished_at_ms DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
