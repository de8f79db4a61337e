package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/ledger"
	"blackjack-lite/apps/server/internal/lobby"
)

// roundTape collects the table events of one round for the ledger.
type roundTape struct {
	gameID    string
	round     int
	seq       uint64
	startedAt time.Time
	events    []ledger.EventItem
}

func (e *Engine) record(tableID, event string, payload any) {
	tape, ok := e.tapes[tableID]
	if !ok {
		return
	}
	tape.seq++
	item, err := ledger.EncodeEvent(tape.seq, event, payload, e.now())
	if err != nil {
		e.logger.Warn("tape encode failed", zap.String("table_id", tableID), zap.String("event", event), zap.Error(err))
		return
	}
	tape.events = append(tape.events, item)
}

// archive runs fn off the engine goroutine; failures are logged only.
func (e *Engine) archive(what string, fn func(ctx context.Context) error) {
	e.archiving.Add(1)
	go func() {
		defer e.archiving.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			e.logger.Warn("ledger write failed", zap.String("record", what), zap.Error(err))
		}
	}()
}

func (e *Engine) archiveRound(t *lobby.Table, settled codec.RoundSettledView) {
	tape, ok := e.tapes[t.ID]
	if !ok {
		return
	}
	delete(e.tapes, t.ID)

	rec := ledger.RoundRecord{
		GameID:      tape.gameID,
		TableID:     t.ID,
		RoundNumber: tape.round,
		PlayedAt:    tape.startedAt,
		Summary: map[string]any{
			"table_name": t.Name,
			"dealer":     settled.Dealer,
			"results":    settled.Results,
			"game_over":  settled.GameOver,
		},
		Events: tape.events,
	}
	e.archive("round", func(ctx context.Context) error {
		return e.ledger.RecordRound(ctx, rec)
	})
}

func (e *Engine) archiveGame(t *lobby.Table, over codec.GameOverView) {
	rec := ledger.GameRecord{
		GameID:     t.GameID,
		TableID:    t.ID,
		TableName:  t.Name,
		Rounds:     t.TotalRounds,
		FinishedAt: e.now(),
		Winners:    over.Winners,
	}
	for _, s := range over.Standings {
		rec.Standings = append(rec.Standings, ledger.Standing{PlayerID: s.PlayerID, Username: s.Username, Score: s.Score})
	}
	e.archive("game", func(ctx context.Context) error {
		return e.ledger.RecordGame(ctx, rec)
	})
}
