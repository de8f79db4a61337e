package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/apps/server/internal/notify"
	"blackjack-lite/blackjack"
)

func (e *Engine) handleStartGame(in StartGame) error {
	id, err := e.resolve(in.ConnID)
	if err != nil {
		return err
	}
	t, ok := e.lobby.Get(in.TableID)
	if !ok {
		return lobby.ErrTableNotFound
	}
	if t.HostUserID != id.UserID {
		return blackjack.ErrNotHost
	}
	if t.Status == lobby.StatusPlaying {
		return blackjack.ErrGameInProgress
	}
	if len(t.Seats) < e.opts.MinPlayers {
		return fmt.Errorf("%w: %d of %d seats taken", blackjack.ErrInsufficientPlayers, len(t.Seats), e.opts.MinPlayers)
	}

	game, err := blackjack.NewGame(blackjack.Config{
		MinPlayers:         e.opts.MinPlayers,
		TotalRounds:        t.TotalRounds,
		ReshuffleThreshold: e.opts.ReshuffleThreshold,
		Seed:               e.opts.Seed,
	}, t.UserIDs())
	if err != nil {
		return err
	}
	t.Game = game
	t.GameID = uuid.NewString()
	e.lobby.SetStatus(t, lobby.StatusPlaying)

	e.logger.Info("game started",
		zap.String("table_id", t.ID),
		zap.String("game_id", t.GameID),
		zap.Int("seats", len(t.Seats)),
		zap.Int("rounds", t.TotalRounds))

	if err := e.dealRound(t); err != nil {
		return err
	}
	e.broadcastTables()
	return nil
}

// dealRound starts the next round of t's game and prompts the first seat.
func (e *Engine) dealRound(t *lobby.Table) error {
	if err := t.Game.StartRound(); err != nil {
		return err
	}
	snap := t.Game.Snapshot()
	e.tapes[t.ID] = &roundTape{gameID: t.GameID, round: snap.Round, startedAt: e.now()}
	e.lobby.SyncRoundStatus(t, snap)

	e.logger.Debug("round dealt",
		zap.String("table_id", t.ID),
		zap.Int("round", snap.Round),
		zap.Int("deck_remaining", snap.DeckRemaining))
	e.emit(notify.Table(t.ID), codec.EventGameStarted, codec.RoundToView(t.ID, snap))
	e.continueRound(t)
	return nil
}

func (e *Engine) handleGameAction(in GameAction) error {
	id, err := e.resolve(in.ConnID)
	if err != nil {
		return err
	}
	action, err := blackjack.ParseAction(in.Action)
	if err != nil {
		return err
	}
	t, ok := e.lobby.TableOf(id.UserID)
	if !ok || (in.TableID != "" && t.ID != in.TableID) {
		return lobby.ErrNotSeated
	}
	if t.Game == nil || t.Status != lobby.StatusPlaying {
		return blackjack.ErrRoundNotActive
	}
	return e.applyAction(t, id.UserID, id.DisplayName, action, false)
}

func (e *Engine) handleTurnTimeout(in turnTimeout) error {
	if !e.claimTimer(turnKey(in.TableID), in.gen) {
		return nil
	}
	t, ok := e.lobby.Get(in.TableID)
	if !ok || t.Game == nil || t.Status != lobby.StatusPlaying {
		return nil
	}
	snap := t.Game.Snapshot()
	if snap.Phase != blackjack.PhaseAwaitingTurn || snap.Round != in.Round || snap.Turn != in.Position {
		return nil
	}
	userID := snap.CurrentPlayerID()
	name := userID
	if seat, ok := t.SeatOf(userID); ok {
		name = seat.DisplayName
	}
	e.logger.Info("turn timed out",
		zap.String("table_id", t.ID),
		zap.String("user_id", userID),
		zap.Int("position", in.Position))
	return e.applyAction(t, userID, name, blackjack.ActionStand, true)
}

func (e *Engine) applyAction(t *lobby.Table, userID, name string, action blackjack.Action, auto bool) error {
	pos := t.Game.PositionOf(userID)
	if pos < 0 {
		return blackjack.ErrPlayerNotFound
	}
	if _, err := t.Game.Act(pos, action); err != nil {
		return err
	}

	e.emit(notify.Table(t.ID), codec.EventGameActionReceived, codec.GameActionEvent{
		TableID:   t.ID,
		Action:    string(action),
		PlayerID:  userID,
		Username:  name,
		Timestamp: e.now().UnixMilli(),
		Auto:      auto,
	})
	snap := t.Game.Snapshot()
	e.lobby.SyncRoundStatus(t, snap)
	e.emit(notify.Table(t.ID), codec.EventRoundUpdated, codec.RoundToView(t.ID, snap))
	e.continueRound(t)
	return nil
}

// continueRound drives the round forward after any change of turn: it
// prompts the next seat, or plays the dealer out and settles.
func (e *Engine) continueRound(t *lobby.Table) {
	snap := t.Game.Snapshot()
	switch snap.Phase {
	case blackjack.PhaseAwaitingTurn:
		e.armTurn(t, snap)
	case blackjack.PhaseDealerPlay:
		e.cancelTimer(turnKey(t.ID))
		e.playDealer(t)
	}
}

func (e *Engine) armTurn(t *lobby.Table, snap blackjack.Snapshot) {
	e.armTurnFor(t, snap, t.TurnTimeout)
}

// turnRemaining is what is left of t's live turn timer, or a full timeout.
func (e *Engine) turnRemaining(t *lobby.Table) time.Duration {
	if kt, ok := e.timers[turnKey(t.ID)]; ok {
		if left := kt.deadline.Sub(e.now()); left > 0 {
			return left
		}
	}
	return t.TurnTimeout
}

func (e *Engine) armTurnFor(t *lobby.Table, snap blackjack.Snapshot, d time.Duration) {
	tableID, round, pos := t.ID, snap.Round, snap.Turn
	deadline := e.schedule(turnKey(tableID), d, func(gen uint64) Intent {
		return turnTimeout{TableID: tableID, Round: round, Position: pos, gen: gen}
	})
	e.emit(notify.Table(tableID), codec.EventTurnChanged, codec.TurnChangedEvent{
		TableID:    tableID,
		PlayerID:   snap.CurrentPlayerID(),
		Position:   pos,
		DeadlineMs: deadline.UnixMilli(),
	})
}

func (e *Engine) playDealer(t *lobby.Table) {
	for {
		c, drew, err := t.Game.DealerStep()
		if err != nil {
			e.logger.Error("dealer step failed", zap.String("table_id", t.ID), zap.Error(err))
			return
		}
		if !drew {
			break
		}
		dealer := t.Game.Snapshot().Dealer
		e.emit(notify.Table(t.ID), codec.EventDealerCardDrawn, codec.DealerCardEvent{
			TableID:   t.ID,
			Card:      codec.CardToView(c),
			HandValue: blackjack.HandValue(dealer),
		})
	}
	e.settle(t)
}

func (e *Engine) settle(t *lobby.Table) {
	res, err := t.Game.Settle()
	if err != nil {
		e.logger.Error("settle failed", zap.String("table_id", t.ID), zap.Error(err))
		return
	}
	e.lobby.SyncRoundStatus(t, t.Game.Snapshot())

	settled := codec.SettlementToView(t.ID, res)
	e.emit(notify.Table(t.ID), codec.EventRoundSettled, settled)
	e.archiveRound(t, settled)

	e.logger.Info("round settled",
		zap.String("table_id", t.ID),
		zap.Int("round", res.Round),
		zap.Int("dealer_value", res.DealerValue),
		zap.Bool("game_over", res.GameOver))

	if res.GameOver {
		e.finishGame(t)
		return
	}
	if err := e.dealRound(t); err != nil {
		e.logger.Error("next round failed", zap.String("table_id", t.ID), zap.Error(err))
	}
}

func (e *Engine) finishGame(t *lobby.Table) {
	e.lobby.SetStatus(t, lobby.StatusFinished)
	e.cancelTimer(turnKey(t.ID))

	names := make(map[string]string, len(t.Seats))
	for _, s := range t.Seats {
		names[s.UserID] = s.DisplayName
	}
	over := codec.GameOverToView(t.ID, t.Game.Standings(), t.Game.Winners(), names)
	e.emit(notify.Table(t.ID), codec.EventGameOver, over)
	e.archiveGame(t, over)

	e.logger.Info("game over",
		zap.String("table_id", t.ID),
		zap.String("game_id", t.GameID),
		zap.Strings("winners", over.Winners))
	e.broadcastTables()
}
