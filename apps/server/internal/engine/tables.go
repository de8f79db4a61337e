package engine

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/apps/server/internal/notify"
	"blackjack-lite/apps/server/internal/presence"
	"blackjack-lite/blackjack"
)

func (e *Engine) handleGetTables(in GetTables) error {
	if _, err := e.resolve(in.ConnID); err != nil {
		return err
	}
	e.emit(notify.Client(in.ConnID), codec.EventTablesUpdated, codec.TablesToView(e.lobby.List()))
	return nil
}

func memberOf(id presence.Identity) lobby.Member {
	return lobby.Member{UserID: id.UserID, DisplayName: id.DisplayName, ConnectionID: id.ConnectionID}
}

func (e *Engine) handleCreateTable(in CreateTable) error {
	id, err := e.resolve(in.ConnID)
	if err != nil {
		return err
	}
	cfg := lobby.TableConfig{
		Name:         in.Name,
		MaxSeats:     in.MaxPlayers,
		TotalRounds:  in.Rounds,
		TurnTimeout:  time.Duration(in.TimeoutSeconds) * time.Second,
		SkillLevel:   in.Level,
		PasswordHash: in.passwordHash,
	}
	if cfg.MaxSeats == 0 {
		cfg.MaxSeats = e.opts.MaxPlayers
	}
	if cfg.TotalRounds == 0 {
		cfg.TotalRounds = e.opts.DefaultRounds
	}
	if in.TimeoutSeconds == 0 {
		cfg.TurnTimeout = e.opts.DefaultTurnTimeout
	}

	t, err := e.lobby.Create(memberOf(id), cfg, e.now())
	if err != nil {
		return err
	}
	_ = e.presence.SetStatus(id.UserID, presence.StatusInTable)

	e.emit(notify.Client(in.ConnID), codec.EventTableCreated, codec.TableToView(t.Info()))
	e.broadcastTables()
	e.broadcastOnlineUsers()
	return nil
}

func (e *Engine) handleJoinTable(in JoinTable) error {
	id, err := e.resolve(in.ConnID)
	if err != nil {
		return err
	}
	t, err := e.lobby.Join(memberOf(id), in.TableID, in.passwordOK)
	if err != nil {
		return err
	}
	if t.Game != nil && t.Status == lobby.StatusPlaying {
		// dealt in from the next round
		if err := t.Game.AddPlayer(id.UserID); err != nil {
			e.logger.Warn("late join not added to game",
				zap.String("table_id", t.ID), zap.String("user_id", id.UserID), zap.Error(err))
		}
		e.lobby.SyncRoundStatus(t, t.Game.Snapshot())
	}
	_ = e.presence.SetStatus(id.UserID, presence.StatusInTable)

	joined := codec.TableJoinedEvent{
		Table:   codec.TableToView(t.Info()),
		History: codec.ChatHistoryToView(t.ID, e.chat.Table(t.ID)),
	}
	if t.Game != nil {
		rv := codec.RoundToView(t.ID, t.Game.Snapshot())
		joined.Round = &rv
	}
	e.emit(notify.Client(in.ConnID), codec.EventTableJoined, joined)

	seat, _ := t.SeatOf(id.UserID)
	e.emit(notify.Table(t.ID).Without(in.ConnID), codec.EventPlayerJoined, codec.PlayerEvent{
		TableID: t.ID,
		Player:  codec.SeatToView(seat, t.HostUserID),
	})
	e.broadcastTables()
	e.broadcastOnlineUsers()
	return nil
}

// handleLeaveTable is safe to repeat: leaving while not seated does nothing.
func (e *Engine) handleLeaveTable(in LeaveTable) error {
	id, err := e.resolve(in.ConnID)
	if err != nil {
		return err
	}
	if _, err := e.removeFromTable(id.UserID); err != nil {
		if errors.Is(err, lobby.ErrNotSeated) {
			return nil
		}
		return err
	}
	_ = e.presence.SetStatus(id.UserID, presence.StatusOnline)

	e.emit(notify.Client(in.ConnID), codec.EventTableLeft, nil)
	e.broadcastTables()
	e.broadcastOnlineUsers()
	return nil
}

// removeFromTable drops userID's seat and hand, keeps the round moving and
// tells the remaining seat holders. Global list broadcasts are left to the
// caller.
func (e *Engine) removeFromTable(userID string) (lobby.LeaveResult, error) {
	res, err := e.lobby.Leave(userID)
	if err != nil {
		return res, err
	}
	t := res.Table

	turnMoved, turnBefore := false, blackjack.NoTurn
	if t.Game != nil {
		turnBefore = t.Game.Turn()
		moved, err := t.Game.RemovePlayer(userID)
		if err != nil && !errors.Is(err, blackjack.ErrPlayerNotFound) {
			e.logger.Warn("remove player from game failed",
				zap.String("table_id", t.ID), zap.String("user_id", userID), zap.Error(err))
		}
		turnMoved = moved
	}

	if res.Destroyed {
		e.closeTable(t.ID)
		return res, nil
	}

	e.emit(notify.Table(t.ID), codec.EventPlayerLeft, codec.PlayerEvent{
		TableID: t.ID,
		Player:  codec.SeatToView(res.Seat, ""),
	})
	if res.NewHost != "" {
		e.emit(notify.Table(t.ID), codec.EventHostChanged, codec.HostChangedEvent{TableID: t.ID, HostID: res.NewHost})
	}

	if t.Game != nil && t.Status == lobby.StatusPlaying {
		snap := t.Game.Snapshot()
		e.lobby.SyncRoundStatus(t, snap)
		e.emit(notify.Table(t.ID), codec.EventRoundUpdated, codec.RoundToView(t.ID, snap))
		switch {
		case turnMoved:
			e.continueRound(t)
		case snap.Phase == blackjack.PhaseAwaitingTurn && snap.Turn != turnBefore:
			// same seat, new index: the live timer still names the old one
			e.armTurnFor(t, snap, e.turnRemaining(t))
		}
	}
	return res, nil
}

// closeTable releases everything keyed by a destroyed table.
func (e *Engine) closeTable(tableID string) {
	e.cancelTimer(turnKey(tableID))
	delete(e.tapes, tableID)
	e.chat.DropTable(tableID)
	e.logger.Info("table closed", zap.String("table_id", tableID))
}
