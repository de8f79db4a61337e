package engine

import (
	"go.uber.org/zap"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/apps/server/internal/notify"
	"blackjack-lite/apps/server/internal/presence"
)

func (e *Engine) handleAuthenticate(in Authenticate) error {
	// The socket was signed in as someone else: that identity is now offline.
	if prev, err := e.presence.Resolve(in.ConnID); err == nil && prev.UserID != in.UserID {
		_ = e.handleDisconnect(Disconnect{ConnID: in.ConnID})
	}

	now := e.now()
	res, err := e.presence.Authenticate(in.UserID, in.Username, in.ConnID, now)
	if err != nil {
		return err
	}
	userID := res.Identity.UserID
	e.cancelTimer(graceKey(userID))

	t, seated := e.lobby.RebindConnection(userID, in.ConnID)
	if seated {
		_ = e.presence.SetStatus(userID, presence.StatusInTable)
	} else {
		_ = e.presence.SetStatus(userID, presence.StatusOnline)
	}

	if res.ReplacedConn != "" {
		e.emit(notify.Client(res.ReplacedConn), codec.EventError, codec.ErrorEvent{
			Message: "signed in from another connection",
			Code:    "session_replaced",
		})
	}

	e.logger.Info("identity authenticated",
		zap.String("user_id", userID),
		zap.String("conn_id", in.ConnID),
		zap.Bool("resumed", res.Resumed),
		zap.Bool("seated", seated))

	e.sendGameState(in.ConnID, userID, t)
	e.broadcastOnlineUsers()
	if seated {
		e.broadcastTables()
	}
	return nil
}

func (e *Engine) sendGameState(connID, userID string, t *lobby.Table) {
	self, _ := e.presence.Lookup(userID)
	selfView := codec.IdentitiesToView([]presence.Identity{self})[0]
	state := codec.GameStateEvent{
		Self:        selfView,
		Tables:      codec.TablesToView(e.lobby.List()),
		OnlineUsers: codec.IdentitiesToView(e.presence.ListOnline()),
		History:     codec.ChatHistoryToView("", e.chat.Global()),
	}
	if t != nil {
		tv := codec.TableToView(t.Info())
		state.Table = &tv
		if t.Game != nil {
			rv := codec.RoundToView(t.ID, t.Game.Snapshot())
			state.Round = &rv
		}
	}
	e.emit(notify.Client(connID), codec.EventGameState, state)
}

// handleDisconnect starts the grace window. The seat is kept and any turn
// timer keeps running.
func (e *Engine) handleDisconnect(in Disconnect) error {
	id, err := e.presence.MarkDisconnected(in.ConnID, e.now())
	if err != nil {
		// never authenticated, or already taken over by a newer connection
		return nil
	}
	_, seated := e.lobby.RebindConnection(id.UserID, "")

	userID := id.UserID
	e.schedule(graceKey(userID), e.opts.ReconnectGrace, func(gen uint64) Intent {
		return graceExpired{UserID: userID, gen: gen}
	})
	e.logger.Info("identity disconnected",
		zap.String("user_id", userID),
		zap.Duration("grace", e.opts.ReconnectGrace))

	e.broadcastOnlineUsers()
	if seated {
		e.broadcastTables()
	}
	return nil
}

func (e *Engine) handleGraceExpired(in graceExpired) error {
	if !e.claimTimer(graceKey(in.UserID), in.gen) {
		return nil
	}
	id, ok := e.presence.Expire(in.UserID)
	if !ok {
		return nil
	}
	e.logger.Info("grace window expired", zap.String("user_id", in.UserID))

	left := codec.PlayerEvent{Player: codec.SeatView{PlayerID: id.UserID, Username: id.DisplayName}}
	if res, err := e.removeFromTable(in.UserID); err == nil {
		left.TableID = res.Table.ID
		left.Player = codec.SeatToView(res.Seat, "")
	}
	e.emit(notify.Global(), codec.EventUserLeft, left)
	e.broadcastOnlineUsers()
	e.broadcastTables()
	return nil
}
