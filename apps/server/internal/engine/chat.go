package engine

import (
	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/apps/server/internal/notify"
)

func (e *Engine) handleTableMessage(in TableMessage) error {
	id, err := e.resolve(in.ConnID)
	if err != nil {
		return err
	}
	t, ok := e.lobby.TableOf(id.UserID)
	if !ok || (in.TableID != "" && t.ID != in.TableID) {
		return lobby.ErrNotSeated
	}
	msg, err := e.chat.PostTable(t.ID, id.UserID, id.DisplayName, in.Message, e.now())
	if err != nil {
		return err
	}
	e.emit(notify.Table(t.ID), codec.EventTableMessageReceived, codec.ChatToView(t.ID, msg))
	return nil
}

func (e *Engine) handleGlobalMessage(in GlobalMessage) error {
	id, err := e.resolve(in.ConnID)
	if err != nil {
		return err
	}
	msg, err := e.chat.PostGlobal(id.UserID, id.DisplayName, in.Message, e.now())
	if err != nil {
		return err
	}
	e.emit(notify.Global(), codec.EventGlobalMessageReceived, codec.ChatToView("", msg))
	return nil
}
