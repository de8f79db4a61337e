package gateway

import (
	"fmt"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/engine"
	"blackjack-lite/blackjack"
)

var (
	ErrMalformed    = blackjack.NewError(blackjack.KindValidation, "malformed message")
	ErrUnknownEvent = blackjack.NewError(blackjack.KindValidation, "unknown event")
)

// IntentFor maps one client envelope received on connID to an engine intent.
func IntentFor(connID string, env codec.Envelope) (engine.Intent, error) {
	switch env.Event {
	case codec.EventAuthenticate:
		var req codec.AuthenticateRequest
		if err := env.DecodeData(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return engine.Authenticate{ConnID: connID, UserID: req.ID, Username: req.Username}, nil

	case codec.EventGetTables:
		return engine.GetTables{ConnID: connID}, nil

	case codec.EventCreateTable:
		var req codec.CreateTableRequest
		if err := env.DecodeData(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return engine.CreateTable{
			ConnID:         connID,
			Name:           req.Name,
			MaxPlayers:     req.MaxPlayers,
			Rounds:         req.Rounds,
			TimeoutSeconds: req.Timeout,
			Level:          req.Level,
			Password:       req.Password,
		}, nil

	case codec.EventJoinTable:
		var req codec.JoinTableRequest
		if err := env.DecodeData(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return engine.JoinTable{ConnID: connID, TableID: req.TableID, Password: req.Password}, nil

	case codec.EventLeaveTable:
		return engine.LeaveTable{ConnID: connID}, nil

	case codec.EventStartGame:
		var req codec.StartGameRequest
		if err := env.DecodeData(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return engine.StartGame{ConnID: connID, TableID: req.TableID}, nil

	case codec.EventGameAction:
		var req codec.GameActionRequest
		if err := env.DecodeData(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return engine.GameAction{ConnID: connID, TableID: req.TableID, Action: req.Action}, nil

	case codec.EventTableMessage:
		var req codec.TableMessageRequest
		if err := env.DecodeData(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return engine.TableMessage{ConnID: connID, TableID: req.TableID, Message: req.Message}, nil

	case codec.EventGlobalMessage:
		var req codec.GlobalMessageRequest
		if err := env.DecodeData(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return engine.GlobalMessage{ConnID: connID, Message: req.Message}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}
