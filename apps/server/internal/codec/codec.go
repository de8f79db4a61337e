package codec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the single frame shape on the wire in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps payload into an envelope. A nil payload encodes without data.
func Encode(event string, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", event, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode parses a client frame.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	env.Event = strings.TrimSpace(env.Event)
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing event name")
	}
	return env, nil
}

// DecodeData unmarshals the payload into v. Missing data leaves v untouched.
func (e Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Event, err)
	}
	return nil
}

// Client payloads.

type AuthenticateRequest struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type CreateTableRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
	Rounds     int    `json:"rounds"`
	// Timeout is the per-turn timeout in seconds.
	Timeout  int    `json:"timeout"`
	Level    string `json:"level"`
	Password string `json:"password,omitempty"`
}

type JoinTableRequest struct {
	TableID  string `json:"tableId"`
	Password string `json:"password,omitempty"`
}

type StartGameRequest struct {
	TableID string `json:"tableId"`
}

type GameActionRequest struct {
	TableID string `json:"tableId"`
	Action  string `json:"action"`
}

type TableMessageRequest struct {
	TableID string `json:"tableId"`
	Message string `json:"message"`
}

type GlobalMessageRequest struct {
	Message string `json:"message"`
}
