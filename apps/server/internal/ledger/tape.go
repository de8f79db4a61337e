package ledger

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventItem is one table event of a round, stored as a base64 protobuf Struct.
type EventItem struct {
	Seq         uint64 `json:"seq"`
	EventType   string `json:"event_type"`
	EnvelopeB64 string `json:"envelope_b64"`
	ServerTsMs  *int64 `json:"server_ts_ms,omitempty"`
}

// EncodeEvent converts payload (any JSON-marshalable value) into a tape item.
func EncodeEvent(seq uint64, eventType string, payload any, at time.Time) (EventItem, error) {
	fields, err := toJSONMap(payload)
	if err != nil {
		return EventItem{}, fmt.Errorf("encode %s: %w", eventType, err)
	}
	st, err := structpb.NewStruct(map[string]any{
		"event": eventType,
		"data":  fields,
	})
	if err != nil {
		return EventItem{}, fmt.Errorf("encode %s: %w", eventType, err)
	}
	raw, err := proto.Marshal(st)
	if err != nil {
		return EventItem{}, fmt.Errorf("encode %s: %w", eventType, err)
	}
	item := EventItem{
		Seq:         seq,
		EventType:   eventType,
		EnvelopeB64: base64.StdEncoding.EncodeToString(raw),
	}
	if !at.IsZero() {
		ms := at.UnixMilli()
		item.ServerTsMs = &ms
	}
	return item, nil
}

// DecodeEvent returns the payload stored in a tape item.
func DecodeEvent(item EventItem) (map[string]any, error) {
	raw, err := base64.StdEncoding.DecodeString(item.EnvelopeB64)
	if err != nil {
		return nil, fmt.Errorf("decode event %d: %w", item.Seq, err)
	}
	var st structpb.Struct
	if err := proto.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode event %d: %w", item.Seq, err)
	}
	m := st.AsMap()
	data, _ := m["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// toJSONMap normalizes typed views into the value set structpb accepts.
func toJSONMap(payload any) (map[string]any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}
	if m, ok := payload.(map[string]any); ok {
		return m, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return m, nil
}
