package channel

import (
	"encoding/json"
	"fmt"
)

// Reserved event names.
const (
	// EventJoin asks the server to add the connection to Message.Room.
	EventJoin = "room:join"
	// EventLeave asks the server to remove the connection from Message.Room.
	EventLeave = "room:leave"
	// EventNotification carries a pushed notification object.
	EventNotification = "notification:new"
)

// Message is the unit exchanged with the push server.
type Message struct {
	Event   string          `json:"event"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IsControl reports whether the message is a room membership command.
func (m Message) IsControl() bool {
	return m.Event == EventJoin || m.Event == EventLeave
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("channel: event %q has no payload", m.Event)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("channel: decode %q payload: %w", m.Event, err)
	}
	return nil
}

// NewMessage encodes payload as JSON. Raw JSON and byte slices are used as-is.
func NewMessage(event, room string, payload any) (Message, error) {
	msg := Message{Event: event, Room: room}
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		msg.Payload = p
	case []byte:
		msg.Payload = json.RawMessage(p)
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return Message{}, fmt.Errorf("channel: encode %q payload: %w", event, err)
		}
		msg.Payload = data
	}
	return msg, nil
}

// JoinMessage builds the control message for joining room.
func JoinMessage(room string) Message {
	return Message{Event: EventJoin, Room: room}
}

// LeaveMessage builds the control message for leaving room.
func LeaveMessage(room string) Message {
	return Message{Event: EventLeave, Room: room}
}
