// Package remote serves local games over websocket and provides a client
// that drives such a game as an autoplay.Provider.
//
// Every text frame is a JSON envelope {"type": ..., "payload": ...}. The
// client sends "state", "move" or "new" and the server answers with "state",
// or "error" for a bad request. A client whose connection dropped reattaches
// to its game with /ws?game=<id>.
package remote

import (
	"encoding/json"

	"github.com/vovakirdan/pilot2048/internal/engine"
)

// Message types.
const (
	TypeState = "state"
	TypeMove  = "move"
	TypeNew   = "new"
	TypeError = "error"
)

// Envelope wraps every frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatePayload describes a game.
type StatePayload struct {
	GameID string  `json:"game_id"`
	Board  [][]int `json:"board"`
	Score  int     `json:"score"`
	Moves  int     `json:"moves"`
	Over   bool    `json:"over"`
}

// MovePayload carries a move request. Direction is required.
type MovePayload struct {
	Direction *engine.Direction `json:"direction"`
}

// ErrorPayload explains a rejected request.
type ErrorPayload struct {
	Message string `json:"message"`
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func newEnvelope(typ string, payload any) Envelope {
	env := Envelope{Type: typ}
	if payload != nil {
		env.Payload = mustMarshal(payload)
	}
	return env
}
