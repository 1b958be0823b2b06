// Package api serves local games over HTTP/JSON, WebSocket and
// Server-Sent Events so that presentation clients can drive the rules
// engine. Each game is a hot-seat session: whoever holds its id plays
// both colors.
package api

import "github.com/yourusername/bgrules/pkg/engine"

// ============================================================================
// Request Types
// ============================================================================

// NewGameRequest is the request body for creating a game. Every field is
// optional.
type NewGameRequest struct {
	Layout   string         `json:"layout,omitempty"`   // Preset name ("standard", "bearoff")
	Position string         `json:"position,omitempty"` // gnubg position ID; overrides Layout
	Stones   engine.Layout  `json:"stones,omitempty"`   // Explicit placements; overrides both
	First    engine.Color   `json:"first,omitempty"`    // Player on roll first (default white)
	Doubles  string         `json:"doubles,omitempty"`  // "two" or "four"
	Seed     uint64         `json:"seed,omitempty"`     // Dice seed (0 = server default)
	Rolls    [][2]int       `json:"rolls,omitempty"`    // Scripted rolls, replayed in order
}

// MoveRequest is the request body for moving one stone. Either Move
// ("24/18") or From and To may be given.
type MoveRequest struct {
	Move string           `json:"move,omitempty"`
	From *engine.Location `json:"from,omitempty"`
	To   *engine.Location `json:"to,omitempty"`
}

// SelectRequest is the request body for a "select location" intent.
type SelectRequest struct {
	At engine.Location `json:"at"`
}

// ============================================================================
// Response Types
// ============================================================================

// GameResponse is a game's id and its full snapshot.
type GameResponse struct {
	ID string `json:"id"`
	engine.Snapshot
}

// RollResponse is returned by a roll.
type RollResponse struct {
	Roll [2]int       `json:"roll"`
	Game GameResponse `json:"game"`
}

// SelectResponse is returned by a selection.
type SelectResponse struct {
	From         *engine.Location  `json:"from,omitempty"`
	Destinations []engine.Location `json:"destinations"`
	Game         GameResponse      `json:"game"`
}

// DestinationsResponse lists where a stone may go.
type DestinationsResponse struct {
	From         engine.Location   `json:"from"`
	Destinations []engine.Location `json:"destinations"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"` // Human-readable move rejection reason
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status   string     `json:"status"`
	Version  string     `json:"version"`
	Sessions int        `json:"sessions"`
	Pool     *PoolStats `json:"pool,omitempty"`
}

// ============================================================================
// WebSocket Types
// ============================================================================

// WSMessage is a client intent sent over a game's WebSocket.
type WSMessage struct {
	Type string           `json:"type"`           // "roll", "move", "select", "undo", "redo", "snapshot", "ping"
	ID   string           `json:"id,omitempty"`   // Echoed in the reply
	Move string           `json:"move,omitempty"` // For "move": "24/18"
	At   *engine.Location `json:"at,omitempty"`   // For "select"
}

// WSResponse is a server message: the reply to an intent ("state",
// "error", "pong") or a pushed game event ("event").
type WSResponse struct {
	Type   string        `json:"type"`
	ID     string        `json:"id,omitempty"`
	Game   *GameResponse `json:"game,omitempty"`
	Event  *engine.Event `json:"event,omitempty"`
	Error  string        `json:"error,omitempty"`
	Code   string        `json:"code,omitempty"`
	Reason string        `json:"reason,omitempty"`
}
