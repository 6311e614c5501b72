package domain

import "github.com/google/uuid"

// TurnState is the lifecycle of one chat turn:
// Idle -> AwaitingReply -> Applied | Failed.
type TurnState string

const (
	TurnIdle          TurnState = "idle"
	TurnAwaitingReply TurnState = "awaiting_reply"
	TurnApplied       TurnState = "applied"
	TurnFailed        TurnState = "failed"
)

// Terminal reports whether no further transition can happen.
func (s TurnState) Terminal() bool {
	return s == TurnApplied || s == TurnFailed
}

// TurnKind distinguishes a visible conversational exchange from a hidden
// itinerary refresh.
type TurnKind string

const (
	TurnConversation TurnKind = "conversation"
	TurnRefresh      TurnKind = "refresh"
)

// Turn is the outcome of one request/reply cycle against the chat transport.
// Reply holds the assistant text for conversation turns; Items holds the
// reconciled itinerary for refresh turns.
type Turn struct {
	ID       uuid.UUID       `json:"id"`
	TripName string          `json:"trip_name"`
	Kind     TurnKind        `json:"kind"`
	State    TurnState       `json:"state"`
	Reply    *Message        `json:"reply,omitempty"`
	Items    []ItineraryItem `json:"items,omitempty"`
	Err      error           `json:"-"`
}
