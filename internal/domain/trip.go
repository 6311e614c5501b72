// Package domain contains the core data types for the Travel Companion application.
// This package is imported by every other internal package (repo, service,
// handler, mirror, extract) and depends on nothing inside the module.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MaxTripNameLength bounds the user-chosen trip name.
const MaxTripNameLength = 200

// WelcomeMessage is the system message every new trip starts with.
const WelcomeMessage = "To get started, please tell me about any activities or places you're interested in. " +
	"Be sure to include the name and the preferred start date & time for each activity."

// Trip is the top-level planning unit. Name is the natural key; a trip owns an
// append-only transcript (oldest first) and an itinerary.
type Trip struct {
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
	Messages  []Message       `json:"messages"`
	Itinerary []ItineraryItem `json:"itinerary"`
}

// NewTrip validates name and returns a trip seeded with exactly one system
// welcome message and an empty itinerary.
func NewTrip(name string, now time.Time) (Trip, error) {
	if err := ValidateTripName(name); err != nil {
		return Trip{}, err
	}
	return Trip{
		Name:      name,
		CreatedAt: now,
		Messages:  []Message{NewMessage(RoleSystem, WelcomeMessage)},
		Itinerary: []ItineraryItem{},
	}, nil
}

// ValidateTripName rejects blank or overlong names.
func ValidateTripName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(name) > MaxTripNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrValidation, MaxTripNameLength)
	}
	return nil
}

// AppendMessage returns a copy of t with msg appended to the transcript.
// The receiver's slice is never written to, so snapshots handed out earlier
// keep their contents.
func (t Trip) AppendMessage(msg Message) Trip {
	out := t.Clone()
	out.Messages = append(out.Messages, msg)
	return out
}

// Clone returns a deep copy of t.
func (t Trip) Clone() Trip {
	out := t
	out.Messages = slices.Clone(t.Messages)
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	out.Itinerary = slices.Clone(t.Itinerary)
	if out.Itinerary == nil {
		out.Itinerary = []ItineraryItem{}
	}
	return out
}
