package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/travel-companion/internal/domain"
)

// SendMessageRequest is the body of POST /trips/{name}/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage handles POST /trips/{name}/messages. It blocks until the
// assistant has replied (or the turn has failed) and returns the turn.
// A transport failure yields 502; the user message is kept either way.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	name, ok := tripName(w, r)
	if !ok {
		return
	}
	var body SendMessageRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	turn, err := s.sessions.Send(r.Context(), name, body.Content)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// RefreshItinerary handles POST /trips/{name}/itinerary/refresh. It asks the
// assistant for the itinerary and replaces the stored one with the reply.
func (s *Server) RefreshItinerary(w http.ResponseWriter, r *http.Request) {
	name, ok := tripName(w, r)
	if !ok {
		return
	}
	turn, err := s.sessions.Refresh(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			s.logger.ErrorContext(r.Context(), "itinerary reconcile failed", "trip", name, "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "persistence_error", Message: "the itinerary could not be saved; the previous itinerary is unchanged"}})
			return
		}
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// GetLastTurn handles GET /trips/{name}/turn: the state of the most recent
// turn for the trip.
func (s *Server) GetLastTurn(w http.ResponseWriter, r *http.Request) {
	name, ok := tripName(w, r)
	if !ok {
		return
	}
	turn, found := s.sessions.LastTurn(name)
	if !found {
		writeJSON(w, http.StatusNotFound, notFoundBody("no turn recorded for trip"))
		return
	}
	writeJSON(w, http.StatusOK, turn)
}
