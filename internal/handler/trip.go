package handler

import (
	"net/http"
	"time"

	"github.com/pkordes/travel-companion/internal/domain"
)

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Name string `json:"name"`
}

// TripSummary is one row of GET /trips.
type TripSummary struct {
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	ItemCount    int       `json:"item_count"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []TripSummary `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body CreateTripRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := s.trips.Create(r.Context(), body.Name)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.trips.List(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}

	data := make([]TripSummary, len(trips))
	for i, t := range trips {
		data[i] = TripSummary{
			Name:         t.Name,
			CreatedAt:    t.CreatedAt,
			MessageCount: len(t.Messages),
			ItemCount:    len(t.Itinerary),
		}
	}
	writeJSON(w, http.StatusOK, TripList{
		Data:       data,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetTrip handles GET /trips/{name}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	name, ok := tripName(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.Get(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// DeleteTrip handles DELETE /trips/{name}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	name, ok := tripName(w, r)
	if !ok {
		return
	}
	if err := s.trips.Delete(r.Context(), name); err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMessages handles GET /trips/{name}/messages.
func (s *Server) ListMessages(w http.ResponseWriter, r *http.Request) {
	name, ok := tripName(w, r)
	if !ok {
		return
	}
	msgs, err := s.trips.Messages(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
