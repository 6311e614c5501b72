package handler

import (
	"net/http"
	"time"

	"github.com/pkordes/travel-companion/internal/domain"
)

// UpdateItemRequest is the body of PUT /trips/{name}/itinerary/{itemID}.
// All four fields are overwritten.
type UpdateItemRequest struct {
	LocationName string    `json:"location_name"`
	Activity     string    `json:"activity"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// GetItinerary handles GET /trips/{name}/itinerary. Items are grouped by
// calendar day, days ascending, items by start time.
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	name, ok := tripName(w, r)
	if !ok {
		return
	}
	days, err := s.itinerary.Days(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// UpdateItineraryItem handles PUT /trips/{name}/itinerary/{itemID}.
func (s *Server) UpdateItineraryItem(w http.ResponseWriter, r *http.Request) {
	name, ok := tripName(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "itemID")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	var body UpdateItemRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	it, err := s.itinerary.UpdateItem(r.Context(), name, id, domain.ItineraryUpdate(body))
	if err != nil {
		s.writeServiceError(w, r, err, "itinerary item not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// DeleteItineraryItem handles DELETE /trips/{name}/itinerary/{itemID}.
func (s *Server) DeleteItineraryItem(w http.ResponseWriter, r *http.Request) {
	name, ok := tripName(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "itemID")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	if err := s.itinerary.DeleteItem(r.Context(), name, id); err != nil {
		s.writeServiceError(w, r, err, "itinerary item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
