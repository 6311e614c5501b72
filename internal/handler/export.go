package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// GetItineraryCalendar handles GET /trips/{name}/itinerary.ics.
// The itinerary is returned as a text/calendar attachment for import into
// calendar apps.
func (s *Server) GetItineraryCalendar(w http.ResponseWriter, r *http.Request) {
	name, ok := tripName(w, r)
	if !ok {
		return
	}
	body, err := s.export.Calendar(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", calendarFilename(name)))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// calendarFilename turns a trip name into a safe download name,
// e.g. "Boise Weekend" -> "boise-weekend.ics".
func calendarFilename(tripName string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(tripName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = "itinerary"
	}
	return name + ".ics"
}
