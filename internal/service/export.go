package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/pkordes/travel-companion/internal/domain"
	"github.com/pkordes/travel-companion/internal/mirror"
)

// CalendarProductID identifies the generator in exported feeds.
const CalendarProductID = "-//travel-companion//itinerary//EN"

// ExportService renders trip itineraries for external calendar apps.
type ExportService struct {
	mirror *mirror.Mirror
	loc    *time.Location
	now    func() time.Time
}

// NewExportService constructs an ExportService reading from the mirror. loc
// is the zone items are grouped by day in, as for ItineraryService; nil means
// time.Local.
func NewExportService(m *mirror.Mirror, loc *time.Location) *ExportService {
	if loc == nil {
		loc = time.Local
	}
	return &ExportService{mirror: m, loc: loc, now: time.Now}
}

// Calendar returns the trip's itinerary as an iCalendar document with one
// event per item, ordered by start time. Event UIDs are the item ids, so
// re-importing after an edit updates the event in place.
func (s *ExportService) Calendar(_ context.Context, tripName string) ([]byte, error) {
	trip, ok := s.mirror.Get(tripName)
	if !ok {
		return nil, fmt.Errorf("service.ExportService.Calendar: %q: %w", tripName, domain.ErrNotFound)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(CalendarProductID)

	stamp := s.now().UTC()
	for _, day := range domain.GroupByDay(trip.Itinerary, s.loc) {
		for _, it := range day.Items {
			ev := cal.AddEvent(it.ID.String())
			ev.SetDtStampTime(stamp)
			ev.SetStartAt(it.StartTime)
			ev.SetEndAt(it.EndTime)
			ev.SetSummary(it.Activity)
			if it.LocationName != "" {
				ev.SetLocation(it.LocationName)
			}
		}
	}
	return []byte(cal.Serialize()), nil
}
