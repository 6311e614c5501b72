package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DayLayout is the key format used for day groups.
const DayLayout = "2006-01-02"

// ItineraryItem is a single activity at a location over a time span.
// EndTime is expected to be no earlier than StartTime, but items produced by
// extraction are stored as the assistant wrote them.
type ItineraryItem struct {
	ID           uuid.UUID `json:"id"`
	LocationName string    `json:"location_name"`
	Activity     string    `json:"activity"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// ItineraryUpdate carries the full set of mutable item fields. Updates always
// overwrite all four fields together.
type ItineraryUpdate struct {
	LocationName string
	Activity     string
	StartTime    time.Time
	EndTime      time.Time
}

// Validate enforces the rules for user edits.
//   - Activity must be non-empty.
//   - EndTime must not be before StartTime.
func (u ItineraryUpdate) Validate() error {
	if strings.TrimSpace(u.Activity) == "" {
		return fmt.Errorf("%w: activity is required", ErrValidation)
	}
	if u.StartTime.IsZero() {
		return fmt.Errorf("%w: start_time is required", ErrValidation)
	}
	if u.EndTime.Before(u.StartTime) {
		return fmt.Errorf("%w: end_time must not be before start_time", ErrValidation)
	}
	return nil
}

// Apply returns item with the update's fields written over it. The id is kept.
func (u ItineraryUpdate) Apply(item ItineraryItem) ItineraryItem {
	item.LocationName = u.LocationName
	item.Activity = u.Activity
	item.StartTime = u.StartTime
	item.EndTime = u.EndTime
	return item
}

// DayGroup is one calendar day of an itinerary.
type DayGroup struct {
	Day   string          `json:"day"` // DayLayout in the projection's location
	Items []ItineraryItem `json:"items"`
}

// GroupByDay projects items into calendar days in loc. Days are ordered
// ascending; items within a day are ordered by StartTime, then Activity, then
// ID so the projection is deterministic. Always returns a non-nil slice.
func GroupByDay(items []ItineraryItem, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	byDay := lo.GroupBy(items, func(it ItineraryItem) string {
		return it.StartTime.In(loc).Format(DayLayout)
	})

	days := lo.Keys(byDay)
	slices.Sort(days)

	groups := make([]DayGroup, 0, len(days))
	for _, day := range days {
		dayItems := slices.Clone(byDay[day])
		slices.SortStableFunc(dayItems, compareItems)
		groups = append(groups, DayGroup{Day: day, Items: dayItems})
	}
	return groups
}

func compareItems(a, b ItineraryItem) int {
	return cmp.Or(
		a.StartTime.Compare(b.StartTime),
		cmp.Compare(a.Activity, b.Activity),
		cmp.Compare(a.ID.String(), b.ID.String()),
	)
}
