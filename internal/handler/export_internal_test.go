package handler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/travel-companion/internal/domain"
)

func TestCalendarFilename(t *testing.T) {
	cases := map[string]string{
		"Boise":            "boise.ics",
		"Boise Weekend":    "boise-weekend.ics",
		"  Ski / Snow!! ":  "ski-snow.ics",
		"日本":               "itinerary.ics",
		"Trip #2 (summer)": "trip-2-summer.ics",
	}
	for in, want := range cases {
		assert.Equal(t, want, calendarFilename(in), in)
	}
}

func TestUnwrapMessage(t *testing.T) {
	err := fmt.Errorf("service.ItineraryService.UpdateItem: %w",
		fmt.Errorf("%w: end_time must not be before start_time", domain.ErrValidation))

	assert.Equal(t, "end_time must not be before start_time", unwrapMessage(err))
	assert.Equal(t, "", unwrapMessage(nil))
}
