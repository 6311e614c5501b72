// Package extract turns assistant replies written in the itinerary tag grammar
// into itinerary items:
//
//	[start]Activity: <a>; Location: <l>; Start Time: <t>; End Time: <t>|TBD[end]
//
// Matching is done by a small scanner rather than a regular expression so the
// ordering and discard rules are explicit.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/travel-companion/internal/domain"
)

// TBD is the literal end time that selects the default duration.
const TBD = "TBD"

// DefaultDuration is applied when a record's end time is TBD.
const DefaultDuration = 2 * time.Hour

// Layouts are tried in order when parsing record times. The first is the form
// the assistant is instructed to use, e.g. "9:00 PM on July 21, 2022".
var Layouts = []string{
	"3:04 PM on January 2, 2006",
	"3:04 PM on Jan 2, 2006",
	"3:04 pm on January 2, 2006",
	"3:04 pm on Jan 2, 2006",
}

// ErrBadTime is returned by ParseTime when no layout matches.
var ErrBadTime = errors.New("unrecognised time")

const openTag = "[start]Activity: "

// separators follow the activity, location, start and end fields in turn.
var separators = [...]string{"; Location: ", "; Start Time: ", "; End Time: ", "[end]"}

// Fields may not span lines.
const lineBreaks = "\n\r\u0085\u2028\u2029"

// Record is one tagged block with its four fields captured verbatim.
type Record struct {
	Activity string
	Location string
	Start    string
	End      string
}

// Scan returns every complete record in text in order of appearance. Matches
// never overlap. A block that cannot be completed is skipped and scanning
// resumes just past its opening tag.
func Scan(text string) []Record {
	var out []Record
	pos := 0
	for pos < len(text) {
		i := strings.Index(text[pos:], openTag)
		if i < 0 {
			break
		}
		begin := pos + i
		var fields [len(separators)]string
		end, ok := matchFields(text, begin+len(openTag), 0, &fields)
		if !ok {
			pos = begin + 1
			continue
		}
		out = append(out, Record{Activity: fields[0], Location: fields[1], Start: fields[2], End: fields[3]})
		pos = end
	}
	return out
}

// matchFields captures field k starting at from. Each field is the shortest
// run that still lets the remaining separators match, so a later separator
// occurrence is only tried when the shorter choice cannot complete the record.
func matchFields(text string, from, k int, fields *[len(separators)]string) (int, bool) {
	sep := separators[k]
	for off := from; off <= len(text); {
		j := strings.Index(text[off:], sep)
		if j < 0 {
			return 0, false
		}
		j += off
		if strings.ContainsAny(text[from:j], lineBreaks) {
			return 0, false
		}
		fields[k] = text[from:j]
		next := j + len(sep)
		if k == len(separators)-1 {
			return next, true
		}
		if end, ok := matchFields(text, next, k+1, fields); ok {
			return end, true
		}
		off = j + 1
	}
	return 0, false
}

// Extractor converts records into itinerary items. The zero value is not
// usable; construct with New.
type Extractor struct {
	// Location is the zone record times are interpreted in.
	Location *time.Location
	// DefaultDuration is added to the start time when the end is TBD.
	DefaultDuration time.Duration
	// NewID generates item ids.
	NewID func() uuid.UUID
	// Logger receives a debug line for every dropped record.
	Logger *slog.Logger
}

// New returns an Extractor interpreting times in loc (time.Local when nil).
func New(loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	return &Extractor{
		Location:        loc,
		DefaultDuration: DefaultDuration,
		NewID:           uuid.New,
		Logger:          slog.Default(),
	}
}

// Extract returns one item per well-formed record in text, in order of
// appearance. Records whose start time, or non-TBD end time, cannot be parsed
// are dropped. Duplicate records are kept. Always returns a non-nil slice.
func (e *Extractor) Extract(text string) []domain.ItineraryItem {
	records := Scan(text)
	items := make([]domain.ItineraryItem, 0, len(records))
	for _, rec := range records {
		it, err := e.Item(rec)
		if err != nil {
			e.logger().Debug("itinerary record skipped",
				"activity", rec.Activity,
				"start", rec.Start,
				"end", rec.End,
				"error", err,
			)
			continue
		}
		items = append(items, it)
	}
	return items
}

// Item converts a single record.
func (e *Extractor) Item(rec Record) (domain.ItineraryItem, error) {
	start, err := e.ParseTime(rec.Start)
	if err != nil {
		return domain.ItineraryItem{}, err
	}

	var end time.Time
	if rec.End == TBD {
		end = start.Add(e.DefaultDuration)
	} else if end, err = e.ParseTime(rec.End); err != nil {
		return domain.ItineraryItem{}, err
	}

	return domain.ItineraryItem{
		ID:           e.NewID(),
		LocationName: rec.Location,
		Activity:     rec.Activity,
		StartTime:    start,
		EndTime:      end,
	}, nil
}

// ParseTime parses s with the first matching layout in the extractor's zone.
func (e *Extractor) ParseTime(s string) (time.Time, error) {
	for _, layout := range Layouts {
		if t, err := time.ParseInLocation(layout, s, e.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTime, s)
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
