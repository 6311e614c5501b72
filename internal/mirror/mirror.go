// Package mirror holds the in-memory view of every trip, keyed by trip name.
// The durable store is the source of truth; services write the store first and
// then apply the same change here. Readers always receive copies.
package mirror

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/pkordes/travel-companion/internal/domain"
)

// ChangeKind names the mutation that produced a Change.
type ChangeKind string

const (
	ChangeReset     ChangeKind = "reset"
	ChangeCreated   ChangeKind = "created"
	ChangeDeleted   ChangeKind = "deleted"
	ChangeMessage   ChangeKind = "message"
	ChangeItinerary ChangeKind = "itinerary"
)

// Change is delivered to observers after every mutation. Trip is the state
// after the change (zero for deletions and resets).
type Change struct {
	Kind     ChangeKind
	TripName string
	Trip     domain.Trip
}

// Observer is called synchronously after a change has been applied. It must
// not call back into the Mirror's mutating methods.
type Observer func(Change)

// Mirror is safe for concurrent use.
type Mirror struct {
	mu        sync.Mutex // serializes read-modify-write and observer delivery
	trips     *cache.Cache
	observers map[int]Observer
	nextObs   int
}

// New returns an empty Mirror.
func New() *Mirror {
	return &Mirror{
		trips:     cache.New(cache.NoExpiration, 0),
		observers: make(map[int]Observer),
	}
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it.
func (m *Mirror) Subscribe(fn Observer) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// Reset replaces the whole view, e.g. after loading from the store.
func (m *Mirror) Reset(trips []domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips.Flush()
	for _, t := range trips {
		m.trips.Set(t.Name, t.Clone(), cache.NoExpiration)
	}
	m.notify(Change{Kind: ChangeReset})
}

// Get returns a copy of the named trip.
func (m *Mirror) Get(name string) (domain.Trip, bool) {
	t, ok := m.load(name)
	if !ok {
		return domain.Trip{}, false
	}
	return t.Clone(), true
}

// Has reports whether a trip with that name is present.
func (m *Mirror) Has(name string) bool {
	_, ok := m.trips.Get(name)
	return ok
}

// List returns copies of all trips ordered by creation time, then name.
func (m *Mirror) List() []domain.Trip {
	items := m.trips.Items()
	out := make([]domain.Trip, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(domain.Trip).Clone())
	}
	slices.SortFunc(out, func(a, b domain.Trip) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.Name, b.Name))
	})
	return out
}

// Len returns the number of trips.
func (m *Mirror) Len() int {
	return m.trips.ItemCount()
}

// Put inserts or replaces a trip.
func (m *Mirror) Put(t domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t = t.Clone()
	m.trips.Set(t.Name, t, cache.NoExpiration)
	m.notify(Change{Kind: ChangeCreated, TripName: t.Name, Trip: t.Clone()})
}

// Delete removes a trip. Missing names are ignored.
func (m *Mirror) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips.Get(name); !ok {
		return
	}
	m.trips.Delete(name)
	m.notify(Change{Kind: ChangeDeleted, TripName: name})
}

// AppendMessage appends msg to the named trip's transcript.
func (m *Mirror) AppendMessage(name string, msg domain.Message) error {
	return m.update(name, ChangeMessage, func(t domain.Trip) (domain.Trip, error) {
		return t.AppendMessage(msg), nil
	})
}

// SetItinerary replaces the named trip's itinerary.
func (m *Mirror) SetItinerary(name string, items []domain.ItineraryItem) error {
	return m.update(name, ChangeItinerary, func(t domain.Trip) (domain.Trip, error) {
		t.Itinerary = slices.Clone(items)
		if t.Itinerary == nil {
			t.Itinerary = []domain.ItineraryItem{}
		}
		return t, nil
	})
}

// UpdateItem overwrites the fields of one itinerary item.
func (m *Mirror) UpdateItem(name string, id uuid.UUID, upd domain.ItineraryUpdate) error {
	return m.update(name, ChangeItinerary, func(t domain.Trip) (domain.Trip, error) {
		i := slices.IndexFunc(t.Itinerary, func(it domain.ItineraryItem) bool { return it.ID == id })
		if i < 0 {
			return t, fmt.Errorf("mirror: item %s: %w", id, domain.ErrNotFound)
		}
		t.Itinerary[i] = upd.Apply(t.Itinerary[i])
		return t, nil
	})
}

// RemoveItem deletes one itinerary item.
func (m *Mirror) RemoveItem(name string, id uuid.UUID) error {
	return m.update(name, ChangeItinerary, func(t domain.Trip) (domain.Trip, error) {
		n := len(t.Itinerary)
		t.Itinerary = slices.DeleteFunc(t.Itinerary, func(it domain.ItineraryItem) bool { return it.ID == id })
		if len(t.Itinerary) == n {
			return t, fmt.Errorf("mirror: item %s: %w", id, domain.ErrNotFound)
		}
		return t, nil
	})
}

// update applies fn to a private copy of the trip and stores the result only
// when fn succeeds.
func (m *Mirror) update(name string, kind ChangeKind, fn func(domain.Trip) (domain.Trip, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.load(name)
	if !ok {
		return fmt.Errorf("mirror: trip %q: %w", name, domain.ErrNotFound)
	}
	next, err := fn(cur.Clone())
	if err != nil {
		return err
	}
	m.trips.Set(name, next, cache.NoExpiration)
	m.notify(Change{Kind: kind, TripName: name, Trip: next.Clone()})
	return nil
}

func (m *Mirror) load(name string) (domain.Trip, bool) {
	v, ok := m.trips.Get(name)
	if !ok {
		return domain.Trip{}, false
	}
	return v.(domain.Trip), true
}

// notify must be called with mu held.
func (m *Mirror) notify(c Change) {
	for _, fn := range m.observers {
		fn(c)
	}
}
