package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/travel-companion/internal/domain"
	"github.com/pkordes/travel-companion/internal/mirror"
	"github.com/pkordes/travel-companion/internal/repo"
)

// Extractor turns an assistant reply into itinerary items.
// *extract.Extractor satisfies it.
type Extractor interface {
	Extract(text string) []domain.ItineraryItem
}

// ItineraryService reconciles assistant replies into a trip's itinerary and
// handles manual item edits.
type ItineraryService struct {
	repo      repo.ItineraryRepo
	mirror    *mirror.Mirror
	extractor Extractor
	locks     *TripLocks
	loc       *time.Location
}

// NewItineraryService constructs an ItineraryService. locks must be the set
// the SessionService uses (nil means private). loc is the zone used for the
// day projection; nil means time.Local.
func NewItineraryService(r repo.ItineraryRepo, m *mirror.Mirror, x Extractor, locks *TripLocks, loc *time.Location) *ItineraryService {
	if loc == nil {
		loc = time.Local
	}
	return &ItineraryService{repo: r, mirror: m, extractor: x, locks: orNewLocks(locks), loc: loc}
}

// Reconcile replaces the trip's itinerary with the records found in reply.
// This is a full replace: items not present in reply are dropped. The store
// write is transactional, so on failure both the store and the mirror keep
// the previous itinerary and the error matches domain.ErrPersistence.
//
// The caller must hold the trip's lock; SessionService.Refresh does.
func (s *ItineraryService) Reconcile(ctx context.Context, tripName, reply string) ([]domain.ItineraryItem, error) {
	if !s.mirror.Has(tripName) {
		return nil, fmt.Errorf("service.ItineraryService.Reconcile: %q: %w", tripName, domain.ErrNotFound)
	}

	items := s.extractor.Extract(reply)

	if err := s.repo.Replace(ctx, tripName, items); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("service.ItineraryService.Reconcile: %w", err)
		}
		return nil, fmt.Errorf("service.ItineraryService.Reconcile: %w", errors.Join(domain.ErrPersistence, err))
	}
	if err := s.mirror.SetItinerary(tripName, items); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.Reconcile: %w", err)
	}
	return items, nil
}

// List returns the trip's items ordered by start time.
func (s *ItineraryService) List(_ context.Context, tripName string) ([]domain.ItineraryItem, error) {
	t, ok := s.mirror.Get(tripName)
	if !ok {
		return nil, fmt.Errorf("service.ItineraryService.List: %q: %w", tripName, domain.ErrNotFound)
	}
	days := domain.GroupByDay(t.Itinerary, s.loc)
	out := make([]domain.ItineraryItem, 0, len(t.Itinerary))
	for _, d := range days {
		out = append(out, d.Items...)
	}
	return out, nil
}

// Days returns the trip's items grouped by calendar day.
func (s *ItineraryService) Days(_ context.Context, tripName string) ([]domain.DayGroup, error) {
	t, ok := s.mirror.Get(tripName)
	if !ok {
		return nil, fmt.Errorf("service.ItineraryService.Days: %q: %w", tripName, domain.ErrNotFound)
	}
	return domain.GroupByDay(t.Itinerary, s.loc), nil
}

// UpdateItem validates and overwrites one item. The mirror receives the item
// as the store returned it, so both hold the same stored precision.
func (s *ItineraryService) UpdateItem(ctx context.Context, tripName string, id uuid.UUID, upd domain.ItineraryUpdate) (domain.ItineraryItem, error) {
	if err := upd.Validate(); err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.UpdateItem: %w", err)
	}
	release, err := s.locks.Acquire(ctx, tripName)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.UpdateItem: %w", err)
	}
	defer release()

	it, err := s.repo.Update(ctx, tripName, id, upd)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.UpdateItem: %w", err)
	}
	stored := domain.ItineraryUpdate{
		LocationName: it.LocationName,
		Activity:     it.Activity,
		StartTime:    it.StartTime,
		EndTime:      it.EndTime,
	}
	if err := s.mirror.UpdateItem(tripName, id, stored); err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.UpdateItem: %w", err)
	}
	return it, nil
}

// DeleteItem removes one item.
func (s *ItineraryService) DeleteItem(ctx context.Context, tripName string, id uuid.UUID) error {
	release, err := s.locks.Acquire(ctx, tripName)
	if err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteItem: %w", err)
	}
	defer release()

	if err := s.repo.Delete(ctx, tripName, id); err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteItem: %w", err)
	}
	if err := s.mirror.RemoveItem(tripName, id); err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteItem: %w", err)
	}
	return nil
}
