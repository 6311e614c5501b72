// Package service contains the business logic for the Travel Companion API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
//
// Every mutation writes the durable store first and applies the same change
// to the in-memory mirror only after the store has committed. Reads are served
// from the mirror.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkordes/travel-companion/internal/domain"
	"github.com/pkordes/travel-companion/internal/mirror"
	"github.com/pkordes/travel-companion/internal/repo"
)

// TripService implements business logic for Trip operations.
type TripService struct {
	repo   repo.TripRepo
	mirror *mirror.Mirror
	locks  *TripLocks
	now    func() time.Time
}

// NewTripService constructs a TripService backed by the provided TripRepo and
// mirror. locks must be the set the other services use; nil means private.
func NewTripService(r repo.TripRepo, m *mirror.Mirror, locks *TripLocks) *TripService {
	return &TripService{repo: r, mirror: m, locks: orNewLocks(locks), now: time.Now}
}

// Load replaces the mirror's contents with every trip in the store. Call it
// once at startup before serving requests.
func (s *TripService) Load(ctx context.Context) (int, error) {
	trips, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("service.TripService.Load: %w", err)
	}
	s.mirror.Reset(trips)
	return len(trips), nil
}

// Create validates the name, rejects duplicates and persists a new trip
// seeded with the welcome message.
func (s *TripService) Create(ctx context.Context, name string) (domain.Trip, error) {
	trip, err := domain.NewTrip(name, s.now())
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	release, err := s.locks.Acquire(ctx, trip.Name)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	defer release()

	if s.mirror.Has(trip.Name) {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %q: %w", trip.Name, domain.ErrDuplicateName)
	}

	created, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	s.mirror.Put(created)
	return created, nil
}

// Get returns a single trip by name.
func (s *TripService) Get(_ context.Context, name string) (domain.Trip, error) {
	t, ok := s.mirror.Get(name)
	if !ok {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %q: %w", name, domain.ErrNotFound)
	}
	return t, nil
}

// List returns one page of trips ordered by creation time and the total count.
func (s *TripService) List(_ context.Context, p domain.PaginationParams) ([]domain.Trip, int, error) {
	page, total := domain.Paginate(s.mirror.List(), p)
	return page, total, nil
}

// Messages returns the trip's transcript, oldest first.
func (s *TripService) Messages(ctx context.Context, name string) ([]domain.Message, error) {
	t, err := s.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Messages: %w", err)
	}
	return t.Messages, nil
}

// Delete removes a trip with its transcript and itinerary. It waits for any
// turn in flight on the trip to finish.
func (s *TripService) Delete(ctx context.Context, name string) error {
	release, err := s.locks.Acquire(ctx, name)
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	defer release()

	err = s.repo.Delete(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	// A trip missing from the store must not linger in the mirror either.
	s.mirror.Delete(name)
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}
