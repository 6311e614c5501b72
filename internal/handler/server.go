// Package handler implements the HTTP handlers for the Travel Companion API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, session.go, itinerary.go, export.go) but all share
// the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/travel-companion/internal/domain"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, name string) (domain.Trip, error)
	Get(ctx context.Context, name string) (domain.Trip, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error)
	Messages(ctx context.Context, name string) ([]domain.Message, error)
	Delete(ctx context.Context, name string) error
}

// SessionServicer runs chat turns.
type SessionServicer interface {
	Send(ctx context.Context, tripName, content string) (domain.Turn, error)
	Refresh(ctx context.Context, tripName string) (domain.Turn, error)
	LastTurn(tripName string) (domain.Turn, bool)
}

// ItineraryServicer reads and edits a trip's itinerary.
type ItineraryServicer interface {
	Days(ctx context.Context, tripName string) ([]domain.DayGroup, error)
	UpdateItem(ctx context.Context, tripName string, id uuid.UUID, upd domain.ItineraryUpdate) (domain.ItineraryItem, error)
	DeleteItem(ctx context.Context, tripName string, id uuid.UUID) error
}

// CalendarExporter renders an itinerary as iCalendar.
type CalendarExporter interface {
	Calendar(ctx context.Context, tripName string) ([]byte, error)
}

// Server holds the services behind every endpoint.
// Any service may be nil in tests that do not exercise its routes.
type Server struct {
	trips     TripServicer
	sessions  SessionServicer
	itinerary ItineraryServicer
	export    CalendarExporter
	logger    *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(trips TripServicer, sessions SessionServicer, itinerary ItineraryServicer, export CalendarExporter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{trips: trips, sessions: sessions, itinerary: itinerary, export: export, logger: logger}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil, nil)
}

// Handler returns a chi router serving every API route.
func (s *Server) Handler() http.Handler {
	return s.HandlerFromMux(chi.NewRouter())
}

// HandlerFromMux registers every API route on r and returns it.
func (s *Server) HandlerFromMux(r chi.Router) http.Handler {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Delete("/", s.DeleteTrip)

			r.Get("/messages", s.ListMessages)
			r.Post("/messages", s.SendMessage)
			r.Get("/turn", s.GetLastTurn)

			r.Get("/itinerary", s.GetItinerary)
			r.Get("/itinerary.ics", s.GetItineraryCalendar)
			r.Post("/itinerary/refresh", s.RefreshItinerary)
			r.Put("/itinerary/{itemID}", s.UpdateItineraryItem)
			r.Delete("/itinerary/{itemID}", s.DeleteItineraryItem)
		})
	})
	return r
}
