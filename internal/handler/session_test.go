package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-companion/internal/domain"
	"github.com/pkordes/travel-companion/internal/handler"
)

// mockSessionServicer is a test double for handler.SessionServicer.
type mockSessionServicer struct {
	send     func(ctx context.Context, tripName, content string) (domain.Turn, error)
	refresh  func(ctx context.Context, tripName string) (domain.Turn, error)
	lastTurn func(tripName string) (domain.Turn, bool)
}

func (m *mockSessionServicer) Send(ctx context.Context, tripName, content string) (domain.Turn, error) {
	return m.send(ctx, tripName, content)
}
func (m *mockSessionServicer) Refresh(ctx context.Context, tripName string) (domain.Turn, error) {
	return m.refresh(ctx, tripName)
}
func (m *mockSessionServicer) LastTurn(tripName string) (domain.Turn, bool) {
	return m.lastTurn(tripName)
}

// compile-time check: mockSessionServicer must satisfy handler.SessionServicer.
var _ handler.SessionServicer = (*mockSessionServicer)(nil)

func newSessionHTTPHandler(svc handler.SessionServicer) http.Handler {
	return handler.NewServer(nil, svc, nil, nil, nil).Handler()
}

// ---- POST /trips/{name}/messages -------------------------------------------

func TestSendMessage_200(t *testing.T) {
	var gotTrip, gotContent string
	reply := domain.NewMessage(domain.RoleSystem, "Sounds fun!")
	svc := &mockSessionServicer{
		send: func(_ context.Context, tripName, content string) (domain.Turn, error) {
			gotTrip, gotContent = tripName, content
			return domain.Turn{
				ID: uuid.New(), TripName: tripName, Kind: domain.TurnConversation,
				State: domain.TurnApplied, Reply: &reply,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trips/Boise/messages", jsonBody(t, map[string]any{"content": "Dinner Friday"}))
	rec := httptest.NewRecorder()

	newSessionHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Boise", gotTrip)
	assert.Equal(t, "Dinner Friday", gotContent)

	var resp domain.Turn
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.TurnApplied, resp.State)
	require.NotNil(t, resp.Reply)
	assert.Equal(t, reply, *resp.Reply)
}

func TestSendMessage_502_Transport(t *testing.T) {
	svc := &mockSessionServicer{
		send: func(_ context.Context, _, _ string) (domain.Turn, error) {
			return domain.Turn{State: domain.TurnFailed}, fmt.Errorf("service.SessionService.Send: %w",
				errors.Join(domain.ErrTransport, context.DeadlineExceeded))
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trips/Boise/messages", jsonBody(t, map[string]any{"content": "hi"}))
	rec := httptest.NewRecorder()

	newSessionHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "transport_error", decodeError(t, rec).Error.Code)
}

func TestSendMessage_422_Empty(t *testing.T) {
	svc := &mockSessionServicer{
		send: func(_ context.Context, _, _ string) (domain.Turn, error) {
			return domain.Turn{}, fmt.Errorf("service.SessionService.Send: %w: message content is required", domain.ErrValidation)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trips/Boise/messages", jsonBody(t, map[string]any{"content": ""}))
	rec := httptest.NewRecorder()

	newSessionHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "message content is required", decodeError(t, rec).Error.Message)
}

func TestSendMessage_404(t *testing.T) {
	svc := &mockSessionServicer{
		send: func(_ context.Context, _, _ string) (domain.Turn, error) {
			return domain.Turn{}, domain.ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trips/nowhere/messages", jsonBody(t, map[string]any{"content": "hi"}))
	rec := httptest.NewRecorder()

	newSessionHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- POST /trips/{name}/itinerary/refresh ----------------------------------

func TestRefreshItinerary_200(t *testing.T) {
	items := []domain.ItineraryItem{{ID: uuid.New(), Activity: "Dinner", LocationName: "Boise"}}
	svc := &mockSessionServicer{
		refresh: func(_ context.Context, tripName string) (domain.Turn, error) {
			return domain.Turn{ID: uuid.New(), TripName: tripName, Kind: domain.TurnRefresh, State: domain.TurnApplied, Items: items}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trips/Boise/itinerary/refresh", nil)
	rec := httptest.NewRecorder()

	newSessionHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.Turn
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.TurnRefresh, resp.Kind)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Dinner", resp.Items[0].Activity)
}

func TestRefreshItinerary_500_Persistence(t *testing.T) {
	svc := &mockSessionServicer{
		refresh: func(_ context.Context, _ string) (domain.Turn, error) {
			return domain.Turn{State: domain.TurnFailed}, errors.Join(domain.ErrPersistence, errors.New("disk full"))
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trips/Boise/itinerary/refresh", nil)
	rec := httptest.NewRecorder()

	newSessionHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "persistence_error", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "disk")
}

// ---- GET /trips/{name}/turn ------------------------------------------------

func TestGetLastTurn(t *testing.T) {
	turn := domain.Turn{ID: uuid.New(), TripName: "Boise", Kind: domain.TurnConversation, State: domain.TurnAwaitingReply}
	svc := &mockSessionServicer{
		lastTurn: func(tripName string) (domain.Turn, bool) {
			if tripName == "Boise" {
				return turn, true
			}
			return domain.Turn{}, false
		},
	}
	h := newSessionHTTPHandler(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/Boise/turn", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.Turn
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, turn.ID, resp.ID)
	assert.Equal(t, domain.TurnAwaitingReply, resp.State)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips/Eagle/turn", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
