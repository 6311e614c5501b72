package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/travel-companion/internal/chat"
	"github.com/pkordes/travel-companion/internal/domain"
	"github.com/pkordes/travel-companion/internal/extract"
	"github.com/pkordes/travel-companion/internal/mirror"
	"github.com/pkordes/travel-companion/internal/repo"
)

// DefaultChatTimeout bounds one completion request when no timeout is set.
const DefaultChatTimeout = 60 * time.Second

// Reconciler replaces a trip's itinerary from an assistant reply. It is
// called with the trip's lock held. *ItineraryService satisfies it.
type Reconciler interface {
	Reconcile(ctx context.Context, tripName, reply string) ([]domain.ItineraryItem, error)
}

// SessionConfig holds the optional settings of a SessionService.
type SessionConfig struct {
	Model   string        // chat model; empty means chat.DefaultModel
	Timeout time.Duration // per completion; zero means DefaultChatTimeout
	Logger  *slog.Logger  // nil means slog.Default()
	Locks   *TripLocks    // shared with the other services; nil means private
}

// SessionService drives chat turns end to end. A turn holds its trip's lock
// from start to finish, so at most one turn per trip is in flight and manual
// edits to the trip wait for it.
type SessionService struct {
	messages   repo.MessageRepo
	reconciler Reconciler
	mirror     *mirror.Mirror
	chat       chat.Completer
	model      string
	timeout    time.Duration
	logger     *slog.Logger

	locks *TripLocks

	mu    sync.Mutex
	turns map[string]domain.Turn // latest turn per trip
}

// NewSessionService constructs a SessionService and subscribes it to the
// mirror so turn state is dropped along with deleted trips.
func NewSessionService(messages repo.MessageRepo, r Reconciler, m *mirror.Mirror, c chat.Completer, cfg SessionConfig) *SessionService {
	if cfg.Model == "" {
		cfg.Model = chat.DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultChatTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &SessionService{
		messages:   messages,
		reconciler: r,
		mirror:     m,
		chat:       c,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
		locks:      orNewLocks(cfg.Locks),
		turns:      make(map[string]domain.Turn),
	}
	m.Subscribe(s.onChange)
	return s
}

// Send runs a conversational turn: the user message is appended, the whole
// transcript goes to the chat transport and the reply is appended as a
// system message. On transport failure the user message stays and the turn
// ends Failed with domain.ErrTransport.
func (s *SessionService) Send(ctx context.Context, tripName, content string) (domain.Turn, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Turn{}, fmt.Errorf("service.SessionService.Send: %w: message content is required", domain.ErrValidation)
	}
	release, err := s.acquire(ctx, tripName)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("service.SessionService.Send: %w", err)
	}
	defer release()

	turn := s.begin(tripName, domain.TurnConversation)

	if err := s.appendMessage(ctx, tripName, domain.NewMessage(domain.RoleUser, content)); err != nil {
		return s.fail(turn, fmt.Errorf("service.SessionService.Send: %w", err))
	}

	transcript, err := s.transcript(tripName)
	if err != nil {
		return s.fail(turn, fmt.Errorf("service.SessionService.Send: %w", err))
	}

	turn = s.transition(turn, domain.TurnAwaitingReply)
	reply, err := s.complete(ctx, transcript)
	if err != nil {
		return s.fail(turn, fmt.Errorf("service.SessionService.Send: %w", errors.Join(domain.ErrTransport, err)))
	}
	if !s.current(turn) {
		return s.fail(turn, fmt.Errorf("service.SessionService.Send: reply for %q discarded: %w", tripName, domain.ErrNotFound))
	}

	assistant := domain.NewMessage(domain.RoleSystem, reply)
	if err := s.appendMessage(ctx, tripName, assistant); err != nil {
		return s.fail(turn, fmt.Errorf("service.SessionService.Send: %w", err))
	}
	turn.Reply = &assistant
	return s.transition(turn, domain.TurnApplied), nil
}

// Refresh runs a hidden itinerary-refresh turn: the transcript plus the
// itinerary instruction is sent, nothing is appended to the transcript and
// the reply replaces the trip's itinerary.
func (s *SessionService) Refresh(ctx context.Context, tripName string) (domain.Turn, error) {
	release, err := s.acquire(ctx, tripName)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("service.SessionService.Refresh: %w", err)
	}
	defer release()

	turn := s.begin(tripName, domain.TurnRefresh)

	transcript, err := s.transcript(tripName)
	if err != nil {
		return s.fail(turn, fmt.Errorf("service.SessionService.Refresh: %w", err))
	}
	transcript = append(transcript, chat.Message{Role: string(domain.RoleUser), Content: extract.Instruction(tripName)})

	turn = s.transition(turn, domain.TurnAwaitingReply)
	reply, err := s.complete(ctx, transcript)
	if err != nil {
		return s.fail(turn, fmt.Errorf("service.SessionService.Refresh: %w", errors.Join(domain.ErrTransport, err)))
	}
	if !s.current(turn) {
		return s.fail(turn, fmt.Errorf("service.SessionService.Refresh: reply for %q discarded: %w", tripName, domain.ErrNotFound))
	}

	items, err := s.reconciler.Reconcile(ctx, tripName, reply)
	if err != nil {
		return s.fail(turn, fmt.Errorf("service.SessionService.Refresh: %w", err))
	}
	turn.Items = items
	return s.transition(turn, domain.TurnApplied), nil
}

// LastTurn returns the most recent turn recorded for the trip.
func (s *SessionService) LastTurn(tripName string) (domain.Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.turns[tripName]
	return t, ok
}

// acquire waits for the trip's lock. The trip must exist both before and
// after the wait: a trip deleted, or deleted and recreated under the same
// name, while the caller was queued yields domain.ErrNotFound.
func (s *SessionService) acquire(ctx context.Context, tripName string) (func(), error) {
	before, ok := s.mirror.Get(tripName)
	if !ok {
		return nil, fmt.Errorf("%q: %w", tripName, domain.ErrNotFound)
	}
	release, err := s.locks.Acquire(ctx, tripName)
	if err != nil {
		return nil, err
	}
	after, ok := s.mirror.Get(tripName)
	if !ok || !after.CreatedAt.Equal(before.CreatedAt) {
		release()
		return nil, fmt.Errorf("%q changed while waiting: %w", tripName, domain.ErrNotFound)
	}
	return release, nil
}

// complete sends msgs and waits for the single resolution of the request,
// bounded by the configured timeout. A reply that arrives after the wait has
// given up lands in the buffered channel and is dropped.
func (s *SessionService) complete(ctx context.Context, msgs []chat.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		reply string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		reply, err := s.chat.Complete(ctx, s.model, msgs)
		done <- result{reply: reply, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		if strings.TrimSpace(r.reply) == "" {
			return "", chat.ErrEmptyReply
		}
		return r.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// appendMessage writes msg to the store, then to the mirror.
func (s *SessionService) appendMessage(ctx context.Context, tripName string, msg domain.Message) error {
	if err := s.messages.Append(ctx, tripName, msg); err != nil {
		return err
	}
	return s.mirror.AppendMessage(tripName, msg)
}

func (s *SessionService) transcript(tripName string) ([]chat.Message, error) {
	t, ok := s.mirror.Get(tripName)
	if !ok {
		return nil, fmt.Errorf("%q: %w", tripName, domain.ErrNotFound)
	}
	out := make([]chat.Message, len(t.Messages))
	for i, m := range t.Messages {
		out[i] = chat.Message{Role: string(m.Role), Content: m.Content}
	}
	return out, nil
}

// ---- turn bookkeeping ------------------------------------------------------

func (s *SessionService) begin(tripName string, kind domain.TurnKind) domain.Turn {
	turn := domain.Turn{ID: uuid.New(), TripName: tripName, Kind: kind, State: domain.TurnIdle}
	s.record(turn)
	s.logger.Info("turn started", "trip", tripName, "turn_id", turn.ID, "kind", kind)
	return turn
}

func (s *SessionService) transition(turn domain.Turn, state domain.TurnState) domain.Turn {
	turn.State = state
	s.record(turn)
	s.logger.Info("turn state changed", "trip", turn.TripName, "turn_id", turn.ID, "kind", turn.Kind, "state", state)
	return turn
}

func (s *SessionService) fail(turn domain.Turn, err error) (domain.Turn, error) {
	turn.State = domain.TurnFailed
	turn.Err = err
	s.record(turn)
	s.logger.Warn("turn failed", "trip", turn.TripName, "turn_id", turn.ID, "kind", turn.Kind, "error", err)
	return turn, err
}

// record stores turn as the trip's latest unless the trip has since been
// deleted or a newer turn has replaced it.
func (s *SessionService) record(turn domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.State != domain.TurnIdle {
		if cur, ok := s.turns[turn.TripName]; !ok || cur.ID != turn.ID {
			return
		}
	}
	s.turns[turn.TripName] = turn
}

// current reports whether turn is still the trip's live turn awaiting a
// reply. It is false once the trip has been deleted.
func (s *SessionService) current(turn domain.Turn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.turns[turn.TripName]
	return ok && cur.ID == turn.ID && cur.State == domain.TurnAwaitingReply
}

// onChange drops turn state when the mirror loses a trip. Locks are left to
// TripLocks, which frees an entry once nobody holds or waits for it.
func (s *SessionService) onChange(c mirror.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch c.Kind {
	case mirror.ChangeDeleted:
		delete(s.turns, c.TripName)
	case mirror.ChangeReset:
		clear(s.turns)
	}
}
