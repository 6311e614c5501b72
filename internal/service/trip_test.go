package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-companion/internal/domain"
	"github.com/pkordes/travel-companion/internal/mirror"
	"github.com/pkordes/travel-companion/internal/repo"
	"github.com/pkordes/travel-companion/internal/service"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones your test needs.
type mockTripRepo struct {
	create    func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByName func(ctx context.Context, name string) (domain.Trip, error)
	list      func(ctx context.Context) ([]domain.Trip, error)
	delete    func(ctx context.Context, name string) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByName(ctx context.Context, name string) (domain.Trip, error) {
	return m.getByName(ctx, name)
}
func (m *mockTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	return m.list(ctx)
}
func (m *mockTripRepo) Delete(ctx context.Context, name string) error {
	return m.delete(ctx, name)
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

// ---- helpers ---------------------------------------------------------------

func echoTripRepo() *mockTripRepo {
	return &mockTripRepo{
		create: func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil },
		delete: func(_ context.Context, _ string) error { return nil },
	}
}

// seededMirror returns a mirror holding trips with the given names, created
// one minute apart in argument order.
func seededMirror(t *testing.T, names ...string) *mirror.Mirror {
	t.Helper()
	m := mirror.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var trips []domain.Trip
	for i, n := range names {
		trip, err := domain.NewTrip(n, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		trips = append(trips, trip)
	}
	m.Reset(trips)
	return m
}

// ---- Create tests ----------------------------------------------------------

func TestTripService_Create_Valid(t *testing.T) {
	m := mirror.New()
	svc := service.NewTripService(echoTripRepo(), m, nil)

	got, err := svc.Create(context.Background(), "Boise")

	require.NoError(t, err)
	assert.Equal(t, "Boise", got.Name)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, domain.RoleSystem, got.Messages[0].Role)

	cached, ok := m.Get("Boise")
	require.True(t, ok, "created trip should be in the mirror")
	assert.Equal(t, got, cached)
}

func TestTripService_Create_BlankName(t *testing.T) {
	called := false
	r := &mockTripRepo{create: func(_ context.Context, t domain.Trip) (domain.Trip, error) {
		called = true
		return t, nil
	}}
	svc := service.NewTripService(r, mirror.New(), nil)

	_, err := svc.Create(context.Background(), "   ")

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, called, "repo must not be called for invalid input")
}

func TestTripService_Create_DuplicateInMirror(t *testing.T) {
	called := false
	r := &mockTripRepo{create: func(_ context.Context, t domain.Trip) (domain.Trip, error) {
		called = true
		return t, nil
	}}
	m := seededMirror(t, "Boise")
	svc := service.NewTripService(r, m, nil)

	_, err := svc.Create(context.Background(), "Boise")

	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	assert.False(t, called)
	got, _ := m.Get("Boise")
	assert.Len(t, got.Messages, 1, "existing trip must not be overwritten")
}

func TestTripService_Create_DuplicateInStore(t *testing.T) {
	r := &mockTripRepo{create: func(_ context.Context, _ domain.Trip) (domain.Trip, error) {
		return domain.Trip{}, fmt.Errorf("repo: %w", domain.ErrDuplicateName)
	}}
	m := mirror.New()
	svc := service.NewTripService(r, m, nil)

	_, err := svc.Create(context.Background(), "Boise")

	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	assert.False(t, m.Has("Boise"))
}

func TestTripService_Create_RepoError(t *testing.T) {
	repoErr := errors.New("db exploded")
	r := &mockTripRepo{create: func(_ context.Context, _ domain.Trip) (domain.Trip, error) {
		return domain.Trip{}, repoErr
	}}
	m := mirror.New()
	svc := service.NewTripService(r, m, nil)

	_, err := svc.Create(context.Background(), "Boise")

	assert.ErrorIs(t, err, repoErr)
	assert.Zero(t, m.Len(), "mirror is only updated after the store commits")
}

// ---- Load / Get / List tests -----------------------------------------------

func TestTripService_Load(t *testing.T) {
	a, err := domain.NewTrip("A", time.Now())
	require.NoError(t, err)
	b, err := domain.NewTrip("B", time.Now())
	require.NoError(t, err)
	r := &mockTripRepo{list: func(_ context.Context) ([]domain.Trip, error) {
		return []domain.Trip{a, b}, nil
	}}
	m := seededMirror(t, "stale")
	svc := service.NewTripService(r, m, nil)

	n, err := svc.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, m.Has("A"))
	assert.True(t, m.Has("B"))
	assert.False(t, m.Has("stale"), "load replaces the whole mirror")
}

func TestTripService_Load_RepoError(t *testing.T) {
	repoErr := errors.New("db exploded")
	r := &mockTripRepo{list: func(_ context.Context) ([]domain.Trip, error) { return nil, repoErr }}
	m := seededMirror(t, "kept")
	svc := service.NewTripService(r, m, nil)

	_, err := svc.Load(context.Background())

	assert.ErrorIs(t, err, repoErr)
	assert.True(t, m.Has("kept"))
}

func TestTripService_Get(t *testing.T) {
	svc := service.NewTripService(&mockTripRepo{}, seededMirror(t, "Boise"), nil)

	got, err := svc.Get(context.Background(), "Boise")

	require.NoError(t, err)
	assert.Equal(t, "Boise", got.Name)
}

func TestTripService_Get_NotFound(t *testing.T) {
	svc := service.NewTripService(&mockTripRepo{}, mirror.New(), nil)

	_, err := svc.Get(context.Background(), "nowhere")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_List_Paginates(t *testing.T) {
	svc := service.NewTripService(&mockTripRepo{}, seededMirror(t, "A", "B", "C"), nil)
	page, limit := 2, 2

	got, total, err := svc.List(context.Background(), domain.NewPaginationParams(&page, &limit))

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 1)
	assert.Equal(t, "C", got[0].Name)
}

func TestTripService_List_Empty(t *testing.T) {
	svc := service.NewTripService(&mockTripRepo{}, mirror.New(), nil)

	got, total, err := svc.List(context.Background(), domain.NewPaginationParams(nil, nil))

	require.NoError(t, err)
	// Should return an empty slice, not nil; callers can safely range over it.
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, total)
}

func TestTripService_Messages(t *testing.T) {
	svc := service.NewTripService(&mockTripRepo{}, seededMirror(t, "Boise"), nil)

	got, err := svc.Messages(context.Background(), "Boise")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.WelcomeMessage, got[0].Content)
}

// ---- Delete tests ----------------------------------------------------------

func TestTripService_Delete(t *testing.T) {
	m := seededMirror(t, "Boise")
	svc := service.NewTripService(echoTripRepo(), m, nil)

	err := svc.Delete(context.Background(), "Boise")

	require.NoError(t, err)
	assert.False(t, m.Has("Boise"))
}

func TestTripService_Delete_NotInStore(t *testing.T) {
	r := &mockTripRepo{delete: func(_ context.Context, _ string) error {
		return fmt.Errorf("repo: %w", domain.ErrNotFound)
	}}
	m := seededMirror(t, "Boise")
	svc := service.NewTripService(r, m, nil)

	err := svc.Delete(context.Background(), "Boise")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, m.Has("Boise"), "mirror must follow the store")
}

func TestTripService_Delete_RepoError(t *testing.T) {
	repoErr := errors.New("db exploded")
	r := &mockTripRepo{delete: func(_ context.Context, _ string) error { return repoErr }}
	m := seededMirror(t, "Boise")
	svc := service.NewTripService(r, m, nil)

	err := svc.Delete(context.Background(), "Boise")

	assert.ErrorIs(t, err, repoErr)
	assert.True(t, m.Has("Boise"))
}
