package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-companion/internal/domain"
	"github.com/pkordes/travel-companion/testutil"
)

var july21 = time.Date(2022, 7, 21, 21, 0, 0, 0, time.UTC)

func createTrip(t *testing.T, r testutil.Repos) domain.Trip {
	t.Helper()
	trip, err := r.Trips.Create(context.Background(), testutil.TripFixture(t))
	require.NoError(t, err)
	return trip
}

func ids(items []domain.ItineraryItem) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestItineraryRepo_AddAndList(t *testing.T) {
	r := testutil.NewRepos(t)
	ctx := context.Background()
	trip := createTrip(t, r)

	late := itemFixture("Dinner", july21)
	early := itemFixture("Breakfast", july21.Add(-12*time.Hour))
	require.NoError(t, r.Itinerary.Add(ctx, trip.Name, late))
	require.NoError(t, r.Itinerary.Add(ctx, trip.Name, early))

	got, err := r.Itinerary.ListByTrip(ctx, trip.Name)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{early.ID, late.ID}, ids(got))
	assert.True(t, got[1].StartTime.Equal(late.StartTime))
	assert.True(t, got[1].EndTime.Equal(late.EndTime))
}

func TestItineraryRepo_Add_UnknownTrip(t *testing.T) {
	r := testutil.NewRepos(t)

	err := r.Itinerary.Add(context.Background(), "never created", itemFixture("Dinner", july21))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItineraryRepo_Clear(t *testing.T) {
	r := testutil.NewRepos(t)
	ctx := context.Background()
	trip := createTrip(t, r)
	require.NoError(t, r.Itinerary.Add(ctx, trip.Name, itemFixture("A", july21)))
	require.NoError(t, r.Itinerary.Add(ctx, trip.Name, itemFixture("B", july21)))

	n, err := r.Itinerary.Clear(ctx, trip.Name)

	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	got, err := r.Itinerary.ListByTrip(ctx, trip.Name)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestItineraryRepo_Replace verifies full-replace semantics: none of the old
// items survive and exactly the new set is stored.
func TestItineraryRepo_Replace(t *testing.T) {
	r := testutil.NewRepos(t)
	ctx := context.Background()
	trip := createTrip(t, r)
	old := itemFixture("Old", july21)
	require.NoError(t, r.Itinerary.Add(ctx, trip.Name, old))

	fresh := []domain.ItineraryItem{itemFixture("New A", july21), itemFixture("New B", july21.Add(time.Hour))}
	require.NoError(t, r.Itinerary.Replace(ctx, trip.Name, fresh))

	got, err := r.Itinerary.ListByTrip(ctx, trip.Name)
	require.NoError(t, err)
	assert.Equal(t, ids(fresh), ids(got))
	assert.NotContains(t, ids(got), old.ID)
}

// TestItineraryRepo_Replace_FailureKeepsPrevious verifies that a failed insert
// rolls back the clear.
func TestItineraryRepo_Replace_FailureKeepsPrevious(t *testing.T) {
	r := testutil.NewRepos(t)
	ctx := context.Background()
	trip := createTrip(t, r)
	old := itemFixture("Old", july21)
	require.NoError(t, r.Itinerary.Add(ctx, trip.Name, old))

	dup := itemFixture("Dup", july21)
	err := r.Itinerary.Replace(ctx, trip.Name, []domain.ItineraryItem{dup, dup}) // primary key clash

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateName, "an item id clash is not a trip name clash")
	got, err := r.Itinerary.ListByTrip(ctx, trip.Name)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{old.ID}, ids(got))
}

func TestItineraryRepo_Replace_UnknownTrip(t *testing.T) {
	r := testutil.NewRepos(t)

	err := r.Itinerary.Replace(context.Background(), "never created", nil)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItineraryRepo_Update(t *testing.T) {
	r := testutil.NewRepos(t)
	ctx := context.Background()
	trip := createTrip(t, r)
	it := itemFixture("Dinner", july21)
	require.NoError(t, r.Itinerary.Add(ctx, trip.Name, it))

	upd := domain.ItineraryUpdate{LocationName: "Eagle", Activity: "Late dinner", StartTime: july21.Add(time.Hour), EndTime: july21.Add(3 * time.Hour)}
	got, err := r.Itinerary.Update(ctx, trip.Name, it.ID, upd)

	require.NoError(t, err)
	assert.Equal(t, it.ID, got.ID)
	assert.Equal(t, "Eagle", got.LocationName)
	assert.Equal(t, "Late dinner", got.Activity)
	assert.True(t, got.StartTime.Equal(upd.StartTime))
}

// TestItineraryRepo_Update_WrongTrip verifies that item ids are scoped to
// their owning trip.
func TestItineraryRepo_Update_WrongTrip(t *testing.T) {
	r := testutil.NewRepos(t)
	ctx := context.Background()
	owner, other := createTrip(t, r), createTrip(t, r)
	it := itemFixture("Dinner", july21)
	require.NoError(t, r.Itinerary.Add(ctx, owner.Name, it))

	_, err := r.Itinerary.Update(ctx, other.Name, it.ID, domain.ItineraryUpdate{Activity: "x", StartTime: july21, EndTime: july21})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = r.Itinerary.Delete(ctx, other.Name, it.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItineraryRepo_Delete(t *testing.T) {
	r := testutil.NewRepos(t)
	ctx := context.Background()
	trip := createTrip(t, r)
	it := itemFixture("Dinner", july21)
	require.NoError(t, r.Itinerary.Add(ctx, trip.Name, it))

	require.NoError(t, r.Itinerary.Delete(ctx, trip.Name, it.ID))

	got, err := r.Itinerary.ListByTrip(ctx, trip.Name)
	require.NoError(t, err)
	assert.Empty(t, got)
}
