package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-companion/internal/domain"
	"github.com/pkordes/travel-companion/testutil"
)

func TestMessageRepo_Append_PreservesOrder(t *testing.T) {
	r := testutil.NewRepos(t)
	ctx := context.Background()

	trip := testutil.TripFixture(t)
	_, err := r.Trips.Create(ctx, trip)
	require.NoError(t, err)

	sent := []domain.Message{
		domain.NewMessage(domain.RoleUser, "first"),
		domain.NewMessage(domain.RoleSystem, "second"),
		domain.NewMessage(domain.RoleUser, "third"),
	}
	for _, m := range sent {
		require.NoError(t, r.Messages.Append(ctx, trip.Name, m))
	}

	got, err := r.Messages.ListByTrip(ctx, trip.Name)

	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, domain.WelcomeMessage, got[0].Content)
	assert.Equal(t, sent, got[1:])
}

func TestMessageRepo_Append_UnknownTrip(t *testing.T) {
	r := testutil.NewRepos(t)

	err := r.Messages.Append(context.Background(), "never created", domain.NewMessage(domain.RoleUser, "hi"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMessageRepo_Append_DuplicateIDIsNotDuplicateName(t *testing.T) {
	r := testutil.NewRepos(t)
	ctx := context.Background()
	trip := testutil.TripFixture(t)
	_, err := r.Trips.Create(ctx, trip)
	require.NoError(t, err)

	// The welcome message is already stored under this id.
	err = r.Messages.Append(ctx, trip.Name, trip.Messages[0])

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateName)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
