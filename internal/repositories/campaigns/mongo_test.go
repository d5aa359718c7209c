package campaigns_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meeplenest/meeplenest/internal/entities"
	rerr "github.com/meeplenest/meeplenest/internal/errors"
	"github.com/meeplenest/meeplenest/internal/repositories/campaigns"
	"github.com/meeplenest/meeplenest/internal/testutils"
)

// newMongoRepo connects to a local Mongo instance, skipping when none is
// reachable.
func newMongoRepo(t *testing.T) campaigns.Repository {
	t.Helper()
	db := testutils.CreateTestMongoDatabase(t, nil)
	repo := campaigns.NewMongoRepository(&campaigns.MongoRepoConfig{
		Client:       db.Client(),
		Database:     db.Name(),
		TimeProvider: fixedTimeProvider(t),
	})
	require.NoError(t, repo.EnsureIndexes(context.Background()))
	return repo
}

func TestMongoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMongoRepo(t)

	c := entities.NewCampaign(primitive.NewObjectID(), "Xk92baTTq1", "Keep on the Saltmarsh", "host-1", 3)
	require.NoError(t, repo.Create(ctx, c))

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Keep on the Saltmarsh", got.Name)
		assert.Equal(t, 3, got.Capacity)
	})

	t.Run("get by legacy id", func(t *testing.T) {
		got, err := repo.GetByLegacyID(ctx, "Xk92baTTq1")
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		_, err := repo.Get(ctx, primitive.NewObjectID())
		require.Error(t, err)
		assert.True(t, rerr.IsNotFound(err))
	})

	t.Run("duplicate legacy id is rejected by the unique index", func(t *testing.T) {
		dup := entities.NewCampaign(primitive.NewObjectID(), "Xk92baTTq1", "Copycat", "host-2", 3)
		err := repo.Create(ctx, dup)
		require.Error(t, err)
		assert.True(t, rerr.IsStore(err))
	})

	t.Run("update touches metadata only", func(t *testing.T) {
		_, err := repo.ApplyTransition(ctx, c.ID, nil,
			[]campaigns.ListInsertion{{List: entities.ListPending, Entry: entry("player-a")}})
		require.NoError(t, err)

		edited := c.Clone()
		edited.Name = "Keep on the Saltmarsh, Revised"
		edited.Capacity = 5
		require.NoError(t, repo.Update(ctx, edited))

		got, err := repo.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Keep on the Saltmarsh, Revised", got.Name)
		assert.Equal(t, 5, got.Capacity)
		require.Len(t, got.Pending, 1)
		assert.Equal(t, "player-a", got.Pending[0].PlayerID)
	})
}

func TestMongoApplyTransition(t *testing.T) {
	ctx := context.Background()
	repo := newMongoRepo(t)

	c := entities.NewCampaign(primitive.NewObjectID(), "", "Tower of Glass", "host-1", 3)
	require.NoError(t, repo.Create(ctx, c))

	t.Run("moves a player between lists in one update", func(t *testing.T) {
		_, err := repo.ApplyTransition(ctx, c.ID, nil,
			[]campaigns.ListInsertion{{List: entities.ListPending, Entry: entry("player-a")}})
		require.NoError(t, err)

		updated, err := repo.ApplyTransition(ctx, c.ID,
			[]campaigns.ListRemoval{{List: entities.ListPending, PlayerID: "player-a"}},
			[]campaigns.ListInsertion{{List: entities.ListConfirmed, Entry: entry("player-a")}})
		require.NoError(t, err)
		assert.Empty(t, updated.Pending)
		require.Len(t, updated.Confirmed, 1)
		assert.Equal(t, "player-a", updated.Confirmed[0].PlayerID)
	})

	t.Run("returns the post-update document", func(t *testing.T) {
		updated, err := repo.ApplyTransition(ctx, c.ID, nil,
			[]campaigns.ListInsertion{{List: entities.ListWaitlisted, Entry: entry("player-b")}})
		require.NoError(t, err)
		require.Len(t, updated.Waitlisted, 1)
	})

	t.Run("unknown campaign is not found", func(t *testing.T) {
		_, err := repo.ApplyTransition(ctx, primitive.NewObjectID(), nil,
			[]campaigns.ListInsertion{{List: entities.ListPending, Entry: entry("player-z")}})
		require.Error(t, err)
		assert.True(t, rerr.IsNotFound(err))
	})

	t.Run("same list in pull and push is rejected", func(t *testing.T) {
		_, err := repo.ApplyTransition(ctx, c.ID,
			[]campaigns.ListRemoval{{List: entities.ListPending, PlayerID: "player-a"}},
			[]campaigns.ListInsertion{{List: entities.ListPending, Entry: entry("player-a")}})
		require.Error(t, err)
		assert.Equal(t, rerr.CodeInvalidArgument, rerr.GetCode(err))
	})
}

func TestMongoSetPersona(t *testing.T) {
	ctx := context.Background()
	repo := newMongoRepo(t)

	c := entities.NewCampaign(primitive.NewObjectID(), "", "Beneath the Gearworks", "host-1", 3)
	require.NoError(t, repo.Create(ctx, c))

	_, err := repo.ApplyTransition(ctx, c.ID, nil,
		[]campaigns.ListInsertion{{List: entities.ListConfirmed, Entry: entry("player-a")}})
	require.NoError(t, err)

	t.Run("sets the persona on the matched entry", func(t *testing.T) {
		updated, err := repo.SetPersona(ctx, c.ID, entities.ListConfirmed, "player-a",
			&entities.Persona{CharacterID: "char-7", Name: "Quill"})
		require.NoError(t, err)
		require.Len(t, updated.Confirmed, 1)
		require.NotNil(t, updated.Confirmed[0].Persona)
		assert.Equal(t, "char-7", updated.Confirmed[0].Persona.CharacterID)
	})

	t.Run("clears the persona with nil", func(t *testing.T) {
		updated, err := repo.SetPersona(ctx, c.ID, entities.ListConfirmed, "player-a", nil)
		require.NoError(t, err)
		assert.Nil(t, updated.Confirmed[0].Persona)
	})

	t.Run("player missing from the list is not found", func(t *testing.T) {
		_, err := repo.SetPersona(ctx, c.ID, entities.ListPending, "player-a",
			&entities.Persona{CharacterID: "char-7"})
		require.Error(t, err)
		assert.True(t, rerr.IsNotFound(err))
	})
}

func TestMongoListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newMongoRepo(t)

	c1 := entities.NewCampaign(primitive.NewObjectID(), "", "First Table", "host-1", 4)
	c2 := entities.NewCampaign(primitive.NewObjectID(), "", "Second Table", "host-1", 4)
	require.NoError(t, repo.Create(ctx, c1))
	require.NoError(t, repo.Create(ctx, c2))

	_, err := repo.ApplyTransition(ctx, c2.ID, nil,
		[]campaigns.ListInsertion{{List: entities.ListPending, Entry: entry("player-a")}})
	require.NoError(t, err)

	t.Run("list by owner", func(t *testing.T) {
		owned, err := repo.ListByOwner(ctx, "host-1")
		require.NoError(t, err)
		assert.Len(t, owned, 2)
	})

	t.Run("list by player matches any list", func(t *testing.T) {
		result, err := repo.ListByPlayer(ctx, "player-a")
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, c2.ID, result[0].ID)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, c1.ID))
		_, err := repo.Get(ctx, c1.ID)
		assert.True(t, rerr.IsNotFound(err))
	})
}
