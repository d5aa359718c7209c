package campaigns_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"

	"github.com/meeplenest/meeplenest/internal/entities"
	rerr "github.com/meeplenest/meeplenest/internal/errors"
	"github.com/meeplenest/meeplenest/internal/repositories/campaigns"
	"github.com/meeplenest/meeplenest/internal/repositories/campaigns/mocks"
)

func fixedTimeProvider(t *testing.T) campaigns.TimeProvider {
	t.Helper()
	ctrl := gomock.NewController(t)
	tp := mocks.NewMockTimeProvider(ctrl)
	tp.EXPECT().Now().Return(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)).AnyTimes()
	return tp
}

func seedCampaign(t *testing.T, repo campaigns.Repository, legacyID string) *entities.Campaign {
	t.Helper()
	c := entities.NewCampaign(primitive.NewObjectID(), legacyID, "Shadow over Brine Harbor", "host-1", 4)
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func entry(playerID string) entities.RosterEntry {
	return entities.RosterEntry{PlayerID: playerID, AddedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func TestInMemoryCreateGet(t *testing.T) {
	ctx := context.Background()
	repo := campaigns.NewInMemoryRepository(fixedTimeProvider(t))

	c := seedCampaign(t, repo, "a1b2c3d4e5")

	t.Run("get by id returns the record", func(t *testing.T) {
		got, err := repo.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
		assert.Equal(t, "host-1", got.OwnerID)
	})

	t.Run("get by legacy id returns the record", func(t *testing.T) {
		got, err := repo.GetByLegacyID(ctx, "a1b2c3d4e5")
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		_, err := repo.Get(ctx, primitive.NewObjectID())
		require.Error(t, err)
		assert.True(t, rerr.IsNotFound(err))
	})

	t.Run("duplicate legacy id is rejected", func(t *testing.T) {
		dup := entities.NewCampaign(primitive.NewObjectID(), "a1b2c3d4e5", "Copycat", "host-2", 4)
		err := repo.Create(ctx, dup)
		require.Error(t, err)
		assert.True(t, rerr.IsStore(err))
	})

	t.Run("reads are snapshots", func(t *testing.T) {
		got, err := repo.Get(ctx, c.ID)
		require.NoError(t, err)
		got.Name = "scribbled over"
		got.Pending = append(got.Pending, entry("vandal"))

		fresh, err := repo.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Shadow over Brine Harbor", fresh.Name)
		assert.Empty(t, fresh.Pending)
	})
}

func TestInMemoryApplyTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("pull and push apply together", func(t *testing.T) {
		repo := campaigns.NewInMemoryRepository(fixedTimeProvider(t))
		c := seedCampaign(t, repo, "")

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

	t.Run("removal preserves the order of the rest", func(t *testing.T) {
		repo := campaigns.NewInMemoryRepository(fixedTimeProvider(t))
		c := seedCampaign(t, repo, "")

		for _, p := range []string{"p1", "p2", "p3"} {
			_, err := repo.ApplyTransition(ctx, c.ID, nil,
				[]campaigns.ListInsertion{{List: entities.ListWaitlisted, Entry: entry(p)}})
			require.NoError(t, err)
		}

		updated, err := repo.ApplyTransition(ctx, c.ID,
			[]campaigns.ListRemoval{{List: entities.ListWaitlisted, PlayerID: "p2"}}, nil)
		require.NoError(t, err)
		require.Len(t, updated.Waitlisted, 2)
		assert.Equal(t, "p1", updated.Waitlisted[0].PlayerID)
		assert.Equal(t, "p3", updated.Waitlisted[1].PlayerID)
	})

	t.Run("same list in pull and push is rejected", func(t *testing.T) {
		repo := campaigns.NewInMemoryRepository(fixedTimeProvider(t))
		c := seedCampaign(t, repo, "")

		_, err := repo.ApplyTransition(ctx, c.ID,
			[]campaigns.ListRemoval{{List: entities.ListPending, PlayerID: "p1"}},
			[]campaigns.ListInsertion{{List: entities.ListPending, Entry: entry("p1")}})
		require.Error(t, err)
		assert.Equal(t, rerr.CodeInvalidArgument, rerr.GetCode(err))
	})

	t.Run("unknown list is rejected", func(t *testing.T) {
		repo := campaigns.NewInMemoryRepository(fixedTimeProvider(t))
		c := seedCampaign(t, repo, "")

		_, err := repo.ApplyTransition(ctx, c.ID, nil,
			[]campaigns.ListInsertion{{List: "banished", Entry: entry("p1")}})
		require.Error(t, err)
		assert.Equal(t, rerr.CodeInvalidArgument, rerr.GetCode(err))
	})

	t.Run("unknown campaign leaves nothing behind", func(t *testing.T) {
		repo := campaigns.NewInMemoryRepository(fixedTimeProvider(t))

		_, err := repo.ApplyTransition(ctx, primitive.NewObjectID(), nil,
			[]campaigns.ListInsertion{{List: entities.ListPending, Entry: entry("p1")}})
		require.Error(t, err)
		assert.True(t, rerr.IsNotFound(err))
	})
}

func TestInMemorySetPersona(t *testing.T) {
	ctx := context.Background()

	t.Run("sets and clears in place", func(t *testing.T) {
		repo := campaigns.NewInMemoryRepository(fixedTimeProvider(t))
		c := seedCampaign(t, repo, "")

		_, err := repo.ApplyTransition(ctx, c.ID, nil,
			[]campaigns.ListInsertion{{List: entities.ListConfirmed, Entry: entry("player-a")}})
		require.NoError(t, err)

		updated, err := repo.SetPersona(ctx, c.ID, entities.ListConfirmed, "player-a",
			&entities.Persona{CharacterID: "char-1", Name: "Grimble"})
		require.NoError(t, err)
		require.NotNil(t, updated.Confirmed[0].Persona)
		assert.Equal(t, "Grimble", updated.Confirmed[0].Persona.Name)

		updated, err = repo.SetPersona(ctx, c.ID, entities.ListConfirmed, "player-a", nil)
		require.NoError(t, err)
		assert.Nil(t, updated.Confirmed[0].Persona)
	})

	t.Run("player missing from the list is not found", func(t *testing.T) {
		repo := campaigns.NewInMemoryRepository(fixedTimeProvider(t))
		c := seedCampaign(t, repo, "")

		_, err := repo.SetPersona(ctx, c.ID, entities.ListPending, "ghost",
			&entities.Persona{CharacterID: "char-1"})
		require.Error(t, err)
		assert.True(t, rerr.IsNotFound(err))
	})
}

func TestInMemoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := campaigns.NewInMemoryRepository(fixedTimeProvider(t))
	c := seedCampaign(t, repo, "legacy-del")

	require.NoError(t, repo.Delete(ctx, c.ID))

	_, err := repo.Get(ctx, c.ID)
	assert.True(t, rerr.IsNotFound(err))

	// The legacy index entry goes with it.
	_, err = repo.GetByLegacyID(ctx, "legacy-del")
	assert.True(t, rerr.IsNotFound(err))
}

func TestInMemoryListByPlayer(t *testing.T) {
	ctx := context.Background()
	repo := campaigns.NewInMemoryRepository(fixedTimeProvider(t))

	c1 := seedCampaign(t, repo, "")
	seedCampaign(t, repo, "")

	_, err := repo.ApplyTransition(ctx, c1.ID, nil,
		[]campaigns.ListInsertion{{List: entities.ListWaitlisted, Entry: entry("player-a")}})
	require.NoError(t, err)

	result, err := repo.ListByPlayer(ctx, "player-a")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, c1.ID, result[0].ID)

	owned, err := repo.ListByOwner(ctx, "host-1")
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}
