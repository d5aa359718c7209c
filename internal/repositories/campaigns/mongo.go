package campaigns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/meeplenest/meeplenest/internal/entities"
	rerr "github.com/meeplenest/meeplenest/internal/errors"
)

const collectionName = "campaigns"

// MongoRepoConfig holds configuration for the Mongo repository.
type MongoRepoConfig struct {
	Client       *mongo.Client
	Database     string       // Required
	TimeProvider TimeProvider // Optional, defaults to UTC wall clock
}

// mongoRepository implements Repository against a campaign collection.
// Roster moves ride on a single FindOneAndUpdate combining $pull and
// $push, which Mongo applies atomically per document, so no concurrent
// reader ever observes a player in zero or two lists.
type mongoRepository struct {
	collection   *mongo.Collection
	timeProvider TimeProvider
}

// NewMongoRepository creates a Mongo-backed campaign repository.
func NewMongoRepository(cfg *MongoRepoConfig) Repository {
	if cfg.Client == nil {
		panic("mongo client is required")
	}
	if cfg.Database == "" {
		panic("database name is required")
	}

	tp := cfg.TimeProvider
	if tp == nil {
		tp = UTCTimeProvider{}
	}

	return &mongoRepository{
		collection:   cfg.Client.Database(cfg.Database).Collection(collectionName),
		timeProvider: tp,
	}
}

// EnsureIndexes creates the legacy-id and owner indexes.
func (r *mongoRepository) EnsureIndexes(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "legacyId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		})
		return err
	})
	g.Go(func() error {
		_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "ownerId", Value: 1}},
		})
		return err
	})

	if err := g.Wait(); err != nil {
		return rerr.WrapWithCode(err, rerr.CodeStore, "failed to create campaign indexes")
	}
	return nil
}

func (r *mongoRepository) Create(ctx context.Context, campaign *entities.Campaign) error {
	if campaign == nil {
		return rerr.InvalidArgument("campaign cannot be nil")
	}
	if campaign.ID.IsZero() {
		return rerr.InvalidArgument("campaign ID cannot be zero")
	}

	if _, err := r.collection.InsertOne(ctx, campaign); err != nil {
		return rerr.WrapWithCode(err, rerr.CodeStore,
			fmt.Sprintf("failed to insert campaign %q", campaign.ID.Hex()))
	}
	return nil
}

func (r *mongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*entities.Campaign, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id.Hex())
}

func (r *mongoRepository) GetByLegacyID(ctx context.Context, legacyID string) (*entities.Campaign, error) {
	if legacyID == "" {
		return nil, rerr.InvalidArgument("legacy ID cannot be empty")
	}
	return r.findOne(ctx, bson.M{"legacyId": legacyID}, legacyID)
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M, ref string) (*entities.Campaign, error) {
	var campaign entities.Campaign
	err := r.collection.FindOne(ctx, filter).Decode(&campaign)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rerr.NotFoundf("campaign %q not found", ref)
		}
		return nil, rerr.WrapWithCode(err, rerr.CodeStore,
			fmt.Sprintf("failed to get campaign %q", ref))
	}
	return &campaign, nil
}

// Update writes metadata and capacity only; list fields are reserved
// for ApplyTransition and SetPersona.
func (r *mongoRepository) Update(ctx context.Context, campaign *entities.Campaign) error {
	if campaign == nil {
		return rerr.InvalidArgument("campaign cannot be nil")
	}

	update := bson.M{"$set": bson.M{
		"name":        campaign.Name,
		"description": campaign.Description,
		"system":      campaign.System,
		"capacity":    campaign.Capacity,
		"updatedAt":   r.timeProvider.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": campaign.ID}, update)
	if err != nil {
		return rerr.WrapWithCode(err, rerr.CodeStore,
			fmt.Sprintf("failed to update campaign %q", campaign.ID.Hex()))
	}
	if result.MatchedCount == 0 {
		return rerr.NotFoundf("campaign %q not found", campaign.ID.Hex())
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return rerr.WrapWithCode(err, rerr.CodeStore,
			fmt.Sprintf("failed to delete campaign %q", id.Hex()))
	}
	if result.DeletedCount == 0 {
		return rerr.NotFoundf("campaign %q not found", id.Hex())
	}
	return nil
}

func (r *mongoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Campaign, error) {
	return r.findAll(ctx, bson.M{"ownerId": ownerID})
}

func (r *mongoRepository) ListByPlayer(ctx context.Context, playerID string) ([]*entities.Campaign, error) {
	return r.findAll(ctx, bson.M{"$or": bson.A{
		bson.M{"pending.playerId": playerID},
		bson.M{"confirmed.playerId": playerID},
		bson.M{"waitlisted.playerId": playerID},
	}})
}

func (r *mongoRepository) findAll(ctx context.Context, filter bson.M) ([]*entities.Campaign, error) {
	cur, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, rerr.WrapWithCode(err, rerr.CodeStore, "failed to list campaigns")
	}

	var campaigns []*entities.Campaign
	if err := cur.All(ctx, &campaigns); err != nil {
		return nil, rerr.WrapWithCode(err, rerr.CodeStore, "failed to decode campaigns")
	}
	return campaigns, nil
}

func (r *mongoRepository) ApplyTransition(ctx context.Context, id primitive.ObjectID, removals []ListRemoval, insertions []ListInsertion) (*entities.Campaign, error) {
	update, err := buildTransitionUpdate(removals, insertions, r.timeProvider.Now())
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var campaign entities.Campaign
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&campaign)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rerr.NotFoundf("campaign %q not found", id.Hex())
		}
		return nil, rerr.WrapWithCode(err, rerr.CodeStore,
			fmt.Sprintf("failed to apply roster transition on campaign %q", id.Hex()))
	}
	return &campaign, nil
}

// buildTransitionUpdate folds the removal and insertion sets into one
// update document. Mongo rejects a $pull and $push on the same path, so
// a transition touching one list twice is refused up front.
func buildTransitionUpdate(removals []ListRemoval, insertions []ListInsertion, now time.Time) (bson.M, error) {
	update := bson.M{"$set": bson.M{"updatedAt": now}}

	removedLists := make(map[entities.RosterList]bool)
	if len(removals) > 0 {
		pullsByList := make(map[entities.RosterList][]string)
		for _, rm := range removals {
			if !rm.List.Valid() {
				return nil, rerr.InvalidArgumentf("unknown roster list %q", rm.List)
			}
			removedLists[rm.List] = true
			pullsByList[rm.List] = append(pullsByList[rm.List], rm.PlayerID)
		}

		pulls := bson.M{}
		for list, playerIDs := range pullsByList {
			pulls[string(list)] = bson.M{"playerId": bson.M{"$in": playerIDs}}
		}
		update["$pull"] = pulls
	}

	if len(insertions) > 0 {
		pushesByList := make(map[entities.RosterList][]entities.RosterEntry)
		for _, ins := range insertions {
			if !ins.List.Valid() {
				return nil, rerr.InvalidArgumentf("unknown roster list %q", ins.List)
			}
			if removedLists[ins.List] {
				return nil, rerr.InvalidArgumentf("transition removes from and inserts into list %q", ins.List)
			}
			pushesByList[ins.List] = append(pushesByList[ins.List], ins.Entry)
		}

		pushes := bson.M{}
		for list, entries := range pushesByList {
			pushes[string(list)] = bson.M{"$each": entries}
		}
		update["$push"] = pushes
	}

	return update, nil
}

func (r *mongoRepository) SetPersona(ctx context.Context, id primitive.ObjectID, list entities.RosterList, playerID string, persona *entities.Persona) (*entities.Campaign, error) {
	if !list.Valid() {
		return nil, rerr.InvalidArgumentf("unknown roster list %q", list)
	}

	// The filter requires the player to be present in the list, so the
	// positional update either hits their entry or matches nothing.
	filter := bson.M{
		"_id":                       id,
		string(list) + ".playerId": playerID,
	}

	set := bson.M{"updatedAt": r.timeProvider.Now()}
	personaPath := string(list) + ".$.persona"
	update := bson.M{}
	if persona != nil {
		set[personaPath] = persona
	} else {
		update["$unset"] = bson.M{personaPath: ""}
	}
	update["$set"] = set

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var campaign entities.Campaign
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&campaign)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rerr.NotFoundf("player %q not found on list %q of campaign %q", playerID, list, id.Hex())
		}
		return nil, rerr.WrapWithCode(err, rerr.CodeStore,
			fmt.Sprintf("failed to set persona on campaign %q", id.Hex()))
	}
	return &campaign, nil
}
