package campaigns

//go:generate mockgen -destination=mock/mock_repository.go -package=mockcampaigns -source=repository.go

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meeplenest/meeplenest/internal/entities"
)

// ListRemoval pulls a player out of one roster list.
type ListRemoval struct {
	List     entities.RosterList
	PlayerID string
}

// ListInsertion appends an entry at the tail of one roster list.
type ListInsertion struct {
	List  entities.RosterList
	Entry entities.RosterEntry
}

// Repository persists the Campaign aggregate and provides the atomic
// primitives for roster membership changes. It does not enforce
// business invariants (capacity, single-list membership); those are the
// enrollment service's responsibility, decided from a freshly fetched
// snapshot. Store failures propagate as typed errors with no retries.
type Repository interface {
	// Create inserts a new campaign document
	Create(ctx context.Context, campaign *entities.Campaign) error

	// Get retrieves a campaign by its canonical id
	Get(ctx context.Context, id primitive.ObjectID) (*entities.Campaign, error)

	// GetByLegacyID retrieves a campaign by its pre-migration identifier
	GetByLegacyID(ctx context.Context, legacyID string) (*entities.Campaign, error)

	// Update persists metadata and capacity changes; roster lists are
	// never written through this path
	Update(ctx context.Context, campaign *entities.Campaign) error

	// Delete removes a campaign, discarding all roster state
	Delete(ctx context.Context, id primitive.ObjectID) error

	// ListByOwner retrieves all campaigns hosted by an owner
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Campaign, error)

	// ListByPlayer retrieves all campaigns where the player is on any list
	ListByPlayer(ctx context.Context, playerID string) ([]*entities.Campaign, error)

	// ApplyTransition applies the removals and insertions as a single
	// indivisible document update and returns the updated snapshot. If
	// the campaign does not exist, no partial effect occurs. A single
	// call must never remove from and insert into the same list.
	ApplyTransition(ctx context.Context, id primitive.ObjectID, removals []ListRemoval, insertions []ListInsertion) (*entities.Campaign, error)

	// SetPersona replaces the persona on the player's entry in the named
	// list in one conditional round trip; a nil persona clears it. The
	// update matches only if the player is present in that list.
	SetPersona(ctx context.Context, id primitive.ObjectID, list entities.RosterList, playerID string, persona *entities.Persona) (*entities.Campaign, error)

	// EnsureIndexes creates the store's secondary indexes; a no-op for
	// stores that do not need them
	EnsureIndexes(ctx context.Context) error
}
