package campaigns

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meeplenest/meeplenest/internal/entities"
	rerr "github.com/meeplenest/meeplenest/internal/errors"
)

// inMemoryRepository implements Repository with in-process maps. Used
// by tests and as the fallback when no store is configured. It honors
// the same atomicity contract as the Mongo implementation: a transition
// applies under one lock hold or not at all.
type inMemoryRepository struct {
	mu           sync.RWMutex
	campaigns    map[string]*entities.Campaign // hex id -> campaign
	legacyIndex  map[string]string             // legacy id -> hex id
	timeProvider TimeProvider
}

// NewInMemoryRepository creates an in-memory campaign repository.
func NewInMemoryRepository(tp TimeProvider) Repository {
	if tp == nil {
		tp = UTCTimeProvider{}
	}
	return &inMemoryRepository{
		campaigns:    make(map[string]*entities.Campaign),
		legacyIndex:  make(map[string]string),
		timeProvider: tp,
	}
}

func (r *inMemoryRepository) EnsureIndexes(_ context.Context) error {
	return nil
}

func (r *inMemoryRepository) Create(_ context.Context, campaign *entities.Campaign) error {
	if campaign == nil {
		return rerr.InvalidArgument("campaign cannot be nil")
	}
	if campaign.ID.IsZero() {
		return rerr.InvalidArgument("campaign ID cannot be zero")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := campaign.ID.Hex()
	if _, exists := r.campaigns[key]; exists {
		return rerr.New(rerr.CodeStore, fmt.Sprintf("campaign %q already exists", key))
	}
	if campaign.LegacyID != "" {
		if _, exists := r.legacyIndex[campaign.LegacyID]; exists {
			return rerr.New(rerr.CodeStore, fmt.Sprintf("legacy ID %q already in use", campaign.LegacyID))
		}
		r.legacyIndex[campaign.LegacyID] = key
	}

	r.campaigns[key] = campaign.Clone()
	return nil
}

func (r *inMemoryRepository) Get(_ context.Context, id primitive.ObjectID) (*entities.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	campaign, exists := r.campaigns[id.Hex()]
	if !exists {
		return nil, rerr.NotFoundf("campaign %q not found", id.Hex())
	}
	return campaign.Clone(), nil
}

func (r *inMemoryRepository) GetByLegacyID(_ context.Context, legacyID string) (*entities.Campaign, error) {
	if legacyID == "" {
		return nil, rerr.InvalidArgument("legacy ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	key, exists := r.legacyIndex[legacyID]
	if !exists {
		return nil, rerr.NotFoundf("campaign %q not found", legacyID)
	}
	return r.campaigns[key].Clone(), nil
}

func (r *inMemoryRepository) Update(_ context.Context, campaign *entities.Campaign) error {
	if campaign == nil {
		return rerr.InvalidArgument("campaign cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := campaign.ID.Hex()
	existing, exists := r.campaigns[key]
	if !exists {
		return rerr.NotFoundf("campaign %q not found", key)
	}

	// Metadata and capacity only; roster lists stay as stored.
	existing.Name = campaign.Name
	existing.Description = campaign.Description
	existing.System = campaign.System
	existing.Capacity = campaign.Capacity
	existing.UpdatedAt = r.timeProvider.Now()
	return nil
}

func (r *inMemoryRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.Hex()
	campaign, exists := r.campaigns[key]
	if !exists {
		return rerr.NotFoundf("campaign %q not found", key)
	}

	if campaign.LegacyID != "" {
		delete(r.legacyIndex, campaign.LegacyID)
	}
	delete(r.campaigns, key)
	return nil
}

func (r *inMemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]*entities.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entities.Campaign
	for _, campaign := range r.campaigns {
		if campaign.OwnerID == ownerID {
			result = append(result, campaign.Clone())
		}
	}
	return result, nil
}

func (r *inMemoryRepository) ListByPlayer(_ context.Context, playerID string) ([]*entities.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entities.Campaign
	for _, campaign := range r.campaigns {
		if campaign.IsMember(playerID) {
			result = append(result, campaign.Clone())
		}
	}
	return result, nil
}

func (r *inMemoryRepository) ApplyTransition(_ context.Context, id primitive.ObjectID, removals []ListRemoval, insertions []ListInsertion) (*entities.Campaign, error) {
	removedLists := make(map[entities.RosterList]bool)
	for _, rm := range removals {
		if !rm.List.Valid() {
			return nil, rerr.InvalidArgumentf("unknown roster list %q", rm.List)
		}
		removedLists[rm.List] = true
	}
	for _, ins := range insertions {
		if !ins.List.Valid() {
			return nil, rerr.InvalidArgumentf("unknown roster list %q", ins.List)
		}
		if removedLists[ins.List] {
			return nil, rerr.InvalidArgumentf("transition removes from and inserts into list %q", ins.List)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	campaign, exists := r.campaigns[id.Hex()]
	if !exists {
		return nil, rerr.NotFoundf("campaign %q not found", id.Hex())
	}

	for _, rm := range removals {
		setRoster(campaign, rm.List, removeEntry(campaign.Roster(rm.List), rm.PlayerID))
	}
	for _, ins := range insertions {
		setRoster(campaign, ins.List, append(campaign.Roster(ins.List), ins.Entry))
	}
	campaign.UpdatedAt = r.timeProvider.Now()

	return campaign.Clone(), nil
}

func (r *inMemoryRepository) SetPersona(_ context.Context, id primitive.ObjectID, list entities.RosterList, playerID string, persona *entities.Persona) (*entities.Campaign, error) {
	if !list.Valid() {
		return nil, rerr.InvalidArgumentf("unknown roster list %q", list)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	campaign, exists := r.campaigns[id.Hex()]
	if !exists {
		return nil, rerr.NotFoundf("campaign %q not found", id.Hex())
	}

	entries := campaign.Roster(list)
	for i := range entries {
		if entries[i].PlayerID == playerID {
			entries[i].Persona = persona
			campaign.UpdatedAt = r.timeProvider.Now()
			return campaign.Clone(), nil
		}
	}
	return nil, rerr.NotFoundf("player %q not found on list %q of campaign %q", playerID, list, id.Hex())
}

func removeEntry(entries []entities.RosterEntry, playerID string) []entities.RosterEntry {
	filtered := entries[:0:0]
	for _, e := range entries {
		if e.PlayerID != playerID {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func setRoster(campaign *entities.Campaign, list entities.RosterList, entries []entities.RosterEntry) {
	switch list {
	case entities.ListPending:
		campaign.Pending = entries
	case entities.ListConfirmed:
		campaign.Confirmed = entries
	case entities.ListWaitlisted:
		campaign.Waitlisted = entries
	}
}
