package entities

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RosterList identifies one of a campaign's membership lists.
type RosterList string

const (
	ListPending    RosterList = "pending"    // awaiting host decision
	ListConfirmed  RosterList = "confirmed"  // holding one of the limited slots
	ListWaitlisted RosterList = "waitlisted" // approved past capacity
)

// Valid reports whether l names a known roster list.
func (l RosterList) Valid() bool {
	switch l {
	case ListPending, ListConfirmed, ListWaitlisted:
		return true
	}
	return false
}

// Persona is the character a player has attached to their roster entry.
// It is opaque to the roster core beyond travelling with the player
// whenever they move between lists.
type Persona struct {
	CharacterID string `bson:"characterId" json:"character_id"`
	Name        string `bson:"name" json:"name"`
}

// RosterEntry is a single player's slot on one of the campaign lists.
type RosterEntry struct {
	PlayerID string    `bson:"playerId" json:"player_id"`
	Persona  *Persona  `bson:"persona,omitempty" json:"persona,omitempty"`
	AddedAt  time.Time `bson:"addedAt" json:"added_at"`
}

// Campaign is the bookable session series a host runs, with its player
// roster. List membership is mutated only through atomic store
// transitions; a player appears in at most one list at a time and the
// host never appears in any list.
type Campaign struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LegacyID    string             `bson:"legacyId,omitempty" json:"legacy_id,omitempty"`
	OwnerID     string             `bson:"ownerId" json:"owner_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	System      string             `bson:"system,omitempty" json:"system,omitempty"` // game system, e.g. "dnd5e"
	Capacity    int                `bson:"capacity" json:"capacity"`
	Pending     []RosterEntry      `bson:"pending" json:"pending"`
	Confirmed   []RosterEntry      `bson:"confirmed" json:"confirmed"`
	Waitlisted  []RosterEntry      `bson:"waitlisted" json:"waitlisted"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

// NewCampaign creates a campaign with empty roster lists.
func NewCampaign(id primitive.ObjectID, legacyID, name, ownerID string, capacity int) *Campaign {
	now := time.Now().UTC()
	return &Campaign{
		ID:         id,
		LegacyID:   legacyID,
		Name:       name,
		OwnerID:    ownerID,
		Capacity:   capacity,
		Pending:    []RosterEntry{},
		Confirmed:  []RosterEntry{},
		Waitlisted: []RosterEntry{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Roster returns the entries of the named list. The returned slice is
// the campaign's own backing array; callers must not mutate it.
func (c *Campaign) Roster(list RosterList) []RosterEntry {
	switch list {
	case ListPending:
		return c.Pending
	case ListConfirmed:
		return c.Confirmed
	case ListWaitlisted:
		return c.Waitlisted
	}
	return nil
}

// Membership reports which list currently holds the player, if any.
func (c *Campaign) Membership(playerID string) (RosterList, *RosterEntry, bool) {
	for _, list := range []RosterList{ListPending, ListConfirmed, ListWaitlisted} {
		entries := c.Roster(list)
		for i := range entries {
			if entries[i].PlayerID == playerID {
				return list, &entries[i], true
			}
		}
	}
	return "", nil, false
}

// IsOwner reports whether the actor is the hosting owner.
func (c *Campaign) IsOwner(actorID string) bool {
	return c.OwnerID == actorID
}

// IsMember reports whether the player is on any of the three lists.
func (c *Campaign) IsMember(playerID string) bool {
	_, _, ok := c.Membership(playerID)
	return ok
}

// AtCapacity reports whether all confirmed slots are taken.
func (c *Campaign) AtCapacity() bool {
	return len(c.Confirmed) >= c.Capacity
}

// Clone returns a deep copy of the campaign, so callers can hand out
// snapshots without exposing shared list state.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Pending = cloneEntries(c.Pending)
	clone.Confirmed = cloneEntries(c.Confirmed)
	clone.Waitlisted = cloneEntries(c.Waitlisted)
	return &clone
}

func cloneEntries(entries []RosterEntry) []RosterEntry {
	cloned := make([]RosterEntry, len(entries))
	for i, e := range entries {
		cloned[i] = e
		if e.Persona != nil {
			persona := *e.Persona
			cloned[i].Persona = &persona
		}
	}
	return cloned
}
