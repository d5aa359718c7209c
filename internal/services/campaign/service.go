package campaign

//go:generate mockgen -destination=mock/mock_service.go -package=mockcampaign -source=service.go

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meeplenest/meeplenest/internal/entities"
	rerr "github.com/meeplenest/meeplenest/internal/errors"
	"github.com/meeplenest/meeplenest/internal/lock"
	"github.com/meeplenest/meeplenest/internal/repositories/campaigns"
	"github.com/meeplenest/meeplenest/internal/uuid"
)

// Repository is an alias for the campaign repository interface
type Repository = campaigns.Repository

// Reasons attached to invalid-state errors under Meta["reason"], so
// callers can translate a rejection into an actionable message.
const (
	ReasonAlreadyHost      = "already_host"
	ReasonAlreadyMember    = "already_member"
	ReasonNotPending       = "not_pending"
	ReasonNotAMember       = "not_a_member"
	ReasonOwnerCannotLeave = "owner_cannot_leave"
)

// Service defines the campaign roster service interface. Every
// mutating roster operation fetches a fresh snapshot, validates the
// transition against it, then issues exactly one atomic store mutation
// and returns the updated snapshot.
type Service interface {
	// CreateCampaign creates a new campaign with empty roster lists
	CreateCampaign(ctx context.Context, input *CreateCampaignInput) (*entities.Campaign, error)

	// GetCampaign retrieves a campaign by either identifier scheme
	GetCampaign(ctx context.Context, campaignRef string) (*entities.Campaign, error)

	// UpdateCampaign updates campaign metadata and capacity (owner only)
	UpdateCampaign(ctx context.Context, campaignRef, actorID string, input *UpdateCampaignInput) (*entities.Campaign, error)

	// DeleteCampaign removes a campaign and all its roster state (owner only)
	DeleteCampaign(ctx context.Context, campaignRef, actorID string) error

	// ListOwnerCampaigns lists all campaigns hosted by an owner
	ListOwnerCampaigns(ctx context.Context, ownerID string) ([]*entities.Campaign, error)

	// ListPlayerCampaigns lists all campaigns where a player is on any roster list
	ListPlayerCampaigns(ctx context.Context, playerID string) ([]*entities.Campaign, error)

	// RequestJoin places a non-member player on the pending list
	RequestJoin(ctx context.Context, campaignRef, playerID string, persona *entities.Persona) (*entities.Campaign, error)

	// Approve moves a pending player to confirmed, or to waitlisted when
	// the confirmed list is at capacity (owner only)
	Approve(ctx context.Context, campaignRef, actorID, playerID string) (*entities.Campaign, error)

	// Deny removes a pending player's request (owner only)
	Deny(ctx context.Context, campaignRef, actorID, playerID string) (*entities.Campaign, error)

	// Leave removes the player from whichever list currently holds them
	Leave(ctx context.Context, campaignRef, playerID string) (*entities.Campaign, error)

	// Remove evicts a member from the roster with a reason the caller is
	// expected to forward to the removed player (owner only)
	Remove(ctx context.Context, campaignRef, actorID, playerID, reason string) (*RemoveOutput, error)

	// UpdatePersona replaces the persona on the player's current roster entry
	UpdatePersona(ctx context.Context, campaignRef, playerID string, persona *entities.Persona) (*entities.Campaign, error)
}

// CreateCampaignInput contains data for creating a campaign
type CreateCampaignInput struct {
	Name        string
	Description string
	System      string
	OwnerID     string
	Capacity    int
}

// UpdateCampaignInput contains fields that can be updated
type UpdateCampaignInput struct {
	Name        *string
	Description *string
	System      *string
	Capacity    *int
}

// RemoveOutput carries the updated snapshot plus the removal reason so
// the caller can forward it; notification delivery is not this core's
// concern.
type RemoveOutput struct {
	Campaign    *entities.Campaign
	PlayerID    string
	RemovedFrom entities.RosterList
	Reason      string
}

// service implements the Service interface
type service struct {
	repository    Repository
	locator       *campaigns.Locator
	locker        lock.Locker
	uuidGenerator uuid.Generator
	timeProvider  campaigns.TimeProvider
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository    Repository             // Required
	Locator       *campaigns.Locator     // Optional, built over Repository if nil
	Locker        lock.Locker            // Optional; serializes mutations per campaign when set
	UUIDGenerator uuid.Generator         // Optional, will use default if nil
	TimeProvider  campaigns.TimeProvider // Optional, will use UTC wall clock if nil
}

// NewService creates a new campaign roster service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}

	svc := &service{
		repository: cfg.Repository,
		locator:    cfg.Locator,
		locker:     cfg.Locker,
	}

	if svc.locator == nil {
		svc.locator = campaigns.NewLocator(cfg.Repository)
	}
	if cfg.UUIDGenerator != nil {
		svc.uuidGenerator = cfg.UUIDGenerator
	} else {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if cfg.TimeProvider != nil {
		svc.timeProvider = cfg.TimeProvider
	} else {
		svc.timeProvider = campaigns.UTCTimeProvider{}
	}

	return svc
}

// CreateCampaign creates a new campaign with empty roster lists
func (s *service) CreateCampaign(ctx context.Context, input *CreateCampaignInput) (*entities.Campaign, error) {
	if input == nil {
		return nil, rerr.InvalidArgument("input cannot be nil")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, rerr.InvalidArgument("campaign name is required")
	}
	if strings.TrimSpace(input.OwnerID) == "" {
		return nil, rerr.InvalidArgument("owner ID is required")
	}
	if input.Capacity < 1 {
		return nil, rerr.Validation("capacity must be a positive integer")
	}

	// Every record also gets a legacy-scheme id so pre-migration URL
	// formats keep resolving.
	campaign := entities.NewCampaign(primitive.NewObjectID(), s.uuidGenerator.New(), input.Name, input.OwnerID, input.Capacity)
	campaign.Description = input.Description
	campaign.System = input.System
	now := s.timeProvider.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	if err := s.repository.Create(ctx, campaign); err != nil {
		return nil, rerr.Wrap(err, "failed to create campaign").
			WithMeta("campaign_id", campaign.ID.Hex()).
			WithMeta("campaign_name", input.Name)
	}

	return campaign, nil
}

// GetCampaign retrieves a campaign by either identifier scheme
func (s *service) GetCampaign(ctx context.Context, campaignRef string) (*entities.Campaign, error) {
	campaign, err := s.locator.Resolve(ctx, campaignRef)
	if err != nil {
		return nil, rerr.Wrapf(err, "failed to get campaign '%s'", campaignRef).
			WithMeta("campaign_ref", campaignRef)
	}
	return campaign, nil
}

// UpdateCampaign updates campaign metadata and capacity
func (s *service) UpdateCampaign(ctx context.Context, campaignRef, actorID string, input *UpdateCampaignInput) (*entities.Campaign, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, rerr.InvalidArgument("actor ID is required")
	}
	if input == nil {
		return nil, rerr.InvalidArgument("input cannot be nil")
	}

	campaign, release, err := s.snapshotForMutation(ctx, campaignRef)
	if err != nil {
		return nil, err
	}
	defer release()

	if !campaign.IsOwner(actorID) {
		return nil, rerr.Forbidden("only the host can edit the campaign").
			WithMeta("actor_id", actorID).
			WithMeta("campaign_id", campaign.ID.Hex())
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, rerr.Validation("campaign name cannot be empty")
		}
		campaign.Name = *input.Name
	}
	if input.Description != nil {
		campaign.Description = *input.Description
	}
	if input.System != nil {
		campaign.System = *input.System
	}
	if input.Capacity != nil {
		if *input.Capacity < 1 {
			return nil, rerr.Validation("capacity must be a positive integer")
		}
		if *input.Capacity < len(campaign.Confirmed) {
			return nil, rerr.Validation("capacity cannot drop below the confirmed roster size").
				WithMeta("confirmed", len(campaign.Confirmed))
		}
		campaign.Capacity = *input.Capacity
	}

	if err := s.repository.Update(ctx, campaign); err != nil {
		return nil, rerr.Wrap(err, "failed to update campaign").
			WithMeta("campaign_id", campaign.ID.Hex())
	}

	return campaign, nil
}

// DeleteCampaign removes a campaign, discarding all roster state
func (s *service) DeleteCampaign(ctx context.Context, campaignRef, actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return rerr.InvalidArgument("actor ID is required")
	}

	campaign, release, err := s.snapshotForMutation(ctx, campaignRef)
	if err != nil {
		return err
	}
	defer release()

	if !campaign.IsOwner(actorID) {
		return rerr.Forbidden("only the host can delete the campaign").
			WithMeta("actor_id", actorID).
			WithMeta("campaign_id", campaign.ID.Hex())
	}

	if err := s.repository.Delete(ctx, campaign.ID); err != nil {
		return rerr.Wrapf(err, "failed to delete campaign '%s'", campaignRef).
			WithMeta("campaign_id", campaign.ID.Hex())
	}
	return nil
}

// ListOwnerCampaigns lists all campaigns hosted by an owner
func (s *service) ListOwnerCampaigns(ctx context.Context, ownerID string) ([]*entities.Campaign, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, rerr.InvalidArgument("owner ID is required")
	}

	result, err := s.repository.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, rerr.Wrapf(err, "failed to list campaigns for owner '%s'", ownerID).
			WithMeta("owner_id", ownerID)
	}
	return result, nil
}

// ListPlayerCampaigns lists all campaigns where a player is on any roster list
func (s *service) ListPlayerCampaigns(ctx context.Context, playerID string) ([]*entities.Campaign, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, rerr.InvalidArgument("player ID is required")
	}

	result, err := s.repository.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, rerr.Wrapf(err, "failed to list campaigns for player '%s'", playerID).
			WithMeta("player_id", playerID)
	}
	return result, nil
}

// RequestJoin places a non-member player on the pending list
func (s *service) RequestJoin(ctx context.Context, campaignRef, playerID string, persona *entities.Persona) (*entities.Campaign, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, rerr.InvalidArgument("player ID is required")
	}
	if persona != nil && strings.TrimSpace(persona.CharacterID) == "" {
		return nil, rerr.InvalidArgument("persona character ID is required when a persona is given")
	}

	campaign, release, err := s.snapshotForMutation(ctx, campaignRef)
	if err != nil {
		return nil, err
	}
	defer release()

	if campaign.IsOwner(playerID) {
		return nil, rerr.InvalidState("the host cannot join their own campaign").
			WithMeta("reason", ReasonAlreadyHost).
			WithMeta("player_id", playerID)
	}
	if list, _, ok := campaign.Membership(playerID); ok {
		return nil, rerr.InvalidState("player is already on the campaign roster").
			WithMeta("reason", ReasonAlreadyMember).
			WithMeta("current_list", string(list)).
			WithMeta("player_id", playerID)
	}

	entry := entities.RosterEntry{
		PlayerID: playerID,
		Persona:  persona,
		AddedAt:  s.timeProvider.Now(),
	}
	updated, err := s.repository.ApplyTransition(ctx, campaign.ID,
		nil,
		[]campaigns.ListInsertion{{List: entities.ListPending, Entry: entry}})
	if err != nil {
		return nil, rerr.Wrapf(err, "failed to request to join campaign '%s'", campaignRef).
			WithMeta("campaign_id", campaign.ID.Hex()).
			WithMeta("player_id", playerID)
	}
	return updated, nil
}

// Approve resolves a pending request. Capacity is gated at the moment
// of approval, never at request time: a full confirmed list sends the
// player to the waitlist instead.
func (s *service) Approve(ctx context.Context, campaignRef, actorID, playerID string) (*entities.Campaign, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, rerr.InvalidArgument("actor ID is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return nil, rerr.InvalidArgument("player ID is required")
	}

	campaign, release, err := s.snapshotForMutation(ctx, campaignRef)
	if err != nil {
		return nil, err
	}
	defer release()

	if !campaign.IsOwner(actorID) {
		return nil, rerr.Forbidden("only the host can approve join requests").
			WithMeta("actor_id", actorID).
			WithMeta("campaign_id", campaign.ID.Hex())
	}

	list, entry, ok := campaign.Membership(playerID)
	if !ok || list != entities.ListPending {
		reject := rerr.InvalidState("player has no pending join request").
			WithMeta("reason", ReasonNotPending).
			WithMeta("player_id", playerID)
		if ok {
			reject = reject.WithMeta("current_list", string(list))
		}
		return nil, reject
	}

	destination := entities.ListConfirmed
	if campaign.AtCapacity() {
		destination = entities.ListWaitlisted
	}

	moved := entities.RosterEntry{
		PlayerID: playerID,
		Persona:  entry.Persona,
		AddedAt:  s.timeProvider.Now(),
	}
	updated, err := s.repository.ApplyTransition(ctx, campaign.ID,
		[]campaigns.ListRemoval{{List: entities.ListPending, PlayerID: playerID}},
		[]campaigns.ListInsertion{{List: destination, Entry: moved}})
	if err != nil {
		return nil, rerr.Wrapf(err, "failed to approve player '%s'", playerID).
			WithMeta("campaign_id", campaign.ID.Hex()).
			WithMeta("player_id", playerID)
	}
	return updated, nil
}

// Deny removes a pending player's request
func (s *service) Deny(ctx context.Context, campaignRef, actorID, playerID string) (*entities.Campaign, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, rerr.InvalidArgument("actor ID is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return nil, rerr.InvalidArgument("player ID is required")
	}

	campaign, release, err := s.snapshotForMutation(ctx, campaignRef)
	if err != nil {
		return nil, err
	}
	defer release()

	if !campaign.IsOwner(actorID) {
		return nil, rerr.Forbidden("only the host can deny join requests").
			WithMeta("actor_id", actorID).
			WithMeta("campaign_id", campaign.ID.Hex())
	}

	list, _, ok := campaign.Membership(playerID)
	if !ok || list != entities.ListPending {
		reject := rerr.InvalidState("player has no pending join request").
			WithMeta("reason", ReasonNotPending).
			WithMeta("player_id", playerID)
		if ok {
			reject = reject.WithMeta("current_list", string(list))
		}
		return nil, reject
	}

	updated, err := s.repository.ApplyTransition(ctx, campaign.ID,
		[]campaigns.ListRemoval{{List: entities.ListPending, PlayerID: playerID}},
		nil)
	if err != nil {
		return nil, rerr.Wrapf(err, "failed to deny player '%s'", playerID).
			WithMeta("campaign_id", campaign.ID.Hex()).
			WithMeta("player_id", playerID)
	}
	return updated, nil
}

// Leave removes the player from whichever list currently holds them.
// A freed confirmed slot does not pull from the waitlist; promotion
// requires a fresh host approval.
func (s *service) Leave(ctx context.Context, campaignRef, playerID string) (*entities.Campaign, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, rerr.InvalidArgument("player ID is required")
	}

	campaign, release, err := s.snapshotForMutation(ctx, campaignRef)
	if err != nil {
		return nil, err
	}
	defer release()

	if campaign.IsOwner(playerID) {
		return nil, rerr.InvalidState("the host cannot leave their own campaign").
			WithMeta("reason", ReasonOwnerCannotLeave).
			WithMeta("player_id", playerID)
	}

	list, _, ok := campaign.Membership(playerID)
	if !ok {
		return nil, rerr.InvalidState("player is not on the campaign roster").
			WithMeta("reason", ReasonNotAMember).
			WithMeta("player_id", playerID)
	}

	updated, err := s.repository.ApplyTransition(ctx, campaign.ID,
		[]campaigns.ListRemoval{{List: list, PlayerID: playerID}},
		nil)
	if err != nil {
		return nil, rerr.Wrapf(err, "failed to remove player '%s' from campaign '%s'", playerID, campaignRef).
			WithMeta("campaign_id", campaign.ID.Hex()).
			WithMeta("player_id", playerID)
	}
	return updated, nil
}

// Remove evicts a member from the roster with a reason
func (s *service) Remove(ctx context.Context, campaignRef, actorID, playerID, reason string) (*RemoveOutput, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, rerr.InvalidArgument("actor ID is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return nil, rerr.InvalidArgument("player ID is required")
	}
	// Rejected before any store call; the reason is surfaced to the
	// removed player.
	if strings.TrimSpace(reason) == "" {
		return nil, rerr.Validation("a removal reason is required").
			WithMeta("player_id", playerID)
	}

	campaign, release, err := s.snapshotForMutation(ctx, campaignRef)
	if err != nil {
		return nil, err
	}
	defer release()

	if !campaign.IsOwner(actorID) {
		return nil, rerr.Forbidden("only the host can remove players").
			WithMeta("actor_id", actorID).
			WithMeta("campaign_id", campaign.ID.Hex())
	}

	list, _, ok := campaign.Membership(playerID)
	if !ok {
		return nil, rerr.InvalidState("player is not on the campaign roster").
			WithMeta("reason", ReasonNotAMember).
			WithMeta("player_id", playerID)
	}

	updated, err := s.repository.ApplyTransition(ctx, campaign.ID,
		[]campaigns.ListRemoval{{List: list, PlayerID: playerID}},
		nil)
	if err != nil {
		return nil, rerr.Wrapf(err, "failed to remove player '%s'", playerID).
			WithMeta("campaign_id", campaign.ID.Hex()).
			WithMeta("player_id", playerID)
	}

	return &RemoveOutput{
		Campaign:    updated,
		PlayerID:    playerID,
		RemovedFrom: list,
		Reason:      reason,
	}, nil
}

// UpdatePersona replaces the persona on the player's current roster entry
func (s *service) UpdatePersona(ctx context.Context, campaignRef, playerID string, persona *entities.Persona) (*entities.Campaign, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, rerr.InvalidArgument("player ID is required")
	}
	if persona != nil && strings.TrimSpace(persona.CharacterID) == "" {
		return nil, rerr.InvalidArgument("persona character ID is required when a persona is given")
	}

	campaign, release, err := s.snapshotForMutation(ctx, campaignRef)
	if err != nil {
		return nil, err
	}
	defer release()

	list, _, ok := campaign.Membership(playerID)
	if !ok {
		return nil, rerr.InvalidState("player is not on the campaign roster").
			WithMeta("reason", ReasonNotAMember).
			WithMeta("player_id", playerID)
	}

	updated, err := s.repository.SetPersona(ctx, campaign.ID, list, playerID, persona)
	if err != nil {
		return nil, rerr.Wrapf(err, "failed to update persona for player '%s'", playerID).
			WithMeta("campaign_id", campaign.ID.Hex()).
			WithMeta("player_id", playerID)
	}
	return updated, nil
}

// snapshotForMutation resolves the campaign and, when a locker is
// configured, takes the per-campaign lock and re-fetches so the
// decision snapshot is current under the lock. Without a locker the
// narrow fetch-to-apply race window remains; callers must treat
// mutations as non-idempotent and re-derive state before retrying.
func (s *service) snapshotForMutation(ctx context.Context, campaignRef string) (*entities.Campaign, lock.ReleaseFunc, error) {
	campaign, err := s.locator.Resolve(ctx, campaignRef)
	if err != nil {
		return nil, nil, rerr.Wrapf(err, "failed to get campaign '%s'", campaignRef).
			WithMeta("campaign_ref", campaignRef)
	}

	if s.locker == nil {
		return campaign, func() {}, nil
	}

	release, err := s.locker.Acquire(ctx, campaign.ID.Hex())
	if err != nil {
		return nil, nil, rerr.Wrapf(err, "failed to lock campaign '%s'", campaignRef).
			WithMeta("campaign_id", campaign.ID.Hex())
	}

	campaign, err = s.repository.Get(ctx, campaign.ID)
	if err != nil {
		release()
		return nil, nil, rerr.Wrapf(err, "failed to get campaign '%s'", campaignRef).
			WithMeta("campaign_ref", campaignRef)
	}
	return campaign, release, nil
}
