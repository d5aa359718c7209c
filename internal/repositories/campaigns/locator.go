package campaigns

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meeplenest/meeplenest/internal/entities"
	rerr "github.com/meeplenest/meeplenest/internal/errors"
)

// Locator resolves an externally supplied campaign identifier to the
// single matching record. The store's identifier format changed over
// the system's lifetime: current records key on an ObjectID while
// records created before the migration are reachable through an opaque
// random-string id kept in a secondary field. The locator absorbs that
// ambiguity so every other component treats identifiers as opaque.
type Locator struct {
	repo Repository
}

// NewLocator creates a locator over the given repository.
func NewLocator(repo Repository) *Locator {
	if repo == nil {
		panic("repository is required")
	}
	return &Locator{repo: repo}
}

// Resolve returns the campaign matching ref, trying the canonical
// ObjectID scheme first and falling back to the legacy scheme when the
// string does not parse or no record is found under it. Read-only;
// never matches more than one record (legacy ids are unique-indexed).
func (l *Locator) Resolve(ctx context.Context, ref string) (*entities.Campaign, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, rerr.InvalidArgument("campaign ID is required")
	}

	if id, parseErr := primitive.ObjectIDFromHex(ref); parseErr == nil {
		campaign, err := l.repo.Get(ctx, id)
		if err == nil {
			return campaign, nil
		}
		if !rerr.IsNotFound(err) {
			return nil, err
		}
		// A 24-hex legacy id is possible; fall through to the
		// secondary lookup before declaring the record gone.
	}

	campaign, err := l.repo.GetByLegacyID(ctx, ref)
	if err != nil {
		if rerr.IsNotFound(err) {
			return nil, rerr.NotFoundf("campaign %q not found", ref)
		}
		return nil, err
	}
	return campaign, nil
}
